// Package api defines the JSON documents exchanged with the ChunkHub REST API.
package api

import "time"

// Error is the body of every non-2xx response.
type Error struct {
	Detail string `json:"detail"`
}

// Message is a plain acknowledgement.
type Message struct {
	Message string `json:"message"`
}

// Status is returned by the root endpoint.
type Status struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Token is the OAuth2-style password grant response.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ModpackCreate struct {
	Name             string  `json:"name"`
	Description      *string `json:"description,omitempty"`
	MCVersion        string  `json:"mc_version"`
	Loader           string  `json:"loader"`
	LoaderVersion    *string `json:"loader_version,omitempty"`
	RecommendedRAMGB *int    `json:"recommended_ram_gb,omitempty"`
}

type Modpack struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	Description      *string    `json:"description"`
	MCVersion        string     `json:"mc_version"`
	Loader           string     `json:"loader"`
	LoaderVersion    *string    `json:"loader_version"`
	RecommendedRAMGB int        `json:"recommended_ram_gb"`
	Downloads        int64      `json:"downloads"`
	IsPublished      bool       `json:"is_published"`
	AuthorID         int64      `json:"author_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

type VersionCreate struct {
	Version       string  `json:"version"`
	MCVersion     string  `json:"mc_version"`
	Loader        string  `json:"loader"`
	LoaderVersion *string `json:"loader_version,omitempty"`
	Changelog     *string `json:"changelog,omitempty"`
	DownloadURL   *string `json:"download_url,omitempty"`
	FileSize      *int64  `json:"file_size,omitempty"`
	IsStable      *bool   `json:"is_stable,omitempty"`
}

type Version struct {
	ID            int64     `json:"id"`
	ModpackID     int64     `json:"modpack_id"`
	Version       string    `json:"version"`
	MCVersion     string    `json:"mc_version"`
	Loader        string    `json:"loader"`
	LoaderVersion *string   `json:"loader_version"`
	Changelog     *string   `json:"changelog"`
	DownloadURL   *string   `json:"download_url"`
	FileSize      *int64    `json:"file_size"`
	Downloads     int64     `json:"downloads"`
	IsStable      bool      `json:"is_stable"`
	CreatedAt     time.Time `json:"created_at"`
}

type AuthorInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type DownloadStats struct {
	TotalDownloads   int64 `json:"total_downloads"`
	VersionDownloads int64 `json:"version_downloads"`
}

// ProjectDetail flattens the modpack fields next to author, versions and stats.
type ProjectDetail struct {
	Modpack
	Author        AuthorInfo    `json:"author"`
	Versions      []Version     `json:"versions"`
	DownloadStats DownloadStats `json:"download_stats"`
}

type UploadResult struct {
	Message     string `json:"message"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	Hash        string `json:"hash"`
	DownloadURL string `json:"download_url"`
}
