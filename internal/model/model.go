// Package model defines domain entities used by services and repositories.
package model

import (
	"encoding/json"
	"time"
)

// Tokens collects an issued access token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account. The credential hash is never serialized outward.
type User struct {
	ID        int64  // PK, assigned by the store
	Username  string // unique
	Email     string // unique
	PwdHash   []byte // Argon2id(password, PwdSalt)
	PwdSalt   []byte // per-user salt
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// AuthorInfo is the public summary of a modpack author.
type AuthorInfo struct {
	ID       int64
	Username string
}

// Modpack is a project record owned by one author.
type Modpack struct {
	ID               int64
	Name             string
	Slug             string // unique, immutable
	Description      *string
	MCVersion        string
	Loader           string
	LoaderVersion    *string
	RecommendedRAMGB int
	Downloads        int64
	IsPublished      bool
	AuthorID         int64
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

// VisibleTo reports whether caller may see the modpack. Unpublished packs are
// visible to their author only; callerID 0 is anonymous.
func (m *Modpack) VisibleTo(callerID int64) bool {
	return m.IsPublished || (callerID != 0 && m.AuthorID == callerID)
}

// NewModpack carries creation input for a modpack.
type NewModpack struct {
	Name             string
	Description      *string
	MCVersion        string
	Loader           string
	LoaderVersion    *string
	RecommendedRAMGB *int // nil selects the default
}

// Opt marks a field that was explicitly present in a partial update.
// A JSON null sets Null and leaves Val at its zero value.
type Opt[T any] struct {
	Set  bool
	Null bool
	Val  T
}

// Some returns an Opt holding v.
func Some[T any](v T) Opt[T] { return Opt[T]{Set: true, Val: v} }

// UnmarshalJSON implements json.Unmarshaler; it only runs for keys present in the document.
func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Val)
}

// ModpackPatch describes a partial modpack update; unset fields are left untouched.
type ModpackPatch struct {
	Name             Opt[string] `json:"name"`
	Description      Opt[string] `json:"description"`
	MCVersion        Opt[string] `json:"mc_version"`
	Loader           Opt[string] `json:"loader"`
	LoaderVersion    Opt[string] `json:"loader_version"`
	RecommendedRAMGB Opt[int]    `json:"recommended_ram_gb"`
	IsPublished      Opt[bool]   `json:"is_published"`
}

// Empty reports whether the patch changes nothing.
func (p ModpackPatch) Empty() bool {
	return !p.Name.Set && !p.Description.Set && !p.MCVersion.Set && !p.Loader.Set &&
		!p.LoaderVersion.Set && !p.RecommendedRAMGB.Set && !p.IsPublished.Set
}

// ModpackFilter selects modpacks for listing. Predicates are conjunctive.
type ModpackFilter struct {
	MCVersion     string // empty = any
	Loader        string // empty = any
	PublishedOnly bool
	CallerID      int64 // owner whose unpublished packs may be included when !PublishedOnly
	Skip          int
	Limit         int
}

// SearchQuery is a free-text search over published modpacks.
type SearchQuery struct {
	Q         string
	MCVersion string
	Loader    string
	Skip      int
	Limit     int
}

// ModpackVersion is a release scoped to one modpack.
type ModpackVersion struct {
	ID            int64
	ModpackID     int64
	Version       string // unique within ModpackID
	MCVersion     string
	Loader        string
	LoaderVersion *string
	Changelog     *string
	DownloadURL   *string
	FileSize      *int64
	Downloads     int64
	IsStable      bool
	CreatedAt     time.Time
}

// NewVersion carries creation input for a version.
type NewVersion struct {
	Version       string
	MCVersion     string
	Loader        string
	LoaderVersion *string
	Changelog     *string
	DownloadURL   *string
	FileSize      *int64
	IsStable      *bool // nil selects stable
}

// UploadResult reports a stored artifact. Hash is returned to the client only.
type UploadResult struct {
	Filename    string
	Size        int64
	Hash        string // hex SHA-256
	DownloadURL string
}

// DownloadStats aggregates counters for a project page.
type DownloadStats struct {
	TotalDownloads   int64 // modpack-level counter
	VersionDownloads int64 // sum of per-version counters
}

// ProjectDetail is the denormalized public view of a modpack.
type ProjectDetail struct {
	Modpack  Modpack
	Author   AuthorInfo
	Versions []ModpackVersion // created_at DESC, id DESC
	Stats    DownloadStats
}
