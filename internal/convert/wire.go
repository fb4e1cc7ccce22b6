// Package convert maps domain models to and from the REST wire documents.
package convert

import (
	"github.com/and161185/chunkhub/internal/api"
	"github.com/and161185/chunkhub/internal/model"
)

// UploadedMessage acknowledges a stored artifact.
const UploadedMessage = "File uploaded successfully"

// ToAPIUser drops credential material.
func ToAPIUser(u model.User) api.User {
	return api.User{ID: u.ID, Username: u.Username, Email: u.Email, IsActive: u.IsActive, CreatedAt: u.CreatedAt}
}

func ToAPIToken(t model.Tokens) api.Token {
	return api.Token{AccessToken: t.AccessToken, TokenType: "bearer", ExpiresAt: t.ExpiresAt}
}

func ToAPIModpack(m model.Modpack) api.Modpack {
	return api.Modpack{
		ID:               m.ID,
		Name:             m.Name,
		Slug:             m.Slug,
		Description:      m.Description,
		MCVersion:        m.MCVersion,
		Loader:           m.Loader,
		LoaderVersion:    m.LoaderVersion,
		RecommendedRAMGB: m.RecommendedRAMGB,
		Downloads:        m.Downloads,
		IsPublished:      m.IsPublished,
		AuthorID:         m.AuthorID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// ToAPIModpacks never returns nil so empty lists encode as [].
func ToAPIModpacks(ms []model.Modpack) []api.Modpack {
	out := make([]api.Modpack, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToAPIModpack(m))
	}
	return out
}

func ToAPIVersion(v model.ModpackVersion) api.Version {
	return api.Version{
		ID:            v.ID,
		ModpackID:     v.ModpackID,
		Version:       v.Version,
		MCVersion:     v.MCVersion,
		Loader:        v.Loader,
		LoaderVersion: v.LoaderVersion,
		Changelog:     v.Changelog,
		DownloadURL:   v.DownloadURL,
		FileSize:      v.FileSize,
		Downloads:     v.Downloads,
		IsStable:      v.IsStable,
		CreatedAt:     v.CreatedAt,
	}
}

func ToAPIVersions(vs []model.ModpackVersion) []api.Version {
	out := make([]api.Version, 0, len(vs))
	for _, v := range vs {
		out = append(out, ToAPIVersion(v))
	}
	return out
}

func ToAPIProject(d model.ProjectDetail) api.ProjectDetail {
	return api.ProjectDetail{
		Modpack:  ToAPIModpack(d.Modpack),
		Author:   api.AuthorInfo{ID: d.Author.ID, Username: d.Author.Username},
		Versions: ToAPIVersions(d.Versions),
		DownloadStats: api.DownloadStats{
			TotalDownloads:   d.Stats.TotalDownloads,
			VersionDownloads: d.Stats.VersionDownloads,
		},
	}
}

func ToAPIUpload(r model.UploadResult) api.UploadResult {
	return api.UploadResult{
		Message:     UploadedMessage,
		Filename:    r.Filename,
		Size:        r.Size,
		Hash:        r.Hash,
		DownloadURL: r.DownloadURL,
	}
}

func FromAPIModpackCreate(in api.ModpackCreate) model.NewModpack {
	return model.NewModpack{
		Name:             in.Name,
		Description:      in.Description,
		MCVersion:        in.MCVersion,
		Loader:           in.Loader,
		LoaderVersion:    in.LoaderVersion,
		RecommendedRAMGB: in.RecommendedRAMGB,
	}
}

func FromAPIVersionCreate(in api.VersionCreate) model.NewVersion {
	return model.NewVersion{
		Version:       in.Version,
		MCVersion:     in.MCVersion,
		Loader:        in.Loader,
		LoaderVersion: in.LoaderVersion,
		Changelog:     in.Changelog,
		DownloadURL:   in.DownloadURL,
		FileSize:      in.FileSize,
		IsStable:      in.IsStable,
	}
}
