package service

import (
	"context"

	"github.com/and161185/chunkhub/internal/model"
	"github.com/and161185/chunkhub/internal/repository"
)

// ProjectService builds the public project page of a modpack.
type ProjectService interface {
	// Detail composes modpack, author, versions and download stats. It never
	// changes a counter.
	Detail(ctx context.Context, callerID int64, slug string) (*model.ProjectDetail, error)
}

type ProjectServiceImpl struct {
	packs    repository.ModpackRepository
	versions repository.VersionRepository
	users    repository.UserRepository
}

// NewProjectService constructs ProjectService.
func NewProjectService(packs repository.ModpackRepository, versions repository.VersionRepository,
	users repository.UserRepository) *ProjectServiceImpl {
	return &ProjectServiceImpl{packs: packs, versions: versions, users: users}
}

func (s *ProjectServiceImpl) Detail(ctx context.Context, callerID int64, slug string) (*model.ProjectDetail, error) {
	m, err := loadVisible(ctx, s.packs, callerID, slug, "Project not found")
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetByID(ctx, m.AuthorID)
	if err != nil {
		return nil, err
	}
	versions, err := s.versions.List(ctx, m.ID, false)
	if err != nil {
		return nil, err
	}

	var sum int64
	for _, v := range versions {
		sum += v.Downloads
	}
	return &model.ProjectDetail{
		Modpack:  *m,
		Author:   model.AuthorInfo{ID: author.ID, Username: author.Username},
		Versions: versions,
		Stats:    model.DownloadStats{TotalDownloads: m.Downloads, VersionDownloads: sum},
	}, nil
}
