package service

import (
	"context"
	"errors"
	"strings"

	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/model"
	"github.com/and161185/chunkhub/internal/repository"
)

// VersionService defines the version ledger of a modpack.
type VersionService interface {
	// Create adds a release; author only, labels unique per modpack.
	Create(ctx context.Context, callerID int64, slug string, in model.NewVersion) (*model.ModpackVersion, error)
	// List returns releases newest first.
	List(ctx context.Context, callerID int64, slug string, stableOnly bool) ([]model.ModpackVersion, error)
	// Get returns one release and counts the fetch as a download.
	Get(ctx context.Context, callerID int64, slug, label string) (*model.ModpackVersion, error)
	// Latest returns the newest release without touching counters.
	Latest(ctx context.Context, callerID int64, slug string, stableOnly bool) (*model.ModpackVersion, error)
}

type VersionServiceImpl struct {
	packs    repository.ModpackRepository
	versions repository.VersionRepository
}

// NewVersionService constructs VersionService.
func NewVersionService(packs repository.ModpackRepository, versions repository.VersionRepository) *VersionServiceImpl {
	return &VersionServiceImpl{packs: packs, versions: versions}
}

// LatestLabel is the path segment that resolves to the newest version.
const LatestLabel = "latest"

var errVersionExists = errs.New(errs.ErrAlreadyExists, "Version already exists")

func (s *VersionServiceImpl) Create(ctx context.Context, callerID int64, slug string, in model.NewVersion) (*model.ModpackVersion, error) {
	m, err := loadOwned(ctx, s.packs, callerID, slug, "create versions for")
	if err != nil {
		return nil, err
	}
	in.Version = strings.TrimSpace(in.Version)
	if in.Version == "" || in.MCVersion == "" || in.Loader == "" {
		return nil, errs.New(errs.ErrInvalidInput, "version, mc_version and loader are required")
	}
	if strings.ContainsAny(in.Version, `/\`) || strings.Contains(in.Version, "..") {
		return nil, errs.New(errs.ErrInvalidInput, "version must not contain path separators")
	}
	if in.Version == LatestLabel {
		return nil, errs.New(errs.ErrInvalidInput, `"latest" is reserved and cannot be used as a version`)
	}
	if err := checkLengths(
		field{"version", in.Version, maxVersionLabelLen},
		field{"mc_version", in.MCVersion, maxPlatformLen},
		field{"loader", in.Loader, maxPlatformLen},
		field{"loader_version", deref(in.LoaderVersion), maxLoaderVersionLen},
		field{"download_url", deref(in.DownloadURL), maxDownloadURLLen},
	); err != nil {
		return nil, err
	}
	// uploaded artifacts are attached through UploadService only
	if in.DownloadURL != nil && strings.HasPrefix(*in.DownloadURL, UploadPrefix) {
		return nil, errs.New(errs.ErrInvalidInput, "download_url under "+UploadPrefix+" is set by uploading a file")
	}

	if _, err := s.versions.Get(ctx, m.ID, in.Version); err == nil {
		return nil, errVersionExists
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	stable := true
	if in.IsStable != nil {
		stable = *in.IsStable
	}
	v := &model.ModpackVersion{
		ModpackID:     m.ID,
		Version:       in.Version,
		MCVersion:     in.MCVersion,
		Loader:        in.Loader,
		LoaderVersion: in.LoaderVersion,
		Changelog:     in.Changelog,
		DownloadURL:   in.DownloadURL,
		FileSize:      in.FileSize,
		IsStable:      stable,
	}
	if err := s.versions.Create(ctx, v); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, errVersionExists
		}
		return nil, err
	}
	return v, nil
}

func (s *VersionServiceImpl) List(ctx context.Context, callerID int64, slug string, stableOnly bool) ([]model.ModpackVersion, error) {
	m, err := loadVisible(ctx, s.packs, callerID, slug, "Modpack not found")
	if err != nil {
		return nil, err
	}
	return s.versions.List(ctx, m.ID, stableOnly)
}

func (s *VersionServiceImpl) Get(ctx context.Context, callerID int64, slug, label string) (*model.ModpackVersion, error) {
	m, err := loadVisible(ctx, s.packs, callerID, slug, "Modpack not found")
	if err != nil {
		return nil, err
	}
	v, err := s.versions.Get(ctx, m.ID, label)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.New(errs.ErrNotFound, "Version not found")
	}
	if err != nil {
		return nil, err
	}
	n, err := s.versions.IncrementDownloads(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	v.Downloads = n
	return v, nil
}

func (s *VersionServiceImpl) Latest(ctx context.Context, callerID int64, slug string, stableOnly bool) (*model.ModpackVersion, error) {
	m, err := loadVisible(ctx, s.packs, callerID, slug, "Modpack not found")
	if err != nil {
		return nil, err
	}
	v, err := s.versions.Latest(ctx, m.ID, stableOnly)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.New(errs.ErrNotFound, "No versions found")
	}
	return v, err
}
