package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/model"
	"github.com/and161185/chunkhub/internal/repository"
	"github.com/and161185/chunkhub/internal/storage"
)

// UploadPrefix is the URL prefix under which stored artifacts are served.
const UploadPrefix = "/uploads/"

// DefaultMaxFileSize is the upload ceiling when none is configured.
const DefaultMaxFileSize int64 = 500 << 20

var allowedExt = map[string]bool{".zip": true, ".mrpack": true}

// UploadService attaches artifact files to versions.
type UploadService interface {
	// Upload streams body into storage as the artifact of slug/label.
	Upload(ctx context.Context, callerID int64, slug, label, filename string, body io.Reader) (model.UploadResult, error)
	// Delete removes the artifact and clears the version's file reference.
	Delete(ctx context.Context, callerID int64, slug, label string) error
}

type UploadServiceImpl struct {
	packs    repository.ModpackRepository
	versions repository.VersionRepository
	store    storage.Store
	maxSize  int64
	log      *zap.Logger
}

// NewUploadService constructs UploadService. maxSize <= 0 selects DefaultMaxFileSize.
func NewUploadService(packs repository.ModpackRepository, versions repository.VersionRepository,
	store storage.Store, maxSize int64, log *zap.Logger) *UploadServiceImpl {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UploadServiceImpl{packs: packs, versions: versions, store: store, maxSize: maxSize, log: log}
}

// Upload checks, in order: modpack exists, caller is the author, extension
// is allowed, version exists. The body is not read before all checks pass.
func (s *UploadServiceImpl) Upload(ctx context.Context, callerID int64, slug, label, filename string, body io.Reader) (model.UploadResult, error) {
	m, err := loadOwned(ctx, s.packs, callerID, slug, "upload files for")
	if err != nil {
		return model.UploadResult{}, err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return model.UploadResult{}, errs.New(errs.ErrInvalidFileType, "Only .zip and .mrpack files are allowed")
	}
	v, err := s.versions.Get(ctx, m.ID, label)
	if errors.Is(err, errs.ErrNotFound) {
		return model.UploadResult{}, errs.New(errs.ErrNotFound, "Version not found")
	}
	if err != nil {
		return model.UploadResult{}, err
	}

	name := artifactName(m.Slug, v.Version, ext)
	if err := storage.ValidName(name); err != nil {
		return model.UploadResult{}, err
	}
	obj, err := s.store.Put(ctx, name, body, s.maxSize)
	switch {
	case errors.Is(err, errs.ErrFileTooLarge):
		return model.UploadResult{}, errs.New(errs.ErrFileTooLarge,
			fmt.Sprintf("File too large. Maximum size is %dMB", s.maxSize>>20))
	case err != nil:
		return model.UploadResult{}, fmt.Errorf("store %s: %w: %w", name, errs.ErrStorage, err)
	}

	url := UploadPrefix + name
	if err := s.versions.SetFile(ctx, v.ID, &url, &obj.Size); err != nil {
		// the row still references the object when it was overwritten in place
		if v.DownloadURL == nil || *v.DownloadURL != url {
			if derr := s.store.Delete(ctx, name); derr != nil {
				s.log.Warn("remove orphaned upload", zap.String("object", name), zap.Error(derr))
			}
		}
		return model.UploadResult{}, fmt.Errorf("record upload %s: %w: %w", name, errs.ErrStorage, err)
	}

	// an earlier artifact with another extension is now unreferenced
	if v.DownloadURL != nil {
		if prev, ok := ownedObject(m.Slug, v.Version, *v.DownloadURL); ok && prev != name {
			if err := s.store.Delete(ctx, prev); err != nil {
				s.log.Warn("remove replaced upload", zap.String("object", prev), zap.Error(err))
			}
		}
	}

	s.log.Info("artifact uploaded",
		zap.String("slug", m.Slug), zap.String("version", v.Version),
		zap.Int64("size", obj.Size), zap.String("sha256", obj.SHA256))
	return model.UploadResult{Filename: name, Size: obj.Size, Hash: obj.SHA256, DownloadURL: url}, nil
}

// Delete keeps the version row and only drops its file.
func (s *UploadServiceImpl) Delete(ctx context.Context, callerID int64, slug, label string) error {
	m, err := loadOwned(ctx, s.packs, callerID, slug, "delete files for")
	if err != nil {
		return err
	}
	v, err := s.versions.Get(ctx, m.ID, label)
	if errors.Is(err, errs.ErrNotFound) {
		return errs.New(errs.ErrNotFound, "Version not found")
	}
	if err != nil {
		return err
	}
	if v.DownloadURL == nil {
		return errs.New(errs.ErrNotFound, "File not found")
	}
	if name, ok := ownedObject(m.Slug, v.Version, *v.DownloadURL); ok {
		if err := s.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete %s: %w: %w", name, errs.ErrStorage, err)
		}
	}
	return s.versions.SetFile(ctx, v.ID, nil, nil)
}

func artifactName(slug, label, ext string) string { return slug + "-" + label + ext }

// ownedObject returns the object name behind url when url is exactly the one
// Upload produces for slug and label.
func ownedObject(slug, label, url string) (string, bool) {
	name, ok := strings.CutPrefix(url, UploadPrefix)
	if !ok || storage.ValidName(name) != nil {
		return "", false
	}
	for ext := range allowedExt {
		if name == artifactName(slug, label, ext) {
			return name, true
		}
	}
	return "", false
}
