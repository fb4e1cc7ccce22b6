package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/model"
	"github.com/and161185/chunkhub/internal/repository"
	"github.com/and161185/chunkhub/internal/slug"
	"github.com/and161185/chunkhub/internal/storage"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultRAMGB    = 4
)

// ModpackService defines the modpack catalog. callerID 0 means anonymous.
type ModpackService interface {
	// Create registers a new unpublished modpack authored by the caller.
	Create(ctx context.Context, callerID int64, in model.NewModpack) (*model.Modpack, error)
	// List pages through modpacks visible to the caller.
	List(ctx context.Context, callerID int64, f model.ModpackFilter) ([]model.Modpack, error)
	// Search matches published modpacks by name or description.
	Search(ctx context.Context, q model.SearchQuery) ([]model.Modpack, error)
	// Get returns a visible modpack and counts the fetch as a download.
	Get(ctx context.Context, callerID int64, slug string) (*model.Modpack, error)
	// Update applies a partial update; author only.
	Update(ctx context.Context, callerID int64, slug string, p model.ModpackPatch) (*model.Modpack, error)
	// Delete removes the modpack, its versions and their stored files; author only.
	Delete(ctx context.Context, callerID int64, slug string) error
}

type ModpackServiceImpl struct {
	packs repository.ModpackRepository
	store storage.Store
	log   *zap.Logger
}

// NewModpackService constructs ModpackService. A nil logger discards output.
func NewModpackService(packs repository.ModpackRepository, store storage.Store, log *zap.Logger) *ModpackServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &ModpackServiceImpl{packs: packs, store: store, log: log}
}

// Create derives the slug from the name; a taken slug is ErrAlreadyExists.
func (s *ModpackServiceImpl) Create(ctx context.Context, callerID int64, in model.NewModpack) (*model.Modpack, error) {
	if callerID == 0 {
		return nil, errs.ErrUnauthorized
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.MCVersion == "" || in.Loader == "" {
		return nil, errs.New(errs.ErrInvalidInput, "name, mc_version and loader are required")
	}
	if err := checkLengths(
		field{"name", in.Name, maxNameLen},
		field{"mc_version", in.MCVersion, maxPlatformLen},
		field{"loader", in.Loader, maxPlatformLen},
		field{"loader_version", deref(in.LoaderVersion), maxLoaderVersionLen},
	); err != nil {
		return nil, err
	}
	sl := slug.Generate(in.Name)
	if sl == "" {
		return nil, errs.New(errs.ErrInvalidInput, "Name must contain at least one letter or digit")
	}
	ram := DefaultRAMGB
	if in.RecommendedRAMGB != nil {
		ram = *in.RecommendedRAMGB
	}
	if ram <= 0 {
		return nil, errs.New(errs.ErrInvalidInput, "recommended_ram_gb must be positive")
	}

	m := &model.Modpack{
		Name:             in.Name,
		Slug:             sl,
		Description:      in.Description,
		MCVersion:        in.MCVersion,
		Loader:           in.Loader,
		LoaderVersion:    in.LoaderVersion,
		RecommendedRAMGB: ram,
		AuthorID:         callerID,
	}
	if err := s.packs.Create(ctx, m); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, errs.New(errs.ErrAlreadyExists, "Modpack with this name already exists")
		}
		return nil, err
	}
	return m, nil
}

// List applies paging defaults and scopes unpublished rows to the caller.
func (s *ModpackServiceImpl) List(ctx context.Context, callerID int64, f model.ModpackFilter) ([]model.Modpack, error) {
	f.Skip, f.Limit = page(f.Skip, f.Limit)
	f.CallerID = callerID
	return s.packs.List(ctx, f)
}

// Search requires a non-empty query.
func (s *ModpackServiceImpl) Search(ctx context.Context, q model.SearchQuery) ([]model.Modpack, error) {
	q.Q = strings.TrimSpace(q.Q)
	if q.Q == "" {
		return nil, errs.New(errs.ErrInvalidInput, "Search query must not be empty")
	}
	q.Skip, q.Limit = page(q.Skip, q.Limit)
	return s.packs.Search(ctx, q)
}

// Get increments the download counter on every successful fetch.
func (s *ModpackServiceImpl) Get(ctx context.Context, callerID int64, slug string) (*model.Modpack, error) {
	m, err := loadVisible(ctx, s.packs, callerID, slug, "Modpack not found")
	if err != nil {
		return nil, err
	}
	n, err := s.packs.IncrementDownloads(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.Downloads = n
	return m, nil
}

// Update changes only the fields present in p. The slug is never regenerated.
func (s *ModpackServiceImpl) Update(ctx context.Context, callerID int64, slug string, p model.ModpackPatch) (*model.Modpack, error) {
	m, err := loadOwned(ctx, s.packs, callerID, slug, "update")
	if err != nil {
		return nil, err
	}
	if err := validatePatch(p); err != nil {
		return nil, err
	}
	out, err := s.packs.Update(ctx, m.ID, p)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.New(errs.ErrNotFound, "Modpack not found")
	}
	return out, err
}

func validatePatch(p model.ModpackPatch) error {
	switch {
	case p.Name.Null || (p.Name.Set && strings.TrimSpace(p.Name.Val) == ""):
		return errs.New(errs.ErrInvalidInput, "name must not be empty")
	case p.MCVersion.Null || (p.MCVersion.Set && p.MCVersion.Val == ""):
		return errs.New(errs.ErrInvalidInput, "mc_version must not be empty")
	case p.Loader.Null || (p.Loader.Set && p.Loader.Val == ""):
		return errs.New(errs.ErrInvalidInput, "loader must not be empty")
	case p.RecommendedRAMGB.Null || (p.RecommendedRAMGB.Set && p.RecommendedRAMGB.Val <= 0):
		return errs.New(errs.ErrInvalidInput, "recommended_ram_gb must be positive")
	case p.IsPublished.Null:
		return errs.New(errs.ErrInvalidInput, "is_published must not be null")
	}
	return checkLengths(
		field{"name", p.Name.Val, maxNameLen},
		field{"mc_version", p.MCVersion.Val, maxPlatformLen},
		field{"loader", p.Loader.Val, maxPlatformLen},
		field{"loader_version", p.LoaderVersion.Val, maxLoaderVersionLen},
	)
}

// Delete cascades to versions, then drops the uploaded artifacts of those
// versions. File removal is best-effort once the rows are gone.
func (s *ModpackServiceImpl) Delete(ctx context.Context, callerID int64, slug string) error {
	m, err := loadOwned(ctx, s.packs, callerID, slug, "delete")
	if err != nil {
		return err
	}
	files, err := s.packs.Delete(ctx, m.ID)
	if err != nil {
		return err
	}
	for _, v := range files {
		if v.DownloadURL == nil {
			continue
		}
		name, ok := ownedObject(m.Slug, v.Version, *v.DownloadURL)
		if !ok {
			continue
		}
		if err := s.store.Delete(ctx, name); err != nil {
			s.log.Warn("delete artifact", zap.String("slug", slug), zap.String("object", name), zap.Error(err))
		}
	}
	return nil
}

// loadVisible returns the modpack if the caller may read it. Hidden and
// missing modpacks are indistinguishable.
func loadVisible(ctx context.Context, packs repository.ModpackRepository, callerID int64, slug, notFound string) (*model.Modpack, error) {
	m, err := packs.GetBySlug(ctx, slug)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.New(errs.ErrNotFound, notFound)
	}
	if err != nil {
		return nil, err
	}
	if !m.VisibleTo(callerID) {
		return nil, errs.New(errs.ErrNotFound, notFound)
	}
	return m, nil
}

// loadOwned returns the modpack if the caller is its author.
func loadOwned(ctx context.Context, packs repository.ModpackRepository, callerID int64, slug, action string) (*model.Modpack, error) {
	if callerID == 0 {
		return nil, errs.ErrUnauthorized
	}
	m, err := packs.GetBySlug(ctx, slug)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.New(errs.ErrNotFound, "Modpack not found")
	}
	if err != nil {
		return nil, err
	}
	if m.AuthorID != callerID {
		return nil, errs.New(errs.ErrForbidden, "Not authorized to "+action+" this modpack")
	}
	return m, nil
}

func page(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return skip, limit
}
