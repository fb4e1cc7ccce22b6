package httpserver

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/model"
	"github.com/and161185/chunkhub/internal/storage"
)

// fakeAuth accepts "good" as alice's token and "sleepy" as an inactive user.
type fakeAuth struct {
	registered []string
	loginIP    string
	loginErr   error
}

var (
	alice = &model.User{ID: 1, Username: "alice", Email: "alice@example.com", IsActive: true, CreatedAt: time.Unix(0, 0).UTC()}
	bob   = &model.User{ID: 2, Username: "bob", Email: "bob@example.com", IsActive: true}
)

func (f *fakeAuth) Register(_ context.Context, username, email, _ string) (*model.User, error) {
	if username == "alice" {
		return nil, errs.New(errs.ErrAlreadyExists, "Username already registered")
	}
	f.registered = append(f.registered, username)
	return &model.User{ID: 3, Username: username, Email: email, IsActive: true}, nil
}

func (f *fakeAuth) LoginWithIP(_ context.Context, username, password, ip string) (model.Tokens, model.User, error) {
	f.loginIP = ip
	if f.loginErr != nil {
		return model.Tokens{}, model.User{}, f.loginErr
	}
	if username != "alice" || password != "password1" {
		return model.Tokens{}, model.User{}, errs.New(errs.ErrUnauthorized, "Incorrect username or password")
	}
	return model.Tokens{AccessToken: "good", ExpiresAt: time.Unix(1700000000, 0).UTC()}, *alice, nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*model.User, error) {
	switch token {
	case "good":
		return alice, nil
	case "bob":
		return bob, nil
	case "sleepy":
		return nil, errs.New(errs.ErrInvalidInput, "Inactive user")
	}
	return nil, errs.New(errs.ErrUnauthorized, "Could not validate credentials")
}

// fakeModpacks records its inputs and answers from fixed data.
type fakeModpacks struct {
	mu         sync.Mutex
	lastCaller int64
	lastFilter model.ModpackFilter
	lastSearch model.SearchQuery
	lastPatch  model.ModpackPatch
	deleted    []string
	packs      map[string]*model.Modpack
	panicOnGet bool
	err        error
}

func (f *fakeModpacks) Create(_ context.Context, callerID int64, in model.NewModpack) (*model.Modpack, error) {
	f.lastCaller = callerID
	if f.err != nil {
		return nil, f.err
	}
	return &model.Modpack{ID: 10, Name: in.Name, Slug: "my-pack", MCVersion: in.MCVersion, Loader: in.Loader, AuthorID: callerID, RecommendedRAMGB: 4}, nil
}

func (f *fakeModpacks) List(_ context.Context, callerID int64, fl model.ModpackFilter) ([]model.Modpack, error) {
	f.lastCaller, f.lastFilter = callerID, fl
	return nil, f.err
}

func (f *fakeModpacks) Search(_ context.Context, q model.SearchQuery) ([]model.Modpack, error) {
	f.lastSearch = q
	return []model.Modpack{{ID: 1, Slug: "hit"}}, f.err
}

func (f *fakeModpacks) Get(_ context.Context, callerID int64, slug string) (*model.Modpack, error) {
	if f.panicOnGet {
		panic("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCaller = callerID
	m, ok := f.packs[slug]
	if !ok || !m.VisibleTo(callerID) {
		return nil, errs.New(errs.ErrNotFound, "Modpack not found")
	}
	m.Downloads++
	cp := *m
	return &cp, nil
}

func (f *fakeModpacks) Update(_ context.Context, callerID int64, slug string, p model.ModpackPatch) (*model.Modpack, error) {
	f.lastCaller, f.lastPatch = callerID, p
	m, ok := f.packs[slug]
	if !ok {
		return nil, errs.New(errs.ErrNotFound, "Modpack not found")
	}
	if m.AuthorID != callerID {
		return nil, errs.New(errs.ErrForbidden, "Not authorized to update this modpack")
	}
	if p.Name.Set {
		m.Name = p.Name.Val
	}
	return m, nil
}

func (f *fakeModpacks) Delete(_ context.Context, callerID int64, slug string) error {
	f.lastCaller = callerID
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, slug)
	return nil
}

type fakeVersions struct {
	latestCalls []bool
	getLabel    string
	listStable  bool
}

func (f *fakeVersions) Create(_ context.Context, _ int64, _ string, in model.NewVersion) (*model.ModpackVersion, error) {
	if in.Version == "1.0.0" {
		return nil, errs.New(errs.ErrAlreadyExists, "Version already exists")
	}
	return &model.ModpackVersion{ID: 7, Version: in.Version, IsStable: true}, nil
}

func (f *fakeVersions) List(_ context.Context, _ int64, _ string, stableOnly bool) ([]model.ModpackVersion, error) {
	f.listStable = stableOnly
	return nil, nil
}

func (f *fakeVersions) Get(_ context.Context, _ int64, _, label string) (*model.ModpackVersion, error) {
	f.getLabel = label
	return &model.ModpackVersion{ID: 5, Version: label, Downloads: 1}, nil
}

func (f *fakeVersions) Latest(_ context.Context, _ int64, _ string, stableOnly bool) (*model.ModpackVersion, error) {
	f.latestCalls = append(f.latestCalls, stableOnly)
	return &model.ModpackVersion{ID: 9, Version: "2.0.0"}, nil
}

type fakeUploads struct {
	slug, label, filename string
	body                  []byte
	err                   error
	deleted               bool
}

func (f *fakeUploads) Upload(_ context.Context, _ int64, slug, label, filename string, body io.Reader) (model.UploadResult, error) {
	if f.err != nil {
		return model.UploadResult{}, f.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return model.UploadResult{}, err
	}
	f.slug, f.label, f.filename, f.body = slug, label, filename, b
	return model.UploadResult{Filename: slug + "-" + label + ".zip", Size: int64(len(b)), Hash: "abc", DownloadURL: "/uploads/" + slug + "-" + label + ".zip"}, nil
}

func (f *fakeUploads) Delete(context.Context, int64, string, string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = true
	return nil
}

type fakeProjects struct{}

func (fakeProjects) Detail(_ context.Context, _ int64, slug string) (*model.ProjectDetail, error) {
	if slug != "pack" {
		return nil, errs.New(errs.ErrNotFound, "Modpack not found")
	}
	return &model.ProjectDetail{
		Modpack: model.Modpack{ID: 1, Slug: "pack", IsPublished: true, Downloads: 3},
		Author:  model.AuthorInfo{ID: 1, Username: "alice"},
		Stats:   model.DownloadStats{TotalDownloads: 3, VersionDownloads: 2},
	}, nil
}

type memStore struct{ objects map[string][]byte }

func (m memStore) Put(context.Context, string, io.Reader, int64) (storage.Object, error) {
	return storage.Object{}, nil
}

func (m memStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	b, ok := m.objects[name]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m memStore) Delete(context.Context, string) error { return nil }

// denyAll refuses every request after the first n.
type denyAll struct {
	n   int
	err error
}

func (d *denyAll) Take(context.Context, string) (bool, time.Duration, error) {
	if d.err != nil {
		return false, 0, d.err
	}
	if d.n > 0 {
		d.n--
		return true, 0, nil
	}
	return false, 1500 * time.Millisecond, nil
}
