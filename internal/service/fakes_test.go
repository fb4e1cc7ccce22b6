package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/limiter"
	"github.com/and161185/chunkhub/internal/model"
	"github.com/and161185/chunkhub/internal/repository"
	"github.com/and161185/chunkhub/internal/storage"
)

/************ users ************/

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[int64]*model.User
	nextID int64

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[int64]*model.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, ex := range f.byID {
		if ex.Username == u.Username || ex.Email == u.Email {
			return errs.ErrAlreadyExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cpy := *u
	f.byID[u.ID] = &cpy
	return nil
}

func (f *fakeUsers) find(match func(*model.User) bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ID == id })
}
func (f *fakeUsers) GetByUsername(_ context.Context, name string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Username == name })
}
func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email })
}

/************ modpacks ************/

type fakePacks struct {
	mu       sync.Mutex
	bySlug   map[string]*model.Modpack
	nextID   int64
	versions *fakeVersions // cascade target

	lastFilter model.ModpackFilter
	lastSearch model.SearchQuery
	getErr     error
}

var _ repository.ModpackRepository = (*fakePacks)(nil)

func newFakePacks(v *fakeVersions) *fakePacks {
	return &fakePacks{bySlug: map[string]*model.Modpack{}, versions: v}
}

// put stores a modpack directly and returns its id.
func (f *fakePacks) put(m model.Modpack) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	f.bySlug[m.Slug] = &m
	return m.ID
}

func (f *fakePacks) Create(_ context.Context, m *model.Modpack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bySlug[m.Slug]; ok {
		return errs.ErrAlreadyExists
	}
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now()
	cpy := *m
	f.bySlug[m.Slug] = &cpy
	return nil
}

func (f *fakePacks) GetBySlug(_ context.Context, slug string) (*model.Modpack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.bySlug[slug]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (f *fakePacks) List(_ context.Context, flt model.ModpackFilter) ([]model.Modpack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = flt
	out := []model.Modpack{}
	for _, m := range f.bySlug {
		if flt.MCVersion != "" && m.MCVersion != flt.MCVersion {
			continue
		}
		if flt.Loader != "" && m.Loader != flt.Loader {
			continue
		}
		if !m.IsPublished && (flt.PublishedOnly || m.AuthorID != flt.CallerID) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, flt.Skip, flt.Limit), nil
}

func (f *fakePacks) Search(_ context.Context, q model.SearchQuery) ([]model.Modpack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSearch = q
	needle := strings.ToLower(q.Q)
	out := []model.Modpack{}
	for _, m := range f.bySlug {
		desc := ""
		if m.Description != nil {
			desc = *m.Description
		}
		if m.IsPublished && (strings.Contains(strings.ToLower(m.Name), needle) || strings.Contains(strings.ToLower(desc), needle)) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Downloads != out[j].Downloads {
			return out[i].Downloads > out[j].Downloads
		}
		return out[i].ID < out[j].ID
	})
	return window(out, q.Skip, q.Limit), nil
}

func window[T any](in []T, skip, limit int) []T {
	if skip >= len(in) {
		return []T{}
	}
	in = in[skip:]
	if limit < len(in) {
		in = in[:limit]
	}
	return in
}

func (f *fakePacks) byID(id int64) *model.Modpack {
	for _, m := range f.bySlug {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (f *fakePacks) Update(_ context.Context, id int64, p model.ModpackPatch) (*model.Modpack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.byID(id)
	if m == nil {
		return nil, errs.ErrNotFound
	}
	if p.Name.Set {
		m.Name = p.Name.Val
	}
	if p.Description.Set {
		m.Description = optPtr(p.Description)
	}
	if p.MCVersion.Set {
		m.MCVersion = p.MCVersion.Val
	}
	if p.Loader.Set {
		m.Loader = p.Loader.Val
	}
	if p.LoaderVersion.Set {
		m.LoaderVersion = optPtr(p.LoaderVersion)
	}
	if p.RecommendedRAMGB.Set {
		m.RecommendedRAMGB = p.RecommendedRAMGB.Val
	}
	if p.IsPublished.Set {
		m.IsPublished = p.IsPublished.Val
	}
	now := time.Now()
	m.UpdatedAt = &now
	c := *m
	return &c, nil
}

func optPtr(o model.Opt[string]) *string {
	if o.Null {
		return nil
	}
	v := o.Val
	return &v
}

func (f *fakePacks) Delete(_ context.Context, id int64) ([]model.ModpackVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.byID(id)
	if m == nil {
		return nil, errs.ErrNotFound
	}
	delete(f.bySlug, m.Slug)
	if f.versions == nil {
		return nil, nil
	}
	return f.versions.dropModpack(id), nil
}

func (f *fakePacks) IncrementDownloads(_ context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.byID(id)
	if m == nil {
		return 0, errs.ErrNotFound
	}
	m.Downloads++
	return m.Downloads, nil
}

/************ versions ************/

type fakeVersions struct {
	mu     sync.Mutex
	rows   []*model.ModpackVersion
	nextID int64
	clock  time.Time

	createErr  error
	setFileErr error
}

var _ repository.VersionRepository = (*fakeVersions)(nil)

func newFakeVersions() *fakeVersions {
	return &fakeVersions{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeVersions) Create(_ context.Context, v *model.ModpackVersion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, r := range f.rows {
		if r.ModpackID == v.ModpackID && r.Version == v.Version {
			return errs.ErrAlreadyExists
		}
	}
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	v.ID = f.nextID
	v.CreatedAt = f.clock
	cpy := *v
	f.rows = append(f.rows, &cpy)
	return nil
}

func (f *fakeVersions) find(modpackID int64, label string) *model.ModpackVersion {
	for _, r := range f.rows {
		if r.ModpackID == modpackID && r.Version == label {
			return r
		}
	}
	return nil
}

func (f *fakeVersions) Get(_ context.Context, modpackID int64, label string) (*model.ModpackVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.find(modpackID, label)
	if r == nil {
		return nil, errs.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeVersions) List(_ context.Context, modpackID int64, stableOnly bool) ([]model.ModpackVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ModpackVersion{}
	for _, r := range f.rows {
		if r.ModpackID == modpackID && (!stableOnly || r.IsStable) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeVersions) Latest(ctx context.Context, modpackID int64, stableOnly bool) (*model.ModpackVersion, error) {
	list, _ := f.List(ctx, modpackID, stableOnly)
	if len(list) == 0 {
		return nil, errs.ErrNotFound
	}
	return &list[0], nil
}

func (f *fakeVersions) IncrementDownloads(_ context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			r.Downloads++
			return r.Downloads, nil
		}
	}
	return 0, errs.ErrNotFound
}

func (f *fakeVersions) SetFile(_ context.Context, id int64, url *string, size *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setFileErr != nil {
		return f.setFileErr
	}
	for _, r := range f.rows {
		if r.ID == id {
			r.DownloadURL, r.FileSize = url, size
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f *fakeVersions) dropModpack(modpackID int64) []model.ModpackVersion {
	f.mu.Lock()
	defer f.mu.Unlock()
	var files []model.ModpackVersion
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.ModpackID != modpackID {
			kept = append(kept, r)
			continue
		}
		if r.DownloadURL != nil {
			files = append(files, *r)
		}
	}
	f.rows = kept
	return files
}

/************ storage ************/

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	delErr  error
	deleted []string
	reads   int // bodies consumed by Put
}

var _ storage.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Put(ctx context.Context, name string, r io.Reader, maxSize int64) (storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.putErr != nil {
		return storage.Object{}, f.putErr
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, maxSize+1))
	if err != nil {
		return storage.Object{}, err
	}
	if n > maxSize {
		return storage.Object{}, errs.ErrFileTooLarge
	}
	f.objects[name] = buf.Bytes()
	return storage.Object{Name: name, Size: n, SHA256: "digest-" + name}, nil
}

func (f *fakeStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[name]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeStore) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, name)
	delete(f.objects, name)
	return nil
}

func (f *fakeStore) has(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[name]
	return ok
}

/************ limiter ************/

type fakeLimiter struct {
	allowOK  bool
	allowErr error
	retry    time.Duration

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, l.retry, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, l.retry, l.failErr
}

func strp(s string) *string { return &s }
