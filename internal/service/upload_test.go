package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/model"
)

type uploadFixture struct {
	packs    *fakePacks
	versions *fakeVersions
	store    *fakeStore
	svc      *UploadServiceImpl
	packID   int64
}

func newUploads(t *testing.T, maxSize int64) uploadFixture {
	v := newFakeVersions()
	p := newFakePacks(v)
	st := newFakeStore()
	id := p.put(model.Modpack{Name: "Pack", Slug: "pack", AuthorID: alice, IsPublished: true})
	require.NoError(t, v.Create(context.Background(), &model.ModpackVersion{ModpackID: id, Version: "1.0", IsStable: true}))
	return uploadFixture{packs: p, versions: v, store: st, packID: id,
		svc: NewUploadService(p, v, st, maxSize, zaptest.NewLogger(t))}
}

func (f uploadFixture) version(t *testing.T, label string) *model.ModpackVersion {
	t.Helper()
	v, err := f.versions.Get(context.Background(), f.packID, label)
	require.NoError(t, err)
	return v
}

func TestUpload_Success(t *testing.T) {
	t.Parallel()
	f := newUploads(t, 1<<20)
	ctx := context.Background()

	res, err := f.svc.Upload(ctx, alice, "pack", "1.0", "My Pack.ZIP", strings.NewReader("payload"))
	require.NoError(t, err)
	require.Equal(t, model.UploadResult{
		Filename: "pack-1.0.zip", Size: 7, Hash: "digest-pack-1.0.zip", DownloadURL: "/uploads/pack-1.0.zip",
	}, res)

	v := f.version(t, "1.0")
	require.Equal(t, "/uploads/pack-1.0.zip", *v.DownloadURL)
	require.Equal(t, int64(7), *v.FileSize)
	require.True(t, f.store.has("pack-1.0.zip"))
}

func TestUpload_CheckOrder_NoBytesReadOnRejection(t *testing.T) {
	t.Parallel()
	f := newUploads(t, 1<<20)
	ctx := context.Background()
	body := func() *bytes.Reader { return bytes.NewReader([]byte("x")) }

	_, err := f.svc.Upload(ctx, alice, "missing", "1.0", "a.txt", body())
	require.ErrorIs(t, err, errs.ErrNotFound, "modpack checked first")

	_, err = f.svc.Upload(ctx, bob, "pack", "nope", "a.txt", body())
	require.ErrorIs(t, err, errs.ErrForbidden, "ownership before extension")

	_, err = f.svc.Upload(ctx, alice, "pack", "nope", "a.txt", body())
	require.ErrorIs(t, err, errs.ErrInvalidFileType, "extension before version")

	_, err = f.svc.Upload(ctx, alice, "pack", "nope", "a.mrpack", body())
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.Upload(ctx, anon, "pack", "1.0", "a.zip", body())
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	require.Zero(t, f.store.reads)
}

func TestUpload_TooLarge(t *testing.T) {
	t.Parallel()
	f := newUploads(t, 4)

	_, err := f.svc.Upload(context.Background(), alice, "pack", "1.0", "p.zip", strings.NewReader("12345"))
	require.ErrorIs(t, err, errs.ErrFileTooLarge)
	require.Contains(t, detail(err), "File too large")
	require.Nil(t, f.version(t, "1.0").DownloadURL)
}

func TestUpload_StoreFailureIsStorageError(t *testing.T) {
	t.Parallel()
	f := newUploads(t, 1<<20)
	f.store.putErr = errors.New("disk full")

	_, err := f.svc.Upload(context.Background(), alice, "pack", "1.0", "p.zip", strings.NewReader("x"))
	require.ErrorIs(t, err, errs.ErrStorage)
}

func TestUpload_RecordFailureRemovesNewObject(t *testing.T) {
	t.Parallel()
	f := newUploads(t, 1<<20)
	f.versions.setFileErr = errors.New("db down")

	_, err := f.svc.Upload(context.Background(), alice, "pack", "1.0", "p.zip", strings.NewReader("x"))
	require.ErrorIs(t, err, errs.ErrStorage)
	require.False(t, f.store.has("pack-1.0.zip"))
}

func TestUpload_ReplacesEarlierArtifact(t *testing.T) {
	t.Parallel()
	f := newUploads(t, 1<<20)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, alice, "pack", "1.0", "p.zip", strings.NewReader("v1"))
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, alice, "pack", "1.0", "p.zip", strings.NewReader("v2-longer"))
	require.NoError(t, err)
	require.Equal(t, int64(9), *f.version(t, "1.0").FileSize)

	_, err = f.svc.Upload(ctx, alice, "pack", "1.0", "p.mrpack", strings.NewReader("v3"))
	require.NoError(t, err)
	require.False(t, f.store.has("pack-1.0.zip"), "other extension removed")
	require.True(t, f.store.has("pack-1.0.mrpack"))
}

func TestUpload_Delete(t *testing.T) {
	t.Parallel()
	f := newUploads(t, 1<<20)
	ctx := context.Background()

	require.ErrorIs(t, f.svc.Delete(ctx, alice, "pack", "1.0"), errs.ErrNotFound, "no file yet")

	_, err := f.svc.Upload(ctx, alice, "pack", "1.0", "p.zip", strings.NewReader("x"))
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.Delete(ctx, bob, "pack", "1.0"), errs.ErrForbidden)
	require.ErrorIs(t, f.svc.Delete(ctx, alice, "pack", "2.0"), errs.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, alice, "pack", "1.0"))
	v := f.version(t, "1.0")
	require.Nil(t, v.DownloadURL)
	require.Nil(t, v.FileSize)
	require.False(t, f.store.has("pack-1.0.zip"))

	// object already gone but the row still points at it
	url := "/uploads/pack-1.0.zip"
	require.NoError(t, f.versions.SetFile(ctx, v.ID, &url, nil))
	require.NoError(t, f.svc.Delete(ctx, alice, "pack", "1.0"))
}

func TestUpload_RecordFailureOnReuploadKeepsReferencedObject(t *testing.T) {
	t.Parallel()
	f := newUploads(t, 1<<20)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, alice, "pack", "1.0", "p.zip", strings.NewReader("first"))
	require.NoError(t, err)

	f.versions.setFileErr = errors.New("db down")
	_, err = f.svc.Upload(ctx, alice, "pack", "1.0", "p.zip", strings.NewReader("second"))
	require.ErrorIs(t, err, errs.ErrStorage)

	v := f.version(t, "1.0")
	require.Equal(t, "/uploads/pack-1.0.zip", *v.DownloadURL)
	require.True(t, f.store.has("pack-1.0.zip"), "row still points at the slot")

	// a new slot is still cleaned up
	_, err = f.svc.Upload(ctx, alice, "pack", "1.0", "p.mrpack", strings.NewReader("third"))
	require.ErrorIs(t, err, errs.ErrStorage)
	require.False(t, f.store.has("pack-1.0.mrpack"))
	require.True(t, f.store.has("pack-1.0.zip"))
}

// foreignVersion plants a version of bob's modpack whose URL points at
// alice's artifact, as a row written before uploads were restricted would.
func foreignVersion(t *testing.T, f uploadFixture) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Upload(ctx, alice, "pack", "1.0", "p.zip", strings.NewReader("alice"))
	require.NoError(t, err)

	evil := f.packs.put(model.Modpack{Name: "Evil", Slug: "evil", AuthorID: bob})
	require.NoError(t, f.versions.Create(ctx, &model.ModpackVersion{
		ModpackID: evil, Version: "1", DownloadURL: strp("/uploads/pack-1.0.zip"),
	}))
}

func TestUpload_Delete_LeavesOtherModpacksArtifact(t *testing.T) {
	t.Parallel()
	f := newUploads(t, 1<<20)
	foreignVersion(t, f)

	require.NoError(t, f.svc.Delete(context.Background(), bob, "evil", "1"))
	require.True(t, f.store.has("pack-1.0.zip"))
	require.Equal(t, "/uploads/pack-1.0.zip", *f.version(t, "1.0").DownloadURL)
}

func TestUpload_Replace_LeavesOtherModpacksArtifact(t *testing.T) {
	t.Parallel()
	f := newUploads(t, 1<<20)
	foreignVersion(t, f)

	_, err := f.svc.Upload(context.Background(), bob, "evil", "1", "e.mrpack", strings.NewReader("bob"))
	require.NoError(t, err)
	require.True(t, f.store.has("pack-1.0.zip"))
	require.True(t, f.store.has("evil-1.mrpack"))
}

func TestOwnedObject(t *testing.T) {
	cases := []struct {
		slug, label, url string
		name             string
		ok               bool
	}{
		{"p", "1", "/uploads/p-1.zip", "p-1.zip", true},
		{"p", "1", "/uploads/p-1.mrpack", "p-1.mrpack", true},
		{"p", "1", "/uploads/p-1.txt", "", false},
		{"p", "2", "/uploads/p-1.zip", "", false},
		{"evil", "1", "/uploads/pack-1.0.zip", "", false},
		{"p", "1", "https://cdn/p-1.zip", "", false},
		{"p", "1", "/uploads/../secret", "", false},
		{"p", "1", "/uploads/", "", false},
	}
	for _, tc := range cases {
		name, ok := ownedObject(tc.slug, tc.label, tc.url)
		if name != tc.name || ok != tc.ok {
			t.Fatalf("ownedObject(%q,%q,%q)=(%q,%v)", tc.slug, tc.label, tc.url, name, ok)
		}
	}
}
