// File: internal/infra/storage/fs_store_test.go
package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"foodie/internal/domain"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "meal.png", []byte("png-bytes"), "image/png"); err != nil {
		t.Fatalf("save: %v", err)
	}

	exists, err := store.Exists(ctx, "meal.png")
	if err != nil || !exists {
		t.Fatalf("exists = %v, %v", exists, err)
	}

	data, mimeType, err := store.Load(ctx, "meal.png")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("data = %q", data)
	}
	if mimeType != "image/png" {
		t.Errorf("mime = %q, want image/png", mimeType)
	}
}

func TestFSStoreLoadMissing(t *testing.T) {
	store, _ := NewFSStore(t.TempDir())
	if _, _, err := store.Load(context.Background(), "nope.jpg"); !errors.Is(err, domain.ErrArtifactMissing) {
		t.Fatalf("err = %v, want ErrArtifactMissing", err)
	}
}

func TestFSStoreDeleteIsIdempotent(t *testing.T) {
	store, _ := NewFSStore(t.TempDir())
	ctx := context.Background()
	_ = store.Save(ctx, "a.jpg", []byte("x"), "image/jpeg")

	if err := store.Delete(ctx, "a.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "a.jpg"); err != nil {
		t.Fatalf("second delete must be a no-op, got %v", err)
	}
}

func TestFSStoreRejectsPathTraversal(t *testing.T) {
	store, _ := NewFSStore(t.TempDir())
	ctx := context.Background()
	for _, key := range []string{"", "../evil.jpg", "a/b.jpg", `a\b.jpg`} {
		if err := store.Save(ctx, key, []byte("x"), "image/jpeg"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("key %q: err = %v, want ErrInvalidArgument", key, err)
		}
	}
}

func TestFSStoreSweepOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFSStore(dir)
	ctx := context.Background()

	_ = store.Save(ctx, "old.jpg", []byte("x"), "image/jpeg")
	_ = store.Save(ctx, "fresh.jpg", []byte("x"), "image/jpeg")

	past := time.Now().Add(-100 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.jpg"), past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := store.SweepOlderThan(ctx, time.Now().Add(-72*time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(removed) != 1 || removed[0] != "old.jpg" {
		t.Fatalf("removed = %v, want [old.jpg]", removed)
	}
	if ok, _ := store.Exists(ctx, "fresh.jpg"); !ok {
		t.Error("fresh artifact must survive")
	}
}

func TestExtForMIME(t *testing.T) {
	cases := map[string]string{
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/jpeg": ".jpg",
		"":           ".jpg",
		"IMAGE/PNG":  ".png",
	}
	for mimeType, want := range cases {
		if got := ExtForMIME(mimeType); got != want {
			t.Errorf("ExtForMIME(%q) = %q, want %q", mimeType, got, want)
		}
	}
}
