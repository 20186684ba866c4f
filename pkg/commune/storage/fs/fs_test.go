package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/commune-dev/commune/pkg/commune"
)

func TestFSBackend_BasicOps(t *testing.T) {
	tmp := t.TempDir()
	backend, err := New(Config{BaseDir: tmp})
	if err != nil {
		t.Fatalf("new fs backend: %v", err)
	}

	ctx := context.Background()
	key := "avatars/alice.png"

	data := []byte("hello fs")
	if err := backend.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	meta, err := backend.GetObjectMeta(ctx, key)
	if err != nil {
		t.Fatalf("get meta: %v", err)
	}
	if meta.Size != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), meta.Size)
	}

	rc, err := backend.Download(ctx, key)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(got) != string(data) {
		t.Fatalf("download mismatch: %q", string(got))
	}

	if err := backend.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmp, key)); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
}

func TestFSBackend_MissingObject(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new fs backend: %v", err)
	}
	ctx := context.Background()

	if _, err := backend.Download(ctx, "nope.png"); !errors.Is(err, commune.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if _, err := backend.GetObjectMeta(ctx, "nope.png"); !errors.Is(err, commune.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if err := backend.Delete(ctx, "nope.png"); !errors.Is(err, commune.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestFSBackend_KeyEscapesBase(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new fs backend: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"../outside", "/etc/passwd", "a/../../b"} {
		if err := backend.Upload(ctx, key, bytes.NewReader([]byte("x"))); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestFSBackend_DownloadURL(t *testing.T) {
	ctx := context.Background()

	noPrefix, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new fs backend: %v", err)
	}
	if _, err := noPrefix.GetDownloadURL(ctx, "a.png"); err == nil {
		t.Fatalf("expected error without urlPrefix")
	}

	withPrefix, err := New(Config{BaseDir: t.TempDir(), URLPrefix: "http://localhost/images/"})
	if err != nil {
		t.Fatalf("new fs backend: %v", err)
	}
	url, err := withPrefix.GetDownloadURL(ctx, "a.png")
	if err != nil {
		t.Fatalf("get download url: %v", err)
	}
	if url != "http://localhost/images/a.png" {
		t.Fatalf("unexpected url: %q", url)
	}
}
