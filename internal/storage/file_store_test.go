package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	body := "receipt photo bytes"

	key := FileKey("AgAD-file-id", "photo.jpg")
	if !strings.HasSuffix(key, "-AgAD-file-id.jpg") {
		t.Fatalf("unexpected key shape: %q", key)
	}
	if err := s.Put(ctx, key, strings.NewReader(body), int64(len(body)), "image/jpeg"); err != nil {
		t.Fatalf("put: %v", err)
	}

	rc, err := s.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != body {
		t.Fatalf("got %q want %q", got, body)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Open(ctx, key); err == nil {
		t.Fatal("expected open to fail after delete")
	}
	// Deleting a missing key is not an error.
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestFileStoreRejectsTraversalKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"", "../etc/passwd", "a/b", `a\b`} {
		if err := s.Put(context.Background(), key, strings.NewReader("x"), 1, ""); err == nil {
			t.Fatalf("expected rejection for key %q", key)
		}
	}
}
