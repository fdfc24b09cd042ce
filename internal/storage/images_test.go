package storage

import (
	"os"
	"path"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *ImageStore {
	t.Helper()
	store, err := NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func TestSaveGeneratesRandomName(t *testing.T) {
	store := newTestStore(t)

	url, err := store.Save(strings.NewReader("fake png bytes"), "menu photo.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, URLPrefix) {
		t.Fatalf("expected URL under %s, got %s", URLPrefix, url)
	}
	name := path.Base(url)
	if strings.Contains(name, "menu photo") {
		t.Errorf("client filename leaked into stored name: %s", name)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("expected .png extension preserved, got %s", name)
	}

	p, err := store.Open(name)
	if err != nil {
		t.Fatalf("open stored image: %v", err)
	}
	content, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read stored image: %v", err)
	}
	if string(content) != "fake png bytes" {
		t.Errorf("stored content mismatch: %q", content)
	}
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save(strings.NewReader("#!/bin/sh"), "payload.sh"); err == nil {
		t.Fatal("expected error for .sh upload")
	}
	if _, err := store.Save(strings.NewReader("data"), "noextension"); err == nil {
		t.Fatal("expected error for extensionless upload")
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"../etc/passwd", "a/b.png", ".", "/"} {
		if _, err := store.Open(name); err == nil {
			t.Errorf("expected error opening %q", name)
		}
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)

	url, err := store.Save(strings.NewReader("bytes"), "dish.jpg")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Remove(url); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Open(path.Base(url)); err == nil {
		t.Error("expected image gone after remove")
	}

	// Removing twice is not an error.
	if err := store.Remove(url); err != nil {
		t.Errorf("second remove should be a no-op, got %v", err)
	}

	// External URLs are ignored.
	if err := store.Remove("https://cdn.example.com/dish.jpg"); err != nil {
		t.Errorf("external URL should be ignored, got %v", err)
	}
}
