package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(path, []byte("objects: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	calls := make(chan struct{}, 10)
	w, err := New(path, func(context.Context) error {
		calls <- struct{}{}
		return nil
	}, Options{Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Other files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-calls:
		t.Fatal("handler ran for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}

	// A burst of writes runs the handler once.
	for i := range 3 {
		if err := os.WriteFile(path, []byte("objects: []\n# "+string(rune('a'+i))+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not run after a write")
	}
	select {
	case <-calls:
		t.Error("burst was not coalesced")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "scene.yaml"), nil, Options{})
	if err == nil {
		t.Error("New() should fail when the directory does not exist")
	}
}
