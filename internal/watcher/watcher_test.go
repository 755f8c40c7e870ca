package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherDeliversChangedScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "scene.py")
	if err := os.WriteFile(script, []byte("x = 1\n"), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	changes := make(chan []string, 1)
	w, err := New(50*time.Millisecond, nil, func(paths []string) {
		select {
		case changes <- paths:
		default:
		}
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch([]string{script}); err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Unrelated files in the same directory must not trigger a re-run.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatalf("write unrelated: %v", err)
	}
	if err := os.WriteFile(script, []byte("x = 2\n"), 0644); err != nil {
		t.Fatalf("rewrite script: %v", err)
	}

	select {
	case paths := <-changes:
		if len(paths) != 1 || filepath.Base(paths[0]) != "scene.py" {
			t.Fatalf("unexpected change batch: %v", paths)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestWatcherExcludeGlob(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "scene_test.py")
	if err := os.WriteFile(script, []byte("x = 1\n"), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	changes := make(chan []string, 1)
	w, err := New(50*time.Millisecond, []string{"*_test.py"}, func(paths []string) {
		select {
		case changes <- paths:
		default:
		}
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch([]string{script}); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := os.WriteFile(script, []byte("x = 2\n"), 0644); err != nil {
		t.Fatalf("rewrite script: %v", err)
	}

	select {
	case paths := <-changes:
		t.Fatalf("excluded file should not notify, got %v", paths)
	case <-time.After(300 * time.Millisecond):
	}
}
