package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "export")
	os.MkdirAll(out, 0755)

	changed := make(chan string, 16)
	w, err := New(root, out,
		func(p string) bool { return strings.HasSuffix(p, ".obj") },
		func(p string) { changed <- p })
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	os.WriteFile(filepath.Join(out, "ignored.obj"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644)
	target := filepath.Join(root, "tri.obj")
	os.WriteFile(target, []byte("v 0 0 0\n"), 0644)

	select {
	case p := <-changed:
		if p != target {
			t.Errorf("first change should be %s, got %s", target, p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run should stop cleanly, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestIgnored(t *testing.T) {
	w := &Watcher{ignore: "/data/export"}
	cases := map[string]bool{
		"/data/export":         true,
		"/data/export/a":       true,
		"/data/export/a/b.tex": true,
		"/data/exports":        false,
		"/data/models/a.obj":   false,
	}
	for path, want := range cases {
		if got := w.ignored(path); got != want {
			t.Errorf("ignored(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestIgnoreRootIsDropped(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, root, func(string) bool { return true }, func(string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.fsnotify.Close()

	if w.ignored(filepath.Join(root, "a.png")) {
		t.Error("exporting in place must not ignore the whole source tree")
	}
	if list := w.fsnotify.WatchList(); len(list) != 1 {
		t.Errorf("root should be watched, watch list is %v", list)
	}
}
