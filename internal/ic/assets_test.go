package ic

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMemoryAssetsInsertionOrder(t *testing.T) {
	m := MemoryAssetsFrom("b.html", "1", "a.js", "2")
	if err := m.Replace("c.css", []byte("3")); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if err := m.Replace("b.html", []byte("4")); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	want := []string{"b.html", "a.js", "c.css"}
	if got := m.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if got := m.String("b.html"); got != "4" {
		t.Errorf("b.html = %q, want overwritten content", got)
	}
	if _, ok := m.Read("missing"); ok {
		t.Errorf("Read() found a missing asset")
	}
}

func TestMemoryAssetsCopiesContent(t *testing.T) {
	m := NewMemoryAssets()
	buf := []byte("body{}")
	_ = m.Replace("a.css", buf)
	buf[0] = 'X'

	got, _ := m.Read("a.css")
	got[1] = 'X'

	if m.String("a.css") != "body{}" {
		t.Errorf("content aliased the caller's buffer: %q", m.String("a.css"))
	}
}

func TestDirAssets(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"index.html":            "<html></html>",
		"blog/post.html":        "<html>post</html>",
		"assets/main.css":       "body{}",
		"node_modules/x/y.html": "ignored",
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	d := NewDirAssets(root, "node_modules/**")

	want := []string{"assets/main.css", "blog/post.html", "index.html"}
	if got := d.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	if err := d.Replace("css/critical.css", []byte("h1{}")); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	got, ok := d.Read("css/critical.css")
	if !ok || string(got) != "h1{}" {
		t.Errorf("Read() = %q, %v", got, ok)
	}
	if !d.WroteContent("css/critical.css", []byte("h1{}")) {
		t.Errorf("WroteContent() = false for content just written")
	}
	if d.WroteContent("css/critical.css", []byte("h2{}")) {
		t.Errorf("WroteContent() = true for different content")
	}
	if w := d.Written(); !reflect.DeepEqual(w, []string{"css/critical.css"}) {
		t.Errorf("Written() = %v", w)
	}
}

func TestMemoryAssetsEmptyContentIsPresent(t *testing.T) {
	m := MemoryAssetsFrom("blank.html", "")

	got, ok := m.Read("blank.html")
	if !ok {
		t.Fatal("Read() ok = false for a stored asset")
	}
	if got == nil {
		t.Error("Read() = nil for empty content, want a non-nil empty slice")
	}
}

func TestDirAssetsErr(t *testing.T) {
	d := NewDirAssets(t.TempDir())
	if names := d.Names(); len(names) != 0 {
		t.Errorf("Names() = %v, want none", names)
	}
	if err := d.Err(); err != nil {
		t.Errorf("Err() = %v for an empty but readable directory", err)
	}

	missing := NewDirAssets(filepath.Join(t.TempDir(), "missing"))
	if names := missing.Names(); names != nil {
		t.Errorf("Names() = %v, want nil", names)
	}
	if err := missing.Err(); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Err() = %v, want fs.ErrNotExist", err)
	}
}
