package chromium

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestPageServer(t *testing.T) {
	base := t.TempDir()
	shared := t.TempDir()
	write := func(dir, name, content string) {
		full := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(base, "blog/index.html", "stale on disk")
	write(base, "main.css", "body{}")
	write(shared, "fonts.css", "@font-face{}")

	s, err := newPageServer(base, []string{shared}, filepath.Join("blog", "index.html"), []byte("<p>current</p>"))
	if err != nil {
		t.Fatalf("newPageServer() error = %v", err)
	}
	defer s.Close()

	if !strings.HasSuffix(s.URL(), "/blog/index.html") {
		t.Errorf("URL() = %s, want it to end with /blog/index.html", s.URL())
	}

	root := strings.TrimSuffix(s.URL(), "/blog/index.html")
	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/blog/index.html", http.StatusOK, "<p>current</p>"},
		{"/main.css", http.StatusOK, "body{}"},
		{"/fonts.css", http.StatusOK, "@font-face{}"},
		{"/missing.css", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		status, body := get(t, root+tt.path)
		if status != tt.wantStatus {
			t.Errorf("GET %s status = %d, want %d", tt.path, status, tt.wantStatus)
		}
		if tt.wantBody != "" && body != tt.wantBody {
			t.Errorf("GET %s body = %q, want %q", tt.path, body, tt.wantBody)
		}
	}
}

func TestResolveRoots(t *testing.T) {
	abs := filepath.Join(string(filepath.Separator), "srv", "static")
	got := resolveRoots("dist", []string{"vendor", abs})
	want := []string{"dist", filepath.Join("dist", "vendor"), abs}
	if len(got) != len(want) {
		t.Fatalf("resolveRoots() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("resolveRoots()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
