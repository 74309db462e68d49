package chromium

import (
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

/*
pageServer serves one page to the browser over loopback. The page itself
comes from memory (the asset set's current content); everything else the
page references is looked up under the base directory and then each asset
path, in order.
*/
type pageServer struct {
	src    string
	html   []byte
	roots  []string
	ln     net.Listener
	server *http.Server
}

func newPageServer(base string, assetPaths []string, src string, html []byte) (*pageServer, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &pageServer{
		src:   path.Clean("/" + filepath.ToSlash(src)),
		html:  html,
		roots: resolveRoots(base, assetPaths),
		ln:    ln,
	}
	s.server = &http.Server{Handler: s}
	go s.server.Serve(ln)
	return s, nil
}

func resolveRoots(base string, assetPaths []string) []string {
	roots := []string{base}
	for _, p := range assetPaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		roots = append(roots, p)
	}
	return roots
}

func (s *pageServer) URL() string {
	return "http://" + s.ln.Addr().String() + s.src
}

func (s *pageServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + r.URL.Path)
	if p == s.src && s.html != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(s.html)
		return
	}
	rel := filepath.FromSlash(strings.TrimPrefix(p, "/"))
	for _, root := range s.roots {
		full := filepath.Join(root, rel)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			http.ServeFile(w, r, full)
			return
		}
	}
	http.NotFound(w, r)
}

func (s *pageServer) Close() error {
	return s.server.Close()
}
