package ic

import (
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDiscover(t *testing.T) {
	tests := []struct {
		name   string
		assets *MemoryAssets
		want   []string
	}{
		{
			name: "mixed assets keep their order",
			assets: MemoryAssetsFrom(
				"index.html", "",
				"about.html", "",
				"main.js", "",
				"styles.css", "",
			),
			want: []string{"index.html", "about.html"},
		},
		{
			name:   "not sorted",
			assets: MemoryAssetsFrom("z.html", "", "a.html", ""),
			want:   []string{"z.html", "a.html"},
		},
		{
			name:   "suffix only",
			assets: MemoryAssetsFrom("page.html.map", "", "page.htm", "", "docs/page.html", ""),
			want:   []string{"docs/page.html"},
		},
		{
			name:   "no html",
			assets: MemoryAssetsFrom("main.js", "", "styles.css", ""),
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(tt.assets)
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Discover() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscoverMissingDirectory(t *testing.T) {
	d := NewDirAssets(filepath.Join(t.TempDir(), "missing"))

	got, err := Discover(d)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Discover() error = %v, want fs.ErrNotExist", err)
	}
	if got != nil {
		t.Errorf("Discover() = %v, want nil", got)
	}
}
