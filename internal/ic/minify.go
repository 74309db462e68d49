package ic

import (
	"fmt"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

const cssMediaType = "text/css"

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(cssMediaType, css.Minify)
	return m
}

func minifyCSS(m *minify.M, content string) (string, error) {
	out, err := m.String(cssMediaType, content)
	if err != nil {
		return "", fmt.Errorf("error minifying CSS: %w", err)
	}
	return out, nil
}
