package ic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// LoadOptionsFile reads a JSON, JSONC or YAML options file and resolves it.
// JSON files may carry comments and trailing commas.
func LoadOptionsFile(path string) (*Options, error) {
	user, err := ReadOptionsFile(path)
	if err != nil {
		return nil, err
	}
	return Resolve(user)
}

// ReadOptionsFile is LoadOptionsFile without the resolve step.
func ReadOptionsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading options file: %w", err)
	}
	user, err := ParseOptions(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return user, nil
}

// ParseOptions decodes raw options without resolving them. ext selects the
// format (".yaml"/".yml", anything else is treated as JSONC).
func ParseOptions(data []byte, ext string) (map[string]any, error) {
	user := map[string]any{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &user); err != nil {
			return nil, fmt.Errorf("error parsing YAML options: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.UseNumber()
		if err := dec.Decode(&user); err != nil {
			return nil, fmt.Errorf("error parsing JSON options: %w", err)
		}
	}
	if user == nil {
		user = map[string]any{}
	}
	return user, nil
}
