package ic

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

type fieldValidator func(o *Options, field string, v any) error

// The options schema is closed: any top-level field not listed here is
// rejected.
var schema = map[string]fieldValidator{
	"base":       stringField(func(o *Options, s string) { o.Base = s }),
	"src":        stringField(func(o *Options, s string) { o.Src = s }),
	"dest":       stringField(func(o *Options, s string) { o.Dest = s }),
	"inline":     boolField(func(o *Options, b bool) { o.Inline = b }),
	"extract":    boolField(func(o *Options, b bool) { o.Extract = b }),
	"width":      intField(func(o *Options, n int) { o.Width = n }),
	"height":     intField(func(o *Options, n int) { o.Height = n }),
	"dimensions": resolveDimensions,
	"target":     resolveTarget,
	"ignore":     resolveIgnore,
	"assetPaths": resolveAssetPaths,
	"penthouse":  resolvePenthouse,
}

/*
Resolve validates user-supplied options against the closed schema and
merges them over the defaults. Every field is checked before anything is
merged, so a failure leaves no partially resolved value behind. Nested
records (target, ignore) replace their defaults wholesale.
*/
func Resolve(user map[string]any) (*Options, error) {
	keys := make([]string, 0, len(user))
	for k := range user {
		if _, ok := schema[k]; !ok {
			return nil, &InvalidConfigurationError{
				Reason: fmt.Sprintf("has an unknown property %q; allowed: %s", k, strings.Join(schemaFields(), ", ")),
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// dimensions fall back to the top-level viewport, so resolve it last
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[j] == "dimensions" && keys[i] != "dimensions"
	})

	o := defaultOptions()
	for _, k := range keys {
		if err := schema[k](&o, k, user[k]); err != nil {
			return nil, err
		}
		o.set[k] = true
	}
	return &o, nil
}

func schemaFields() []string {
	fields := make([]string, 0, len(schema))
	for k := range schema {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func invalid(field, format string, args ...any) error {
	return &InvalidConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func stringField(set func(*Options, string)) fieldValidator {
	return func(o *Options, field string, v any) error {
		s, ok := v.(string)
		if !ok {
			return invalid(field, "should be a string, got %T", v)
		}
		set(o, s)
		return nil
	}
}

func boolField(set func(*Options, bool)) fieldValidator {
	return func(o *Options, field string, v any) error {
		b, ok := v.(bool)
		if !ok {
			return invalid(field, "should be a boolean, got %T", v)
		}
		set(o, b)
		return nil
	}
}

func intField(set func(*Options, int)) fieldValidator {
	return func(o *Options, field string, v any) error {
		n, err := toInt(field, v)
		if err != nil {
			return err
		}
		set(o, n)
		return nil
	}
}

// toInt accepts any numeric representation a decoder may produce, as long
// as it holds a whole number.
func toInt(field string, v any) (int, error) {
	var f float64
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		parsed, err := n.Float64()
		if err != nil {
			return 0, invalid(field, "should be a number, got %q", n.String())
		}
		f = parsed
	default:
		return 0, invalid(field, "should be a number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, invalid(field, "should be a whole number, got %v", f)
	}
	return int(f), nil
}

func toObject(field string, v any) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, invalid(field, "has a non-string key %v", k)
			}
			out[ks] = val
		}
		return out, nil
	default:
		return nil, invalid(field, "should be an object, got %T", v)
	}
}

func toArray(field string, v any) ([]any, error) {
	switch a := v.(type) {
	case []any:
		return append([]any(nil), a...), nil
	case []string:
		out := make([]any, len(a))
		for i, s := range a {
			out[i] = s
		}
		return out, nil
	default:
		return nil, invalid(field, "should be an array, got %T", v)
	}
}

func resolveDimensions(o *Options, field string, v any) error {
	items, err := toArray(field, v)
	if err != nil {
		return err
	}
	dims := make([]Dimension, 0, len(items))
	for i, item := range items {
		itemField := fmt.Sprintf("%s[%d]", field, i)
		m, err := toObject(itemField, item)
		if err != nil {
			return err
		}
		d := Dimension{Width: o.Width, Height: o.Height}
		if w, ok := m["width"]; ok {
			if d.Width, err = toInt(itemField+".width", w); err != nil {
				return err
			}
		}
		if h, ok := m["height"]; ok {
			if d.Height, err = toInt(itemField+".height", h); err != nil {
				return err
			}
		}
		dims = append(dims, d)
	}
	o.Dimensions = dims
	return nil
}

func resolveTarget(o *Options, field string, v any) error {
	if s, ok := v.(string); ok {
		o.Target = SingleFile(s)
		return nil
	}
	m, err := toObject(field, v)
	if err != nil {
		return invalid(field, "should be a string or an object, got %T", v)
	}
	t := Target{Kind: TargetSplit}
	names := []struct {
		key string
		dst *string
	}{
		{"css", &t.CSS},
		{"html", &t.HTML},
		{"uncritical", &t.Uncritical},
	}
	for _, n := range names {
		raw, ok := m[n.key]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return invalid(field+"."+n.key, "should be a string, got %T", raw)
		}
		*n.dst = s
	}
	o.Target = t
	return nil
}

func resolveIgnore(o *Options, field string, v any) error {
	m, err := toObject(field, v)
	if err != nil {
		return err
	}
	ig := &Ignore{}
	if raw, ok := m["atrule"]; ok {
		if ig.AtRule, err = toArray(field+".atrule", raw); err != nil {
			return err
		}
	}
	if raw, ok := m["rule"]; ok {
		if ig.Rule, err = toArray(field+".rule", raw); err != nil {
			return err
		}
	}
	if raw, ok := m["decl"]; ok {
		ig.Decl = raw
	}
	o.Ignore = ig
	return nil
}

func resolveAssetPaths(o *Options, field string, v any) error {
	items, err := toArray(field, v)
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return invalid(fmt.Sprintf("%s[%d]", field, i), "should be a string, got %T", item)
		}
		paths = append(paths, s)
	}
	o.AssetPaths = paths
	return nil
}

func resolvePenthouse(o *Options, field string, v any) error {
	m, err := toObject(field, v)
	if err != nil {
		return err
	}
	cp := make(map[string]any, len(m))
	for k, val := range m {
		cp[k] = val
	}
	o.Penthouse = cp
	return nil
}
