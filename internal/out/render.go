package out

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ggonzalez94/casper-cli/internal/config"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/model"
)

// Pretty encodes v as indented JSON without HTML escaping.
func Pretty(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, clierr.Wrap(clierr.CodeSerialization, "encode output", err)
	}
	return buf.Bytes(), nil
}

// Render writes env.Data, or the whole envelope when settings.Envelope is set.
// --select fields are dotted paths into the data, e.g. result.api_version.
func Render(w io.Writer, env model.Envelope, settings config.Settings) error {
	var data any = env.Data
	if len(settings.SelectFields) > 0 {
		tree, err := toTree(env.Data)
		if err != nil {
			return err
		}
		data = selectPaths(tree, settings.SelectFields)
	}
	var v any = data
	if settings.Envelope {
		env.Data = data
		v = env
	}
	if settings.OutputMode == "plain" {
		return renderPlain(w, v)
	}
	buf, err := Pretty(v)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// toTree round-trips v through JSON so that structs, raw messages and maps all
// become plain map/slice trees.
func toTree(v any) (any, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeSerialization, "encode output", err)
	}
	var tree any
	if err := json.Unmarshal(buf, &tree); err != nil {
		return nil, clierr.Wrap(clierr.CodeSerialization, "decode output", err)
	}
	return tree, nil
}

func selectPaths(tree any, paths []string) any {
	if items, ok := tree.([]any); ok {
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, selectPaths(item, paths))
		}
		return out
	}
	m, ok := tree.(map[string]any)
	if !ok {
		return tree
	}
	out := make(map[string]any, len(paths))
	for _, p := range paths {
		if v, found := lookup(m, strings.Split(p, ".")); found {
			out[p] = v
		}
	}
	return out
}

func lookup(v any, path []string) (any, bool) {
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		if v, ok = m[key]; !ok {
			return nil, false
		}
	}
	return v, true
}

// renderPlain prints one line per top-level item. Objects flatten to sorted
// dotted.key=value pairs.
func renderPlain(w io.Writer, v any) error {
	tree, err := toTree(v)
	if err != nil {
		return err
	}
	items, isList := tree.([]any)
	if !isList {
		items = []any{tree}
	} else if len(items) == 0 {
		_, err := fmt.Fprintln(w, "[]")
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintln(w, plainLine(item)); err != nil {
			return err
		}
	}
	return nil
}

func plainLine(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return scalar(v)
	}
	pairs := map[string]string{}
	flatten("", m, pairs)
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+pairs[k])
	}
	return strings.Join(parts, " ")
}

func flatten(prefix string, m map[string]any, into map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flatten(key, nested, into)
			continue
		}
		into[key] = scalar(v)
	}
}

func scalar(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(buf)
}
