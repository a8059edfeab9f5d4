package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/chronos/pkg/chronos/types"
)

// YAMLSource loads watchlists from a YAML file, or from every YAML file under
// a directory. Lists from a directory are prefixed with the file's relative
// path, without extension.
type YAMLSource struct{}

func (YAMLSource) Load(ctx context.Context, path string) ([]types.Watchlist, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		lists, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		// Unnamed lists take the file name.
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for i := range lists {
			if strings.TrimSpace(lists[i].Name) == "" {
				lists[i].Name = base
			}
		}
		return lists, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []types.Watchlist
	for _, full := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lists, err := loadFile(full)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(path, full)
		if err != nil {
			rel = filepath.Base(full)
		}
		prefix := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		for i := range lists {
			if strings.TrimSpace(lists[i].Name) == "" {
				lists[i].Name = prefix
			} else if prefix != "" {
				lists[i].Name = prefix + "/" + lists[i].Name
			}
		}
		all = append(all, lists...)
	}
	return all, nil
}

func loadFile(path string) ([]types.Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lists, err := parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lists, nil
}

// parseYAML reads a document with a top-level 'watchlist' key. Its value is a
// sequence whose entries are symbols (plain strings or maps with 'sym') or
// named groups holding their own 'watchlist'. Each group becomes one list,
// named by the path of group names leading to it.
func parseYAML(data []byte) ([]types.Watchlist, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	m, ok := normalize(root).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid yaml: expected map with 'watchlist'")
	}
	node, ok := m["watchlist"]
	if !ok || node == nil {
		return nil, fmt.Errorf("invalid yaml: missing 'watchlist'")
	}

	var lists []types.Watchlist
	var walk func(node any, path []string)
	walk = func(node any, path []string) {
		switch n := node.(type) {
		case []any:
			var items []types.Item
			for _, e := range n {
				if it, ok := toItem(e); ok {
					items = append(items, it)
				}
			}
			if len(items) > 0 {
				lists = append(lists, types.Watchlist{Name: strings.Join(path, "/"), Items: items})
			}
			for _, e := range n {
				if g, ok := e.(map[string]any); ok {
					if child, ok := g["watchlist"]; ok {
						walk(child, groupPath(path, g))
					}
				}
			}
		case map[string]any:
			if child, ok := n["watchlist"]; ok {
				walk(child, groupPath(path, n))
				return
			}
			if it, ok := toItem(n); ok {
				lists = append(lists, types.Watchlist{Name: strings.Join(path, "/"), Items: []types.Item{it}})
			}
		}
	}
	walk(node, nil)
	return lists, nil
}

// normalize turns maps with non-string keys into map[string]any.
func normalize(v any) any {
	switch m := v.(type) {
	case map[any]any:
		mm := make(map[string]any, len(m))
		for k, val := range m {
			mm[fmt.Sprint(k)] = normalize(val)
		}
		return mm
	case map[string]any:
		for k, val := range m {
			m[k] = normalize(val)
		}
		return m
	case []any:
		out := make([]any, 0, len(m))
		for _, e := range m {
			out = append(out, normalize(e))
		}
		return out
	default:
		return v
	}
}

func groupPath(path []string, g map[string]any) []string {
	next := append([]string(nil), path...)
	if name, ok := g["name"].(string); ok && name != "" {
		next = append(next, name)
	}
	return next
}

func toItem(v any) (types.Item, bool) {
	switch e := v.(type) {
	case string:
		sym := strings.TrimSpace(e)
		return types.Item{Sym: sym}, sym != ""
	case int:
		return types.Item{Sym: fmt.Sprint(e)}, true
	case map[string]any:
		if _, ok := e["watchlist"]; ok {
			return types.Item{}, false
		}
		sym, ok := e["sym"]
		if !ok || sym == nil {
			return types.Item{}, false
		}
		it := types.Item{Sym: strings.TrimSpace(fmt.Sprint(sym)), Fields: map[string]any{}}
		if name, ok := e["name"]; ok && name != nil {
			it.Name = fmt.Sprint(name)
		}
		for k, val := range e {
			if k == "sym" || k == "name" {
				continue
			}
			it.Fields[k] = val
		}
		return it, it.Sym != ""
	}
	return types.Item{}, false
}
