package scenario

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"
)

//go:embed scenarios/*.yaml
var builtin embed.FS

var (
	catalog     []*Scenario
	catalogErr  error
	catalogOnce sync.Once
)

func loadCatalog() {
	names, err := fs.Glob(builtin, "scenarios/*.yaml")
	if err != nil {
		catalogErr = fmt.Errorf("list built-in scenarios: %w", err)
		return
	}
	sort.Strings(names)
	seen := map[string]string{}
	for _, name := range names {
		data, err := builtin.ReadFile(name)
		if err != nil {
			catalogErr = fmt.Errorf("read %s: %w", name, err)
			return
		}
		sc, err := Parse(data)
		if err != nil {
			catalogErr = fmt.Errorf("%s: %w", path.Base(name), err)
			return
		}
		if prev, dup := seen[sc.ID]; dup {
			catalogErr = fmt.Errorf("%w: duplicate id %q in %s and %s", ErrInvalid, sc.ID, prev, name)
			return
		}
		seen[sc.ID] = name
		catalog = append(catalog, sc)
	}
}

// Catalog returns the built-in scenarios in display order.
func Catalog() ([]*Scenario, error) {
	catalogOnce.Do(loadCatalog)
	if catalogErr != nil {
		return nil, catalogErr
	}
	out := make([]*Scenario, len(catalog))
	copy(out, catalog)
	return out, nil
}

// Lookup returns the built-in scenario with the given id.
func Lookup(id string) (*Scenario, error) {
	all, err := Catalog()
	if err != nil {
		return nil, err
	}
	for _, sc := range all {
		if sc.ID == id {
			return sc, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
}

// IDs returns the identifiers of the built-in scenarios.
func IDs() []string {
	all, err := Catalog()
	if err != nil {
		return nil
	}
	ids := make([]string, len(all))
	for i, sc := range all {
		ids[i] = sc.ID
	}
	return ids
}
