package curriculum

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed modules/*.yaml
var builtinFS embed.FS

var (
	builtinOnce sync.Once
	builtin     []Module
	builtinErr  error
)

// Parse decodes and validates a single YAML module document.
func Parse(data []byte) (Module, error) {
	var m Module
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Module{}, fmt.Errorf("decode module: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Module{}, err
	}
	return m, nil
}

// LoadFile reads a module from a YAML file on disk.
func LoadFile(p string) (Module, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return Module{}, fmt.Errorf("read module file: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return Module{}, fmt.Errorf("%s: %w", p, err)
	}
	return m, nil
}

// Builtin returns the modules embedded in the binary, sorted by ID.
func Builtin() ([]Module, error) {
	builtinOnce.Do(func() {
		builtin, builtinErr = loadFS(builtinFS, "modules")
	})
	return builtin, builtinErr
}

// Lookup resolves a module reference: a path ending in .yaml/.yml is
// loaded from disk, anything else is matched against built-in module IDs.
func Lookup(ref string) (Module, error) {
	if strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") {
		return LoadFile(ref)
	}
	mods, err := Builtin()
	if err != nil {
		return Module{}, err
	}
	for _, m := range mods {
		if m.ID == ref {
			return m, nil
		}
	}
	return Module{}, fmt.Errorf("module %q not found", ref)
}

func loadFS(fsys fs.FS, dir string) ([]Module, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read module dir: %w", err)
	}
	var mods []Module
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		m, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].ID < mods[j].ID })
	return mods, nil
}
