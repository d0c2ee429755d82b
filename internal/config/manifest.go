package config

import (
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Manifest returns the asset paths to precache, relative to the origin.
// Explicit cache.assets win. Otherwise, with a site directory, the include
// globs are expanded over it; without one, DefaultAssets is used. An
// expanded manifest always starts with "./".
func (c *Config) Manifest() ([]string, error) {
	if len(c.Cache.Assets) > 0 {
		return append([]string(nil), c.Cache.Assets...), nil
	}
	if c.SiteDir == "" {
		return append([]string(nil), DefaultAssets...), nil
	}
	assets, err := ExpandManifest(os.DirFS(c.SiteDir), c.Include, c.Exclude)
	if err != nil {
		return nil, fmt.Errorf("expanding manifest in %s: %w", c.SiteDir, err)
	}
	return assets, nil
}

// ExpandManifest walks fsys and returns every regular file matched by one of
// the include patterns and none of the exclude patterns, sorted, behind "./".
func ExpandManifest(fsys fs.FS, include, exclude []string) ([]string, error) {
	for _, p := range append(append([]string(nil), include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}

	var files []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && matchAny(exclude, path) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matchAny(include, path) && !matchAny(exclude, path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return append([]string{"./"}, files...), nil
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
