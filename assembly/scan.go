package assembly

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
)

// Scanner discovers the assets a script depends on.
type Scanner interface {
	// Scan returns the asset paths referenced by the script, in order of appearance.
	Scan(script string) ([]string, error)
}

// ScannerFunc adapts a function to the Scanner interface.
type ScannerFunc func(script string) ([]string, error)

func (f ScannerFunc) Scan(script string) ([]string, error) {
	return f(script)
}

var (
	importPattern = regexp.MustCompile(`(Importuvaty|Importirovat|Import)\s*\(\s*["']([^"']+)["']\s*\)`)
	assetPattern  = regexp.MustCompile(`(?i)(sound|sprite)\s*\(\s*["']([^"']+)["']\s*\)`)
)

// moduleExtensions are tried in order when resolving an imported module.
var moduleExtensions = []string{".kozak", ".koz", ""}

// ReferenceScanner finds module imports and sound/sprite references.
// Relative paths are resolved against the directory of the script.
//
// Imports resolve to the first existing candidate of moduleExtensions.
// Sound and sprite references are returned even if the file does not exist,
// so that the assembler can report them.
type ReferenceScanner struct{}

func (ReferenceScanner) Scan(script string) ([]string, error) {
	f, err := os.Open(script)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dir := filepath.Dir(script)
	seen := make(map[string]bool)
	var assets []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			assets = append(assets, path)
		}
	}

	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	for s.Scan() {
		line := s.Text()
		for _, m := range importPattern.FindAllStringSubmatch(line, -1) {
			add(resolveModule(dir, m[2]))
		}
		for _, m := range assetPattern.FindAllStringSubmatch(line, -1) {
			add(resolve(dir, m[2]))
		}
	}
	return assets, s.Err()
}

func resolveModule(dir, name string) string {
	for _, ext := range moduleExtensions {
		path := resolve(dir, name+ext)
		if isFile(path) {
			return path
		}
	}
	return resolve(dir, name)
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
