// Package filesystem indexes the files of the analyzed project and answers
// predicate queries over them.
package filesystem

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/garagon/sensorgate/internal/types"
)

// IgnoreFile is read from the project root; one glob per line, # comments.
const IgnoreFile = ".sensorgateignore"

// DefaultTestPatterns classify files as test code when no patterns are configured.
var DefaultTestPatterns = []string{
	"**/*_test.go",
	"**/test/**",
	"**/tests/**",
	"**/__tests__/**",
	"**/*.test.*",
	"**/*.spec.*",
	"**/test_*.py",
	"**/*Test.java",
}

// Options controls discovery.
type Options struct {
	Ignore       []string
	TestPatterns []string
	// ChangedOnly restricts the index to files git reports as changed.
	ChangedOnly bool
}

// Discover walks root and returns an index of every analyzable file,
// respecting .sensorgateignore. root may also be a single file.
func Discover(root string, opts Options) (*Index, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	testPatterns := opts.TestPatterns
	if len(testPatterns) == 0 {
		testPatterns = DefaultTestPatterns
	}

	if !info.IsDir() {
		// Single file: use the base name as RelPath so globs still apply.
		rel := filepath.Base(root)
		return NewIndex([]*types.InputFile{{
			Path:     root,
			RelPath:  rel,
			Language: DetectLanguage(root),
			Type:     classify(rel, testPatterns),
		}}), nil
	}

	ignore := append(append([]string(nil), opts.Ignore...), loadIgnoreFile(root)...)

	var changed map[string]bool
	if opts.ChangedOnly {
		paths, err := GitChangedFiles(root)
		if err != nil {
			return nil, err
		}
		changed = make(map[string]bool, len(paths))
		for _, p := range paths {
			changed[p] = true
		}
	}

	var files []*types.InputFile
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible files
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "node_modules", "vendor", ".sensorgate":
				return filepath.SkipDir
			}
			return nil
		}
		if isBinaryExt(path) {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)
		if matchAny(ignore, rel) {
			return nil
		}
		if changed != nil && !changed[rel] {
			return nil
		}
		files = append(files, &types.InputFile{
			Path:     path,
			RelPath:  rel,
			Language: DetectLanguage(path),
			Type:     classify(rel, testPatterns),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewIndex(files), nil
}

func classify(rel string, testPatterns []string) types.FileType {
	if matchAny(testPatterns, rel) {
		return types.FileTypeTest
	}
	return types.FileTypeMain
}

func loadIgnoreFile(root string) []string {
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		return nil
	}
	defer f.Close()
	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns
}

// matchAny reports whether rel matches one of the globs. Patterns ending in
// "/" match everything below that directory; patterns without a "/" also
// match the base name.
func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if strings.HasSuffix(p, "/") {
			p += "**"
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, filepath.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}

var binaryExts = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".ico": true, ".svg": true, ".woff": true, ".woff2": true,
	".ttf": true, ".eot": true, ".zip": true, ".tar": true,
	".gz": true, ".bz2": true, ".xz": true, ".7z": true,
	".pdf": true, ".mp3": true, ".mp4": true, ".avi": true,
	".mov": true, ".bin": true, ".o": true, ".a": true,
	".class": true, ".jar": true, ".pyc": true,
}

func isBinaryExt(path string) bool {
	return binaryExts[strings.ToLower(filepath.Ext(path))]
}
