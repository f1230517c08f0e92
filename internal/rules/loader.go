package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxRuleFileSize is the maximum size for a single YAML rule file (1 MB).
const maxRuleFileSize = 1 << 20

// LoadFromFS loads every YAML rule file found in fsys. A rule without a
// repository belongs to the repository named after its file, so rules in
// "shell.yaml" default to "shell". Files larger than 1 MB are skipped.
func LoadFromFS(fsys fs.FS) ([]RawRule, error) {
	var all []RawRule
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxRuleFileSize {
			slog.Warn("skipping oversized rule file", "path", p, "bytes", info.Size(), "max", maxRuleFileSize)
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		rules, err := parseRuleFile(data, repositoryFor(p))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", p, err)
		}
		all = append(all, rules...)
		return nil
	})
	return all, err
}

// LoadFromDir loads custom rules from a directory on disk.
func LoadFromDir(dir string) ([]RawRule, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return LoadFromFS(os.DirFS(dir))
}

// parseRuleFile decodes the "---" separated documents of one rule file.
// Documents without an ID are ignored.
func parseRuleFile(data []byte, repository string) ([]RawRule, error) {
	var rules []RawRule
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for doc := 1; ; doc++ {
		var raw RawRule
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return rules, nil
			}
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}
		if raw.ID == "" {
			continue
		}
		if strings.TrimSpace(raw.Repository) == "" {
			raw.Repository = repository
		}
		rules = append(rules, raw)
	}
}

func repositoryFor(p string) string {
	base := path.Base(p)
	return strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
}

func isYAML(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".yaml" || ext == ".yml"
}
