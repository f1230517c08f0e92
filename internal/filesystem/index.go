package filesystem

import (
	"sort"

	"github.com/garagon/sensorgate/internal/sensor"
	"github.com/garagon/sensorgate/internal/types"
)

// Index is an immutable snapshot of the project files.
type Index struct {
	files []*types.InputFile
}

// NewIndex builds an index over files, ordered by relative path.
func NewIndex(files []*types.InputFile) *Index {
	sorted := append([]*types.InputFile(nil), files...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RelPath < sorted[j].RelPath
	})
	return &Index{files: sorted}
}

// HasFiles reports whether at least one file satisfies pred.
func (idx *Index) HasFiles(pred sensor.FilePredicate) bool {
	for _, f := range idx.files {
		if pred.Apply(f) {
			return true
		}
	}
	return false
}

// Files returns the files satisfying pred.
func (idx *Index) Files(pred sensor.FilePredicate) []*types.InputFile {
	var out []*types.InputFile
	for _, f := range idx.files {
		if pred.Apply(f) {
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of indexed files.
func (idx *Index) Len() int { return len(idx.files) }

// Languages counts indexed files per language. Unknown languages are omitted.
func (idx *Index) Languages() map[string]int {
	counts := make(map[string]int)
	for _, f := range idx.files {
		if f.Language != "" {
			counts[f.Language]++
		}
	}
	return counts
}
