package sensor

import (
	"github.com/garagon/sensorgate/internal/types"
)

// FilePredicate selects project files.
type FilePredicate interface {
	Apply(f *types.InputFile) bool
}

// PredicateFunc adapts a plain function to FilePredicate.
type PredicateFunc func(f *types.InputFile) bool

func (p PredicateFunc) Apply(f *types.InputFile) bool { return p(f) }

var all = PredicateFunc(func(*types.InputFile) bool { return true })

// All matches every file. It is the neutral element of And.
func All() FilePredicate { return all }

// HasLanguages matches files whose language is one of langs.
// With no languages it matches nothing; callers wanting "any language" use All.
func HasLanguages(langs ...string) FilePredicate {
	set := make(map[string]struct{}, len(langs))
	for _, l := range langs {
		set[l] = struct{}{}
	}
	return PredicateFunc(func(f *types.InputFile) bool {
		_, ok := set[f.Language]
		return ok
	})
}

// HasType matches files of the given type.
func HasType(t types.FileType) FilePredicate {
	return PredicateFunc(func(f *types.InputFile) bool {
		return f.Type == t
	})
}

// And matches files accepted by every predicate. And() matches everything.
func And(preds ...FilePredicate) FilePredicate {
	if len(preds) == 0 {
		return all
	}
	return PredicateFunc(func(f *types.InputFile) bool {
		for _, p := range preds {
			if !p.Apply(f) {
				return false
			}
		}
		return true
	})
}
