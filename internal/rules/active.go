package rules

import (
	"sort"

	"github.com/garagon/sensorgate/internal/types"
)

// ActiveRules is the set of rules enabled for one analysis, indexed by ID
// and by repository. It is read-only once built.
type ActiveRules struct {
	byID   map[string]*CompiledRule
	byRepo map[string][]*CompiledRule
}

// NewActiveRules indexes the given rules. Later duplicates of an ID replace earlier ones.
func NewActiveRules(compiled []*CompiledRule) *ActiveRules {
	ar := &ActiveRules{
		byID:   make(map[string]*CompiledRule, len(compiled)),
		byRepo: make(map[string][]*CompiledRule),
	}
	for _, r := range compiled {
		if prev, ok := ar.byID[r.ID]; ok {
			ar.byRepo[prev.Repository] = removeRule(ar.byRepo[prev.Repository], prev)
		}
		ar.byID[r.ID] = r
		ar.byRepo[r.Repository] = append(ar.byRepo[r.Repository], r)
	}
	return ar
}

func removeRule(list []*CompiledRule, target *CompiledRule) []*CompiledRule {
	out := list[:0]
	for _, r := range list {
		if r != target {
			out = append(out, r)
		}
	}
	return out
}

// HasActiveRule reports whether repository has at least one active rule.
func (ar *ActiveRules) HasActiveRule(repository string) bool {
	return len(ar.byRepo[repository]) > 0
}

// Active returns the effective severity of rule id and whether it is active.
func (ar *ActiveRules) Active(id string) (types.Severity, bool) {
	r, ok := ar.byID[id]
	if !ok {
		return types.SeverityInfo, false
	}
	return r.Severity, true
}

// FindByRepository returns the active rules of repository.
func (ar *ActiveRules) FindByRepository(repository string) []*CompiledRule {
	return ar.byRepo[repository]
}

// Repositories returns the repositories that have active rules, sorted.
func (ar *ActiveRules) Repositories() []string {
	var repos []string
	for repo, list := range ar.byRepo {
		if len(list) > 0 {
			repos = append(repos, repo)
		}
	}
	sort.Strings(repos)
	return repos
}

// Len returns the number of active rules.
func (ar *ActiveRules) Len() int { return len(ar.byID) }
