package option

import (
	"maps"

	"printquote/backend/internal/pricing"
)

// ChangeSelection sets key to code, clears every selection after key in the
// selection chain along with dependents of key, and resolves again. Neither
// in nor its selections map is modified. A key outside the chain only sets
// its own selection.
func ChangeSelection(in Input, key, code string) (map[string]pricing.SelectedOption, Resolution) {
	next := maps.Clone(in.Selections)
	if next == nil {
		next = make(map[string]pricing.SelectedOption)
	}

	for _, k := range Downstream(in.Definitions, in.Dependencies, key) {
		delete(next, k)
	}
	next[key] = pricing.SelectedOption{OptionKey: key, ChoiceCode: code}

	in.Selections = next
	res := Resolve(in)
	return Enrich(in.Definitions, in.Choices, next), res
}

// Downstream lists the option keys that must be reset when key changes.
func Downstream(defs []Definition, deps []Dependency, key string) []string {
	chain := Chain(defs)
	pos := -1
	var changed Definition
	for i, d := range chain {
		if d.Key == key {
			pos, changed = i, d
			break
		}
	}
	if pos < 0 {
		return nil
	}

	seen := map[string]bool{key: true}
	out := []string{}
	for _, d := range chain[pos+1:] {
		seen[d.Key] = true
		out = append(out, d.Key)
	}

	// dependents outside the chain tail, followed transitively
	visited := map[int64]bool{changed.DefinitionID: true}
	queue := []int64{changed.DefinitionID}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, dep := range deps {
			if dep.ParentOptionID != parent || visited[dep.ChildOptionID] {
				continue
			}
			visited[dep.ChildOptionID] = true
			queue = append(queue, dep.ChildOptionID)
			if child, ok := OptionKey(dep.ChildOptionID, defs); ok && !seen[child] {
				seen[child] = true
				out = append(out, child)
			}
		}
	}
	return out
}
