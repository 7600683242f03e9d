package option

import (
	"printquote/backend/internal/constraint"
	"printquote/backend/internal/pricing"
)

// DependencyResult is the effect of the dependencies on one child option.
// FilteredChoices is nil when no choices dependency applies.
type DependencyResult struct {
	Visible         bool
	Reason          *constraint.DisabledReason
	FilteredChoices []string
}

// EvaluateDependencies checks every dependency whose child is def. The first
// failing visibility dependency hides the option.
func EvaluateDependencies(def Definition, in Input) DependencyResult {
	result := DependencyResult{Visible: true}

	for _, dep := range in.Dependencies {
		if dep.ChildOptionID != def.DefinitionID {
			continue
		}
		parentKey, ok := OptionKey(dep.ParentOptionID, in.Definitions)
		if !ok {
			continue
		}
		parent, selected := in.Selections[parentKey]

		switch dep.Type {
		case DependVisibility:
			if !selected {
				return DependencyResult{Visible: false, Reason: &constraint.DisabledReason{
					Type: ReasonParentNotSelected, ParentOption: parentKey,
					Description: parentKey + " must be selected first",
				}}
			}
			if dep.ParentChoiceID != nil && !sameID(parent.ChoiceID, dep.ParentChoiceID) {
				return DependencyResult{Visible: false, Reason: &constraint.DisabledReason{
					Type: ReasonParentChoiceMismatch, ParentOption: parentKey,
					Description: "not offered for the selected " + parentKey,
				}}
			}
		case DependChoices:
			codes := FilteredChoicesByDependency(dep, parentOrNil(parent, selected), def, in.Choices)
			if result.FilteredChoices == nil {
				result.FilteredChoices = codes
			} else {
				result.FilteredChoices = intersect(result.FilteredChoices, codes)
			}
		case DependValue:
			// value dependencies only drive defaults on the client
		}
	}
	return result
}

// FilteredChoicesByDependency lists the child choice codes a choices
// dependency allows. Nothing is allowed until the parent is selected; a
// dependency bound to one parent choice allows nothing for other choices.
func FilteredChoicesByDependency(dep Dependency, parent *pricing.SelectedOption, child Definition, choices []Choice) []string {
	if parent == nil {
		return []string{}
	}
	if dep.ParentChoiceID != nil && !sameID(parent.ChoiceID, dep.ParentChoiceID) {
		return []string{}
	}
	codes := []string{}
	for _, c := range choices {
		if c.DefinitionID == child.DefinitionID && c.IsActive {
			codes = append(codes, c.Code)
		}
	}
	return codes
}

// OptionKey finds the key of the option with the given definition id.
func OptionKey(definitionID int64, defs []Definition) (string, bool) {
	for _, d := range defs {
		if d.DefinitionID == definitionID {
			return d.Key, true
		}
	}
	return "", false
}

func parentOrNil(sel pricing.SelectedOption, ok bool) *pricing.SelectedOption {
	if !ok {
		return nil
	}
	return &sel
}

func sameID(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

func intersect(a, b []string) []string {
	keep := make(map[string]bool, len(b))
	for _, v := range b {
		keep[v] = true
	}
	out := []string{}
	for _, v := range a {
		if keep[v] {
			out = append(out, v)
		}
	}
	return out
}
