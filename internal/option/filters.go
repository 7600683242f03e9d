package option

import (
	"cmp"
	"slices"

	"printquote/backend/internal/pricing"
)

// FilterChoices returns the active choices of def, restricted by the
// dependency result, sorted by sort order.
func FilterChoices(def Definition, choices []Choice, dep DependencyResult) []Choice {
	var allowed map[string]bool
	if dep.FilteredChoices != nil {
		allowed = make(map[string]bool, len(dep.FilteredChoices))
		for _, code := range dep.FilteredChoices {
			allowed[code] = true
		}
	}

	out := []Choice{}
	for _, c := range choices {
		if c.DefinitionID != def.DefinitionID || !c.IsActive {
			continue
		}
		if allowed != nil && !allowed[c.Code] {
			continue
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b Choice) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
	return out
}

// DefaultChoice picks the choice flagged as default, else the first one.
func DefaultChoice(def Definition, choices []Choice) *pricing.SelectedOption {
	if len(choices) == 0 {
		return nil
	}
	pick := choices[0]
	for _, c := range choices {
		if c.IsDefault {
			pick = c
			break
		}
	}
	sel := SelectionFor(def, pick)
	return &sel
}

// SelectionFor builds the selection of choice c for option def, carrying the
// choice's material references and unit price.
func SelectionFor(def Definition, c Choice) pricing.SelectedOption {
	id := c.ID
	return pricing.SelectedOption{
		OptionKey:        def.Key,
		ChoiceCode:       c.Code,
		ChoiceID:         &id,
		RefPaperID:       c.RefPaperID,
		RefPrintModeID:   c.RefPrintModeID,
		RefPostProcessID: c.RefPostProcessID,
		UnitPrice:        c.UnitPrice,
	}
}
