package option

import (
	"cmp"
	"slices"

	"printquote/backend/internal/constraint"
	"printquote/backend/internal/pricing"
)

// classRank orders option classes along the selection chain. Options later
// in the chain depend on earlier ones.
var classRank = map[string]int{
	"size":          0,
	"paper":         1,
	"print":         2,
	"page_count":    3,
	"binding":       4,
	"coating":       5,
	"special_color": 6,
	"post_process":  7,
}

// Chain returns the visible definitions in selection-chain order: class rank,
// then sort order, then id.
func Chain(defs []Definition) []Definition {
	out := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if d.Visible {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b Definition) int {
		if c := cmp.Compare(rank(a.Class), rank(b.Class)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func rank(class string) int {
	if r, ok := classRank[class]; ok {
		return r
	}
	return len(classRank)
}

// Resolve computes, per option, the choices that are still legal for the
// current selections, the effective selection and any validation errors. It
// composes dependency rules with the constraint evaluator and never prices.
//
// Required options without a selection take their default, and the rules are
// evaluated again with those defaults until they no longer change, so a rule
// triggered by a default fires the same way as one triggered by the customer.
func Resolve(in Input) Resolution {
	in.Selections = Enrich(in.Definitions, in.Choices, in.Selections)

	defaults := map[string]pricing.SelectedOption{}
	var res Resolution
	for pass := 0; pass <= len(in.Definitions); pass++ {
		res = resolvePass(in, defaults)
		next := res.defaulted(in.Selections)
		if sameCodes(next, defaults) {
			return res
		}
		defaults = next
	}
	res.addError("", ErrDefaultsUnsettled, "default selections do not settle under the product rules")
	return res
}

func resolvePass(in Input, defaults map[string]pricing.SelectedOption) Resolution {
	explicit := in.Selections
	effective := make(map[string]pricing.SelectedOption, len(explicit)+len(defaults))
	for key, sel := range defaults {
		effective[key] = sel
	}
	for key, sel := range explicit {
		effective[key] = sel
	}
	in.Selections = effective
	if in.SizeOf != nil {
		if size, ok := in.SizeOf(effective); ok {
			in.Size = &size
		}
	}

	res := Resolution{
		Options:          make(map[string]Available),
		Order:            []string{},
		Disabled:         make(map[string]constraint.DisabledReason),
		Defaults:         make(map[string]string),
		ValidationErrors: []ValidationError{},
	}
	res.Constraints = constraint.Evaluate(constraint.Input{
		ProductID:   in.ProductID,
		Selections:  effective,
		Size:        in.Size,
		Quantity:    in.Quantity,
		Constraints: in.Constraints,
		Choices:     choiceRefs(in.Definitions, in.Choices),
		Papers:      in.Papers,
	})

	for _, def := range Chain(in.Definitions) {
		current, hasCurrent := explicit[def.Key]

		dep := EvaluateDependencies(def, in)
		if !dep.Visible {
			res.Disabled[def.Key] = *dep.Reason
			if hasCurrent {
				res.addError(def.Key, ErrOptionDisabled, dep.Reason.Description)
			}
			continue
		}
		if reason, disabled := res.Constraints.Disabled[def.Key]; disabled {
			res.Disabled[def.Key] = reason
			if hasCurrent {
				res.addError(def.Key, ErrOptionDisabled, reason.Description)
			}
			continue
		}

		choices := []Choice{}
		for _, c := range FilterChoices(def, in.Choices, dep) {
			if res.Constraints.IsAvailable(def.Key, c.Code) {
				choices = append(choices, c)
			}
		}

		avail := Available{Definition: def, Choices: choices, Required: def.Required}
		if hasCurrent {
			ok := true
			// every code of a multi-select counts, not only the first
			for _, code := range current.Codes() {
				if !slices.ContainsFunc(choices, func(c Choice) bool { return c.Code == code }) {
					res.addError(def.Key, ErrChoiceUnavailable, code+" is not available for "+def.Label)
					ok = false
				}
			}
			if ok {
				sel := current
				avail.Selected = &sel
			}
		}
		if avail.Selected == nil {
			if d := DefaultChoice(def, choices); d != nil {
				res.Defaults[def.Key] = d.ChoiceCode
				if def.Required {
					avail.Selected = d
				}
			}
		}
		if def.Required && len(choices) == 0 {
			res.addError(def.Key, ErrRequiredNoChoice, def.Label+" has no available choice")
		}

		res.Options[def.Key] = avail
		res.Order = append(res.Order, def.Key)
	}
	return res
}

// defaulted returns the selections the resolution filled in itself.
func (r *Resolution) defaulted(explicit map[string]pricing.SelectedOption) map[string]pricing.SelectedOption {
	out := make(map[string]pricing.SelectedOption)
	for key, a := range r.Options {
		if _, given := explicit[key]; given || a.Selected == nil {
			continue
		}
		out[key] = *a.Selected
	}
	return out
}

func sameCodes(a, b map[string]pricing.SelectedOption) bool {
	if len(a) != len(b) {
		return false
	}
	for key, sel := range a {
		other, ok := b[key]
		if !ok || other.ChoiceCode != sel.ChoiceCode {
			return false
		}
	}
	return true
}

func (r *Resolution) addError(key, code, msg string) {
	r.ValidationErrors = append(r.ValidationErrors, ValidationError{OptionKey: key, Code: code, Message: msg})
}

// Enrich fills choice ids, material references and unit prices into
// selections that name a known choice by code. Unknown selections are kept
// as given. The input map is not modified.
func Enrich(defs []Definition, choices []Choice, selections map[string]pricing.SelectedOption) map[string]pricing.SelectedOption {
	out := make(map[string]pricing.SelectedOption, len(selections))
	for key, sel := range selections {
		out[key] = sel
		def, ok := definitionByKey(defs, key)
		if !ok {
			continue
		}
		for _, c := range choices {
			if c.DefinitionID == def.DefinitionID && c.Code == sel.ChoiceCode {
				enriched := SelectionFor(def, c)
				enriched.Values = sel.Values
				if sel.UnitPrice != nil {
					enriched.UnitPrice = sel.UnitPrice
				}
				out[key] = enriched
				break
			}
		}
	}
	return out
}

func definitionByKey(defs []Definition, key string) (Definition, bool) {
	for _, d := range defs {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

func choiceRefs(defs []Definition, choices []Choice) []constraint.ChoiceRef {
	keys := make(map[int64]string, len(defs))
	for _, d := range defs {
		keys[d.DefinitionID] = d.Key
	}
	refs := make([]constraint.ChoiceRef, 0, len(choices))
	for _, c := range choices {
		if key, ok := keys[c.DefinitionID]; ok {
			refs = append(refs, constraint.ChoiceRef{OptionKey: key, Code: c.Code})
		}
	}
	return refs
}
