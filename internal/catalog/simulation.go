package catalog

import (
	"slices"

	"printquote/backend/internal/constraint"
	"printquote/backend/internal/option"
	"printquote/backend/internal/pricing"
	"printquote/backend/internal/simulation"
)

// SimulationInput lists the customer-facing options in chain order with
// their choices, the rules reduced to source/target pairs and the price
// configuration. Rules that cannot be reduced are listed as unchecked.
func (b *Bundle) SimulationInput() simulation.Input {
	in := simulation.Input{ProductID: b.Product.ID}
	codes := make(map[string][]string)
	for _, def := range option.Chain(b.Definitions) {
		if def.Internal {
			continue
		}
		t := simulation.OptionType{ID: def.DefinitionID, Key: def.Key, Name: def.Label}
		for _, c := range option.FilterChoices(def, b.Choices, option.DependencyResult{Visible: true}) {
			t.Choices = append(t.Choices, simulation.Choice{ID: c.ID, Code: c.Code, Name: c.Label, IsActive: c.IsActive})
			codes[def.Key] = append(codes[def.Key], c.Code)
		}
		in.OptionTypes = append(in.OptionTypes, t)
	}
	in.Constraints, in.Unchecked = SimulationConstraints(b.Constraints, codes)
	if b.PriceConfig != nil {
		in.PriceConfig = simulation.PriceConfig{
			Model:     string(b.PriceConfig.Model),
			BasePrice: b.PriceConfig.BasePrice,
			IsActive:  b.PriceConfig.IsActive,
		}
	}
	return in
}

// SimulationConstraints reduces the active rules to the single source/target
// pairs the simulation engine checks. codes holds the choice codes of each
// option key; every choice of a rule's source option is tested against the
// rule's operator.
//
// Excluded values and the choices a filter leaves out become block pairs. A
// block or warning with target values pairs each of them; without target
// values it pairs the triggering choice with itself, so every case selecting
// it fires. Rules on quantity, size ranges, paper weight or an option with no
// choices cannot be reduced and their ids are returned as unchecked.
func SimulationConstraints(constraints []constraint.Constraint, codes map[string][]string) ([]simulation.Constraint, []int64) {
	out := []simulation.Constraint{}
	unchecked := []int64{}
	for _, c := range constraints {
		if !c.IsActive {
			continue
		}
		if c.Type != "" && c.Type != constraint.TypeECA {
			unchecked = append(unchecked, c.ID)
			continue
		}
		sources, ok := triggeringCodes(c, codes[c.SourceField])
		if !ok {
			unchecked = append(unchecked, c.ID)
			continue
		}

		actions := c.Actions
		if len(actions) == 0 && c.TargetField != "" {
			actions = []constraint.Action{{Type: constraint.ActionFilter, TargetOption: c.TargetField, Values: c.TargetValues}}
		}

		reduced := true
		for _, a := range actions {
			target := a.TargetOption
			if target == "" {
				target = c.TargetField
			}
			msg := a.Message
			if msg == "" {
				msg = c.Name
			}
			pair := func(action simulation.Action, src, field, value string) simulation.Constraint {
				return simulation.Constraint{
					ID: c.ID, ProductID: c.ProductID, Type: string(constraint.TypeECA),
					SourceField: c.SourceField, SourceValue: src,
					TargetField: field, TargetValue: value,
					Action: action, Message: msg, IsActive: true,
				}
			}

			var action simulation.Action
			switch {
			case a.Type == constraint.ActionExclude:
				for _, src := range sources {
					for _, v := range a.Values {
						out = append(out, pair(simulation.ActionBlock, src, target, v))
					}
				}
				continue
			case a.Type == constraint.ActionFilter:
				if len(codes[target]) == 0 {
					reduced = false
					continue
				}
				for _, src := range sources {
					for _, v := range codes[target] {
						if !slices.Contains(a.Values, v) {
							out = append(out, pair(simulation.ActionBlock, src, target, v))
						}
					}
				}
				continue
			case a.Type == constraint.ActionBlock:
				action = simulation.ActionBlock
			case a.Type == constraint.ActionShowMessage && a.Level == constraint.LevelWarning:
				action = simulation.ActionWarn
			default:
				continue
			}

			for _, src := range sources {
				if target == "" || len(c.TargetValues) == 0 {
					out = append(out, pair(action, src, c.SourceField, src))
					continue
				}
				for _, v := range c.TargetValues {
					out = append(out, pair(action, src, target, v))
				}
			}
		}
		if !reduced {
			unchecked = append(unchecked, c.ID)
		}
	}
	return out, unchecked
}

// triggeringCodes returns the source choices that trigger c. ok is false
// when the source is not a choice option or the operator cannot be decided
// per choice.
func triggeringCodes(c constraint.Constraint, choices []string) ([]string, bool) {
	if len(choices) == 0 {
		return nil, false
	}
	out := []string{}
	for _, code := range choices {
		matched, ok := constraint.MatchesCode(c, code)
		if !ok {
			return nil, false
		}
		if matched {
			out = append(out, code)
		}
	}
	return out, true
}

// Pricer prices simulation cases at quantity through the pricing engine.
// Products without a known pricing model fall back to the base price.
func (b *Bundle) Pricer(quantity int) simulation.PriceFunc {
	model := b.Product.Model
	if b.PriceConfig != nil && b.PriceConfig.Model != "" {
		model = b.PriceConfig.Model
	}
	if !model.Valid() {
		cfg := simulation.PriceConfig{}
		if b.PriceConfig != nil {
			cfg.BasePrice = b.PriceConfig.BasePrice
		}
		return simulation.BasePrice(cfg)
	}

	return func(combo simulation.Combination) (int64, map[string]int64, error) {
		selections := make(map[string]pricing.SelectedOption, len(combo))
		for key, code := range combo {
			selections[key] = pricing.SelectedOption{OptionKey: key, ChoiceCode: code}
		}
		in, err := b.PricingInput(selections, quantity)
		if err != nil {
			return 0, nil, err
		}
		res, err := pricing.Calculate(in)
		if err != nil {
			return 0, nil, err
		}
		return res.TotalPrice, BreakdownMap(res.Breakdown), nil
	}
}

// BreakdownMap keeps the non-zero breakdown components keyed by their JSON
// names.
func BreakdownMap(b pricing.Breakdown) map[string]int64 {
	all := map[string]int64{
		"printCost":        b.PrintCost,
		"paperCost":        b.PaperCost,
		"specialColorCost": b.SpecialColorCost,
		"coatingCost":      b.CoatingCost,
		"postProcessCost":  b.PostProcessCost,
		"bindingCost":      b.BindingCost,
		"foilCost":         b.FoilCost,
		"packagingCost":    b.PackagingCost,
		"cuttingCost":      b.CuttingCost,
		"discountAmount":   b.DiscountAmount,
	}
	out := make(map[string]int64)
	for k, v := range all {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

// CompletenessInput derives the publish-gate signals from the bundle.
func (b *Bundle) CompletenessInput() simulation.CompletenessInput {
	in := simulation.CompletenessInput{
		HasDefaultRecipe: b.Product.HasDefaultRecipe,
		EdicusCode:       b.Product.EdicusCode,
		MESItemCode:      b.Product.MESItemCode,
	}

	for _, def := range b.Definitions {
		in.OptionTypeCount++
		if def.Required {
			in.HasRequiredOption = true
		}
		in.MinChoiceCount += len(option.FilterChoices(def, b.Choices, option.DependencyResult{Visible: true}))
	}
	if b.PriceConfig != nil {
		in.HasPricingConfig = true
		in.IsPricingActive = b.PriceConfig.IsActive
	}
	for _, c := range b.Constraints {
		if c.IsActive {
			in.ConstraintCount++
		}
	}
	return in
}
