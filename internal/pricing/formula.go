package pricing

import (
	"github.com/shopspring/decimal"
)

// calculateFormula prices sheet-fed digital print:
// print + paper + special colors + coating + post-processes.
func calculateFormula(input Input) (costs, error) {
	if input.Formula == nil {
		return costs{}, missingParams(input.Model)
	}
	return formulaCosts(input, *input.Formula)
}

func calculateFormulaCutting(input Input) (costs, error) {
	if input.Cutting == nil {
		return costs{}, missingParams(input.Model)
	}
	c, err := formulaCosts(input, input.Cutting.FormulaParams)
	if err != nil {
		return costs{}, err
	}
	w, h := input.Size.Dimensions()
	cutting, err := LookupCuttingPrice(input.Cutting.CuttingType, w, h, input.Quantity, input.Lookup)
	if err != nil {
		return costs{}, err
	}
	c.cutting = decimal.NewFromInt(cutting)
	return c, nil
}

func formulaCosts(input Input, p FormulaParams) (costs, error) {
	data := input.Lookup
	standard := p.SheetStandard

	imposition, err := resolveImposition(input.Size, input.Size.ImpositionCount, standard, data.ImpositionRules)
	if err != nil {
		return costs{}, err
	}

	sheets := ceilDiv(input.Quantity, imposition)
	loss := LossQuantity(input.Quantity, ResolveLossConfig(input.ProductID, input.CategoryID, data.LossConfigs))

	var c costs

	c.print, err = sheetCost(data, p.PrintMode.PriceCode, sheets, &standard)
	if err != nil {
		return costs{}, err
	}

	for _, sc := range p.SpecialColors {
		cost, err := sheetCost(data, sc.PriceCode, sheets, &standard)
		if err != nil {
			return costs{}, err
		}
		c.specialColor = c.specialColor.Add(cost)
	}

	if p.Coating != nil {
		c.coating, err = sheetCost(data, p.Coating.PriceCode, sheets, &standard)
		if err != nil {
			return costs{}, err
		}
	}

	for _, pp := range p.PostProcesses {
		var cost decimal.Decimal
		switch pp.PriceBasis {
		case PerUnit:
			cost, err = sheetCost(data, pp.PriceCode, input.Quantity, nil)
		default:
			ppStandard := &standard
			if pp.SheetStandard != nil {
				ppStandard = pp.SheetStandard
			}
			cost, err = sheetCost(data, pp.PriceCode, sheets, ppStandard)
		}
		if err != nil {
			return costs{}, err
		}
		c.postProcess = c.postProcess.Add(cost)
	}

	c.paper = paperCost(p.Paper, imposition, input.Quantity+loss, decimal.NewFromInt(1))
	c.postProcess = c.postProcess.Add(optionsCost(input.SelectedOptions, input.Quantity))
	return c, nil
}

func resolveImposition(size SizeSelection, explicit *int, standard string, rules []ImpositionRule) (int, error) {
	if explicit != nil && *explicit > 0 {
		return *explicit, nil
	}
	w, h := size.Dimensions()
	return LookupImposition(w, h, standard, rules)
}

// sheetCost is tier(code, count, standard) * count.
func sheetCost(data *LookupData, code string, count int, standard *string) (decimal.Decimal, error) {
	unit, err := LookupTier(data.PriceTiers, code, count, standard)
	if err != nil {
		return decimal.Zero, err
	}
	return unit.Mul(qty(count)), nil
}

// paperCost is ceil(sellingPer4Cut / imposition * units * multiplier).
func paperCost(paper Paper, imposition, units int, multiplier decimal.Decimal) decimal.Decimal {
	return paper.SellingPer4Cut.
		Mul(qty(units)).
		Mul(multiplier).
		Div(qty(imposition)).
		Ceil()
}
