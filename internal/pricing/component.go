package pricing

import "github.com/shopspring/decimal"

// calculateComponent prices booklets part by part: inner body and cover
// paper and print, cover coating, binding, foil and packaging.
func calculateComponent(input Input) (costs, error) {
	p := input.Component
	if p == nil {
		return costs{}, missingParams(input.Model)
	}
	data := input.Lookup
	loss := LossQuantity(input.Quantity, ResolveLossConfig(input.ProductID, input.CategoryID, data.LossConfigs))

	// double-sided inner pages: two pages per leaf
	innerMultiplier := decimal.NewFromInt(int64(p.InnerBody.PageCount)).Div(decimal.NewFromInt(2))
	one := decimal.NewFromInt(1)

	innerImp, err := resolveImposition(input.Size, p.InnerBody.ImpositionCount, p.InnerBody.SheetStandard, data.ImpositionRules)
	if err != nil {
		return costs{}, err
	}
	coverImp, err := resolveImposition(input.Size, p.Cover.ImpositionCount, p.Cover.SheetStandard, data.ImpositionRules)
	if err != nil {
		return costs{}, err
	}

	var c costs

	innerPrint, err := partPrintCost(data, p.InnerBody.PrintMode, innerImp, p.InnerBody.SheetStandard, input.Quantity, innerMultiplier)
	if err != nil {
		return costs{}, err
	}
	coverPrint, err := partPrintCost(data, p.Cover.PrintMode, coverImp, p.Cover.SheetStandard, input.Quantity, one)
	if err != nil {
		return costs{}, err
	}
	c.print = innerPrint.Add(coverPrint)
	c.paper = paperCost(p.InnerBody.Paper, innerImp, input.Quantity+loss, innerMultiplier).
		Add(paperCost(p.Cover.Paper, coverImp, input.Quantity+loss, one))

	if p.CoverCoating != nil {
		coverSheets := ceilDiv(input.Quantity, coverImp)
		standard := p.Cover.SheetStandard
		c.coating, err = sheetCost(data, p.CoverCoating.PriceCode, coverSheets, &standard)
		if err != nil {
			return costs{}, err
		}
	}

	c.binding, err = sheetCost(data, p.Binding.PriceCode, input.Quantity, nil)
	if err != nil {
		return costs{}, err
	}

	if p.Foil != nil {
		c.foil = LookupFoilPrice(p.Foil.FoilType, p.Foil.Width, p.Foil.Height, data.FoilPrices)
	}
	if p.PackagingUnitPrice != nil {
		c.packaging = p.PackagingUnitPrice.Mul(qty(input.Quantity))
	}
	return c, nil
}

// partPrintCost is tier(code, sheets, standard) * sheets with
// sheets = ceil(quantity * multiplier / imposition).
func partPrintCost(data *LookupData, mode PrintMode, imposition int, standard string, quantity int, multiplier decimal.Decimal) (decimal.Decimal, error) {
	sheets := int(qty(quantity).Mul(multiplier).Div(qty(imposition)).Ceil().IntPart())
	return sheetCost(data, mode.PriceCode, sheets, &standard)
}
