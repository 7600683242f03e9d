package pricing

import "github.com/shopspring/decimal"

// calculateFixedUnit prices from a fixed record quoted per BaseQty units.
func calculateFixedUnit(input Input) (costs, error) {
	if input.FixedUnit == nil {
		return costs{}, missingParams(input.Model)
	}
	record, err := LookupFixedPrice(input.ProductID, sizeRef(input.Size),
		input.FixedUnit.PaperID, input.FixedUnit.PrintModeID, input.Lookup.FixedPrices)
	if err != nil {
		return costs{}, err
	}
	baseQty := max(record.BaseQty, 1)

	var c costs
	c.print = record.SellingPrice.Mul(qty(input.Quantity)).Div(qty(baseQty))
	c.postProcess = optionsCost(input.SelectedOptions, input.Quantity)
	return c, nil
}

// calculateTiered prices quantity against a single product tier code.
func calculateTiered(input Input) (costs, error) {
	if input.Tiered == nil {
		return costs{}, missingParams(input.Model)
	}
	unit, err := LookupTier(input.Lookup.PriceTiers, input.Tiered.PriceCode, input.Quantity, input.Tiered.SheetStandard)
	if err != nil {
		return costs{}, err
	}

	var c costs
	c.print = unit.Mul(qty(input.Quantity))
	c.postProcess = optionsCost(input.SelectedOptions, input.Quantity)
	return c, nil
}

func calculatePackage(input Input) (costs, error) {
	if input.Package == nil {
		return costs{}, missingParams(input.Model)
	}
	record, err := LookupPackagePrice(input.ProductID, input.Size.SizeID, input.Package.PrintModeID,
		input.Package.PageCount, input.Quantity, input.Lookup.PackagePrices)
	if err != nil {
		return costs{}, err
	}

	var c costs
	c.print = record.SellingPrice
	c.postProcess = optionsCost(input.SelectedOptions, input.Quantity)
	return c, nil
}

// calculateFixedSize prices a per-unit size price plus option surcharges.
func calculateFixedSize(input Input) (costs, error) {
	if input.FixedSize == nil {
		return costs{}, missingParams(input.Model)
	}
	record, err := LookupFixedPrice(input.ProductID, sizeRef(input.Size), nil, nil, input.Lookup.FixedPrices)
	if err != nil {
		return costs{}, err
	}

	var c costs
	c.print = record.SellingPrice.Mul(qty(input.Quantity))
	c.postProcess = optionsCost(input.FixedSize.AdditionalOptions, input.Quantity)
	return c, nil
}

// calculateFixedPerUnit prices goods such as acrylic items: unit price plus
// processing and add-on products, reduced by the quantity discount rate.
func calculateFixedPerUnit(input Input) (costs, error) {
	if input.FixedPerUnit == nil {
		return costs{}, missingParams(input.Model)
	}
	record, err := LookupFixedPrice(input.ProductID, sizeRef(input.Size), nil, nil, input.Lookup.FixedPrices)
	if err != nil {
		return costs{}, err
	}
	p := input.FixedPerUnit

	var c costs
	c.print = record.SellingPrice.Mul(qty(input.Quantity))
	c.postProcess = optionsCost(p.ProcessingOptions, input.Quantity)
	additional := decimal.Zero
	for _, price := range p.AdditionalProducts {
		additional = additional.Add(price)
	}
	c.packaging = additional.Mul(qty(input.Quantity))

	subtotal := c.total()
	rate := LookupQuantityDiscount(input.ProductID, input.Quantity, input.Lookup)
	discounted := subtotal.Mul(rate).Floor()
	c.discount = subtotal.Sub(discounted)
	return c, nil
}

func sizeRef(size SizeSelection) *int64 {
	if size.SizeID == 0 {
		return nil
	}
	id := size.SizeID
	return &id
}
