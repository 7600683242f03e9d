package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// VATRate is the value-added tax applied to VAT-inclusive totals.
var VATRate = decimal.RequireFromString("0.1")

type strategy func(Input) (costs, error)

var strategies = map[Model]strategy{
	ModelFormula:        calculateFormula,
	ModelFormulaCutting: calculateFormulaCutting,
	ModelFixedUnit:      calculateFixedUnit,
	ModelTiered:         calculateTiered,
	ModelPackage:        calculatePackage,
	ModelComponent:      calculateComponent,
	ModelFixedSize:      calculateFixedSize,
	ModelFixedPerUnit:   calculateFixedPerUnit,
}

// now is swapped in tests.
var now = time.Now

// Calculate prices input under its pricing model. The quantity is validated
// before any lookup runs.
func Calculate(input Input) (Result, error) {
	if err := ValidateQuantity(input.Quantity); err != nil {
		return Result{}, err
	}
	calc, ok := strategies[input.Model]
	if !ok {
		return Result{}, newError(CodeUnknownModel,
			fmt.Sprintf("unknown pricing model %q", input.Model),
			map[string]any{"pricingModel": string(input.Model)})
	}
	if input.Lookup == nil {
		input.Lookup = &LookupData{}
	}
	c, err := calc(input)
	if err != nil {
		return Result{}, err
	}
	return assembleResult(c, input.Quantity, input.Model), nil
}

func ValidateQuantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return newError(CodeInvalidQuantity,
			fmt.Sprintf("quantity must be between %d and %d", MinQuantity, MaxQuantity),
			map[string]any{"quantity": quantity})
	}
	return nil
}

// costs is the unrounded breakdown of one calculation.
type costs struct {
	print, paper, specialColor, coating, postProcess decimal.Decimal
	binding, foil, packaging, cutting, discount      decimal.Decimal
}

func (c costs) total() decimal.Decimal {
	return decimal.Sum(c.print, c.paper, c.specialColor, c.coating, c.postProcess,
		c.binding, c.foil, c.packaging, c.cutting).Sub(c.discount)
}

func assembleResult(c costs, quantity int, model Model) Result {
	total := c.total().Floor()
	withVAT := total.Mul(decimal.NewFromInt(1).Add(VATRate)).Floor()
	unit := total.Div(decimal.NewFromInt(int64(quantity))).Floor()

	return Result{
		Model: model,
		Breakdown: Breakdown{
			PrintCost:        c.print.Floor().IntPart(),
			PaperCost:        c.paper.Floor().IntPart(),
			SpecialColorCost: c.specialColor.Floor().IntPart(),
			CoatingCost:      c.coating.Floor().IntPart(),
			PostProcessCost:  c.postProcess.Floor().IntPart(),
			BindingCost:      c.binding.Floor().IntPart(),
			FoilCost:         c.foil.Floor().IntPart(),
			PackagingCost:    c.packaging.Floor().IntPart(),
			CuttingCost:      c.cutting.Floor().IntPart(),
			DiscountAmount:   c.discount.Floor().IntPart(),
		},
		TotalPrice:        total.IntPart(),
		TotalPriceWithVAT: withVAT.IntPart(),
		UnitPrice:         unit.IntPart(),
		CalculatedAt:      now(),
	}
}

func missingParams(model Model) error {
	return newError(CodeMissingParams,
		fmt.Sprintf("pricing model %s requires its parameter block", model),
		map[string]any{"pricingModel": string(model)})
}

// optionsCost sums explicit option unit prices times quantity.
func optionsCost(options []SelectedOption, quantity int) decimal.Decimal {
	sum := decimal.Zero
	for _, opt := range options {
		sum = sum.Add(LookupOptionPrice(opt))
	}
	return sum.Mul(qty(quantity))
}

func qty(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
