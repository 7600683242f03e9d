package pricing

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

const impositionTolerance = 0.5

// LookupTier returns the unit price of the first tier whose code matches and
// whose inclusive quantity range covers quantity. A nil sheet standard on
// either the tier or the search matches any standard.
func LookupTier(tiers []PriceTier, optionCode string, quantity int, sheetStandard *string) (decimal.Decimal, error) {
	for _, t := range tiers {
		if t.OptionCode != optionCode {
			continue
		}
		if quantity < t.MinQty || quantity > t.MaxQty {
			continue
		}
		if !optionalMatch(t.SheetStandard, sheetStandard) {
			continue
		}
		return t.UnitPrice, nil
	}

	var standard any
	if sheetStandard != nil {
		standard = *sheetStandard
	}
	return decimal.Zero, newError(CodeTierNotFound,
		fmt.Sprintf("no price tier for %s at quantity %d", optionCode, quantity),
		map[string]any{"optionCode": optionCode, "quantity": quantity, "sheetStandard": standard})
}

// LookupImposition returns the sheets-per-plate count for a cut size. Both
// dimensions must be strictly within 0.5mm and the standard must match.
func LookupImposition(cutWidth, cutHeight float64, sheetStandard string, rules []ImpositionRule) (int, error) {
	for _, r := range rules {
		if math.Abs(r.CutWidth-cutWidth) < impositionTolerance &&
			math.Abs(r.CutHeight-cutHeight) < impositionTolerance &&
			r.SheetStandard == sheetStandard && r.ImpositionCount > 0 {
			return r.ImpositionCount, nil
		}
	}
	return 0, newError(CodeImpositionNotFound,
		fmt.Sprintf("no imposition rule for %gx%g on %s", cutWidth, cutHeight, sheetStandard),
		map[string]any{"cutWidth": cutWidth, "cutHeight": cutHeight, "sheetStandard": sheetStandard})
}

// LookupFixedPrice matches the product exactly. Size, paper and print mode
// are wildcards when nil on either the record or the search.
func LookupFixedPrice(productID int64, sizeID, paperID, printModeID *int64, records []FixedPriceRecord) (FixedPriceRecord, error) {
	for _, r := range records {
		if r.ProductID != productID {
			continue
		}
		if !optionalMatch(r.SizeID, sizeID) || !optionalMatch(r.PaperID, paperID) || !optionalMatch(r.PrintModeID, printModeID) {
			continue
		}
		return r, nil
	}
	return FixedPriceRecord{}, newError(CodeFixedPriceNotFound,
		fmt.Sprintf("no fixed price for product %d", productID),
		map[string]any{
			"productId":   productID,
			"sizeId":      derefOrNil(sizeID),
			"paperId":     derefOrNil(paperID),
			"printModeId": derefOrNil(printModeID),
		})
}

// LookupPackagePrice requires an exact product/size/print-mode/page-count
// match and a quantity band covering quantity.
func LookupPackagePrice(productID, sizeID, printModeID int64, pageCount, quantity int, records []PackagePriceRecord) (PackagePriceRecord, error) {
	for _, r := range records {
		if r.ProductID == productID &&
			r.SizeID == sizeID &&
			r.PrintModeID == printModeID &&
			r.PageCount == pageCount &&
			quantity >= r.MinQty && quantity <= r.MaxQty {
			return r, nil
		}
	}
	return PackagePriceRecord{}, newError(CodePackagePriceNotFound,
		fmt.Sprintf("no package price for product %d", productID),
		map[string]any{
			"productId":   productID,
			"sizeId":      sizeID,
			"printModeId": printModeID,
			"pageCount":   pageCount,
			"quantity":    quantity,
		})
}

// LookupOptionPrice returns the explicit unit price of a selected option, or
// zero.
func LookupOptionPrice(opt SelectedOption) decimal.Decimal {
	if opt.UnitPrice == nil {
		return decimal.Zero
	}
	return *opt.UnitPrice
}

// LookupCuttingPrice prices a cutting process from the tier keyed by cutting
// type. The dimensions identify the job for error context only.
func LookupCuttingPrice(cuttingType CuttingType, width, height float64, quantity int, data *LookupData) (int64, error) {
	unit, err := LookupTier(data.PriceTiers, string(cuttingType), quantity, nil)
	if err != nil {
		if pe, ok := err.(*Error); ok {
			pe.Context["width"] = width
			pe.Context["height"] = height
		}
		return 0, err
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity))).IntPart(), nil
}

// LookupQuantityDiscount returns the discount rate tier for the product, or 1
// when none applies. It never fails.
func LookupQuantityDiscount(productID int64, quantity int, data *LookupData) decimal.Decimal {
	if data == nil {
		return decimal.NewFromInt(1)
	}
	rate, err := LookupTier(data.PriceTiers, DiscountCode(productID), quantity, nil)
	if err != nil {
		return decimal.NewFromInt(1)
	}
	return rate
}

func DiscountCode(productID int64) string {
	return "discount_" + strconv.FormatInt(productID, 10)
}

// LookupFoilPrice returns the price of an exact foil type and size, or zero.
func LookupFoilPrice(foilType string, width, height float64, records []FoilPriceRecord) decimal.Decimal {
	for _, r := range records {
		if r.FoilType == foilType && r.Width == width && r.Height == height {
			return r.SellingPrice
		}
	}
	return decimal.Zero
}

func optionalMatch[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return true
	}
	return *a == *b
}

func derefOrNil[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
