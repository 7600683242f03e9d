package catalog

import (
	"printquote/backend/internal/constraint"
	"printquote/backend/internal/option"
	"printquote/backend/internal/pricing"
)

type Product struct {
	ID               int64         `json:"id"`
	CategoryID       int64         `json:"categoryId"`
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	Model            pricing.Model `json:"pricingModel"`
	IsActive         bool          `json:"isActive"`
	IsVisible        bool          `json:"isVisible"`
	HasDefaultRecipe bool          `json:"hasDefaultRecipe"`
	EdicusCode       *string       `json:"edicusCode"`
	MESItemCode      *string       `json:"mesItemCd"`
}

// PriceConfig holds the product-level pricing settings that do not come from
// a selected option.
type PriceConfig struct {
	ProductID     int64               `json:"productId"`
	Model         pricing.Model       `json:"pricingModel"`
	BasePrice     int64               `json:"basePrice"`
	SheetStandard string              `json:"sheetStandard"`
	PriceCode     string              `json:"priceCode"`
	CuttingType   pricing.CuttingType `json:"cuttingType"`
	PageCount     int                 `json:"pageCount"`
	IsActive      bool                `json:"isActive"`
}

type Size struct {
	ID              int64   `json:"id"`
	ProductID       int64   `json:"productId"`
	Name            string  `json:"name"`
	CutWidth        float64 `json:"cutWidth"`
	CutHeight       float64 `json:"cutHeight"`
	ImpositionCount *int    `json:"impositionCount"`
}

// Bundle is everything the quote core needs about one product, loaded
// up front by the store.
type Bundle struct {
	Product      Product                 `json:"product"`
	Definitions  []option.Definition     `json:"definitions"`
	Choices      []option.Choice         `json:"choices"`
	Dependencies []option.Dependency     `json:"dependencies"`
	Constraints  []constraint.Constraint `json:"constraints"`
	PriceConfig  *PriceConfig            `json:"priceConfig"`
	Sizes        []Size                  `json:"sizes"`
	Lookup       pricing.LookupData      `json:"lookup"`
}

// OptionInput prepares a resolver call for the given selections.
func (b *Bundle) OptionInput(selections map[string]pricing.SelectedOption, quantity int) option.Input {
	enriched := option.Enrich(b.Definitions, b.Choices, selections)
	in := option.Input{
		ProductID:    b.Product.ID,
		Definitions:  b.Definitions,
		Choices:      b.Choices,
		Dependencies: b.Dependencies,
		Constraints:  b.Constraints,
		Selections:   enriched,
		SizeOf:       b.SizeFor,
		Quantity:     quantity,
		Papers:       b.Lookup.Papers,
	}
	if size, ok := b.SizeFor(enriched); ok {
		in.Size = &size
	}
	return in
}

// choice finds an active choice of the option by code.
func (b *Bundle) choice(definitionID int64, code string) (option.Choice, bool) {
	for _, c := range b.Choices {
		if c.DefinitionID == definitionID && c.Code == code && c.IsActive {
			return c, true
		}
	}
	return option.Choice{}, false
}

func (b *Bundle) size(id int64) (Size, bool) {
	for _, s := range b.Sizes {
		if s.ID == id {
			return s, true
		}
	}
	return Size{}, false
}
