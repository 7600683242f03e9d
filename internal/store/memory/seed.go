package memory

import (
	"github.com/shopspring/decimal"

	"printquote/backend/internal/catalog"
	"printquote/backend/internal/constraint"
	"printquote/backend/internal/option"
	"printquote/backend/internal/pricing"
)

const (
	PostcardProductID int64 = 1
	FlyerProductID    int64 = 2
)

func ptr[T any](v T) *T { return &v }

func won(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func definition(productID, id int64, key, class string, required bool, sortOrder int) option.Definition {
	return option.Definition{
		ID: id, ProductID: productID, DefinitionID: id,
		Key: key, Class: class, Label: key,
		Required: required, Visible: true, SortOrder: sortOrder,
	}
}

func choice(id, definitionID int64, code, label string, sortOrder int) option.Choice {
	return option.Choice{ID: id, DefinitionID: definitionID, Code: code, Label: label, IsActive: true, SortOrder: sortOrder}
}

// SeedBundles returns the demo catalog: a formula-priced postcard and a
// fixed-unit flyer that still lacks an integration code.
func SeedBundles() []*catalog.Bundle {
	return []*catalog.Bundle{postcard(), flyer()}
}

// SeedTemplates returns the category-level constraints keyed by category.
// The postcard product overrides the size/finishing rule with its own.
func SeedTemplates() map[int64][]constraint.Constraint {
	return map[int64][]constraint.Constraint{
		100: {
			{
				ID: 1001, Type: constraint.TypeECA, Name: "Small sizes skip finishing",
				SourceField: "size", TargetField: "finishing",
				Operator: constraint.OpEquals, SourceValues: []string{"namecard"},
				Actions: []constraint.Action{{Type: constraint.ActionBlock, Message: "Finishing is unavailable for this size"}},
				Priority: 1, IsActive: true,
			},
			{
				ID: 1002, Type: constraint.TypeECA, Name: "Single-sided notice",
				SourceField: "print", TargetField: "print",
				Operator: constraint.OpEquals, SourceValues: []string{"single"},
				Actions: []constraint.Action{{Type: constraint.ActionShowMessage, Message: "The back side stays blank", Level: constraint.LevelInfo}},
				Priority: 1, IsActive: true,
			},
		},
	}
}

func postcard() *catalog.Bundle {
	a3 := ptr("A3")

	standard := choice(1, 10, "postcard", "Postcard 100x150", 1)
	standard.RefSizeID = ptr(int64(1))
	standard.IsDefault = true
	namecard := choice(2, 10, "namecard", "Name card 92x57", 2)
	namecard.RefSizeID = ptr(int64(2))
	art250 := choice(3, 20, "art250", "Art 250g", 1)
	art250.RefPaperID = ptr(int64(1))
	art250.IsDefault = true
	art300 := choice(4, 20, "art300", "Art 300g", 2)
	art300.RefPaperID = ptr(int64(2))
	double := choice(5, 30, "double", "Double-sided color", 1)
	double.RefPrintModeID = ptr(int64(1))
	double.IsDefault = true
	single := choice(6, 30, "single", "Single-sided color", 2)
	single.RefPrintModeID = ptr(int64(2))
	matte := choice(7, 40, "matte", "Matte coating", 1)
	matte.PriceKey = ptr("coating_matte")
	gloss := choice(8, 40, "gloss", "Gloss coating", 2)
	gloss.PriceKey = ptr("coating_gloss")
	lamination := choice(9, 50, "lamination", "Lamination", 1)
	lamination.RefPostProcessID = ptr(int64(1))
	rounding := choice(10, 50, "rounding", "Round corners", 2)
	rounding.RefPostProcessID = ptr(int64(2))

	return &catalog.Bundle{
		Product: catalog.Product{
			ID: PostcardProductID, CategoryID: 100, Name: "Postcard", Slug: "postcard",
			Model: pricing.ModelFormula, IsActive: true, HasDefaultRecipe: true,
			MESItemCode: ptr("PC-001"),
		},
		Definitions: []option.Definition{
			definition(PostcardProductID, 10, "size", catalog.ClassSize, true, 1),
			definition(PostcardProductID, 20, "paper", catalog.ClassPaper, true, 2),
			definition(PostcardProductID, 30, "print", catalog.ClassPrint, true, 3),
			definition(PostcardProductID, 40, "coating", catalog.ClassCoating, false, 4),
			definition(PostcardProductID, 50, "finishing", catalog.ClassPostProcess, false, 5),
		},
		Choices: []option.Choice{standard, namecard, art250, art300, double, single, matte, gloss, lamination, rounding},
		Dependencies: []option.Dependency{
			{ID: 1, ProductID: PostcardProductID, ParentOptionID: 40, ChildOptionID: 50, Type: option.DependVisibility},
		},
		Constraints: []constraint.Constraint{
			{
				ID: 1, ProductID: PostcardProductID, Type: constraint.TypeECA,
				Name: "Heavy stock prints double-sided", SourceField: "paper",
				Operator: constraint.OpEquals, SourceValues: []string{"art300"},
				Actions: []constraint.Action{
					{Type: constraint.ActionExclude, TargetOption: "print", Values: []string{"single"}},
				},
				Priority: 10, IsActive: true,
			},
			{
				ID: 2, ProductID: PostcardProductID, Type: constraint.TypeECA,
				Name: "Name cards skip lamination", SourceField: "size", TargetField: "finishing",
				Operator: constraint.OpEquals, SourceValues: []string{"namecard"},
				Actions: []constraint.Action{
					{Type: constraint.ActionShowMessage, Message: "Lamination is not available for name cards", Level: constraint.LevelWarning},
					{Type: constraint.ActionExclude, TargetOption: "finishing", Values: []string{"lamination"}},
				},
				Priority: 5, IsActive: true,
			},
		},
		PriceConfig: &catalog.PriceConfig{
			ProductID: PostcardProductID, Model: pricing.ModelFormula, SheetStandard: "A3", IsActive: true,
		},
		Sizes: []catalog.Size{
			{ID: 1, ProductID: PostcardProductID, Name: "Postcard", CutWidth: 100, CutHeight: 150, ImpositionCount: ptr(8)},
			{ID: 2, ProductID: PostcardProductID, Name: "Name card", CutWidth: 92, CutHeight: 57, ImpositionCount: ptr(16)},
		},
		Lookup: pricing.LookupData{
			PriceTiers: []pricing.PriceTier{
				{OptionCode: "8", MinQty: 1, MaxQty: 100, UnitPrice: won(1500), SheetStandard: a3},
				{OptionCode: "8", MinQty: 101, MaxQty: 999999, UnitPrice: won(1200), SheetStandard: a3},
				{OptionCode: "4", MinQty: 1, MaxQty: 999999, UnitPrice: won(900), SheetStandard: a3},
				{OptionCode: "coating_matte", MinQty: 1, MaxQty: 999999, UnitPrice: won(500)},
				{OptionCode: "coating_gloss", MinQty: 1, MaxQty: 999999, UnitPrice: won(450)},
				{OptionCode: "lamination", MinQty: 1, MaxQty: 999999, UnitPrice: won(50)},
				{OptionCode: "rounding", MinQty: 1, MaxQty: 999999, UnitPrice: won(30)},
			},
			ImpositionRules: []pricing.ImpositionRule{
				{CutWidth: 100, CutHeight: 150, SheetStandard: "A3", ImpositionCount: 8},
				{CutWidth: 92, CutHeight: 57, SheetStandard: "A3", ImpositionCount: 16},
			},
			LossConfigs: []pricing.LossConfig{
				{ScopeType: pricing.LossScopeGlobal, LossRate: decimal.RequireFromString("0.03"), MinLossQty: 10},
			},
			Papers: []pricing.Paper{
				{ID: 1, Name: "Art 250", Weight: ptr(250), SellingPer4Cut: won(240)},
				{ID: 2, Name: "Art 300", Weight: ptr(300), SellingPer4Cut: won(300)},
			},
			PrintModes: []pricing.PrintMode{
				{ID: 1, Name: "Double", PriceCode: "8", Sides: "double", ColorType: "color"},
				{ID: 2, Name: "Single", PriceCode: "4", Sides: "single", ColorType: "color"},
			},
			PostProcesses: []pricing.PostProcess{
				{ID: 1, Name: "Lamination", PriceCode: "lamination", PriceBasis: pricing.PerUnit},
				{ID: 2, Name: "Round corners", PriceCode: "rounding", PriceBasis: pricing.PerUnit},
			},
		},
	}
}

func flyer() *catalog.Bundle {
	a4 := choice(101, 110, "a4", "A4", 1)
	a4.RefSizeID = ptr(int64(11))
	a4.IsDefault = true
	a5 := choice(102, 110, "a5", "A5", 2)
	a5.RefSizeID = ptr(int64(12))
	snow := choice(103, 120, "snow150", "Snow 150g", 1)
	snow.RefPaperID = ptr(int64(3))
	snow.IsDefault = true
	art := choice(104, 120, "art150", "Art 150g", 2)
	art.RefPaperID = ptr(int64(4))

	return &catalog.Bundle{
		Product: catalog.Product{
			ID: FlyerProductID, CategoryID: 200, Name: "Flyer", Slug: "flyer",
			Model: pricing.ModelFixedUnit, IsActive: true, HasDefaultRecipe: true,
		},
		Definitions: []option.Definition{
			definition(FlyerProductID, 110, "size", catalog.ClassSize, true, 1),
			definition(FlyerProductID, 120, "paper", catalog.ClassPaper, true, 2),
		},
		Choices:     []option.Choice{a4, a5, snow, art},
		PriceConfig: &catalog.PriceConfig{ProductID: FlyerProductID, Model: pricing.ModelFixedUnit, IsActive: true},
		Sizes: []catalog.Size{
			{ID: 11, ProductID: FlyerProductID, Name: "A4", CutWidth: 210, CutHeight: 297},
			{ID: 12, ProductID: FlyerProductID, Name: "A5", CutWidth: 148, CutHeight: 210},
		},
		Lookup: pricing.LookupData{
			FixedPrices: []pricing.FixedPriceRecord{
				{ProductID: FlyerProductID, SizeID: ptr(int64(11)), SellingPrice: won(30000), BaseQty: 100},
				{ProductID: FlyerProductID, SizeID: ptr(int64(12)), SellingPrice: won(18000), BaseQty: 100},
			},
			Papers: []pricing.Paper{
				{ID: 3, Name: "Snow 150", Weight: ptr(150)},
				{ID: 4, Name: "Art 150", Weight: ptr(150)},
			},
		},
	}
}
