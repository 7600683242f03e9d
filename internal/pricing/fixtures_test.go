package pricing

import "github.com/shopspring/decimal"

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tier(code string, lo, hi int, price string, standard *string) PriceTier {
	return PriceTier{OptionCode: code, MinQty: lo, MaxQty: hi, UnitPrice: dec(price), SheetStandard: standard}
}

var (
	a3 = ptr("A3")
	t3 = ptr("T3")

	paperArt250 = Paper{ID: 1, Name: "Art Paper 250g", Weight: ptr(250), CostPer4Cut: dec("180"), SellingPer4Cut: dec("240")}
	paperArt300 = Paper{ID: 2, Name: "Art Paper 300g", Weight: ptr(300), CostPer4Cut: dec("220"), SellingPer4Cut: dec("300")}

	printDouble = PrintMode{ID: 1, Name: "Double-sided Color", PriceCode: "8", Sides: "double", ColorType: "full_color"}
	printSingle = PrintMode{ID: 2, Name: "Single-sided Color", PriceCode: "4", Sides: "single", ColorType: "full_color"}

	roundCut   = PostProcess{ID: 1, Name: "Round Cut", GroupCode: "cutting", ProcessType: "round_cut", PriceCode: "round_cut", PriceBasis: PerSheet, SheetStandard: a3}
	lamination = PostProcess{ID: 2, Name: "Lamination", GroupCode: "lamination", ProcessType: "matt_lamination", PriceCode: "lamination", PriceBasis: PerUnit}

	perfectBinding = Binding{ID: 2, Name: "Perfect Binding", PriceCode: "perfect_binding", MinPages: 16, MaxPages: 1000, PageStep: 2}

	size100x150 = SizeSelection{SizeID: 1, CutWidth: 100, CutHeight: 150, ImpositionCount: ptr(8)}
	size92x57   = SizeSelection{SizeID: 2, CutWidth: 92, CutHeight: 57, ImpositionCount: ptr(16)}
	size50x50   = SizeSelection{SizeID: 3, CutWidth: 50, CutHeight: 50}
	sizeA3      = SizeSelection{SizeID: 4, CutWidth: 297, CutHeight: 420, ImpositionCount: ptr(1)}
	sizeA5      = SizeSelection{SizeID: 5, CutWidth: 148, CutHeight: 210, ImpositionCount: ptr(4)}
)

func testTiers() []PriceTier {
	return []PriceTier{
		tier("8", 1, 10, "2000", a3),
		tier("8", 11, 100, "1500", a3),
		tier("8", 101, 1000, "1200", a3),
		tier("8", 1001, 999999, "1000", a3),
		tier("8", 1, 999999, "1800", t3),
		tier("4", 1, 10, "1200", a3),
		tier("4", 11, 999999, "900", a3),
		tier("spot_white", 1, 10, "1000", a3),
		tier("spot_white", 11, 20, "800", a3),
		tier("spot_white", 21, 999999, "600", a3),
		tier("coating_matte", 1, 20, "500", nil),
		tier("coating_matte", 21, 999999, "400", nil),
		tier("round_cut", 1, 50, "300", a3),
		tier("round_cut", 51, 999999, "200", a3),
		tier("lamination", 1, 100, "50", nil),
		tier("lamination", 101, 999999, "40", nil),
		tier("perfect_binding", 1, 50, "500", nil),
		tier("perfect_binding", 51, 999999, "400", nil),
		tier("half_cut", 1, 999999, "20", nil),
		tier("poster_tier", 1, 99, "1000", nil),
		tier("poster_tier", 100, 999999, "800", nil),
		tier("discount_100", 1, 9, "1.0", nil),
		tier("discount_100", 10, 49, "0.9", nil),
		tier("discount_100", 50, 999999, "0.8", nil),
	}
}

func testLookupData() *LookupData {
	return &LookupData{
		PriceTiers: testTiers(),
		FixedPrices: []FixedPriceRecord{
			{ProductID: 20, SizeID: ptr(int64(2)), PaperID: ptr(int64(1)), PrintModeID: ptr(int64(1)), SellingPrice: dec("15000"), CostPrice: dec("10000"), BaseQty: 100},
			{ProductID: 20, SizeID: ptr(int64(2)), PaperID: ptr(int64(2)), PrintModeID: ptr(int64(1)), SellingPrice: dec("18000"), CostPrice: dec("12000"), BaseQty: 100},
			{ProductID: 30, SizeID: ptr(int64(4)), SellingPrice: dec("5000"), CostPrice: dec("3000"), BaseQty: 1},
			{ProductID: 100, SizeID: ptr(int64(3)), SellingPrice: dec("3260"), CostPrice: dec("2000"), BaseQty: 1},
		},
		PackagePrices: []PackagePriceRecord{
			{ProductID: 40, SizeID: 1, PrintModeID: 1, PageCount: 24, MinQty: 1, MaxQty: 29, SellingPrice: dec("25000")},
			{ProductID: 40, SizeID: 1, PrintModeID: 1, PageCount: 24, MinQty: 30, MaxQty: 99, SellingPrice: dec("20000")},
			{ProductID: 40, SizeID: 1, PrintModeID: 1, PageCount: 24, MinQty: 100, MaxQty: 999999, SellingPrice: dec("15000")},
		},
		FoilPrices: []FoilPriceRecord{
			{FoilType: "gold", Width: 50, Height: 50, SellingPrice: dec("3000")},
			{FoilType: "silver", Width: 50, Height: 50, SellingPrice: dec("2500")},
			{FoilType: "gold", Width: 100, Height: 100, SellingPrice: dec("5000")},
		},
		ImpositionRules: []ImpositionRule{
			{CutWidth: 100, CutHeight: 150, SheetStandard: "A3", ImpositionCount: 8},
			{CutWidth: 92, CutHeight: 57, SheetStandard: "A3", ImpositionCount: 16},
			{CutWidth: 50, CutHeight: 50, SheetStandard: "A3", ImpositionCount: 24},
			{CutWidth: 148, CutHeight: 210, SheetStandard: "A3", ImpositionCount: 4},
			{CutWidth: 297, CutHeight: 420, SheetStandard: "A3", ImpositionCount: 1},
			{CutWidth: 100, CutHeight: 150, SheetStandard: "T3", ImpositionCount: 12},
		},
		LossConfigs: []LossConfig{
			{ScopeType: LossScopeProduct, ScopeID: ptr(int64(10)), LossRate: dec("0.05"), MinLossQty: 20},
			{ScopeType: LossScopeCategory, ScopeID: ptr(int64(1)), LossRate: dec("0.04"), MinLossQty: 15},
			{ScopeType: LossScopeGlobal, LossRate: dec("0.03"), MinLossQty: 10},
		},
		Papers:        []Paper{paperArt250, paperArt300},
		PrintModes:    []PrintMode{printDouble, printSingle},
		PostProcesses: []PostProcess{roundCut, lamination},
		Bindings:      []Binding{perfectBinding},
	}
}

// formulaInput is the 100x150 Art250 double-sided golden case. Category 999
// has no loss config, so the global one applies.
func formulaInput(quantity int) Input {
	return Input{
		Model:      ModelFormula,
		ProductID:  1,
		CategoryID: 999,
		Quantity:   quantity,
		Size:       size100x150,
		Lookup:     testLookupData(),
		Formula: &FormulaParams{
			Paper:         paperArt250,
			PrintMode:     printDouble,
			SheetStandard: "A3",
		},
	}
}
