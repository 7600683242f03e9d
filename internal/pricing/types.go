package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

type Model string

const (
	ModelFormula        Model = "formula"
	ModelFormulaCutting Model = "formula_cutting"
	ModelFixedUnit      Model = "fixed_unit"
	ModelTiered         Model = "tiered"
	ModelPackage        Model = "package"
	ModelComponent      Model = "component"
	ModelFixedSize      Model = "fixed_size"
	ModelFixedPerUnit   Model = "fixed_per_unit"
)

func (m Model) Valid() bool {
	_, ok := strategies[m]
	return ok
}

const (
	MinQuantity = 1
	MaxQuantity = 999999
)

// PriceTier is one quantity band of a price code. UnitPrice doubles as a rate
// for discount_<productID> codes.
type PriceTier struct {
	OptionCode    string          `json:"optionCode"`
	MinQty        int             `json:"minQty"`
	MaxQty        int             `json:"maxQty"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	SheetStandard *string         `json:"sheetStandard"`
}

type ImpositionRule struct {
	CutWidth        float64 `json:"cutWidth"`
	CutHeight       float64 `json:"cutHeight"`
	SheetStandard   string  `json:"sheetStandard"`
	ImpositionCount int     `json:"impositionCount"`
}

type LossScope string

const (
	LossScopeProduct  LossScope = "product"
	LossScopeCategory LossScope = "category"
	LossScopeGlobal   LossScope = "global"
)

type LossConfig struct {
	ScopeType  LossScope       `json:"scopeType"`
	ScopeID    *int64          `json:"scopeId"`
	LossRate   decimal.Decimal `json:"lossRate"`
	MinLossQty int             `json:"minLossQty"`
}

type Paper struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Weight         *int            `json:"weight"`
	CostPer4Cut    decimal.Decimal `json:"costPer4Cut"`
	SellingPer4Cut decimal.Decimal `json:"sellingPer4Cut"`
}

type PrintMode struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	PriceCode string `json:"priceCode"`
	Sides     string `json:"sides"`
	ColorType string `json:"colorType"`
}

type PriceBasis string

const (
	PerSheet PriceBasis = "per_sheet"
	PerUnit  PriceBasis = "per_unit"
)

type PostProcess struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	GroupCode     string     `json:"groupCode"`
	ProcessType   string     `json:"processType"`
	PriceCode     string     `json:"priceCode"`
	PriceBasis    PriceBasis `json:"priceBasis"`
	SheetStandard *string    `json:"sheetStandard"`
}

type Binding struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	PriceCode string `json:"priceCode"`
	MinPages  int    `json:"minPages"`
	MaxPages  int    `json:"maxPages"`
	PageStep  int    `json:"pageStep"`
}

// FixedPriceRecord fields left nil match any search value.
type FixedPriceRecord struct {
	ProductID    int64           `json:"productId"`
	SizeID       *int64          `json:"sizeId"`
	PaperID      *int64          `json:"paperId"`
	PrintModeID  *int64          `json:"printModeId"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	BaseQty      int             `json:"baseQty"`
}

type PackagePriceRecord struct {
	ProductID    int64           `json:"productId"`
	SizeID       int64           `json:"sizeId"`
	PrintModeID  int64           `json:"printModeId"`
	PageCount    int             `json:"pageCount"`
	MinQty       int             `json:"minQty"`
	MaxQty       int             `json:"maxQty"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
}

type FoilPriceRecord struct {
	FoilType     string          `json:"foilType"`
	Width        float64         `json:"width"`
	Height       float64         `json:"height"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
}

// LookupData is supplied by the caller already filtered to active rows and is
// never modified by the engine.
type LookupData struct {
	PriceTiers      []PriceTier          `json:"priceTiers"`
	FixedPrices     []FixedPriceRecord   `json:"fixedPrices"`
	PackagePrices   []PackagePriceRecord `json:"packagePrices"`
	FoilPrices      []FoilPriceRecord    `json:"foilPrices"`
	ImpositionRules []ImpositionRule     `json:"impositionRules"`
	LossConfigs     []LossConfig         `json:"lossConfigs"`
	Papers          []Paper              `json:"papers"`
	PrintModes      []PrintMode          `json:"printModes"`
	PostProcesses   []PostProcess        `json:"postProcesses"`
	Bindings        []Binding            `json:"bindings"`
}

type SizeSelection struct {
	SizeID          int64    `json:"sizeId"`
	CutWidth        float64  `json:"cutWidth"`
	CutHeight       float64  `json:"cutHeight"`
	ImpositionCount *int     `json:"impositionCount"`
	IsCustom        bool     `json:"isCustom"`
	CustomWidth     *float64 `json:"customWidth,omitempty"`
	CustomHeight    *float64 `json:"customHeight,omitempty"`
}

// Dimensions returns the effective cut size, preferring custom dimensions for
// custom sizes.
func (s SizeSelection) Dimensions() (float64, float64) {
	if s.IsCustom && s.CustomWidth != nil && s.CustomHeight != nil {
		return *s.CustomWidth, *s.CustomHeight
	}
	return s.CutWidth, s.CutHeight
}

type SelectedOption struct {
	OptionKey        string           `json:"optionKey"`
	ChoiceCode       string           `json:"choiceCode"`
	ChoiceID         *int64           `json:"choiceId,omitempty"`
	RefPaperID       *int64           `json:"refPaperId,omitempty"`
	RefPrintModeID   *int64           `json:"refPrintModeId,omitempty"`
	RefPostProcessID *int64           `json:"refPostProcessId,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unitPrice,omitempty"`
	// Values holds the extra codes of a multi-select option.
	Values []string `json:"values,omitempty"`
}

// Codes returns the primary choice code followed by any multi-select values.
func (o SelectedOption) Codes() []string {
	codes := make([]string, 0, 1+len(o.Values))
	if o.ChoiceCode != "" {
		codes = append(codes, o.ChoiceCode)
	}
	return append(codes, o.Values...)
}

type Breakdown struct {
	PrintCost        int64 `json:"printCost"`
	PaperCost        int64 `json:"paperCost"`
	SpecialColorCost int64 `json:"specialColorCost"`
	CoatingCost      int64 `json:"coatingCost"`
	PostProcessCost  int64 `json:"postProcessCost"`
	BindingCost      int64 `json:"bindingCost"`
	FoilCost         int64 `json:"foilCost"`
	PackagingCost    int64 `json:"packagingCost"`
	CuttingCost      int64 `json:"cuttingCost"`
	DiscountAmount   int64 `json:"discountAmount"`
}

type Result struct {
	Model             Model     `json:"model"`
	Breakdown         Breakdown `json:"breakdown"`
	TotalPrice        int64     `json:"totalPrice"`
	TotalPriceWithVAT int64     `json:"totalPriceWithVat"`
	UnitPrice         int64     `json:"unitPrice"`
	CalculatedAt      time.Time `json:"calculatedAt"`
}

// Input carries the common pricing fields plus the parameter block of the
// selected model. Only the block matching Model is read.
type Input struct {
	Model           Model            `json:"pricingModel"`
	ProductID       int64            `json:"productId"`
	CategoryID      int64            `json:"categoryId"`
	Quantity        int              `json:"quantity"`
	SelectedOptions []SelectedOption `json:"selectedOptions"`
	Size            SizeSelection    `json:"sizeSelection"`
	Lookup          *LookupData      `json:"-"`

	Formula      *FormulaParams      `json:"formula,omitempty"`
	Cutting      *CuttingParams      `json:"cutting,omitempty"`
	FixedUnit    *FixedUnitParams    `json:"fixedUnit,omitempty"`
	Tiered       *TieredParams       `json:"tiered,omitempty"`
	Package      *PackageParams      `json:"package,omitempty"`
	Component    *ComponentParams    `json:"component,omitempty"`
	FixedSize    *FixedSizeParams    `json:"fixedSize,omitempty"`
	FixedPerUnit *FixedPerUnitParams `json:"fixedPerUnit,omitempty"`
}

type PriceCodeRef struct {
	PriceCode string `json:"priceCode"`
}

type FormulaParams struct {
	Paper         Paper          `json:"paper"`
	PrintMode     PrintMode      `json:"printMode"`
	SpecialColors []PriceCodeRef `json:"specialColors"`
	Coating       *PriceCodeRef  `json:"coating"`
	PostProcesses []PostProcess  `json:"postProcesses"`
	SheetStandard string         `json:"sheetStandard"`
}

type CuttingType string

const (
	HalfCut CuttingType = "half_cut"
	FullCut CuttingType = "full_cut"
	KissCut CuttingType = "kiss_cut"
)

// CuttingParams extends the formula model with a cutting process.
type CuttingParams struct {
	FormulaParams
	CuttingType CuttingType `json:"cuttingType"`
}

type FixedUnitParams struct {
	PaperID     *int64 `json:"paperId"`
	PrintModeID *int64 `json:"printModeId"`
}

type TieredParams struct {
	PriceCode     string  `json:"priceCode"`
	SheetStandard *string `json:"sheetStandard"`
}

type PackageParams struct {
	PrintModeID int64 `json:"printModeId"`
	PageCount   int   `json:"pageCount"`
}

type InnerBody struct {
	Paper           Paper     `json:"paper"`
	PrintMode       PrintMode `json:"printMode"`
	PageCount       int       `json:"pageCount"`
	ImpositionCount *int      `json:"impositionCount"`
	SheetStandard   string    `json:"sheetStandard"`
}

type Cover struct {
	Paper           Paper     `json:"paper"`
	PrintMode       PrintMode `json:"printMode"`
	ImpositionCount *int      `json:"impositionCount"`
	SheetStandard   string    `json:"sheetStandard"`
}

type Foil struct {
	FoilType string  `json:"foilType"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

type ComponentParams struct {
	InnerBody          InnerBody        `json:"innerBody"`
	Cover              Cover            `json:"cover"`
	Binding            Binding          `json:"binding"`
	CoverCoating       *PriceCodeRef    `json:"coverCoating"`
	Foil               *Foil            `json:"foilEmboss"`
	PackagingUnitPrice *decimal.Decimal `json:"packagingUnitPrice"`
}

type FixedSizeParams struct {
	AdditionalOptions []SelectedOption `json:"additionalOptions"`
}

type FixedPerUnitParams struct {
	ProcessingOptions  []SelectedOption  `json:"processingOptions"`
	AdditionalProducts []decimal.Decimal `json:"additionalProducts"`
}
