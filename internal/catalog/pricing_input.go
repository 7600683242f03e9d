package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"printquote/backend/internal/option"
	"printquote/backend/internal/pricing"
)

// ErrMissingSelection reports a selection the product's pricing model cannot
// do without.
var ErrMissingSelection = errors.New("missing selection")

// Option classes understood when building pricing input. Any selection with a
// unit price, other than packaging and additional products, is also priced as
// an option surcharge.
const (
	ClassSize              = "size"
	ClassPaper             = "paper"
	ClassPrint             = "print"
	ClassPageCount         = "page_count"
	ClassBinding           = "binding"
	ClassCoating           = "coating"
	ClassSpecialColor      = "special_color"
	ClassPostProcess       = "post_process"
	ClassCutting           = "cutting"
	ClassFoil              = "foil"
	ClassPackaging         = "packaging"
	ClassProcessing        = "processing"
	ClassAdditionalProduct = "additional_product"
	ClassInnerPaper        = "inner_paper"
	ClassInnerPrint        = "inner_print"
	ClassCoverPaper        = "cover_paper"
	ClassCoverPrint        = "cover_print"
	ClassCoverCoating      = "cover_coating"
)

// parts is the selection set sorted into pricing ingredients.
type parts struct {
	paper, innerPaper, coverPaper *pricing.Paper
	print, innerPrint, coverPrint *pricing.PrintMode
	specialColors                 []pricing.PriceCodeRef
	coating, coverCoating         *pricing.PriceCodeRef
	postProcesses                 []pricing.PostProcess
	binding                       *pricing.Binding
	pageCount                     int
	cutting                       pricing.CuttingType
	foil                          *pricing.Foil
	packaging                     *decimal.Decimal
	processing                    []pricing.SelectedOption
	additional                    []decimal.Decimal
	priced                        []pricing.SelectedOption
}

// SizeFor returns the size named by the size option: a catalog size through
// the choice's size reference, or a custom "WxH" code.
func (b *Bundle) SizeFor(selections map[string]pricing.SelectedOption) (pricing.SizeSelection, bool) {
	for _, def := range b.Definitions {
		if def.Class != ClassSize {
			continue
		}
		sel, ok := selections[def.Key]
		if !ok {
			continue
		}
		if c, known := b.choice(def.DefinitionID, sel.ChoiceCode); known && c.RefSizeID != nil {
			if s, found := b.size(*c.RefSizeID); found {
				return pricing.SizeSelection{
					SizeID:          s.ID,
					CutWidth:        s.CutWidth,
					CutHeight:       s.CutHeight,
					ImpositionCount: s.ImpositionCount,
				}, true
			}
		}
		for _, code := range append([]string{sel.ChoiceCode}, sel.Values...) {
			if w, h, err := pricing.ParseSize(code); err == nil {
				return pricing.SizeSelection{IsCustom: true, CustomWidth: &w, CustomHeight: &h}, true
			}
		}
	}
	return pricing.SizeSelection{}, false
}

// PricingInput maps the product's selections onto the parameter block of its
// pricing model. It does not price; pricing.Calculate does.
func (b *Bundle) PricingInput(selections map[string]pricing.SelectedOption, quantity int) (pricing.Input, error) {
	cfg := PriceConfig{Model: b.Product.Model}
	if b.PriceConfig != nil {
		cfg = *b.PriceConfig
		if cfg.Model == "" {
			cfg.Model = b.Product.Model
		}
	}

	enriched := option.Enrich(b.Definitions, b.Choices, selections)
	p, err := b.collect(enriched)
	if err != nil {
		return pricing.Input{}, err
	}

	in := pricing.Input{
		Model:           cfg.Model,
		ProductID:       b.Product.ID,
		CategoryID:      b.Product.CategoryID,
		Quantity:        quantity,
		SelectedOptions: p.priced,
		Lookup:          &b.Lookup,
	}
	size, hasSize := b.SizeFor(enriched)
	in.Size = size

	switch cfg.Model {
	case pricing.ModelFormula, pricing.ModelFormulaCutting:
		if err := requireParts(need{hasSize, ClassSize}, need{p.paper != nil, ClassPaper}, need{p.print != nil, ClassPrint}); err != nil {
			return pricing.Input{}, err
		}
		formula := pricing.FormulaParams{
			Paper:         *p.paper,
			PrintMode:     *p.print,
			SpecialColors: p.specialColors,
			Coating:       p.coating,
			PostProcesses: p.postProcesses,
			SheetStandard: cfg.SheetStandard,
		}
		if cfg.Model == pricing.ModelFormula {
			in.Formula = &formula
			break
		}
		cutting := p.cutting
		if cutting == "" {
			cutting = cfg.CuttingType
		}
		in.Cutting = &pricing.CuttingParams{FormulaParams: formula, CuttingType: cutting}

	case pricing.ModelFixedUnit:
		params := pricing.FixedUnitParams{}
		if p.paper != nil {
			params.PaperID = &p.paper.ID
		}
		if p.print != nil {
			params.PrintModeID = &p.print.ID
		}
		in.FixedUnit = &params

	case pricing.ModelTiered:
		params := pricing.TieredParams{PriceCode: cfg.PriceCode}
		if cfg.SheetStandard != "" {
			std := cfg.SheetStandard
			params.SheetStandard = &std
		}
		in.Tiered = &params

	case pricing.ModelPackage:
		if err := requireParts(need{hasSize, ClassSize}, need{p.print != nil, ClassPrint}); err != nil {
			return pricing.Input{}, err
		}
		pages := p.pageCount
		if pages == 0 {
			pages = cfg.PageCount
		}
		in.Package = &pricing.PackageParams{PrintModeID: p.print.ID, PageCount: pages}

	case pricing.ModelComponent:
		if err := requireParts(need{hasSize, ClassSize},
			need{p.innerPaper != nil, ClassInnerPaper}, need{p.innerPrint != nil, ClassInnerPrint},
			need{p.coverPaper != nil, ClassCoverPaper}, need{p.coverPrint != nil, ClassCoverPrint},
			need{p.binding != nil, ClassBinding}); err != nil {
			return pricing.Input{}, err
		}
		pages := p.pageCount
		if pages == 0 {
			pages = cfg.PageCount
		}
		in.Component = &pricing.ComponentParams{
			InnerBody: pricing.InnerBody{
				Paper: *p.innerPaper, PrintMode: *p.innerPrint, PageCount: pages, SheetStandard: cfg.SheetStandard,
			},
			Cover: pricing.Cover{
				Paper: *p.coverPaper, PrintMode: *p.coverPrint, SheetStandard: cfg.SheetStandard,
			},
			Binding:            *p.binding,
			CoverCoating:       p.coverCoating,
			Foil:               p.foil,
			PackagingUnitPrice: p.packaging,
		}

	case pricing.ModelFixedSize:
		in.FixedSize = &pricing.FixedSizeParams{AdditionalOptions: p.priced}

	case pricing.ModelFixedPerUnit:
		in.FixedPerUnit = &pricing.FixedPerUnitParams{ProcessingOptions: p.processing, AdditionalProducts: p.additional}
	}
	return in, nil
}

type need struct {
	ok    bool
	class string
}

func requireParts(needs ...need) error {
	for _, n := range needs {
		if !n.ok {
			return fmt.Errorf("%w: %s", ErrMissingSelection, n.class)
		}
	}
	return nil
}

func (b *Bundle) collect(selections map[string]pricing.SelectedOption) (parts, error) {
	var p parts
	handled := make(map[string]bool, len(selections))

	for _, def := range option.Chain(b.Definitions) {
		sel, ok := selections[def.Key]
		if !ok {
			continue
		}
		handled[def.Key] = true
		if err := b.apply(&p, def, sel); err != nil {
			return parts{}, err
		}
	}

	// selections outside the catalog still carry their explicit unit price
	var rest []string
	for key := range selections {
		if !handled[key] {
			rest = append(rest, key)
		}
	}
	slices.Sort(rest)
	for _, key := range rest {
		if sel := selections[key]; sel.UnitPrice != nil {
			p.priced = append(p.priced, sel)
		}
	}
	return p, nil
}

func (b *Bundle) apply(p *parts, def option.Definition, sel pricing.SelectedOption) error {
	c, _ := b.choice(def.DefinitionID, sel.ChoiceCode)
	key := sel.ChoiceCode
	if c.PriceKey != nil && *c.PriceKey != "" {
		key = *c.PriceKey
	}

	switch def.Class {
	case ClassPaper, ClassInnerPaper, ClassCoverPaper:
		paper, err := b.paper(sel)
		if err != nil {
			return err
		}
		switch def.Class {
		case ClassPaper:
			p.paper = paper
		case ClassInnerPaper:
			p.innerPaper = paper
		default:
			p.coverPaper = paper
		}
	case ClassPrint, ClassInnerPrint, ClassCoverPrint:
		mode, err := b.printMode(sel)
		if err != nil {
			return err
		}
		switch def.Class {
		case ClassPrint:
			p.print = mode
		case ClassInnerPrint:
			p.innerPrint = mode
		default:
			p.coverPrint = mode
		}
	case ClassSpecialColor:
		for _, code := range sel.Codes() {
			p.specialColors = append(p.specialColors, pricing.PriceCodeRef{PriceCode: b.priceKey(def, code)})
		}
	case ClassCoating:
		p.coating = &pricing.PriceCodeRef{PriceCode: key}
	case ClassCoverCoating:
		p.coverCoating = &pricing.PriceCodeRef{PriceCode: key}
	case ClassPostProcess:
		for _, code := range sel.Codes() {
			pc, _ := b.choice(def.DefinitionID, code)
			if pc.RefPostProcessID != nil {
				if pp, ok := b.postProcess(*pc.RefPostProcessID); ok {
					p.postProcesses = append(p.postProcesses, pp)
				}
			}
			if pc.UnitPrice != nil {
				p.processing = append(p.processing, option.SelectionFor(def, pc))
			}
		}
	case ClassBinding:
		for _, bd := range b.Lookup.Bindings {
			if bd.PriceCode == key {
				binding := bd
				p.binding = &binding
				break
			}
		}
	case ClassPageCount:
		n, err := strconv.Atoi(strings.TrimSpace(sel.ChoiceCode))
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: page count %q", ErrMissingSelection, sel.ChoiceCode)
		}
		p.pageCount = n
	case ClassCutting:
		p.cutting = pricing.CuttingType(key)
	case ClassFoil:
		foil, err := parseFoil(key)
		if err != nil {
			return err
		}
		p.foil = &foil
	case ClassPackaging:
		p.packaging = sel.UnitPrice
		return nil
	case ClassAdditionalProduct:
		if sel.UnitPrice != nil {
			p.additional = append(p.additional, *sel.UnitPrice)
		}
		return nil
	case ClassProcessing:
		p.processing = append(p.processing, sel)
	}

	if sel.UnitPrice != nil {
		p.priced = append(p.priced, sel)
	}
	return nil
}

func (b *Bundle) priceKey(def option.Definition, code string) string {
	if c, ok := b.choice(def.DefinitionID, code); ok && c.PriceKey != nil && *c.PriceKey != "" {
		return *c.PriceKey
	}
	return code
}

func (b *Bundle) paper(sel pricing.SelectedOption) (*pricing.Paper, error) {
	if sel.RefPaperID != nil {
		for _, paper := range b.Lookup.Papers {
			if paper.ID == *sel.RefPaperID {
				return &paper, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: paper %q has no paper record", ErrMissingSelection, sel.ChoiceCode)
}

func (b *Bundle) printMode(sel pricing.SelectedOption) (*pricing.PrintMode, error) {
	if sel.RefPrintModeID != nil {
		for _, mode := range b.Lookup.PrintModes {
			if mode.ID == *sel.RefPrintModeID {
				return &mode, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: print mode %q has no print record", ErrMissingSelection, sel.ChoiceCode)
}

func (b *Bundle) postProcess(id int64) (pricing.PostProcess, bool) {
	for _, pp := range b.Lookup.PostProcesses {
		if pp.ID == id {
			return pp, true
		}
	}
	return pricing.PostProcess{}, false
}

// parseFoil reads a "type:WxH" foil key such as "gold:30x20".
func parseFoil(key string) (pricing.Foil, error) {
	kind, size, ok := strings.Cut(key, ":")
	if !ok || kind == "" {
		return pricing.Foil{}, fmt.Errorf("%w: foil %q", ErrMissingSelection, key)
	}
	w, h, err := pricing.ParseSize(size)
	if err != nil {
		return pricing.Foil{}, err
	}
	return pricing.Foil{FoilType: kind, Width: w, Height: h}, nil
}
