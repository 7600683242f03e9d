package quote

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"printquote/backend/internal/pricing"
)

type Assembler struct {
	ttl   time.Duration
	now   func() time.Time
	newID func() string
}

type Option func(*Assembler)

func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(a *Assembler) { a.newID = newID }
}

// NewAssembler builds an assembler issuing quotes valid for ttl. A ttl of
// zero or less falls back to DefaultTTL.
func NewAssembler(ttl time.Duration, opts ...Option) *Assembler {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	a := &Assembler{
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble turns a pricing result into a quote with VAT, line items, a
// snapshot hash, a fresh quote id and an expiry.
func (a *Assembler) Assemble(ctx context.Context, in Input) (Quote, error) {
	if in.Quantity < pricing.MinQuantity {
		return Quote{}, fmt.Errorf("quote quantity must be positive, got %d", in.Quantity)
	}
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}

	hash, err := SnapshotHash(in)
	if err != nil {
		return Quote{}, fmt.Errorf("snapshot hash: %w", err)
	}

	subtotal := in.Pricing.TotalPrice
	vat := floorDiv(subtotal, 10)
	createdAt := a.now()

	return Quote{
		QuoteID:         a.newID(),
		ProductID:       in.ProductID,
		ProductName:     in.ProductName,
		SelectedOptions: slices.Clone(in.SelectedOptions),
		Quantity:        in.Quantity,
		Size:            in.Size,
		SizeDisplay:     SizeDisplay(in.Size),
		OptionSummary:   OptionSummary(in.SelectedOptions),
		Subtotal:        subtotal,
		VATAmount:       vat,
		TotalPrice:      subtotal + vat,
		UnitPrice:       floorDiv(subtotal, int64(in.Quantity)),
		Model:           in.Pricing.Model,
		Breakdown:       in.Pricing.Breakdown,
		LineItems:       LineItems(in.Pricing.Breakdown),
		SnapshotHash:    hash,
		CreatedAt:       createdAt,
		ExpiresAt:       createdAt.Add(a.ttl),
	}, nil
}

// floorDiv divides rounding toward negative infinity; Go's / truncates.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

type lineSource struct {
	category string
	label    string
	amount   func(pricing.Breakdown) int64
}

var lineSources = []lineSource{
	{"print", "Print Cost", func(b pricing.Breakdown) int64 { return b.PrintCost }},
	{"paper", "Paper Cost", func(b pricing.Breakdown) int64 { return b.PaperCost }},
	{"special_color", "Special Color Cost", func(b pricing.Breakdown) int64 { return b.SpecialColorCost }},
	{"coating", "Coating Cost", func(b pricing.Breakdown) int64 { return b.CoatingCost }},
	{"post_process", "Post Process Cost", func(b pricing.Breakdown) int64 { return b.PostProcessCost }},
	{"binding", "Binding Cost", func(b pricing.Breakdown) int64 { return b.BindingCost }},
	{"foil", "Foil Cost", func(b pricing.Breakdown) int64 { return b.FoilCost }},
	{"packaging", "Packaging Cost", func(b pricing.Breakdown) int64 { return b.PackagingCost }},
	{"cutting", "Cutting Cost", func(b pricing.Breakdown) int64 { return b.CuttingCost }},
	{"discount", "Discount Amount", func(b pricing.Breakdown) int64 { return b.DiscountAmount }},
}

// LineItems lists the non-zero breakdown components in a fixed order.
func LineItems(b pricing.Breakdown) []LineItem {
	items := []LineItem{}
	for _, src := range lineSources {
		amount := src.amount(b)
		if amount == 0 {
			continue
		}
		items = append(items, LineItem{
			Category:    src.category,
			Label:       src.label,
			Description: src.label,
			Quantity:    1,
			UnitPrice:   amount,
			Amount:      amount,
		})
	}
	return items
}

func SizeDisplay(size pricing.SizeSelection) string {
	return pricing.FormatSize(size.Dimensions())
}

// OptionSummary joins the choice codes in selection order.
func OptionSummary(options []pricing.SelectedOption) string {
	codes := make([]string, 0, len(options))
	for _, o := range options {
		codes = append(codes, o.ChoiceCode)
	}
	return strings.Join(codes, ", ")
}

type snapshotOption struct {
	OptionKey  string `json:"optionKey"`
	ChoiceCode string `json:"choiceCode"`
}

type snapshotPricing struct {
	Model             pricing.Model     `json:"model"`
	Breakdown         pricing.Breakdown `json:"breakdown"`
	TotalPrice        int64             `json:"totalPrice"`
	TotalPriceWithVAT int64             `json:"totalPriceWithVat"`
	UnitPrice         int64             `json:"unitPrice"`
}

type snapshot struct {
	ProductID       int64                 `json:"productId"`
	Pricing         snapshotPricing       `json:"pricingResult"`
	SelectedOptions []snapshotOption      `json:"selectedOptions"`
	Quantity        int                   `json:"quantity"`
	Size            pricing.SizeSelection `json:"sizeSelection"`
}

// SnapshotHash is the SHA-256 hex digest of the price-determining inputs:
// product id, pricing result without its timestamp, option keys and codes,
// quantity and size. Product name and option order do not affect it.
func SnapshotHash(in Input) (string, error) {
	options := make([]snapshotOption, 0, len(in.SelectedOptions))
	for _, o := range in.SelectedOptions {
		options = append(options, snapshotOption{OptionKey: o.OptionKey, ChoiceCode: o.ChoiceCode})
	}
	slices.SortFunc(options, func(a, b snapshotOption) int {
		if c := cmp.Compare(a.OptionKey, b.OptionKey); c != 0 {
			return c
		}
		return cmp.Compare(a.ChoiceCode, b.ChoiceCode)
	})

	payload, err := json.Marshal(snapshot{
		ProductID: in.ProductID,
		Pricing: snapshotPricing{
			Model:             in.Pricing.Model,
			Breakdown:         in.Pricing.Breakdown,
			TotalPrice:        in.Pricing.TotalPrice,
			TotalPriceWithVAT: in.Pricing.TotalPriceWithVAT,
			UnitPrice:         in.Pricing.UnitPrice,
		},
		SelectedOptions: options,
		Quantity:        in.Quantity,
		Size:            in.Size,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
