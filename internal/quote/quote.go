package quote

import (
	"time"

	"printquote/backend/internal/pricing"
)

// DefaultTTL is how long an issued quote stays valid.
const DefaultTTL = 30 * time.Minute

// Input is everything a quote is built from. SelectedOptions keeps the order
// the customer picked them in; the hash does not depend on that order.
type Input struct {
	ProductID       int64                    `json:"productId"`
	ProductName     string                   `json:"productName"`
	Pricing         pricing.Result           `json:"pricingResult"`
	SelectedOptions []pricing.SelectedOption `json:"selectedOptions"`
	Quantity        int                      `json:"quantity"`
	Size            pricing.SizeSelection    `json:"sizeSelection"`
}

type LineItem struct {
	Category    string `json:"category"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	Amount      int64  `json:"amount"`
}

type Quote struct {
	QuoteID         string                   `json:"quoteId"`
	ProductID       int64                    `json:"productId"`
	ProductName     string                   `json:"productName"`
	SelectedOptions []pricing.SelectedOption `json:"selectedOptions"`
	Quantity        int                      `json:"quantity"`
	Size            pricing.SizeSelection    `json:"sizeSelection"`
	SizeDisplay     string                   `json:"sizeDisplay"`
	OptionSummary   string                   `json:"optionSummary"`
	Subtotal        int64                    `json:"subtotal"`
	VATAmount       int64                    `json:"vatAmount"`
	TotalPrice      int64                    `json:"totalPrice"`
	UnitPrice       int64                    `json:"unitPrice"`
	Model           pricing.Model            `json:"pricingModel"`
	Breakdown       pricing.Breakdown        `json:"breakdown"`
	LineItems       []LineItem               `json:"lineItems"`
	SnapshotHash    string                   `json:"snapshotHash"`
	CreatedAt       time.Time                `json:"createdAt"`
	ExpiresAt       time.Time                `json:"expiresAt"`
}

// IsValid reports whether the quote has not expired at now.
func (q Quote) IsValid(now time.Time) bool {
	return now.Before(q.ExpiresAt)
}

func IsQuoteValid(q Quote, now time.Time) bool {
	return q.IsValid(now)
}
