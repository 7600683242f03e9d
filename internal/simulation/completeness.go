package simulation

import (
	"fmt"
	"strings"
)

const (
	ItemOptions     = "options"
	ItemPricing     = "pricing"
	ItemConstraints = "constraints"
	ItemMESMapping  = "mesMapping"
)

// CompletenessInput summarizes a product's configuration for the publish
// gate.
type CompletenessInput struct {
	HasDefaultRecipe  bool    `json:"hasDefaultRecipe"`
	OptionTypeCount   int     `json:"optionTypeCount"`
	MinChoiceCount    int     `json:"minChoiceCount"`
	HasRequiredOption bool    `json:"hasRequiredOption"`
	HasPricingConfig  bool    `json:"hasPricingConfig"`
	IsPricingActive   bool    `json:"isPricingActive"`
	ConstraintCount   int     `json:"constraintCount"`
	EdicusCode        *string `json:"edicusCode"`
	MESItemCode       *string `json:"mesItemCd"`
}

type CompletenessItem struct {
	Item      string `json:"item"`
	Completed bool   `json:"completed"`
	Message   string `json:"message"`
}

type CompletenessResult struct {
	Items          []CompletenessItem `json:"items"`
	Publishable    bool               `json:"publishable"`
	CompletedCount int                `json:"completedCount"`
	TotalCount     int                `json:"totalCount"`
}

// CheckCompleteness evaluates the four publish items. The constraints item
// is informational and always complete.
func CheckCompleteness(in CompletenessInput) CompletenessResult {
	optionsOK := in.HasDefaultRecipe && in.OptionTypeCount >= 1 && in.MinChoiceCount >= 2 && in.HasRequiredOption
	var optionsMsg string
	switch {
	case !in.HasDefaultRecipe:
		optionsMsg = "No default recipe configured"
	case in.OptionTypeCount < 1:
		optionsMsg = "Recipe must have at least 1 option type"
	case in.MinChoiceCount < 2:
		optionsMsg = "Option types must have at least 2 choices"
	case !in.HasRequiredOption:
		optionsMsg = "At least 1 option must be marked as required"
	default:
		optionsMsg = fmt.Sprintf("%d option type(s) configured", in.OptionTypeCount)
	}

	pricingOK := in.HasPricingConfig && in.IsPricingActive
	pricingMsg := "Price configuration active"
	if !in.HasPricingConfig {
		pricingMsg = "No price configuration found"
	} else if !in.IsPricingActive {
		pricingMsg = "Price configuration is inactive"
	}

	constraintsMsg := fmt.Sprintf("%d constraint(s) defined", in.ConstraintCount)
	if in.ConstraintCount == 0 {
		constraintsMsg = "No constraints defined (review recommended)"
	}

	mappingOK := in.EdicusCode != nil || in.MESItemCode != nil
	mappingMsg := "Integration code configured"
	if !mappingOK {
		mappingMsg = "Edicus code or MES item code required"
	}

	items := []CompletenessItem{
		{Item: ItemOptions, Completed: optionsOK, Message: optionsMsg},
		{Item: ItemPricing, Completed: pricingOK, Message: pricingMsg},
		{Item: ItemConstraints, Completed: true, Message: constraintsMsg},
		{Item: ItemMESMapping, Completed: mappingOK, Message: mappingMsg},
	}
	res := CompletenessResult{Items: items, TotalCount: len(items), Publishable: true}
	for _, it := range items {
		if it.Completed {
			res.CompletedCount++
		} else {
			res.Publishable = false
		}
	}
	return res
}

const CodePublishNotReady = "PUBLISH_NOT_READY"

type PublishError struct {
	MissingItems []string
	Completeness CompletenessResult
}

func (e *PublishError) Error() string {
	return "product is not publishable, missing: " + strings.Join(e.MissingItems, ", ")
}

func (e *PublishError) Code() string { return CodePublishNotReady }

// ValidatePublishReadiness returns the completeness result when the product
// can be published and a *PublishError naming the missing items otherwise.
func ValidatePublishReadiness(in CompletenessInput) (CompletenessResult, error) {
	res := CheckCompleteness(in)
	if res.Publishable {
		return res, nil
	}
	missing := []string{}
	for _, it := range res.Items {
		if !it.Completed {
			missing = append(missing, it.Item)
		}
	}
	return res, &PublishError{MissingItems: missing, Completeness: res}
}
