package option

import (
	"github.com/shopspring/decimal"

	"printquote/backend/internal/constraint"
	"printquote/backend/internal/pricing"
)

// Definition is an option attached to a product. Choices and dependencies
// refer to it through DefinitionID.
type Definition struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"productId"`
	DefinitionID int64  `json:"optionDefinitionId"`
	Key          string `json:"key"`
	Class        string `json:"optionClass"`
	Label        string `json:"label"`
	Required     bool   `json:"isRequired"`
	Visible      bool   `json:"isVisible"`
	Internal     bool   `json:"isInternal"`
	SortOrder    int    `json:"sortOrder"`
}

type Choice struct {
	ID               int64            `json:"id"`
	DefinitionID     int64            `json:"optionDefinitionId"`
	Code             string           `json:"code"`
	Label            string           `json:"label"`
	PriceKey         *string          `json:"priceKey"`
	RefPaperID       *int64           `json:"refPaperId"`
	RefPrintModeID   *int64           `json:"refPrintModeId"`
	RefSizeID        *int64           `json:"refSizeId"`
	RefPostProcessID *int64           `json:"refPostProcessId,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unitPrice,omitempty"`
	IsDefault        bool             `json:"isDefault"`
	IsActive         bool             `json:"isActive"`
	SortOrder        int              `json:"sortOrder"`
}

type DependencyType string

const (
	DependVisibility DependencyType = "visibility"
	DependChoices    DependencyType = "choices"
	DependValue      DependencyType = "value"
)

// Dependency ties a child option to a parent option, optionally to one
// parent choice.
type Dependency struct {
	ID             int64          `json:"id"`
	ProductID      int64          `json:"productId"`
	ParentOptionID int64          `json:"parentOptionId"`
	ChildOptionID  int64          `json:"childOptionId"`
	ParentChoiceID *int64         `json:"parentChoiceId"`
	Type           DependencyType `json:"dependencyType"`
}

const (
	ReasonParentNotSelected    constraint.ReasonType = "PARENT_NOT_SELECTED"
	ReasonParentChoiceMismatch constraint.ReasonType = "PARENT_CHOICE_MISMATCH"
	ReasonDependency           constraint.ReasonType = "DEPENDENCY"
)

const (
	ErrRequiredNoChoice  = "REQUIRED_NO_CHOICE"
	ErrChoiceUnavailable = "CHOICE_UNAVAILABLE"
	ErrOptionDisabled    = "OPTION_DISABLED"
	ErrDefaultsUnsettled = "DEFAULTS_UNSETTLED"
)

type ValidationError struct {
	OptionKey string `json:"optionKey"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Input is the product's option catalog plus the customer's current
// selections.
type Input struct {
	ProductID    int64
	Definitions  []Definition
	Choices      []Choice
	Dependencies []Dependency
	Constraints  []constraint.Constraint
	Selections   map[string]pricing.SelectedOption
	Size         *pricing.SizeSelection
	// SizeOf, when set, derives the size from the effective selections so
	// size rules also see a defaulted size option.
	SizeOf   func(map[string]pricing.SelectedOption) (pricing.SizeSelection, bool)
	Quantity int
	Papers   []pricing.Paper
}

type Available struct {
	Definition Definition              `json:"definition"`
	Choices    []Choice                `json:"choices"`
	Selected   *pricing.SelectedOption `json:"selected"`
	Required   bool                    `json:"isRequired"`
}

type Resolution struct {
	Options          map[string]Available                 `json:"availableOptions"`
	Order            []string                             `json:"order"`
	Disabled         map[string]constraint.DisabledReason `json:"disabledOptions"`
	Defaults         map[string]string                    `json:"defaultSelections"`
	ValidationErrors []ValidationError                    `json:"validationErrors"`
	Constraints      constraint.Result                    `json:"constraints"`
}

// Selections returns the effective selection of every resolved option.
func (r Resolution) Selections() map[string]pricing.SelectedOption {
	out := make(map[string]pricing.SelectedOption, len(r.Options))
	for key, a := range r.Options {
		if a.Selected != nil {
			out[key] = *a.Selected
		}
	}
	return out
}

// Valid reports whether the selections can be quoted: no validation errors
// and no blocking constraint.
func (r Resolution) Valid() bool {
	return len(r.ValidationErrors) == 0 && !r.Constraints.Blocked()
}
