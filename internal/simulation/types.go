package simulation

import "fmt"

// MaxCases caps how many combinations a run evaluates unless forced.
const MaxCases = 10_000

const progressInterval = 100

// Combination maps option keys to one choice code each.
type Combination map[string]string

type Choice struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type OptionType struct {
	ID      int64    `json:"id"`
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Choices []Choice `json:"choices"`
}

// ChoiceSet is the low-level form of an option type: a key and its codes.
type ChoiceSet struct {
	TypeKey string   `json:"typeKey"`
	Choices []string `json:"choices"`
}

type Action string

const (
	ActionBlock Action = "block"
	ActionWarn  Action = "warn"
	ActionShow  Action = "show"
	ActionHide  Action = "hide"
)

// Constraint is a single-field rule: when SourceField equals SourceValue and
// TargetField equals TargetValue the action fires.
type Constraint struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"productId"`
	Type        string `json:"constraintType"`
	SourceField string `json:"sourceField"`
	SourceValue string `json:"sourceValue"`
	TargetField string `json:"targetField"`
	TargetValue string `json:"targetValue"`
	Action      Action `json:"action"`
	Message     string `json:"message"`
	IsActive    bool   `json:"isActive"`
}

type PriceConfig struct {
	Model     string `json:"pricingModel"`
	BasePrice int64  `json:"basePrice"`
	IsActive  bool   `json:"isActive"`
}

type Input struct {
	ProductID   int64        `json:"productId"`
	OptionTypes []OptionType `json:"optionTypes"`
	Constraints []Constraint `json:"constraints"`
	PriceConfig PriceConfig  `json:"priceConfig"`
	// Unchecked lists rules the caller could not reduce to pairs. They are
	// carried into the result.
	Unchecked []int64 `json:"uncheckedConstraintIds,omitempty"`
}

// ProgressFunc receives the number of processed cases and the run size.
type ProgressFunc func(current, total int)

// Options controls oversize handling. Seed 0 picks a time-derived seed.
type Options struct {
	Sample   bool
	ForceRun bool
	Seed     uint64
	Progress ProgressFunc
}

type Status string

const (
	StatusPass  Status = "pass"
	StatusWarn  Status = "warn"
	StatusError Status = "error"
)

type Violation struct {
	ConstraintID int64  `json:"constraintId,omitempty"`
	Message      string `json:"message"`
}

type CaseResult struct {
	Selections Combination      `json:"selections"`
	Status     Status           `json:"resultStatus"`
	TotalPrice *int64           `json:"totalPrice"`
	Violations []Violation      `json:"constraintViolations"`
	Breakdown  map[string]int64 `json:"priceBreakdown"`
	Message    *string          `json:"message"`
}

type Result struct {
	Total   int          `json:"total"`
	Passed  int          `json:"passed"`
	Warned  int          `json:"warned"`
	Errored int          `json:"errored"`
	Sampled bool         `json:"sampled"`
	Seed    uint64       `json:"seed,omitempty"`
	Cases   []CaseResult `json:"cases"`
	// Unchecked names the rules this run could not check.
	Unchecked []int64 `json:"uncheckedConstraintIds,omitempty"`
}

// TooLarge is returned when the combination space exceeds MaxCases and the
// caller asked neither to sample nor to force the run.
type TooLarge struct {
	Total      int `json:"total"`
	SampleSize int `json:"sampleSize"`
}

func (e *TooLarge) Error() string {
	return fmt.Sprintf("simulation too large: %d combinations exceed %d", e.Total, e.SampleSize)
}
