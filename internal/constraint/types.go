package constraint

import "printquote/backend/internal/pricing"

type Operator string

const (
	OpEquals     Operator = "EQUALS"
	OpNotEquals  Operator = "NOT_EQUALS"
	OpIn         Operator = "IN"
	OpNotIn      Operator = "NOT_IN"
	OpContains   Operator = "CONTAINS"
	OpBetween    Operator = "BETWEEN"
	OpNotBetween Operator = "NOT_BETWEEN"
	OpGT         Operator = "GT"
	OpGTE        Operator = "GTE"
	OpLT         Operator = "LT"
	OpLTE        Operator = "LTE"
)

// Type selects how a constraint is evaluated. Anything unrecognised is a
// plain ECA rule.
type Type string

const (
	TypeECA            Type = "eca"
	TypeSizeShow       Type = "size_show"
	TypeSizeRange      Type = "size_range"
	TypePaperCondition Type = "paper_condition"
)

type ActionType string

const (
	ActionExclude       ActionType = "exclude"
	ActionFilter        ActionType = "filter"
	ActionShowMessage   ActionType = "show_message"
	ActionBlock         ActionType = "block"
	ActionAutoAdd       ActionType = "auto_add"
	ActionShowAddonList ActionType = "show_addon_list"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Action is one effect of a matched rule. Which fields are read depends on
// Type: exclude/filter use TargetOption and Values, show_message uses Message
// and Level, block uses Message, auto_add and show_addon_list use the addon
// ids.
type Action struct {
	Type         ActionType `json:"type"`
	TargetOption string     `json:"targetOption,omitempty"`
	Values       []string   `json:"values,omitempty"`
	Message      string     `json:"message,omitempty"`
	Level        Level      `json:"level,omitempty"`
	AddonGroupID *int64     `json:"addonGroupId,omitempty"`
	AddonItemID  *int64     `json:"addonItemId,omitempty"`
}

// Constraint is an event-condition-action rule. ProductID 0 applies to every
// product. Min and Max are range bounds, either numbers or "WxH" sizes.
type Constraint struct {
	ID           int64    `json:"id"`
	ProductID    int64    `json:"productId"`
	Type         Type     `json:"constraintType"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	SourceField  string   `json:"sourceField"`
	Operator     Operator `json:"operator"`
	SourceValues []string `json:"sourceValues,omitempty"`
	Min          *string  `json:"valueMin,omitempty"`
	Max          *string  `json:"valueMax,omitempty"`
	TargetField  string   `json:"targetField"`
	TargetValues []string `json:"targetValues,omitempty"`
	Actions      []Action `json:"actions,omitempty"`
	Priority     int      `json:"priority"`
	IsActive     bool     `json:"isActive"`
}

// ChoiceRef names a known choice of an option.
type ChoiceRef struct {
	OptionKey string `json:"optionKey"`
	Code      string `json:"code"`
}

// Input is everything one evaluation reads. Size, when set, supplies the
// dimensions of the size selection. Choices, when set, restricts filter
// results to codes that exist for the target option.
type Input struct {
	ProductID   int64
	Selections  map[string]pricing.SelectedOption
	Size        *pricing.SizeSelection
	Quantity    int
	Constraints []Constraint
	Choices     []ChoiceRef
	Papers      []pricing.Paper
}

const (
	SizeField     = "size"
	QuantityField = "quantity"
)

type ReasonType string

const ReasonConstraint ReasonType = "CONSTRAINT"

type DisabledReason struct {
	Type         ReasonType `json:"type"`
	ConstraintID int64      `json:"constraintId,omitempty"`
	ParentOption string     `json:"parentOption,omitempty"`
	Description  string     `json:"description"`
}

type Violation struct {
	ConstraintID   int64  `json:"constraintId"`
	ConstraintType Type   `json:"constraintType"`
	Name           string `json:"name,omitempty"`
	Message        string `json:"message"`
	SourceField    string `json:"sourceField"`
	TargetField    string `json:"targetField"`
}

type Message struct {
	ConstraintID int64  `json:"constraintId"`
	Level        Level  `json:"level"`
	Message      string `json:"message"`
}

type Addon struct {
	ConstraintID int64  `json:"constraintId"`
	GroupID      *int64 `json:"addonGroupId,omitempty"`
	ItemID       *int64 `json:"addonItemId,omitempty"`
}

// Range limits the size that may be entered for an option.
type Range struct {
	MinWidth  float64 `json:"minWidth"`
	MinHeight float64 `json:"minHeight"`
	MaxWidth  float64 `json:"maxWidth"`
	MaxHeight float64 `json:"maxHeight"`
}

type Result struct {
	Available  map[string][]string       `json:"availableOptions"`
	Excluded   map[string][]string       `json:"excludedOptions"`
	Disabled   map[string]DisabledReason `json:"disabledOptions"`
	Ranges     map[string]Range          `json:"ranges,omitempty"`
	Violations []Violation               `json:"violations"`
	Messages   []Message                 `json:"messages"`
	AutoAdd    []Addon                   `json:"autoAdd"`
	AddonLists []Addon                   `json:"addonLists"`
	Matched    []int64                   `json:"matched"`
}

// IsAvailable reports whether code survives the evaluation for field. A
// field without a filter set allows every code that is not excluded.
func (r Result) IsAvailable(field, code string) bool {
	if _, disabled := r.Disabled[field]; disabled {
		return false
	}
	for _, v := range r.Excluded[field] {
		if v == code {
			return false
		}
	}
	shown, filtered := r.Available[field]
	if !filtered {
		return true
	}
	for _, v := range shown {
		if v == code {
			return true
		}
	}
	return false
}

func (r Result) Blocked() bool {
	return len(r.Violations) > 0
}
