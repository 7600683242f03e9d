package constraint

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"printquote/backend/internal/pricing"
)

// Evaluate applies the product's active constraints in descending priority
// order. For every (field, value) pair the first decision wins: a value shown
// by a higher-priority rule is never excluded by a later one, and the reverse.
// Evaluate does not modify input.
func Evaluate(input Input) Result {
	ev := &evaluation{
		input:   input,
		decided: make(map[string]map[string]bool),
		hidden:  make(map[string]DisabledReason),
		known:   knownChoices(input.Choices),
		result: Result{
			Available:  make(map[string][]string),
			Excluded:   make(map[string][]string),
			Disabled:   make(map[string]DisabledReason),
			Ranges:     make(map[string]Range),
			Violations: []Violation{},
			Messages:   []Message{},
			AutoAdd:    []Addon{},
			AddonLists: []Addon{},
			Matched:    []int64{},
		},
	}

	for _, c := range Applicable(input.ProductID, input.Constraints) {
		switch c.Type {
		case TypeSizeShow:
			ev.sizeShow(c)
		case TypeSizeRange:
			ev.sizeRange(c)
		case TypePaperCondition:
			ev.paperCondition(c)
		default:
			ev.eca(c)
		}
	}

	// a size_show miss only hides a field nothing else showed
	for field, reason := range ev.hidden {
		if _, shown := ev.result.Available[field]; shown {
			continue
		}
		if _, ok := ev.result.Disabled[field]; !ok {
			ev.result.Disabled[field] = reason
		}
	}
	return ev.result
}

// Applicable returns the active constraints of productID (plus global ones)
// sorted by descending priority, ties by id. The input slice is not touched.
func Applicable(productID int64, constraints []Constraint) []Constraint {
	out := make([]Constraint, 0, len(constraints))
	for _, c := range constraints {
		if !c.IsActive {
			continue
		}
		if c.ProductID != 0 && c.ProductID != productID {
			continue
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b Constraint) int {
		if a.Priority != b.Priority {
			return cmp.Compare(b.Priority, a.Priority)
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

type evaluation struct {
	input   Input
	result  Result
	decided map[string]map[string]bool
	hidden  map[string]DisabledReason
	known   map[string]map[string]bool
}

func (ev *evaluation) eca(c Constraint) {
	op, ok := NormalizeOperator(c.Operator)
	if !ok {
		return
	}

	var matched bool
	if op.isRange() {
		subject, present := ev.input.measureOf(c.SourceField)
		if !present {
			return
		}
		matched = matchRange(op, subject, c)
	} else {
		codes := ev.input.codes(c.SourceField)
		if len(codes) == 0 {
			return
		}
		matched = matchCodes(op, codes, c.SourceValues)
	}
	if !matched {
		return
	}

	ev.result.Matched = append(ev.result.Matched, c.ID)
	if len(c.Actions) == 0 && c.TargetField != "" {
		ev.show(c.TargetField, c.TargetValues)
		return
	}
	for _, a := range c.Actions {
		ev.apply(c, a)
	}
}

func (ev *evaluation) apply(c Constraint, a Action) {
	target := a.TargetOption
	if target == "" {
		target = c.TargetField
	}

	switch a.Type {
	case ActionExclude:
		for _, v := range a.Values {
			ev.decide(target, v, false)
		}
	case ActionFilter:
		ev.show(target, a.Values)
	case ActionShowMessage:
		level := a.Level
		if level == "" {
			level = LevelInfo
		}
		ev.result.Messages = append(ev.result.Messages, Message{ConstraintID: c.ID, Level: level, Message: a.Message})
	case ActionBlock:
		msg := a.Message
		if msg == "" {
			msg = "Option combination blocked by constraint: " + c.Name
		}
		ev.violate(c, msg)
	case ActionAutoAdd:
		ev.result.AutoAdd = append(ev.result.AutoAdd, Addon{ConstraintID: c.ID, GroupID: a.AddonGroupID, ItemID: a.AddonItemID})
	case ActionShowAddonList:
		ev.result.AddonLists = append(ev.result.AddonLists, Addon{ConstraintID: c.ID, GroupID: a.AddonGroupID, ItemID: a.AddonItemID})
	}
}

// sizeShow shows the target values while the selected size equals the
// constraint value.
func (ev *evaluation) sizeShow(c Constraint) {
	field := c.SourceField
	if field == "" {
		field = SizeField
	}
	matched := false
	if len(c.SourceValues) > 0 {
		want := c.SourceValues[0]
		if codes := ev.input.codes(field); len(codes) > 0 && codes[0] == want {
			matched = true
		} else if subject, ok := ev.input.measureOf(field); ok {
			if target, ok := parseMeasure(want); ok {
				w, h, comparable := subject.cmp(target)
				matched = comparable && w == 0 && h == 0
			}
		}
	}

	if !matched {
		if _, seen := ev.hidden[c.TargetField]; !seen {
			ev.hidden[c.TargetField] = DisabledReason{Type: ReasonConstraint, ConstraintID: c.ID, Description: c.Description}
		}
		return
	}
	ev.result.Matched = append(ev.result.Matched, c.ID)
	ev.show(c.TargetField, c.TargetValues)
}

// sizeRange publishes the allowed size range for the target and flags a
// selected size outside it.
func (ev *evaluation) sizeRange(c Constraint) {
	if c.Min == nil || c.Max == nil {
		return
	}
	lo, okLo := parseMeasure(*c.Min)
	hi, okHi := parseMeasure(*c.Max)
	if !okLo || !okHi || !lo.dims || !hi.dims {
		return
	}
	if _, set := ev.result.Ranges[c.TargetField]; !set {
		ev.result.Ranges[c.TargetField] = Range{MinWidth: lo.w, MinHeight: lo.h, MaxWidth: hi.w, MaxHeight: hi.h}
	}

	subject, ok := ev.input.measureOf(c.SourceField)
	if !ok {
		return
	}
	ev.result.Matched = append(ev.result.Matched, c.ID)
	if !within(subject, lo, hi) {
		msg := c.Description
		if msg == "" {
			msg = fmt.Sprintf("size must be between %s and %s", *c.Min, *c.Max)
		}
		ev.violate(c, msg)
	}
}

// paperCondition disables the target unless the selected paper's weight
// satisfies the operator against the threshold.
func (ev *evaluation) paperCondition(c Constraint) {
	if ev.paperWeightOK(c) {
		ev.result.Matched = append(ev.result.Matched, c.ID)
		return
	}
	if _, ok := ev.result.Disabled[c.TargetField]; !ok {
		ev.result.Disabled[c.TargetField] = DisabledReason{Type: ReasonConstraint, ConstraintID: c.ID, Description: c.Description}
	}
}

func (ev *evaluation) paperWeightOK(c Constraint) bool {
	sel, ok := ev.input.Selections[c.SourceField]
	if !ok || sel.RefPaperID == nil || len(c.SourceValues) == 0 {
		return false
	}
	idx := slices.IndexFunc(ev.input.Papers, func(p pricing.Paper) bool { return p.ID == *sel.RefPaperID })
	if idx < 0 {
		return false
	}
	weight := 0.0
	if w := ev.input.Papers[idx].Weight; w != nil {
		weight = float64(*w)
	}
	threshold, err := strconv.ParseFloat(c.SourceValues[0], 64)
	if err != nil {
		return false
	}

	op, _ := NormalizeOperator(c.Operator)
	switch op {
	case OpEquals:
		return weight == threshold
	case OpGT:
		return weight > threshold
	case OpGTE:
		return weight >= threshold
	case OpLT:
		return weight < threshold
	case OpLTE:
		return weight <= threshold
	}
	return false
}

func (ev *evaluation) violate(c Constraint, msg string) {
	ev.result.Violations = append(ev.result.Violations, Violation{
		ConstraintID:   c.ID,
		ConstraintType: c.Type,
		Name:           c.Name,
		Message:        msg,
		SourceField:    c.SourceField,
		TargetField:    c.TargetField,
	})
}

// show opens a filter set for field and adds values to it.
func (ev *evaluation) show(field string, values []string) {
	if _, ok := ev.result.Available[field]; !ok {
		ev.result.Available[field] = []string{}
	}
	for _, v := range values {
		if codes, listed := ev.known[field]; listed && !codes[v] {
			continue
		}
		ev.decide(field, v, true)
	}
}

func (ev *evaluation) decide(field, value string, shown bool) {
	byValue, ok := ev.decided[field]
	if !ok {
		byValue = make(map[string]bool)
		ev.decided[field] = byValue
	}
	if _, done := byValue[value]; done {
		return
	}
	byValue[value] = shown
	if shown {
		ev.result.Available[field] = append(ev.result.Available[field], value)
	} else {
		ev.result.Excluded[field] = append(ev.result.Excluded[field], value)
	}
}

func knownChoices(refs []ChoiceRef) map[string]map[string]bool {
	known := make(map[string]map[string]bool)
	for _, r := range refs {
		if known[r.OptionKey] == nil {
			known[r.OptionKey] = make(map[string]bool)
		}
		known[r.OptionKey][r.Code] = true
	}
	return known
}

func (in Input) codes(field string) []string {
	if field == QuantityField && in.Quantity > 0 {
		return []string{strconv.Itoa(in.Quantity)}
	}
	sel, ok := in.Selections[field]
	if !ok {
		return nil
	}
	return sel.Codes()
}

func (in Input) measureOf(field string) (measure, bool) {
	if field == QuantityField && in.Quantity > 0 {
		return measure{w: float64(in.Quantity)}, true
	}
	if field == SizeField && in.Size != nil {
		w, h := in.Size.Dimensions()
		return measure{w: w, h: h, dims: true}, true
	}
	sel, ok := in.Selections[field]
	if !ok {
		return measure{}, false
	}
	return parseMeasure(sel.ChoiceCode)
}
