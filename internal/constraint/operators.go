package constraint

import (
	"slices"
	"strconv"
	"strings"

	"printquote/backend/internal/pricing"
)

var operatorAliases = map[string]Operator{
	"EQ":          OpEquals,
	"EQUALS":      OpEquals,
	"NE":          OpNotEquals,
	"NEQ":         OpNotEquals,
	"NOT_EQUALS":  OpNotEquals,
	"IN":          OpIn,
	"NOT_IN":      OpNotIn,
	"CONTAINS":    OpContains,
	"BETWEEN":     OpBetween,
	"NOT_BETWEEN": OpNotBetween,
	"GT":          OpGT,
	"GTE":         OpGTE,
	"LT":          OpLT,
	"LTE":         OpLTE,
}

// NormalizeOperator maps stored spellings such as "eq" or "gte" onto the
// canonical operator. ok is false for unknown operators.
func NormalizeOperator(op Operator) (Operator, bool) {
	canonical, ok := operatorAliases[strings.ToUpper(strings.TrimSpace(string(op)))]
	return canonical, ok
}

func (o Operator) isRange() bool {
	switch o {
	case OpBetween, OpNotBetween, OpGT, OpGTE, OpLT, OpLTE:
		return true
	}
	return false
}

// measure is a scalar or a width/height pair.
type measure struct {
	w, h float64
	dims bool
}

func parseMeasure(text string) (measure, bool) {
	text = strings.TrimSpace(text)
	if strings.ContainsAny(text, "xX") {
		w, h, err := pricing.ParseSize(text)
		if err != nil {
			return measure{}, false
		}
		return measure{w: w, h: h, dims: true}, true
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return measure{}, false
	}
	return measure{w: v}, true
}

// cmp returns -1, 0 or 1 per axis and reports whether both sides are
// comparable. For sizes the comparison must hold on both axes, so the
// results are returned separately.
func (m measure) cmp(other measure) (int, int, bool) {
	if m.dims != other.dims {
		return 0, 0, false
	}
	cw := compareFloat(m.w, other.w)
	if !m.dims {
		return cw, cw, true
	}
	return cw, compareFloat(m.h, other.h), true
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// MatchesCode reports whether selecting code on the source field triggers c.
// ok is false when a single code cannot decide it: unknown operators, the
// quantity field and size ranges, which compare dimensions rather than codes.
func MatchesCode(c Constraint, code string) (matched, ok bool) {
	op, known := NormalizeOperator(c.Operator)
	if !known || c.SourceField == QuantityField || (c.SourceField == SizeField && op.isRange()) {
		return false, false
	}
	if op.isRange() {
		subject, parsed := parseMeasure(code)
		return parsed && matchRange(op, subject, c), true
	}
	return matchCodes(op, []string{code}, c.SourceValues), true
}

// matchCodes evaluates the set operators against the selected codes.
func matchCodes(op Operator, codes []string, values []string) bool {
	if len(codes) == 0 {
		return false
	}
	first := ""
	if len(values) > 0 {
		first = values[0]
	}
	switch op {
	case OpEquals:
		return codes[0] == first
	case OpNotEquals:
		return codes[0] != first
	case OpIn:
		return anyIn(codes, values)
	case OpNotIn:
		return !anyIn(codes, values)
	case OpContains:
		// only multi-select values can contain anything
		return len(codes) > 1 && anyIn(codes, values)
	}
	return false
}

func anyIn(codes, values []string) bool {
	for _, c := range codes {
		if slices.Contains(values, c) {
			return true
		}
	}
	return false
}

// matchRange evaluates the range operators. GT/GTE/LT/LTE compare against the
// first value (or Min/Max when no value is given).
func matchRange(op Operator, subject measure, c Constraint) bool {
	switch op {
	case OpBetween, OpNotBetween:
		if c.Min == nil || c.Max == nil {
			return false
		}
		lo, okLo := parseMeasure(*c.Min)
		hi, okHi := parseMeasure(*c.Max)
		if !okLo || !okHi {
			return false
		}
		inside := within(subject, lo, hi)
		if op == OpNotBetween {
			return !inside
		}
		return inside
	}

	threshold, ok := rangeThreshold(op, c)
	if !ok {
		return false
	}
	w, h, ok := subject.cmp(threshold)
	if !ok {
		return false
	}
	switch op {
	case OpGT:
		return w > 0 && h > 0
	case OpGTE:
		return w >= 0 && h >= 0
	case OpLT:
		return w < 0 && h < 0
	case OpLTE:
		return w <= 0 && h <= 0
	}
	return false
}

func rangeThreshold(op Operator, c Constraint) (measure, bool) {
	if len(c.SourceValues) > 0 {
		return parseMeasure(c.SourceValues[0])
	}
	switch op {
	case OpGT, OpGTE:
		if c.Min != nil {
			return parseMeasure(*c.Min)
		}
	case OpLT, OpLTE:
		if c.Max != nil {
			return parseMeasure(*c.Max)
		}
	}
	return measure{}, false
}

func within(subject, lo, hi measure) bool {
	lw, lh, ok := subject.cmp(lo)
	if !ok {
		return false
	}
	hw, hh, ok := subject.cmp(hi)
	if !ok {
		return false
	}
	return lw >= 0 && lh >= 0 && hw <= 0 && hh <= 0
}
