package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printquote/backend/internal/pricing"
)

func ptr[T any](v T) *T { return &v }

func sel(key, code string) pricing.SelectedOption {
	return pricing.SelectedOption{OptionKey: key, ChoiceCode: code}
}

func selections(opts ...pricing.SelectedOption) map[string]pricing.SelectedOption {
	out := make(map[string]pricing.SelectedOption, len(opts))
	for _, o := range opts {
		out[o.OptionKey] = o
	}
	return out
}

func rule(id int64, priority int, source string, op Operator, values []string, actions ...Action) Constraint {
	return Constraint{
		ID:           id,
		ProductID:    1,
		Type:         TypeECA,
		Name:         "rule",
		SourceField:  source,
		Operator:     op,
		SourceValues: values,
		Actions:      actions,
		Priority:     priority,
		IsActive:     true,
	}
}

func TestEvaluateEmpty(t *testing.T) {
	r := Evaluate(Input{ProductID: 1})
	assert.Empty(t, r.Available)
	assert.Empty(t, r.Disabled)
	assert.Empty(t, r.Violations)
	assert.False(t, r.Blocked())
}

func TestEvaluateFiltersProductAndActive(t *testing.T) {
	block := Action{Type: ActionBlock}
	own := rule(1, 1, "paper", OpEquals, []string{"ART250"}, block)
	other := rule(2, 1, "paper", OpEquals, []string{"ART250"}, block)
	other.ProductID = 2
	inactive := rule(3, 1, "paper", OpEquals, []string{"ART250"}, block)
	inactive.IsActive = false
	global := rule(4, 1, "paper", OpEquals, []string{"ART250"}, block)
	global.ProductID = 0

	r := Evaluate(Input{
		ProductID:   1,
		Selections:  selections(sel("paper", "ART250")),
		Constraints: []Constraint{own, other, inactive, global},
	})
	assert.Equal(t, []int64{1, 4}, r.Matched)
	assert.Len(t, r.Violations, 2)
}

func TestEvaluateOperators(t *testing.T) {
	multi := pricing.SelectedOption{OptionKey: "finish", ChoiceCode: "foil", Values: []string{"emboss"}}
	cases := []struct {
		name   string
		source string
		op     Operator
		values []string
		want   bool
	}{
		{"equals", "paper", OpEquals, []string{"ART250"}, true},
		{"equals lower alias", "paper", "eq", []string{"ART250"}, true},
		{"not equals", "paper", OpNotEquals, []string{"ART250"}, false},
		{"in", "paper", OpIn, []string{"SNOW", "ART250"}, true},
		{"not in", "paper", OpNotIn, []string{"SNOW"}, true},
		{"contains multi", "finish", OpContains, []string{"emboss"}, true},
		{"contains scalar", "paper", OpContains, []string{"ART250"}, false},
		{"quantity gte", QuantityField, OpGTE, []string{"100"}, true},
		{"quantity lt", QuantityField, OpLT, []string{"100"}, false},
		{"page between", "pages", OpBetween, nil, true},
		{"size gt", SizeField, OpGT, []string{"90x140"}, true},
		{"size gt one axis", SizeField, OpGT, []string{"90x150"}, false},
		{"unknown operator", "paper", "LIKE", []string{"ART"}, false},
		{"missing trigger field", "coating", OpNotIn, []string{"x"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := rule(1, 1, tc.source, tc.op, tc.values, Action{Type: ActionBlock})
			if tc.op == OpBetween {
				c.Min, c.Max = ptr("16"), ptr("64")
			}
			r := Evaluate(Input{
				ProductID:   1,
				Selections:  selections(sel("paper", "ART250"), sel("pages", "24"), multi),
				Size:        &pricing.SizeSelection{SizeID: 1, CutWidth: 100, CutHeight: 150},
				Quantity:    100,
				Constraints: []Constraint{c},
			})
			assert.Equal(t, tc.want, r.Blocked())
		})
	}
}

func TestEvaluatePriorityDescending(t *testing.T) {
	low := rule(1, 1, "paper", OpEquals, []string{"ART250"},
		Action{Type: ActionExclude, TargetOption: "coating", Values: []string{"matte", "gloss"}})
	high := rule(2, 10, "paper", OpEquals, []string{"ART250"},
		Action{Type: ActionFilter, TargetOption: "coating", Values: []string{"matte"}})

	r := Evaluate(Input{
		ProductID:   1,
		Selections:  selections(sel("paper", "ART250")),
		Constraints: []Constraint{low, high},
	})

	assert.Equal(t, []int64{2, 1}, r.Matched)
	assert.Equal(t, []string{"matte"}, r.Available["coating"])
	assert.Equal(t, []string{"gloss"}, r.Excluded["coating"])
	assert.True(t, r.IsAvailable("coating", "matte"))
	assert.False(t, r.IsAvailable("coating", "gloss"))
	assert.False(t, r.IsAvailable("coating", "uv"))
}

func TestEvaluateFiltersUnionAcrossRules(t *testing.T) {
	a := rule(1, 5, "paper", OpIn, []string{"ART250"},
		Action{Type: ActionFilter, TargetOption: "coating", Values: []string{"matte"}})
	b := rule(2, 3, "size", OpEquals, []string{"100x150"},
		Action{Type: ActionFilter, TargetOption: "coating", Values: []string{"gloss", "matte"}})

	r := Evaluate(Input{
		ProductID:   1,
		Selections:  selections(sel("paper", "ART250"), sel("size", "100x150")),
		Constraints: []Constraint{a, b},
	})
	assert.ElementsMatch(t, []string{"matte", "gloss"}, r.Available["coating"])
}

func TestEvaluateEarlierExcludeWins(t *testing.T) {
	high := rule(1, 10, "paper", OpEquals, []string{"KRAFT"},
		Action{Type: ActionExclude, TargetOption: "coating", Values: []string{"gloss"}})
	low := rule(2, 1, "paper", OpEquals, []string{"KRAFT"},
		Action{Type: ActionFilter, TargetOption: "coating", Values: []string{"gloss", "matte"}})

	r := Evaluate(Input{
		ProductID:   1,
		Selections:  selections(sel("paper", "KRAFT")),
		Constraints: []Constraint{low, high},
	})
	assert.Equal(t, []string{"matte"}, r.Available["coating"])
	assert.False(t, r.IsAvailable("coating", "gloss"))
}

func TestEvaluateMessageAndAddonActions(t *testing.T) {
	c := rule(7, 1, "paper", OpEquals, []string{"ART250"},
		Action{Type: ActionShowMessage, Message: "heavy paper ships later"},
		Action{Type: ActionShowMessage, Message: "check bleed", Level: LevelWarning},
		Action{Type: ActionAutoAdd, AddonGroupID: ptr(int64(3)), AddonItemID: ptr(int64(9))},
		Action{Type: ActionShowAddonList, AddonGroupID: ptr(int64(4))},
	)

	r := Evaluate(Input{ProductID: 1, Selections: selections(sel("paper", "ART250")), Constraints: []Constraint{c}})
	require.Len(t, r.Messages, 2)
	assert.Equal(t, LevelInfo, r.Messages[0].Level)
	assert.Equal(t, LevelWarning, r.Messages[1].Level)
	require.Len(t, r.AutoAdd, 1)
	assert.Equal(t, int64(9), *r.AutoAdd[0].ItemID)
	require.Len(t, r.AddonLists, 1)
	assert.Equal(t, int64(4), *r.AddonLists[0].GroupID)
	assert.False(t, r.Blocked())
}

func TestEvaluateBlockDefaultMessage(t *testing.T) {
	c := rule(1, 1, "paper", OpEquals, []string{"ART250"}, Action{Type: ActionBlock})
	c.Name = "no art on kraft"
	c.TargetField = "coating"

	r := Evaluate(Input{ProductID: 1, Selections: selections(sel("paper", "ART250")), Constraints: []Constraint{c}})
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "Option combination blocked by constraint: no art on kraft", r.Violations[0].Message)

	err := ErrorFromResult(r)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CodeViolation, ce.Code)
	assert.NoError(t, ErrorFromResult(Evaluate(Input{ProductID: 1})))
}

func TestEvaluateTargetValuesWithoutActions(t *testing.T) {
	c := Constraint{ID: 1, ProductID: 1, SourceField: "paper", Operator: OpEquals, SourceValues: []string{"ART250"},
		TargetField: "coating", TargetValues: []string{"matte", "unknown"}, IsActive: true}

	r := Evaluate(Input{
		ProductID:   1,
		Selections:  selections(sel("paper", "ART250")),
		Constraints: []Constraint{c},
		Choices:     []ChoiceRef{{OptionKey: "coating", Code: "matte"}, {OptionKey: "coating", Code: "gloss"}},
	})
	assert.Equal(t, []string{"matte"}, r.Available["coating"])
}

func TestSizeShow(t *testing.T) {
	show := Constraint{ID: 1, ProductID: 1, Type: TypeSizeShow, SourceField: SizeField, Operator: "eq",
		SourceValues: []string{"100x150"}, TargetField: "envelope", TargetValues: []string{"env_a6"},
		Priority: 10, IsActive: true, Description: "envelope for postcards"}
	large := show
	large.ID = 2
	large.SourceValues = []string{"200x300"}
	large.TargetValues = []string{"env_large"}

	t.Run("matching size shows", func(t *testing.T) {
		r := Evaluate(Input{
			ProductID:   1,
			Size:        &pricing.SizeSelection{CutWidth: 100, CutHeight: 150},
			Constraints: []Constraint{show, large},
		})
		assert.Equal(t, []string{"env_a6"}, r.Available["envelope"])
		assert.NotContains(t, r.Disabled, "envelope")
	})

	t.Run("no size hides", func(t *testing.T) {
		r := Evaluate(Input{ProductID: 1, Constraints: []Constraint{show}})
		require.Contains(t, r.Disabled, "envelope")
		assert.Equal(t, ReasonConstraint, r.Disabled["envelope"].Type)
		assert.False(t, r.IsAvailable("envelope", "env_a6"))
	})
}

func TestSizeRange(t *testing.T) {
	c := Constraint{ID: 3, ProductID: 1, Type: TypeSizeRange, SourceField: "foilSize", Operator: "between",
		Min: ptr("30x30"), Max: ptr("125x125"), TargetField: "foilSize", IsActive: true}

	r := Evaluate(Input{ProductID: 1, Constraints: []Constraint{c}})
	assert.Equal(t, Range{MinWidth: 30, MinHeight: 30, MaxWidth: 125, MaxHeight: 125}, r.Ranges["foilSize"])
	assert.False(t, r.Blocked())

	r = Evaluate(Input{ProductID: 1, Selections: selections(sel("foilSize", "50x60")), Constraints: []Constraint{c}})
	assert.False(t, r.Blocked())

	r = Evaluate(Input{ProductID: 1, Selections: selections(sel("foilSize", "150x60")), Constraints: []Constraint{c}})
	assert.True(t, r.Blocked())
}

func TestPaperCondition(t *testing.T) {
	papers := []pricing.Paper{
		{ID: 1, Name: "Art 250g", Weight: ptr(250)},
		{ID: 2, Name: "Art 150g", Weight: ptr(150)},
		{ID: 10, Name: "Unknown"},
	}
	c := Constraint{ID: 4, ProductID: 1, Type: TypePaperCondition, SourceField: "paperType", Operator: "gte",
		SourceValues: []string{"180"}, TargetField: "coating", IsActive: true, Description: "180g+ for coating"}

	eval := func(paperID *int64, op Operator, threshold string) Result {
		cc := c
		cc.Operator = op
		cc.SourceValues = []string{threshold}
		in := Input{ProductID: 1, Papers: papers, Constraints: []Constraint{cc}}
		if paperID != nil {
			in.Selections = selections(pricing.SelectedOption{OptionKey: "paperType", ChoiceCode: "P", RefPaperID: paperID})
		}
		return Evaluate(in)
	}

	assert.Contains(t, eval(nil, "gte", "180").Disabled, "coating")
	assert.Contains(t, eval(ptr(int64(999)), "gte", "180").Disabled, "coating")
	assert.NotContains(t, eval(ptr(int64(1)), "gte", "180").Disabled, "coating")
	assert.Contains(t, eval(ptr(int64(2)), "gte", "180").Disabled, "coating")
	assert.NotContains(t, eval(ptr(int64(2)), "lte", "150").Disabled, "coating")
	assert.NotContains(t, eval(ptr(int64(1)), "eq", "250").Disabled, "coating")
	assert.Contains(t, eval(ptr(int64(1)), "unknown", "250").Disabled, "coating")
	assert.Contains(t, eval(ptr(int64(10)), "gte", "180").Disabled, "coating")
}

func TestEvaluateDoesNotMutateConstraints(t *testing.T) {
	cs := []Constraint{
		rule(1, 1, "paper", OpEquals, []string{"A"}),
		rule(2, 9, "paper", OpEquals, []string{"A"}),
	}
	Evaluate(Input{ProductID: 1, Selections: selections(sel("paper", "A")), Constraints: cs})
	assert.Equal(t, int64(1), cs[0].ID)
	assert.Equal(t, int64(2), cs[1].ID)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "1:", CacheKey(1, nil, 0))
	key := CacheKey(7, selections(sel("size", "100x150"), sel("paper", "ART250")), 0)
	assert.Equal(t, "7:paper=ART250,size=100x150", key)
	assert.Equal(t, "7:paper=ART250,quantity=100", CacheKey(7, selections(sel("paper", "ART250")), 100))
}

func TestMergeLayers(t *testing.T) {
	assert.Empty(t, MergeLayers(nil, nil))

	implicit := []Constraint{
		{ID: 10, ProductID: 1, SourceField: "size", TargetField: "paper", SourceValues: []string{"implicit"}},
		{ID: 11, ProductID: 1, SourceField: "color", TargetField: "coating"},
	}
	star := []Constraint{
		{ID: 1, ProductID: 1, SourceField: "size", TargetField: "paper", SourceValues: []string{"star"}},
	}

	merged := MergeLayers(star, implicit)
	require.Len(t, merged, 2)
	assert.Equal(t, SourceImplicit, merged[0].Source)
	assert.Equal(t, "color:coating:1", merged[0].Key)
	assert.Equal(t, SourceStar, merged[1].Source)
	assert.Equal(t, []string{"star"}, merged[1].SourceValues)
	assert.Len(t, Flatten(merged), 2)
}

func TestForProductOverridesTemplate(t *testing.T) {
	templates := []Constraint{{ID: 20, SourceField: "size", TargetField: "finishing"}}
	star := []Constraint{{ID: 2, ProductID: 7, SourceField: "size", TargetField: "finishing"}}

	assert.Len(t, MergeLayers(star, templates), 2)

	scoped := ForProduct(templates, 7)
	assert.Equal(t, int64(7), scoped[0].ProductID)
	assert.Equal(t, int64(0), templates[0].ProductID)
	merged := MergeLayers(star, scoped)
	require.Len(t, merged, 1)
	assert.Equal(t, int64(2), merged[0].ID)
}
