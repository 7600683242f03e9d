package option

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printquote/backend/internal/constraint"
	"printquote/backend/internal/pricing"
)

func ptr[T any](v T) *T { return &v }

func def(key, class string, definitionID int64, required bool) Definition {
	return Definition{ID: definitionID, ProductID: 1, DefinitionID: definitionID, Key: key, Class: class,
		Label: key, Required: required, Visible: true}
}

func choice(id, definitionID int64, code string, isDefault bool, sortOrder int) Choice {
	return Choice{ID: id, DefinitionID: definitionID, Code: code, Label: code, IsDefault: isDefault, IsActive: true, SortOrder: sortOrder}
}

func pick(key, code string) pricing.SelectedOption {
	return pricing.SelectedOption{OptionKey: key, ChoiceCode: code}
}

func baseInput() Input {
	return Input{
		ProductID: 1,
		Definitions: []Definition{
			def("coating", "coating", 30, false),
			def("size", "size", 10, true),
			def("paper", "paper", 20, true),
		},
		Choices: []Choice{
			choice(1, 10, "A4", true, 2),
			choice(2, 10, "A3", false, 1),
			choice(3, 20, "ART250", false, 1),
			choice(4, 20, "SNOW120", false, 2),
			choice(5, 30, "matte", true, 1),
			choice(6, 30, "gloss", false, 2),
		},
		Selections: map[string]pricing.SelectedOption{},
	}
}

func TestResolveChainOrderAndDefaults(t *testing.T) {
	res := Resolve(baseInput())

	assert.Equal(t, []string{"size", "paper", "coating"}, res.Order)
	assert.Equal(t, "A4", res.Defaults["size"])
	assert.Equal(t, "ART250", res.Defaults["paper"])
	assert.Equal(t, "matte", res.Defaults["coating"])

	// required options fall back to their default, optional ones stay empty
	require.NotNil(t, res.Options["size"].Selected)
	assert.Equal(t, "A4", res.Options["size"].Selected.ChoiceCode)
	assert.Nil(t, res.Options["coating"].Selected)
	assert.Empty(t, res.ValidationErrors)
	assert.True(t, res.Valid())

	codes := []string{}
	for _, c := range res.Options["size"].Choices {
		codes = append(codes, c.Code)
	}
	assert.Equal(t, []string{"A3", "A4"}, codes)
}

func TestResolveCurrentSelectionWins(t *testing.T) {
	in := baseInput()
	in.Selections["size"] = pick("size", "A3")

	res := Resolve(in)
	require.NotNil(t, res.Options["size"].Selected)
	assert.Equal(t, "A3", res.Options["size"].Selected.ChoiceCode)
	assert.Equal(t, int64(2), *res.Options["size"].Selected.ChoiceID)
	assert.NotContains(t, res.Defaults, "size")
}

func TestResolveEmptyProduct(t *testing.T) {
	res := Resolve(Input{ProductID: 1})
	assert.Empty(t, res.Options)
	assert.Empty(t, res.Disabled)
	assert.Empty(t, res.ValidationErrors)
}

func TestResolveIntersectsConstraintSets(t *testing.T) {
	in := baseInput()
	in.Selections["paper"] = pick("paper", "SNOW120")
	in.Selections["coating"] = pick("coating", "gloss")
	in.Constraints = []constraint.Constraint{{
		ID: 1, ProductID: 1, SourceField: "paper", Operator: constraint.OpEquals, SourceValues: []string{"SNOW120"},
		Actions:  []constraint.Action{{Type: constraint.ActionFilter, TargetOption: "coating", Values: []string{"matte"}}},
		Priority: 1, IsActive: true,
	}}

	res := Resolve(in)
	require.Len(t, res.Options["coating"].Choices, 1)
	assert.Equal(t, "matte", res.Options["coating"].Choices[0].Code)
	assert.Nil(t, res.Options["coating"].Selected)
	require.Len(t, res.ValidationErrors, 1)
	assert.Equal(t, ErrChoiceUnavailable, res.ValidationErrors[0].Code)
	assert.False(t, res.Valid())
}

func TestResolveRequiredWithoutChoice(t *testing.T) {
	in := baseInput()
	in.Constraints = []constraint.Constraint{{
		ID: 1, ProductID: 1, SourceField: "size", Operator: constraint.OpEquals, SourceValues: []string{"A3"},
		Actions:  []constraint.Action{{Type: constraint.ActionExclude, TargetOption: "paper", Values: []string{"ART250", "SNOW120"}}},
		Priority: 1, IsActive: true,
	}}
	in.Selections["size"] = pick("size", "A3")

	res := Resolve(in)
	assert.Empty(t, res.Options["paper"].Choices)
	require.Len(t, res.ValidationErrors, 1)
	assert.Equal(t, ErrRequiredNoChoice, res.ValidationErrors[0].Code)
	assert.Equal(t, "paper", res.ValidationErrors[0].OptionKey)
}

func TestResolveBlockingConstraintInvalidates(t *testing.T) {
	in := baseInput()
	in.Selections["paper"] = pick("paper", "SNOW120")
	in.Constraints = []constraint.Constraint{{
		ID: 1, ProductID: 1, Name: "snow cannot be coated", SourceField: "paper", Operator: constraint.OpEquals,
		SourceValues: []string{"SNOW120"}, Actions: []constraint.Action{{Type: constraint.ActionBlock}},
		Priority: 1, IsActive: true,
	}}

	res := Resolve(in)
	assert.Empty(t, res.ValidationErrors)
	assert.False(t, res.Valid())
	require.Error(t, constraint.ErrorFromResult(res.Constraints))
}

func TestResolveEvaluatesRulesOnDefaults(t *testing.T) {
	in := baseInput()
	in.Constraints = []constraint.Constraint{{
		ID: 1, ProductID: 1, Name: "A4 paused", SourceField: "size", Operator: constraint.OpEquals,
		SourceValues: []string{"A4"}, Actions: []constraint.Action{{Type: constraint.ActionBlock}},
		Priority: 1, IsActive: true,
	}}

	res := Resolve(in)
	require.NotNil(t, res.Options["size"].Selected)
	assert.Equal(t, "A4", res.Options["size"].Selected.ChoiceCode)
	assert.False(t, res.Valid())
	require.Error(t, constraint.ErrorFromResult(res.Constraints))
}

func TestResolveMovesDefaultExcludedByAnotherDefault(t *testing.T) {
	in := baseInput()
	in.Constraints = []constraint.Constraint{{
		ID: 1, ProductID: 1, SourceField: "size", Operator: constraint.OpEquals, SourceValues: []string{"A4"},
		Actions:  []constraint.Action{{Type: constraint.ActionExclude, TargetOption: "paper", Values: []string{"ART250"}}},
		Priority: 1, IsActive: true,
	}}

	res := Resolve(in)
	require.NotNil(t, res.Options["paper"].Selected)
	assert.Equal(t, "SNOW120", res.Options["paper"].Selected.ChoiceCode)
	assert.Equal(t, "SNOW120", res.Defaults["paper"])
	assert.Empty(t, res.ValidationErrors)
	assert.True(t, res.Valid())
}

func TestResolveChecksEveryMultiSelectCode(t *testing.T) {
	in := baseInput()
	in.Definitions = append(in.Definitions, def("finishing", "post_process", 50, false))
	retired := choice(9, 50, "foil", false, 3)
	retired.IsActive = false
	in.Choices = append(in.Choices, choice(7, 50, "rounding", false, 1), choice(8, 50, "lamination", false, 2), retired)
	in.Constraints = []constraint.Constraint{{
		ID: 1, ProductID: 1, SourceField: "size", Operator: constraint.OpEquals, SourceValues: []string{"A3"},
		Actions:  []constraint.Action{{Type: constraint.ActionExclude, TargetOption: "finishing", Values: []string{"lamination"}}},
		Priority: 1, IsActive: true,
	}}
	in.Selections["size"] = pick("size", "A3")
	in.Selections["finishing"] = pricing.SelectedOption{OptionKey: "finishing", ChoiceCode: "rounding", Values: []string{"lamination", "foil"}}

	res := Resolve(in)
	assert.Nil(t, res.Options["finishing"].Selected)
	require.Len(t, res.ValidationErrors, 2)
	assert.Equal(t, ErrChoiceUnavailable, res.ValidationErrors[0].Code)
	assert.Contains(t, res.ValidationErrors[0].Message, "lamination")
	assert.Contains(t, res.ValidationErrors[1].Message, "foil")
	assert.False(t, res.Valid())
}

func TestResolveDisablesUnmetDependency(t *testing.T) {
	in := baseInput()
	in.Dependencies = []Dependency{{ID: 1, ProductID: 1, ParentOptionID: 20, ChildOptionID: 30, Type: DependVisibility}}
	// optional paper gets no default selection
	in.Definitions = []Definition{def("size", "size", 10, true), def("paper", "paper", 20, false), def("coating", "coating", 30, false)}

	res := Resolve(in)
	require.Contains(t, res.Disabled, "coating")
	assert.Equal(t, ReasonParentNotSelected, res.Disabled["coating"].Type)
	assert.NotContains(t, res.Options, "coating")
}

func TestEvaluateDependencies(t *testing.T) {
	paper := def("paper", "paper", 10, false)
	coating := def("coating", "coating", 20, false)
	base := Input{
		ProductID:   1,
		Definitions: []Definition{paper, coating},
		Choices: []Choice{
			choice(1, 20, "GLOSS", false, 1),
			choice(2, 20, "MATT", false, 2),
		},
	}
	withPaper := map[string]pricing.SelectedOption{
		"paper": {OptionKey: "paper", ChoiceCode: "ART250", ChoiceID: ptr(int64(5))},
	}

	t.Run("no dependencies", func(t *testing.T) {
		assert.True(t, EvaluateDependencies(coating, base).Visible)
	})

	t.Run("visibility parent missing", func(t *testing.T) {
		in := base
		in.Dependencies = []Dependency{{ParentOptionID: 10, ChildOptionID: 20, Type: DependVisibility}}
		r := EvaluateDependencies(coating, in)
		assert.False(t, r.Visible)
		assert.Equal(t, ReasonParentNotSelected, r.Reason.Type)
	})

	t.Run("visibility parent selected", func(t *testing.T) {
		in := base
		in.Selections = withPaper
		in.Dependencies = []Dependency{{ParentOptionID: 10, ChildOptionID: 20, Type: DependVisibility}}
		assert.True(t, EvaluateDependencies(coating, in).Visible)
	})

	t.Run("visibility choice mismatch", func(t *testing.T) {
		in := base
		in.Selections = withPaper
		in.Dependencies = []Dependency{{ParentOptionID: 10, ChildOptionID: 20, ParentChoiceID: ptr(int64(99)), Type: DependVisibility}}
		r := EvaluateDependencies(coating, in)
		assert.False(t, r.Visible)
		assert.Equal(t, ReasonParentChoiceMismatch, r.Reason.Type)
	})

	t.Run("choices dependency", func(t *testing.T) {
		in := base
		in.Selections = withPaper
		in.Dependencies = []Dependency{{ParentOptionID: 10, ChildOptionID: 20, Type: DependChoices}}
		r := EvaluateDependencies(coating, in)
		assert.True(t, r.Visible)
		assert.Equal(t, []string{"GLOSS", "MATT"}, r.FilteredChoices)
	})

	t.Run("choices dependency without parent", func(t *testing.T) {
		in := base
		in.Dependencies = []Dependency{{ParentOptionID: 10, ChildOptionID: 20, Type: DependChoices}}
		r := EvaluateDependencies(coating, in)
		assert.True(t, r.Visible)
		assert.Empty(t, r.FilteredChoices)
		assert.NotNil(t, r.FilteredChoices)
	})

	t.Run("value dependency", func(t *testing.T) {
		in := base
		in.Dependencies = []Dependency{{ParentOptionID: 10, ChildOptionID: 20, Type: DependValue}}
		assert.True(t, EvaluateDependencies(coating, in).Visible)
	})
}

func TestFilterChoicesAndDefault(t *testing.T) {
	paper := def("paper", "paper", 20, false)
	choices := []Choice{
		choice(1, 20, "c", false, 3),
		choice(2, 20, "a", false, 1),
		choice(3, 20, "b", true, 2),
		choice(4, 99, "other", false, 0),
	}
	inactive := choice(5, 20, "z", false, 0)
	inactive.IsActive = false
	choices = append(choices, inactive)

	filtered := FilterChoices(paper, choices, DependencyResult{Visible: true})
	require.Len(t, filtered, 3)
	assert.Equal(t, "a", filtered[0].Code)
	assert.Equal(t, "c", filtered[2].Code)

	restricted := FilterChoices(paper, choices, DependencyResult{Visible: true, FilteredChoices: []string{"c"}})
	require.Len(t, restricted, 1)

	d := DefaultChoice(paper, filtered)
	require.NotNil(t, d)
	assert.Equal(t, "b", d.ChoiceCode)
	assert.Equal(t, int64(3), *d.ChoiceID)

	assert.Nil(t, DefaultChoice(paper, nil))

	withRef := choice(7, 20, "art", false, 0)
	withRef.RefPaperID = ptr(int64(42))
	d = DefaultChoice(paper, []Choice{withRef})
	assert.Equal(t, "art", d.ChoiceCode)
	assert.Equal(t, int64(42), *d.RefPaperID)
}

func TestChangeSelectionCascade(t *testing.T) {
	in := baseInput()
	in.Selections = map[string]pricing.SelectedOption{
		"size":    pick("size", "A4"),
		"paper":   pick("paper", "SNOW120"),
		"coating": pick("coating", "gloss"),
	}

	t.Run("upstream change resets downstream", func(t *testing.T) {
		next, res := ChangeSelection(in, "size", "A3")
		assert.Equal(t, "A3", next["size"].ChoiceCode)
		assert.NotContains(t, next, "paper")
		assert.NotContains(t, next, "coating")
		// required paper falls back to its default after the reset
		assert.Equal(t, "ART250", res.Options["paper"].Selected.ChoiceCode)
	})

	t.Run("downstream change keeps upstream", func(t *testing.T) {
		next, _ := ChangeSelection(in, "coating", "matte")
		assert.Equal(t, "A4", next["size"].ChoiceCode)
		assert.Equal(t, "SNOW120", next["paper"].ChoiceCode)
		assert.Equal(t, "matte", next["coating"].ChoiceCode)
	})

	t.Run("unknown option only sets itself", func(t *testing.T) {
		next, _ := ChangeSelection(in, "unknown_option", "value")
		assert.Equal(t, "value", next["unknown_option"].ChoiceCode)
		assert.Len(t, next, 4)
	})

	t.Run("input is not modified", func(t *testing.T) {
		ChangeSelection(in, "size", "A3")
		assert.Len(t, in.Selections, 3)
		assert.Equal(t, "A4", in.Selections["size"].ChoiceCode)
	})
}

func TestDownstreamFollowsDependencies(t *testing.T) {
	defs := []Definition{def("size", "size", 10, false), def("paper", "paper", 20, false), def("extra", "size", 40, false)}
	deps := []Dependency{{ParentOptionID: 20, ChildOptionID: 40, Type: DependVisibility}}

	assert.Equal(t, []string{"extra"}, Downstream(defs, deps, "paper"))
	assert.Equal(t, []string{"extra", "paper"}, Downstream(defs, nil, "size"))
	assert.Nil(t, Downstream(defs, deps, "missing"))
}
