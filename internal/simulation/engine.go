package simulation

import (
	"slices"
)

// PriceFunc prices one combination. An error marks the case as failed.
type PriceFunc func(Combination) (total int64, breakdown map[string]int64, err error)

// Evaluator classifies one combination.
type Evaluator interface {
	Evaluate(Combination) CaseResult
}

type EvaluatorFunc func(Combination) CaseResult

func (f EvaluatorFunc) Evaluate(c Combination) CaseResult { return f(c) }

// BasePrice prices every combination at the configured base price.
func BasePrice(cfg PriceConfig) PriceFunc {
	return func(Combination) (int64, map[string]int64, error) {
		return cfg.BasePrice, map[string]int64{"basePrice": cfg.BasePrice}, nil
	}
}

// Engine runs simulations for one product's option space.
type Engine struct {
	input Input
	price PriceFunc
}

// NewEngine uses price to price cases; nil falls back to BasePrice.
func NewEngine(in Input, price PriceFunc) *Engine {
	if price == nil {
		price = BasePrice(in.PriceConfig)
	}
	return &Engine{input: in, price: price}
}

// Run evaluates every combination of the input's option space, applying the
// MaxCases cap from opts. Oversize spaces are sampled without being built.
func (e *Engine) Run(opts Options) (Result, error) {
	res, err := e.run(opts)
	if err != nil {
		return Result{}, err
	}
	res.Unchecked = e.input.Unchecked
	return res, nil
}

func (e *Engine) run(opts Options) (Result, error) {
	total := CountCombinations(e.input.OptionTypes)
	if total <= MaxCases || opts.ForceRun {
		return RunCases(GenerateCombinations(e.input.OptionTypes), e, opts.Progress), nil
	}
	if !opts.Sample {
		return Result{}, &TooLarge{Total: total, SampleSize: MaxCases}
	}

	sets := make([]ChoiceSet, 0, len(e.input.OptionTypes))
	for _, t := range e.input.OptionTypes {
		sets = append(sets, activeSet(t))
	}
	seed := resolveSeed(opts.Seed)
	res := RunCases(sampleSpace(sets, total, MaxCases, newRand(seed)), e, opts.Progress)
	res.Sampled = true
	res.Seed = seed
	return res, nil
}

// Run is the one-shot form of NewEngine(in, nil).Run(opts).
func Run(in Input, opts Options) (Result, error) {
	return NewEngine(in, nil).Run(opts)
}

// Evaluate checks the constraints of one combination and prices it unless a
// blocking rule fired.
func (e *Engine) Evaluate(c Combination) CaseResult {
	blocks, warns := e.check(c)

	res := CaseResult{Selections: c, Status: StatusPass}
	if len(blocks) > 0 {
		res.Status = StatusError
		res.Violations = blocks
		res.Message = &blocks[0].Message
		return res
	}

	total, breakdown, err := e.price(c)
	if err != nil {
		msg := err.Error()
		res.Status = StatusError
		res.Message = &msg
		return res
	}
	res.TotalPrice = &total
	res.Breakdown = breakdown
	if len(warns) > 0 {
		res.Status = StatusWarn
		res.Message = &warns[0].Message
	}
	return res
}

func (e *Engine) check(c Combination) (blocks, warns []Violation) {
	for _, rule := range e.input.Constraints {
		if !rule.IsActive {
			continue
		}
		if rule.ProductID != 0 && e.input.ProductID != 0 && rule.ProductID != e.input.ProductID {
			continue
		}
		if src, ok := c[rule.SourceField]; !ok || src != rule.SourceValue {
			continue
		}
		if tgt, ok := c[rule.TargetField]; !ok || tgt != rule.TargetValue {
			continue
		}
		v := Violation{ConstraintID: rule.ID, Message: rule.Message}
		switch rule.Action {
		case ActionBlock, "error":
			blocks = append(blocks, v)
		case ActionWarn:
			warns = append(warns, v)
		}
	}
	return blocks, warns
}

// RunCases evaluates combos in order and tallies the statuses. progress, when
// set, is called after every 100 processed cases.
func RunCases(combos []Combination, ev Evaluator, progress ProgressFunc) Result {
	res := Result{Total: len(combos), Cases: make([]CaseResult, 0, len(combos))}
	for i, combo := range combos {
		c := ev.Evaluate(combo)
		res.Cases = append(res.Cases, c)

		switch c.Status {
		case StatusPass:
			res.Passed++
		case StatusWarn:
			res.Warned++
		default:
			res.Errored++
		}

		if done := i + 1; progress != nil && done%progressInterval == 0 {
			progress(done, len(combos))
		}
	}
	return res
}

// Failures returns the cases that did not pass, errors first.
func (r Result) Failures() []CaseResult {
	out := []CaseResult{}
	for _, c := range r.Cases {
		if c.Status != StatusPass {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b CaseResult) int {
		if a.Status == b.Status {
			return 0
		}
		if a.Status == StatusError {
			return -1
		}
		return 1
	})
	return out
}
