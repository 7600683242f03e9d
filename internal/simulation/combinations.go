package simulation

import (
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"time"
)

// GenerateCombinations builds the cartesian product of the active choices of
// every option type. The first type varies slowest. No option types, or a
// type without active choices, yields no combinations.
func GenerateCombinations(types []OptionType) []Combination {
	sets := make([]ChoiceSet, 0, len(types))
	for _, t := range types {
		sets = append(sets, activeSet(t))
	}
	return CartesianProduct(sets)
}

func CartesianProduct(sets []ChoiceSet) []Combination {
	if len(sets) == 0 {
		return []Combination{}
	}
	out := []Combination{{}}
	for _, set := range sets {
		next := make([]Combination, 0, len(out)*len(set.Choices))
		for _, partial := range out {
			for _, code := range set.Choices {
				c := maps.Clone(partial)
				c[set.TypeKey] = code
				next = append(next, c)
			}
		}
		out = next
	}
	return out
}

// CountCombinations returns the size of the product without building it,
// saturating at math.MaxInt.
func CountCombinations(types []OptionType) int {
	if len(types) == 0 {
		return 0
	}
	total := 1
	for _, t := range types {
		n := len(activeSet(t).Choices)
		if n == 0 {
			return 0
		}
		if total > math.MaxInt/n {
			return math.MaxInt
		}
		total *= n
	}
	return total
}

func activeSet(t OptionType) ChoiceSet {
	set := ChoiceSet{TypeKey: t.Key, Choices: []string{}}
	for _, c := range t.Choices {
		if c.IsActive {
			set.Choices = append(set.Choices, c.Code)
		}
	}
	return set
}

// Resolved is the combination list a run should evaluate.
type Resolved struct {
	Combinations []Combination
	Sampled      bool
	Seed         uint64
}

// ResolveCombinations applies the MaxCases cap. Over the cap it returns
// *TooLarge unless opts.Sample (a uniform sample of exactly MaxCases) or
// opts.ForceRun (everything) is set. all is not modified.
func ResolveCombinations(all []Combination, opts Options) (Resolved, error) {
	if len(all) <= MaxCases || opts.ForceRun {
		return Resolved{Combinations: all}, nil
	}
	if !opts.Sample {
		return Resolved{}, &TooLarge{Total: len(all), SampleSize: MaxCases}
	}
	seed := resolveSeed(opts.Seed)
	return Resolved{Combinations: sampleN(all, MaxCases, newRand(seed)), Sampled: true, Seed: seed}, nil
}

// sampleN draws n items with a partial Fisher-Yates shuffle over a copy.
func sampleN[T any](items []T, n int, r *rand.Rand) []T {
	shuffled := slices.Clone(items)
	if n >= len(shuffled) {
		return shuffled
	}
	for i := range n {
		j := i + r.IntN(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n]
}

// sampleSpace draws n distinct combinations from the product of sets without
// materializing it (Floyd's algorithm over product indices). Results are in
// index order.
func sampleSpace(sets []ChoiceSet, total, n int, r *rand.Rand) []Combination {
	picked := make(map[int]struct{}, n)
	for j := total - n; j < total; j++ {
		k := r.IntN(j + 1)
		if _, dup := picked[k]; dup {
			k = j
		}
		picked[k] = struct{}{}
	}
	indices := slices.Sorted(maps.Keys(picked))

	out := make([]Combination, 0, len(indices))
	for _, idx := range indices {
		c := make(Combination, len(sets))
		for i := len(sets) - 1; i >= 0; i-- {
			size := len(sets[i].Choices)
			c[sets[i].TypeKey] = sets[i].Choices[idx%size]
			idx /= size
		}
		out = append(out, c)
	}
	return out
}

func resolveSeed(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	return uint64(time.Now().UnixNano())
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
