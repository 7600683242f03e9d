package constraint

import "fmt"

type Source string

const (
	SourceImplicit Source = "implicit"
	SourceStar     Source = "star"
)

// Layered is a constraint tagged with the layer it came from.
type Layered struct {
	Constraint
	Key    string `json:"key"`
	Source Source `json:"source"`
}

// LayerKey is the override identity of a constraint: source:target:product.
func LayerKey(c Constraint) string {
	return fmt.Sprintf("%s:%s:%d", c.SourceField, c.TargetField, c.ProductID)
}

// MergeLayers combines template-derived implicit constraints with explicit
// product ("star") constraints. A star constraint replaces every implicit one
// sharing its key. Implicit constraints keep their input order, followed by
// the star constraints.
func MergeLayers(star, implicit []Constraint) []Layered {
	overridden := make(map[string]bool, len(star))
	for _, c := range star {
		overridden[LayerKey(c)] = true
	}

	out := make([]Layered, 0, len(star)+len(implicit))
	for _, c := range implicit {
		key := LayerKey(c)
		if overridden[key] {
			continue
		}
		out = append(out, Layered{Constraint: c, Key: key, Source: SourceImplicit})
	}
	for _, c := range star {
		out = append(out, Layered{Constraint: c, Key: LayerKey(c), Source: SourceStar})
	}
	return out
}

// Flatten drops the layer tags.
func Flatten(layers []Layered) []Constraint {
	out := make([]Constraint, len(layers))
	for i, l := range layers {
		out[i] = l.Constraint
	}
	return out
}

// ForProduct copies category template constraints onto productID so they
// share layer keys with the product's own rules.
func ForProduct(templates []Constraint, productID int64) []Constraint {
	out := make([]Constraint, len(templates))
	for i, c := range templates {
		c.ProductID = productID
		out[i] = c
	}
	return out
}
