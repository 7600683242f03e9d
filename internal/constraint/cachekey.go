package constraint

import (
	"slices"
	"strconv"
	"strings"

	"printquote/backend/internal/pricing"
)

// CacheKey identifies an evaluation by product and selections:
// "<productID>:k1=v1,k2=v2" with keys sorted. Quantity is included when set
// because quantity rules depend on it.
func CacheKey(productID int64, selections map[string]pricing.SelectedOption, quantity int) string {
	parts := make([]string, 0, len(selections)+1)
	for key, sel := range selections {
		parts = append(parts, key+"="+strings.Join(sel.Codes(), "|"))
	}
	if quantity > 0 {
		parts = append(parts, QuantityField+"="+strconv.Itoa(quantity))
	}
	slices.Sort(parts)
	return strconv.FormatInt(productID, 10) + ":" + strings.Join(parts, ",")
}
