package pricing

import "github.com/shopspring/decimal"

// ResolveLossConfig picks the most specific loss configuration: product, then
// category, then global. Without any, loss is zero.
func ResolveLossConfig(productID, categoryID int64, configs []LossConfig) LossConfig {
	var category, global *LossConfig
	for i := range configs {
		c := &configs[i]
		switch c.ScopeType {
		case LossScopeProduct:
			if c.ScopeID != nil && *c.ScopeID == productID {
				return *c
			}
		case LossScopeCategory:
			if category == nil && c.ScopeID != nil && *c.ScopeID == categoryID {
				category = c
			}
		case LossScopeGlobal:
			if global == nil {
				global = c
			}
		}
	}
	if category != nil {
		return *category
	}
	if global != nil {
		return *global
	}
	return LossConfig{ScopeType: LossScopeGlobal, LossRate: decimal.Zero}
}

// LossQuantity is max(ceil(quantity*rate), minLossQty).
func LossQuantity(quantity int, cfg LossConfig) int {
	loss := int(cfg.LossRate.Mul(decimal.NewFromInt(int64(quantity))).Ceil().IntPart())
	return max(loss, cfg.MinLossQty)
}
