package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"printquote/backend/internal/catalog"
	"printquote/backend/internal/constraint"
	"printquote/backend/internal/option"
	"printquote/backend/internal/pricing"
	"printquote/backend/internal/store"
)

func (s *Store) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, name, slug, pricing_model, is_active, is_visible,
			has_default_recipe, edicus_code, mes_item_cd
		FROM products
		WHERE is_active = true
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]catalog.Product, 0, 32)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, extra ...any) (catalog.Product, error) {
	var (
		p      catalog.Product
		model  string
		edicus sql.NullString
		mes    sql.NullString
	)
	dest := append([]any{
		&p.ID, &p.CategoryID, &p.Name, &p.Slug, &model, &p.IsActive, &p.IsVisible,
		&p.HasDefaultRecipe, &edicus, &mes,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return catalog.Product{}, err
	}
	p.Model = pricing.Model(model)
	p.EdicusCode = nullString(edicus)
	p.MESItemCode = nullString(mes)
	return p, nil
}

// GetProductBundle loads the product, its option recipe and every active
// lookup row in one pass. Category templates are merged under the product's
// own constraints.
func (s *Store) GetProductBundle(ctx context.Context, productID int64) (*catalog.Bundle, error) {
	var (
		definitions, choices, dependencies, constraints, sizes, priceConfig []byte
		templates                                                           []byte
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.category_id, p.name, p.slug, p.pricing_model, p.is_active, p.is_visible,
			p.has_default_recipe, p.edicus_code, p.mes_item_cd,
			c.definitions, c.choices, c.dependencies, c.constraints, c.sizes, c.price_config,
			t.constraints
		FROM products p
		LEFT JOIN product_configs c ON c.product_id = p.id
		LEFT JOIN constraint_templates t ON t.category_id = p.category_id
		WHERE p.id = $1 AND p.is_active = true
	`, productID)
	product, err := scanProduct(row, &definitions, &choices, &dependencies, &constraints, &sizes, &priceConfig, &templates)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	b := &catalog.Bundle{Product: product}
	var star, implicit []constraint.Constraint
	for _, doc := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"definitions", definitions, &b.Definitions},
		{"choices", choices, &b.Choices},
		{"dependencies", dependencies, &b.Dependencies},
		{"constraints", constraints, &star},
		{"sizes", sizes, &b.Sizes},
		{"price_config", priceConfig, &b.PriceConfig},
		{"constraint_templates", templates, &implicit},
	} {
		if err := decodeJSON(doc.raw, doc.dst); err != nil {
			return nil, fmt.Errorf("decode %s of product %d: %w", doc.name, productID, err)
		}
	}
	b.Choices = activeChoices(b.Choices)
	b.Constraints = constraint.Flatten(constraint.MergeLayers(activeConstraints(star), constraint.ForProduct(activeConstraints(implicit), productID)))

	lookup, err := s.loadLookup(ctx, productID)
	if err != nil {
		return nil, err
	}
	b.Lookup = lookup
	return b, nil
}

func (s *Store) MarkPublished(ctx context.Context, productID int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET is_visible = true, published_at = $2, updated_at = now()
		WHERE id = $1
	`, productID, at)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) loadLookup(ctx context.Context, productID int64) (pricing.LookupData, error) {
	var data pricing.LookupData
	var err error

	if data.PriceTiers, err = s.priceTiers(ctx); err != nil {
		return data, err
	}
	if data.Papers, err = s.papers(ctx); err != nil {
		return data, err
	}
	if data.PrintModes, err = s.printModes(ctx); err != nil {
		return data, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, rows FROM pricing_lookups`)
	if err != nil {
		return data, err
	}
	defer rows.Close()

	targets := map[string]any{
		"fixed_prices":     &data.FixedPrices,
		"package_prices":   &data.PackagePrices,
		"foil_prices":      &data.FoilPrices,
		"imposition_rules": &data.ImpositionRules,
		"loss_configs":     &data.LossConfigs,
		"post_processes":   &data.PostProcesses,
		"bindings":         &data.Bindings,
	}
	for rows.Next() {
		var kind string
		var raw []byte
		if err := rows.Scan(&kind, &raw); err != nil {
			return data, err
		}
		dst, ok := targets[kind]
		if !ok {
			continue
		}
		if err := decodeJSON(raw, dst); err != nil {
			return data, fmt.Errorf("decode pricing lookup %s: %w", kind, err)
		}
	}
	if err := rows.Err(); err != nil {
		return data, err
	}

	data.FixedPrices = filterByProduct(data.FixedPrices, productID, func(r pricing.FixedPriceRecord) int64 { return r.ProductID })
	data.PackagePrices = filterByProduct(data.PackagePrices, productID, func(r pricing.PackagePriceRecord) int64 { return r.ProductID })
	return data, nil
}

func (s *Store) priceTiers(ctx context.Context) ([]pricing.PriceTier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT option_code, min_qty, max_qty, unit_price, sheet_standard
		FROM price_tiers
		WHERE is_active = true
		ORDER BY option_code, min_qty
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiers := make([]pricing.PriceTier, 0, 256)
	for rows.Next() {
		var t pricing.PriceTier
		var sheet sql.NullString
		if err := rows.Scan(&t.OptionCode, &t.MinQty, &t.MaxQty, &t.UnitPrice, &sheet); err != nil {
			return nil, err
		}
		t.SheetStandard = nullString(sheet)
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (s *Store) papers(ctx context.Context) ([]pricing.Paper, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, weight, cost_per_4cut, selling_per_4cut
		FROM papers
		WHERE is_active = true
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	papers := make([]pricing.Paper, 0, 64)
	for rows.Next() {
		var p pricing.Paper
		var weight sql.NullInt32
		if err := rows.Scan(&p.ID, &p.Name, &weight, &p.CostPer4Cut, &p.SellingPer4Cut); err != nil {
			return nil, err
		}
		if weight.Valid {
			w := int(weight.Int32)
			p.Weight = &w
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

func (s *Store) printModes(ctx context.Context) ([]pricing.PrintMode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price_code, sides, color_type
		FROM print_modes
		WHERE is_active = true
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	modes := make([]pricing.PrintMode, 0, 16)
	for rows.Next() {
		var m pricing.PrintMode
		if err := rows.Scan(&m.ID, &m.Name, &m.PriceCode, &m.Sides, &m.ColorType); err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return modes, rows.Err()
}

func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func activeChoices(in []option.Choice) []option.Choice {
	out := in[:0]
	for _, c := range in {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

func activeConstraints(in []constraint.Constraint) []constraint.Constraint {
	out := make([]constraint.Constraint, 0, len(in))
	for _, c := range in {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

func filterByProduct[T any](rows []T, productID int64, id func(T) int64) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if id(r) == productID {
			out = append(out, r)
		}
	}
	return out
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
