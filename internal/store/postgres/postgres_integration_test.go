package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printquote/backend/internal/constraint"
	"printquote/backend/internal/domain"
	"printquote/backend/internal/quote"
	"printquote/backend/internal/simulation"
	"printquote/backend/internal/store"
	"printquote/backend/internal/store/memory"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("POSTGRES_TEST_URL")
	if databaseURL == "" {
		t.Skip("set POSTGRES_TEST_URL to run postgres integration tests")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	require.NoError(t, s.Migrate(ctx))
	return s
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestProductBundleRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	b := memory.SeedBundles()[0]
	productID := time.Now().UnixNano() % 1_000_000_000
	categoryID := productID + 1
	b.Product.ID = productID
	b.Product.CategoryID = categoryID

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM product_configs WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM constraint_templates WHERE category_id = $1`, categoryID)
	})

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, category_id, name, slug, pricing_model, is_active, has_default_recipe, mes_item_cd)
		VALUES ($1,$2,$3,$4,$5,true,true,$6)
	`, productID, categoryID, b.Product.Name, b.Product.Slug, string(b.Product.Model), *b.Product.MESItemCode)
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO product_configs (product_id, definitions, choices, dependencies, constraints, sizes, price_config)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, productID, mustJSON(t, b.Definitions), mustJSON(t, b.Choices), mustJSON(t, b.Dependencies),
		mustJSON(t, b.Constraints), mustJSON(t, b.Sizes), mustJSON(t, b.PriceConfig))
	require.NoError(t, err)

	templates := memory.SeedTemplates()[100]
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO constraint_templates (category_id, constraints) VALUES ($1,$2)
	`, categoryID, mustJSON(t, templates))
	require.NoError(t, err)

	got, err := s.GetProductBundle(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, b.Product.Name, got.Product.Name)
	assert.Len(t, got.Definitions, len(b.Definitions))
	assert.Len(t, got.Choices, len(b.Choices))
	require.NotNil(t, got.PriceConfig)
	assert.Equal(t, "A3", got.PriceConfig.SheetStandard)

	sources := map[constraint.Source]int{}
	for _, l := range constraint.MergeLayers(b.Constraints, constraint.ForProduct(templates, productID)) {
		sources[l.Source]++
	}
	assert.Len(t, got.Constraints, sources[constraint.SourceStar]+sources[constraint.SourceImplicit])

	require.NoError(t, s.MarkPublished(ctx, productID, time.Now().UTC()))
	got, err = s.GetProductBundle(ctx, productID)
	require.NoError(t, err)
	assert.True(t, got.Product.IsVisible)

	_, err = s.GetProductBundle(ctx, -1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestQuoteAndSimulationRunPersistence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	quoteID := fmt.Sprintf("quote-it-%d", stamp)
	runID := fmt.Sprintf("sim-it-%d", stamp)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM quotes WHERE quote_id = $1`, quoteID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM simulation_runs WHERE id = $1`, runID)
	})

	now := time.Now().UTC().Truncate(time.Millisecond)
	q := quote.Quote{
		QuoteID: quoteID, ProductID: 1, ProductName: "Postcard", Quantity: 100,
		Subtotal: 22800, VATAmount: 2280, TotalPrice: 25080, UnitPrice: 250,
		SnapshotHash: "abc", CreatedAt: now, ExpiresAt: now.Add(quote.DefaultTTL),
	}
	require.NoError(t, s.SaveQuote(ctx, q))
	assert.ErrorIs(t, s.SaveQuote(ctx, q), store.ErrInvalidInput)

	got, err := s.GetQuote(ctx, quoteID)
	require.NoError(t, err)
	assert.Equal(t, int64(25080), got.TotalPrice)
	assert.True(t, got.ExpiresAt.Equal(q.ExpiresAt))

	run := domain.SimulationRun{
		ID: runID, ProductID: 1, Status: domain.SimulationQueued, Seed: 1<<63 + 5,
		RequestedBy: "admin", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.SaveSimulationRun(ctx, run))

	finished := now.Add(time.Second)
	run.Status = domain.SimulationCompleted
	run.Total, run.Processed = 8, 8
	run.Result = &simulation.Result{Total: 8, Passed: 6, Errored: 2, Cases: []simulation.CaseResult{}}
	run.UpdatedAt = finished
	run.FinishedAt = &finished
	require.NoError(t, s.SaveSimulationRun(ctx, run))

	loaded, err := s.GetSimulationRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, domain.SimulationCompleted, loaded.Status)
	assert.Equal(t, uint64(1<<63+5), loaded.Seed)
	require.NotNil(t, loaded.Result)
	assert.Equal(t, 2, loaded.Result.Errored)
	require.NotNil(t, loaded.FinishedAt)
}

func TestUserAndAuditPersistence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	username := fmt.Sprintf("it-user-%d", time.Now().UnixNano())
	entityID := username
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM app_users WHERE username = $1`, username)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE entity_id = $1`, entityID)
	})

	require.NoError(t, s.CreateUser(ctx, domain.UserAccount{Username: username, Password: "hash"}))
	assert.ErrorIs(t, s.CreateUser(ctx, domain.UserAccount{Username: username, Password: "hash"}), store.ErrInvalidInput)
	require.NoError(t, s.UpdateUserPassword(ctx, username, "hash-2"))

	user, err := s.GetUser(ctx, username)
	require.NoError(t, err)
	assert.Equal(t, "hash-2", user.Password)
	assert.Equal(t, domain.RoleOperator, user.Role)

	require.NoError(t, s.CreateAuditLog(ctx, domain.AuditLog{
		ActorUsername: "admin", ActorRole: domain.RoleAdmin, Action: "user.password",
		EntityType: "user", EntityID: entityID,
	}))
	logs, err := s.ListAuditLogs(ctx, "user", entityID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.NotEmpty(t, logs[0].ID)
}
