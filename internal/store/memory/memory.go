package memory

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"printquote/backend/internal/catalog"
	"printquote/backend/internal/constraint"
	"printquote/backend/internal/domain"
	"printquote/backend/internal/quote"
	"printquote/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	bundles         map[int64]*catalog.Bundle
	templates       map[int64][]constraint.Constraint
	quotesByID      map[string]quote.Quote
	simulationRuns  map[string]domain.SimulationRun
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_OPERATOR_PASSWORD;
// unset values fall back to dev defaults with a warning. Production runs
// against PostgreSQL and never sees these accounts.
func seedUsers() (map[string]domain.UserAccount, error) {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	operatorPwd := envOr("SEED_OPERATOR_PASSWORD", "operator123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_OPERATOR_PASSWORD") == "" {
		slog.Warn("memory store using default dev credentials",
			"hint", "set SEED_ADMIN_PASSWORD and SEED_OPERATOR_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"operator", operatorPwd, domain.RoleOperator},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// New returns an empty store holding the given bundles.
func New(bundles ...*catalog.Bundle) *Store {
	s := &Store{
		bundles:         make(map[int64]*catalog.Bundle, len(bundles)),
		templates:       make(map[int64][]constraint.Constraint),
		quotesByID:      make(map[string]quote.Quote),
		simulationRuns:  make(map[string]domain.SimulationRun),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: make(map[string]domain.UserAccount),
	}
	for _, b := range bundles {
		s.bundles[b.Product.ID] = cloneBundle(b)
	}
	return s
}

// NewSeeded returns a store with the demo catalog and dev accounts.
func NewSeeded() (*Store, error) {
	users, err := seedUsers()
	if err != nil {
		return nil, err
	}
	s := New(SeedBundles()...)
	for categoryID, constraints := range SeedTemplates() {
		s.SetConstraintTemplates(categoryID, constraints)
	}
	s.usersByUsername = users
	return s, nil
}

// SetConstraintTemplates replaces the implicit constraints every product of
// the category inherits.
func (s *Store) SetConstraintTemplates(categoryID int64, constraints []constraint.Constraint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[categoryID] = slices.Clone(constraints)
}

func (s *Store) ListProducts(_ context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]catalog.Product, 0, len(s.bundles))
	for _, b := range s.bundles {
		if !b.Product.IsActive {
			continue
		}
		products = append(products, b.Product)
	}
	slices.SortFunc(products, func(a, b catalog.Product) int {
		return strings.Compare(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) GetProductBundle(_ context.Context, productID int64) (*catalog.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bundles[productID]
	if !ok || !b.Product.IsActive {
		return nil, store.ErrNotFound
	}
	dup := cloneBundle(b)
	dup.Constraints = constraint.Flatten(constraint.MergeLayers(dup.Constraints, constraint.ForProduct(s.templates[dup.Product.CategoryID], productID)))
	return dup, nil
}

func (s *Store) MarkPublished(_ context.Context, productID int64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bundles[productID]
	if !ok {
		return store.ErrNotFound
	}
	b.Product.IsVisible = true
	return nil
}

func (s *Store) SaveQuote(_ context.Context, q quote.Quote) error {
	if q.QuoteID == "" {
		return store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	q.SelectedOptions = slices.Clone(q.SelectedOptions)
	q.LineItems = slices.Clone(q.LineItems)
	s.quotesByID[q.QuoteID] = q
	return nil
}

func (s *Store) GetQuote(_ context.Context, quoteID string) (*quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotesByID[quoteID]
	if !ok {
		return nil, store.ErrNotFound
	}
	q.SelectedOptions = slices.Clone(q.SelectedOptions)
	q.LineItems = slices.Clone(q.LineItems)
	return &q, nil
}

// SaveSimulationRun inserts or replaces the run with the same ID.
func (s *Store) SaveSimulationRun(_ context.Context, run domain.SimulationRun) error {
	if run.ID == "" || run.ProductID < 1 {
		return store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.simulationRuns[run.ID]; ok && run.CreatedAt.IsZero() {
		run.CreatedAt = existing.CreatedAt
	}
	s.simulationRuns[run.ID] = run
	return nil
}

func (s *Store) GetSimulationRun(_ context.Context, runID string) (*domain.SimulationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.simulationRuns[runID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &run, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

// ListAuditLogs returns the newest entries first. Empty filters match all.
func (s *Store) ListAuditLogs(_ context.Context, entityType string, entityID string, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	out := make([]domain.AuditLog, 0, min(limit, len(s.auditLogs)))
	for i := len(s.auditLogs) - 1; i >= 0 && len(out) < limit; i-- {
		entry := s.auditLogs[i]
		if entityType != "" && entry.EntityType != entityType {
			continue
		}
		if entityID != "" && entry.EntityID != entityID {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleOperator
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) GetUser(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByUsername[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// cloneBundle copies every slice so callers cannot reach the stored rows.
func cloneBundle(src *catalog.Bundle) *catalog.Bundle {
	dup := *src
	dup.Definitions = slices.Clone(src.Definitions)
	dup.Choices = slices.Clone(src.Choices)
	dup.Dependencies = slices.Clone(src.Dependencies)
	dup.Constraints = slices.Clone(src.Constraints)
	dup.Sizes = slices.Clone(src.Sizes)
	if src.PriceConfig != nil {
		cfg := *src.PriceConfig
		dup.PriceConfig = &cfg
	}
	dup.Lookup.PriceTiers = slices.Clone(src.Lookup.PriceTiers)
	dup.Lookup.FixedPrices = slices.Clone(src.Lookup.FixedPrices)
	dup.Lookup.PackagePrices = slices.Clone(src.Lookup.PackagePrices)
	dup.Lookup.FoilPrices = slices.Clone(src.Lookup.FoilPrices)
	dup.Lookup.ImpositionRules = slices.Clone(src.Lookup.ImpositionRules)
	dup.Lookup.LossConfigs = slices.Clone(src.Lookup.LossConfigs)
	dup.Lookup.Papers = slices.Clone(src.Lookup.Papers)
	dup.Lookup.PrintModes = slices.Clone(src.Lookup.PrintModes)
	dup.Lookup.PostProcesses = slices.Clone(src.Lookup.PostProcesses)
	dup.Lookup.Bindings = slices.Clone(src.Lookup.Bindings)
	return &dup
}
