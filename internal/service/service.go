package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"printquote/backend/internal/cache"
	"printquote/backend/internal/catalog"
	"printquote/backend/internal/constraint"
	"printquote/backend/internal/domain"
	"printquote/backend/internal/logging"
	"printquote/backend/internal/option"
	"printquote/backend/internal/pricing"
	"printquote/backend/internal/quote"
	"printquote/backend/internal/simulation"
	"printquote/backend/internal/store"
	"printquote/backend/internal/xid"
)

// ErrForbidden is returned when the actor in the context lacks the role an
// operation needs.
var ErrForbidden = errors.New("forbidden")

// SelectionError lists why a set of selections cannot be quoted.
type SelectionError struct {
	Errors []option.ValidationError
}

func (e *SelectionError) Error() string {
	if len(e.Errors) == 0 {
		return "invalid selections"
	}
	return fmt.Sprintf("invalid selections: %s: %s", e.Errors[0].OptionKey, e.Errors[0].Message)
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	QuoteTTL           time.Duration
	EvaluationCacheTTL time.Duration
	SimulationWorkers  int
	// SimulationSeed is used for sampled runs that do not bring their own
	// seed. Zero derives one from the clock.
	SimulationSeed     uint64
	SimulationQuantity int
	Logger             *slog.Logger
	Now                func() time.Time
}

type Service struct {
	repo      store.Repository
	cache     cache.Cache
	assembler *quote.Assembler
	logger    *slog.Logger
	now       func() time.Time

	evaluationTTL      time.Duration
	simulationSeed     uint64
	simulationQuantity int

	workers *semaphore.Weighted
	jobs    sync.WaitGroup
	jobsCtx context.Context
	stop    context.CancelFunc
}

func New(repo store.Repository, c cache.Cache, opts Options) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.SimulationWorkers < 1 {
		opts.SimulationWorkers = 1
	}
	if opts.SimulationQuantity < pricing.MinQuantity {
		opts.SimulationQuantity = 100
	}

	jobsCtx, stop := context.WithCancel(context.Background())
	return &Service{
		repo:               repo,
		cache:              c,
		assembler:          quote.NewAssembler(opts.QuoteTTL, quote.WithClock(opts.Now)),
		logger:             logging.OrDefault(opts.Logger),
		now:                opts.Now,
		evaluationTTL:      opts.EvaluationCacheTTL,
		simulationSeed:     opts.SimulationSeed,
		simulationQuantity: opts.SimulationQuantity,
		workers:            semaphore.NewWeighted(int64(opts.SimulationWorkers)),
		jobsCtx:            jobsCtx,
		stop:               stop,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return s.repo.ListProducts(ctx)
}

// ResolveOptions evaluates the product's options for the given selections.
// Results are cached per product, selections and quantity.
func (s *Service) ResolveOptions(ctx context.Context, productID int64, req domain.ResolveOptionsRequest) (*option.Resolution, error) {
	bundle, err := s.repo.GetProductBundle(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", productID, err)
	}
	quantity := req.Quantity
	if quantity < pricing.MinQuantity {
		quantity = pricing.MinQuantity
	}
	return s.resolve(ctx, bundle, toSelections(req.Selections), quantity), nil
}

func (s *Service) resolve(ctx context.Context, bundle *catalog.Bundle, selections map[string]pricing.SelectedOption, quantity int) *option.Resolution {
	key := constraint.CacheKey(bundle.Product.ID, selections, quantity)
	if cached, ok, err := s.cache.GetEvaluation(ctx, key); err != nil {
		s.logger.Warn("evaluation cache read failed", "key", key, "error", err)
	} else if ok {
		return cached
	}

	res := option.Resolve(bundle.OptionInput(selections, quantity))
	if s.evaluationTTL > 0 {
		if err := s.cache.SetEvaluation(ctx, key, &res, s.evaluationTTL); err != nil {
			s.logger.Warn("evaluation cache write failed", "key", key, "error", err)
		}
	}
	return &res
}

// IssueQuote resolves the selections, prices them and stores a quote. A
// blocking constraint yields a *constraint.Error; unresolvable selections a
// *SelectionError; pricing failures a *pricing.Error.
func (s *Service) IssueQuote(ctx context.Context, req domain.QuoteRequest) (quote.Quote, error) {
	if err := pricing.ValidateQuantity(req.Quantity); err != nil {
		return quote.Quote{}, err
	}
	bundle, err := s.repo.GetProductBundle(ctx, req.ProductID)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("load product %d: %w", req.ProductID, err)
	}

	res := s.resolve(ctx, bundle, toSelections(req.Selections), req.Quantity)
	if err := constraint.ErrorFromResult(res.Constraints); err != nil {
		return quote.Quote{}, err
	}
	if len(res.ValidationErrors) > 0 {
		return quote.Quote{}, &SelectionError{Errors: res.ValidationErrors}
	}

	selections := res.Selections()
	in, err := bundle.PricingInput(selections, req.Quantity)
	if err != nil {
		return quote.Quote{}, err
	}
	priced, err := pricing.Calculate(in)
	if err != nil {
		return quote.Quote{}, err
	}

	ordered := make([]pricing.SelectedOption, 0, len(selections))
	for _, key := range res.Order {
		if sel, ok := selections[key]; ok {
			ordered = append(ordered, sel)
		}
	}
	q, err := s.assembler.Assemble(ctx, quote.Input{
		ProductID:       bundle.Product.ID,
		ProductName:     bundle.Product.Name,
		Pricing:         priced,
		SelectedOptions: ordered,
		Quantity:        req.Quantity,
		Size:            in.Size,
	})
	if err != nil {
		return quote.Quote{}, err
	}

	if err := s.repo.SaveQuote(ctx, q); err != nil {
		return quote.Quote{}, fmt.Errorf("save quote: %w", err)
	}
	if err := s.cache.SetQuote(ctx, &q, q.ExpiresAt.Sub(s.now())); err != nil {
		s.logger.Warn("quote cache write failed", "quote_id", q.QuoteID, "error", err)
	}
	s.logger.Info("quote issued",
		"quote_id", q.QuoteID, "product_id", q.ProductID, "model", q.Model,
		"quantity", q.Quantity, "total_price", q.TotalPrice)
	return q, nil
}

// GetQuote returns a stored quote and whether it is still valid.
func (s *Service) GetQuote(ctx context.Context, quoteID string) (domain.QuoteView, error) {
	if cached, ok, err := s.cache.GetQuote(ctx, quoteID); err != nil {
		s.logger.Warn("quote cache read failed", "quote_id", quoteID, "error", err)
	} else if ok {
		return domain.QuoteView{Quote: *cached, Valid: cached.IsValid(s.now())}, nil
	}

	q, err := s.repo.GetQuote(ctx, quoteID)
	if err != nil {
		return domain.QuoteView{}, err
	}
	return domain.QuoteView{Quote: *q, Valid: q.IsValid(s.now())}, nil
}

func (s *Service) Completeness(ctx context.Context, productID int64) (simulation.CompletenessResult, error) {
	if err := requireRole(ctx, domain.RoleAdmin, domain.RoleOperator); err != nil {
		return simulation.CompletenessResult{}, err
	}
	bundle, err := s.repo.GetProductBundle(ctx, productID)
	if err != nil {
		return simulation.CompletenessResult{}, fmt.Errorf("load product %d: %w", productID, err)
	}
	return simulation.CheckCompleteness(bundle.CompletenessInput()), nil
}

// Publish makes a product visible once every completeness item is met.
func (s *Service) Publish(ctx context.Context, productID int64) (domain.PublishResponse, error) {
	if err := requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.PublishResponse{}, err
	}
	bundle, err := s.repo.GetProductBundle(ctx, productID)
	if err != nil {
		return domain.PublishResponse{}, fmt.Errorf("load product %d: %w", productID, err)
	}

	completeness, err := simulation.ValidatePublishReadiness(bundle.CompletenessInput())
	if err != nil {
		return domain.PublishResponse{}, err
	}
	if err := s.repo.MarkPublished(ctx, productID, s.now()); err != nil {
		return domain.PublishResponse{}, err
	}

	s.logAudit(ctx, "product_publish", "product", strconv.FormatInt(productID, 10),
		fmt.Sprintf("completed=%d/%d", completeness.CompletedCount, completeness.TotalCount))
	return domain.PublishResponse{ProductID: productID, Published: true, Completeness: completeness}, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, entityType string, entityID string, limit int) ([]domain.AuditLog, error) {
	if err := requireRole(ctx, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.ListAuditLogs(ctx, entityType, entityID, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now(),
	}); err != nil {
		s.logger.Warn("audit log write failed", "action", action, "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}

func requireRole(ctx context.Context, roles ...string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return ErrForbidden
	}
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

func toSelections(in map[string]domain.Selection) map[string]pricing.SelectedOption {
	out := make(map[string]pricing.SelectedOption, len(in))
	for key, sel := range in {
		if sel.ChoiceCode == "" {
			continue
		}
		out[key] = pricing.SelectedOption{OptionKey: key, ChoiceCode: sel.ChoiceCode, Values: sel.Values}
	}
	return out
}
