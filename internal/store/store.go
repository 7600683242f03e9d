package store

import (
	"context"
	"errors"
	"time"

	"printquote/backend/internal/catalog"
	"printquote/backend/internal/domain"
	"printquote/backend/internal/quote"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Repository supplies the quote core with pre-loaded catalog data and keeps
// what the service produces. Bundles hold active rows only.
type Repository interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	GetProductBundle(ctx context.Context, productID int64) (*catalog.Bundle, error)
	MarkPublished(ctx context.Context, productID int64, at time.Time) error
	SaveQuote(ctx context.Context, q quote.Quote) error
	GetQuote(ctx context.Context, quoteID string) (*quote.Quote, error)
	SaveSimulationRun(ctx context.Context, run domain.SimulationRun) error
	GetSimulationRun(ctx context.Context, runID string) (*domain.SimulationRun, error)
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, entityType string, entityID string, limit int) ([]domain.AuditLog, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUser(ctx context.Context, username string) (*domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
