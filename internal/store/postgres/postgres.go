package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"printquote/backend/internal/domain"
	"printquote/backend/internal/quote"
	"printquote/backend/internal/store"
	"printquote/backend/internal/xid"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Migrate creates any missing tables. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveQuote(ctx context.Context, q quote.Quote) error {
	if q.QuoteID == "" {
		return store.ErrInvalidInput
	}
	payload, err := json.Marshal(q)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quotes (quote_id, product_id, snapshot_hash, total_price, payload, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, q.QuoteID, q.ProductID, q.SnapshotHash, q.TotalPrice, payload, q.CreatedAt, q.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) GetQuote(ctx context.Context, quoteID string) (*quote.Quote, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM quotes WHERE quote_id = $1`, quoteID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	var q quote.Quote
	if err := json.Unmarshal(payload, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// SaveSimulationRun inserts the run or overwrites its progress fields.
func (s *Store) SaveSimulationRun(ctx context.Context, run domain.SimulationRun) error {
	if run.ID == "" || run.ProductID < 1 {
		return store.ErrInvalidInput
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = now
	}

	var result any
	if run.Result != nil {
		raw, err := json.Marshal(run.Result)
		if err != nil {
			return err
		}
		result = raw
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO simulation_runs (
			id, product_id, status, total, processed, sampled, seed,
			result, error, requested_by, created_at, updated_at, finished_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			total = EXCLUDED.total,
			processed = EXCLUDED.processed,
			sampled = EXCLUDED.sampled,
			seed = EXCLUDED.seed,
			result = EXCLUDED.result,
			error = EXCLUDED.error,
			updated_at = EXCLUDED.updated_at,
			finished_at = EXCLUDED.finished_at
	`, run.ID, run.ProductID, string(run.Status), run.Total, run.Processed, run.Sampled,
		strconv.FormatUint(run.Seed, 10), result, run.Error, run.RequestedBy,
		run.CreatedAt, run.UpdatedAt, nullTime(run.FinishedAt))
	return err
}

func (s *Store) GetSimulationRun(ctx context.Context, runID string) (*domain.SimulationRun, error) {
	var (
		run      domain.SimulationRun
		status   string
		seed     string
		result   []byte
		finished sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, status, total, processed, sampled, seed,
			result, error, requested_by, created_at, updated_at, finished_at
		FROM simulation_runs
		WHERE id = $1
	`, runID).Scan(&run.ID, &run.ProductID, &status, &run.Total, &run.Processed, &run.Sampled, &seed,
		&result, &run.Error, &run.RequestedBy, &run.CreatedAt, &run.UpdatedAt, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	run.Status = domain.SimulationStatus(status)
	if run.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, err
	}
	if len(result) > 0 {
		if err := json.Unmarshal(result, &run.Result); err != nil {
			return nil, err
		}
	}
	run.CreatedAt = run.CreatedAt.UTC()
	run.UpdatedAt = run.UpdatedAt.UTC()
	if finished.Valid {
		at := finished.Time.UTC()
		run.FinishedAt = &at
	}
	return &run, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, entityType string, entityID string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE ($1::text = '' OR entity_type = $1)
			AND ($2::text = '' OR entity_id = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = domain.RoleOperator
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,true,$4,now())
	`, user.Username, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		WHERE username = $1
	`, strings.ToLower(strings.TrimSpace(username))).Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
