package domain

import (
	"time"

	"printquote/backend/internal/quote"
	"printquote/backend/internal/simulation"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expiresAt"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

// Selection is one option pick as sent by a client. Values carries the extra
// codes of a multi-select option or the "WxH" text of a custom size.
type Selection struct {
	ChoiceCode string   `json:"choiceCode" validate:"required,max=128"`
	Values     []string `json:"values,omitempty" validate:"omitempty,max=32,dive,max=128"`
}

type ResolveOptionsRequest struct {
	Selections map[string]Selection `json:"selections" validate:"omitempty,dive"`
	Quantity   int                  `json:"quantity" validate:"omitempty,min=1,max=999999"`
}

type QuoteRequest struct {
	ProductID  int64                `json:"productId" validate:"required,gt=0"`
	Selections map[string]Selection `json:"selections" validate:"required,min=1,dive"`
	Quantity   int                  `json:"quantity" validate:"required,min=1,max=999999"`
}

// QuoteView is a stored quote together with its validity at read time.
type QuoteView struct {
	quote.Quote
	Valid bool `json:"valid"`
}

type SimulationRequest struct {
	Sample   bool   `json:"sample"`
	ForceRun bool   `json:"forceRun"`
	Seed     uint64 `json:"seed"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1,max=999999"`
}

type SimulationStatus string

const (
	SimulationQueued    SimulationStatus = "queued"
	SimulationRunning   SimulationStatus = "running"
	SimulationCompleted SimulationStatus = "completed"
	SimulationFailed    SimulationStatus = "failed"
)

// SimulationRun tracks one background simulation job. Result is set once the
// run completes.
type SimulationRun struct {
	ID          string             `json:"id"`
	ProductID   int64              `json:"productId"`
	Status      SimulationStatus   `json:"status"`
	Total       int                `json:"total"`
	Processed   int                `json:"processed"`
	Sampled     bool               `json:"sampled"`
	Seed        uint64             `json:"seed"`
	Result      *simulation.Result `json:"result,omitempty"`
	Error       string             `json:"error,omitempty"`
	RequestedBy string             `json:"requestedBy"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	FinishedAt  *time.Time         `json:"finishedAt,omitempty"`
}

type PublishResponse struct {
	ProductID    int64                         `json:"productId"`
	Published    bool                          `json:"published"`
	Completeness simulation.CompletenessResult `json:"completeness"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actorUsername"`
	ActorRole     string    `json:"actorRole"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entityType"`
	EntityID      string    `json:"entityId"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"createdAt"`
}
