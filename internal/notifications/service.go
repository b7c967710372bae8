package notifications

import (
	"context"
	"time"

	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	pkgerrors "github.com/avelazquez/courierdesk-backend/pkg/errors"
	"github.com/avelazquez/courierdesk-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Outbox appends notifications inside the caller's transaction so side
// effects commit together with the mutation that caused them.
type Outbox struct {
	repo Repository
}

// NewOutbox wires the outbox over the notifications repository.
func NewOutbox(repo Repository) *Outbox {
	return &Outbox{repo: repo}
}

// Emit writes one notification within tx.
func (o *Outbox) Emit(ctx context.Context, tx *gorm.DB, notification models.Notification) error {
	if o == nil || o.repo == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "notification outbox not configured")
	}
	if !notification.Audience.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification audience required")
	}
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return o.repo.WithTx(tx).Create(ctx, &notification)
}

// Service defines notification list/read operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, audience enums.NotificationAudience, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, audience enums.NotificationAudience) (int64, error)
}

type service struct {
	repo Repository
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Audience   enums.NotificationAudience
	DriverID   *uuid.UUID
	OrderID    *uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if !params.Audience.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "audience required")
	}

	query := listNotificationsParams{
		Audience:   params.Audience,
		DriverID:   params.DriverID,
		OrderID:    params.OrderID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, audience enums.NotificationAudience, notificationID uuid.UUID) error {
	if !audience.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "audience required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, audience, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, audience enums.NotificationAudience) (int64, error) {
	if !audience.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "audience required")
	}

	count, err := s.repo.MarkAllRead(ctx, audience, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
