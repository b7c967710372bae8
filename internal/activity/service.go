package activity

import (
	"context"

	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	pkgerrors "github.com/avelazquez/courierdesk-backend/pkg/errors"
	"github.com/avelazquez/courierdesk-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recorder appends entries to the audit trail inside the caller's
// transaction, so the record commits or rolls back with the mutation it
// describes.
type Recorder struct {
	repo Repository
}

// NewRecorder wires a Recorder over the activity repository.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Append writes one entry within tx.
func (r *Recorder) Append(ctx context.Context, tx *gorm.DB, entry models.ActivityEntry) error {
	if r == nil || r.repo == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "activity recorder not configured")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.repo.WithTx(tx).Create(ctx, &entry)
}

// Service defines activity feed reads.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo Repository
}

// ListParams configures the activity feed query.
type ListParams struct {
	OrderID  *uuid.UUID
	DriverID *uuid.UUID
	Limit    int
	Cursor   string
}

// ListResult wraps returned entries and the cursor for the next page.
type ListResult struct {
	Items  []models.ActivityEntry `json:"items"`
	Cursor string                 `json:"cursor"`
}

// NewService wires activity feed dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listActivityParams{
		OrderID:  params.OrderID,
		DriverID: params.DriverID,
		Limit:    params.Limit,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activity entries")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{Items: rows, Cursor: cursor}, nil
}
