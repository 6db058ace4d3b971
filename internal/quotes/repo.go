package quotes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	baserepo "github.com/telaprint/telaprint-backend/internal/repo"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/pagination"
)

// Repository persists custom-print quotes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quote *models.Quote) (*models.Quote, error)
	Save(ctx context.Context, quote *models.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Quote, string, error)
	ListByStatus(ctx context.Context, status enums.QuoteStatus, params pagination.Params) ([]models.Quote, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a quotes repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, quote *models.Quote) (*models.Quote, error) {
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

func (r *repository) Save(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).Save(quote).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	return r.find(ctx, r.db, id)
}

// FindByIDForUpdate locks the quote row so conversion checks stay serialized.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	return r.find(ctx, baserepo.ForUpdate(r.db), id)
}

func (r *repository) find(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := db.WithContext(ctx).Where("id = ?", id).First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, err
	}
	return &quote, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Quote, string, error) {
	return r.list(ctx, params, func(query *gorm.DB) *gorm.DB {
		return query.Where("user_id = ?", userID)
	})
}

func (r *repository) ListByStatus(ctx context.Context, status enums.QuoteStatus, params pagination.Params) ([]models.Quote, string, error) {
	return r.list(ctx, params, func(query *gorm.DB) *gorm.DB {
		return query.Where("status = ?", status)
	})
}

func (r *repository) list(ctx context.Context, params pagination.Params, scope func(*gorm.DB) *gorm.DB) ([]models.Quote, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := scope(r.db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var quotes []models.Quote
	if err := query.Find(&quotes).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(quotes) > limit {
		quotes = quotes[:limit]
		tail := quotes[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: tail.CreatedAt, ID: tail.ID})
	}
	return quotes, next, nil
}
