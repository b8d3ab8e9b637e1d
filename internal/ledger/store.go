package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/NicolasBispo/personal-finances-app/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxInstallments is the upper bound on installment count per purchase.
const MaxInstallments = 60

// Store is the durable transaction store. Every operation is bounded by
// opTimeout; exceeding it surfaces a KindTimeout error instead of hanging.
type Store struct {
	db        *gorm.DB
	opTimeout time.Duration
}

// NewStore wraps db with a per-operation timeout. timeout <= 0 falls back
// to 5s.
func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, opTimeout: timeout}
}

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// wrapDBErr maps driver errors onto the domain taxonomy.
func wrapDBErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(KindNotFound, err, "%s not found", what)
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(KindTimeout, err, "operation on %s timed out", what)
	default:
		var e *Error
		if errors.As(err, &e) {
			return err
		}
		return Wrap(KindInternal, err, "%s operation failed", what)
	}
}

// Validate checks the §3-style record invariants before persisting.
func Validate(t *models.Transaction) error {
	if strings.TrimSpace(t.Description) == "" {
		return E(KindValidation, "description is required")
	}
	if t.AmountCents < 0 {
		return E(KindValidation, "amount must not be negative")
	}
	if !models.ValidType(t.Type) {
		return E(KindValidation, "unknown transaction type %q", t.Type)
	}
	if !models.ValidStatus(t.Status) {
		return E(KindValidation, "unknown status %q", t.Status)
	}
	if t.Date.IsZero() {
		return E(KindValidation, "date is required")
	}
	if t.DueDate != nil && t.DueDate.Before(t.Date) {
		return E(KindValidation, "due date cannot be before date")
	}

	hasInstallmentFields := t.InstallmentNumber != nil || t.TotalInstallments != nil || t.ParentTransactionID != nil
	hasRecurrenceFields := t.RecurrencePattern != nil || t.NextOccurrence != nil

	switch t.Type {
	case models.TypeInstallment:
		if hasRecurrenceFields {
			return E(KindValidation, "installment transaction cannot carry recurrence fields")
		}
		if t.TotalInstallments == nil {
			return E(KindValidation, "totalInstallments is required for installments")
		}
		if *t.TotalInstallments < 1 || *t.TotalInstallments > MaxInstallments {
			return E(KindValidation, "totalInstallments must be between 1 and %d", MaxInstallments)
		}
		// The anchor record has no number; children must be in range.
		if t.InstallmentNumber != nil {
			if *t.InstallmentNumber < 1 || *t.InstallmentNumber > *t.TotalInstallments {
				return E(KindValidation, "installmentNumber must be between 1 and %d", *t.TotalInstallments)
			}
			if t.ParentTransactionID == nil {
				return E(KindValidation, "installment child requires a parent transaction")
			}
		}
	case models.TypeRecurring:
		if hasInstallmentFields {
			return E(KindValidation, "recurring transaction cannot carry installment fields")
		}
		if t.RecurrencePattern == nil {
			return E(KindValidation, "recurrencePattern is required for recurring transactions")
		}
		if !models.ValidPattern(*t.RecurrencePattern) {
			return E(KindValidation, "unknown recurrence pattern %q", *t.RecurrencePattern)
		}
		if t.NextOccurrence != nil && !t.NextOccurrence.After(t.Date) {
			return E(KindValidation, "nextOccurrence must be after date")
		}
	default:
		if hasInstallmentFields {
			return E(KindValidation, "installment fields are only valid for INSTALLMENT transactions")
		}
		if hasRecurrenceFields {
			return E(KindValidation, "recurrence fields are only valid for RECURRING transactions")
		}
	}

	settled := t.Status == models.StatusPaid || t.Status == models.StatusReceived
	if settled && t.DateOccurred == nil {
		return E(KindValidation, "settled transaction requires dateOccurred")
	}
	if !settled && t.DateOccurred != nil {
		return E(KindValidation, "dateOccurred is only valid for PAID or RECEIVED transactions")
	}
	return nil
}

// Create validates and persists a new record, assigning id and timestamps.
func (s *Store) Create(ctx context.Context, t *models.Transaction) error {
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	if err := Validate(t); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return wrapDBErr(err, "transaction")
	}
	return nil
}

// Get fetches one record scoped to its owner.
func (s *Store) Get(ctx context.Context, userID uint, id string) (*models.Transaction, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var t models.Transaction
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&t).Error
	if err != nil {
		return nil, wrapDBErr(err, "transaction")
	}
	return &t, nil
}

// Patch is the strict update payload: nil fields are left untouched.
// Status never appears here; status changes go through Transition so the
// dateOccurred coupling cannot be bypassed.
type Patch struct {
	Description *string
	AmountCents *int64
	Date        *time.Time
	DueDate     *time.Time
}

// Update merges the patch into an existing record. Installment records
// only accept description edits: every row in a set carries the identical
// per-installment amount on a fixed monthly schedule, so amount and date
// changes would desynchronize the set from its parent.
func (s *Store) Update(ctx context.Context, userID uint, id string, p Patch) (*models.Transaction, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if t.Type == models.TypeInstallment && (p.AmountCents != nil || p.Date != nil || p.DueDate != nil) {
		return nil, E(KindValidation, "installment amounts and dates are fixed for the whole set")
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.AmountCents != nil {
		t.AmountCents = *p.AmountCents
	}
	if p.Date != nil {
		t.Date = StartOfDay(*p.Date)
	}
	if p.DueDate != nil {
		d := StartOfDay(*p.DueDate)
		t.DueDate = &d
	}
	if err := Validate(t); err != nil {
		return nil, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return nil, wrapDBErr(err, "transaction")
	}
	return t, nil
}

// Delete removes one record. Deleting an installment parent removes the
// whole set in a single database transaction, all-or-nothing.
func (s *Store) Delete(ctx context.Context, userID uint, id string) error {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.IsInstallmentParent() {
			if err := tx.
				Where("parent_transaction_id = ? AND user_id = ?", t.ID, userID).
				Delete(&models.Transaction{}).Error; err != nil {
				return err
			}
		}
		return tx.
			Where("id = ? AND user_id = ?", t.ID, userID).
			Delete(&models.Transaction{}).Error
	})
	return wrapDBErr(err, "transaction")
}

// Query returns records whose date falls within [start, end] inclusive and
// whose type is in types (empty means all). Ordering is date ASC with
// created_at then id as deterministic tie-breakers.
func (s *Store) Query(ctx context.Context, userID uint, start, end time.Time, types []models.TransactionType) ([]models.Transaction, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("date >= ? AND date <= ?", StartOfDay(start), EndOfDay(end))
	if len(types) > 0 {
		q = q.Where("type IN ?", types)
	}

	var txs []models.Transaction
	if err := q.Order("date ASC, created_at ASC, id ASC").Find(&txs).Error; err != nil {
		return nil, wrapDBErr(err, "transactions")
	}
	return txs, nil
}

// Children lists the installments under a parent, ordered by number.
func (s *Store) Children(ctx context.Context, userID uint, parentID string) ([]models.Transaction, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("parent_transaction_id = ? AND user_id = ?", parentID, userID).
		Order("installment_number ASC").
		Find(&txs).Error
	if err != nil {
		return nil, wrapDBErr(err, "installments")
	}
	return txs, nil
}
