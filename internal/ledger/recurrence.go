package ledger

import (
	"context"
	"time"

	"github.com/NicolasBispo/personal-finances-app/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewRecurringTemplate builds a RECURRING template row. When next is zero
// the first occurrence is seeded one period after the base date.
func NewRecurringTemplate(userID uint, description string, amountCents int64, date time.Time, pattern models.RecurrencePattern, next time.Time) (*models.Transaction, error) {
	base := StartOfDay(date)
	if next.IsZero() {
		n, err := NextAfter(base, pattern)
		if err != nil {
			return nil, err
		}
		next = n
	} else {
		next = StartOfDay(next)
	}

	t := &models.Transaction{
		ID:                uuid.NewString(),
		UserID:            userID,
		Description:       description,
		AmountCents:       amountCents,
		Type:              models.TypeRecurring,
		Status:            models.StatusPending,
		Date:              base,
		RecurrencePattern: &pattern,
		NextOccurrence:    &next,
	}
	if err := Validate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Advance pushes the template's NextOccurrence one period forward and
// persists it. Returns the new occurrence date.
func (s *Store) Advance(ctx context.Context, userID uint, templateID string) (time.Time, error) {
	t, err := s.Get(ctx, userID, templateID)
	if err != nil {
		return time.Time{}, err
	}
	next, err := advanceDate(t)
	if err != nil {
		return time.Time{}, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	err = s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND user_id = ?", t.ID, userID).
		Update("next_occurrence", next).Error
	if err != nil {
		return time.Time{}, wrapDBErr(err, "recurring transaction")
	}
	return next, nil
}

// advanceDate computes the pointer that follows the template's current
// position (NextOccurrence when set, else the base date).
func advanceDate(t *models.Transaction) (time.Time, error) {
	if t.Type != models.TypeRecurring || t.RecurrencePattern == nil {
		return time.Time{}, E(KindValidation, "transaction %s is not a recurring template", t.ID)
	}
	cur := t.Date
	if t.NextOccurrence != nil {
		cur = *t.NextOccurrence
	}
	return NextAfter(cur, *t.RecurrencePattern)
}

// MaterializeOccurrence turns the template's current NextOccurrence into an
// ordinary EXPENSE record and advances the pointer. Calling it twice for
// the same period is a no-op: LastMaterialized acts as the period key.
// Returns nil when nothing was due.
func (s *Store) MaterializeOccurrence(ctx context.Context, userID uint, templateID string) (*models.Transaction, error) {
	t, err := s.Get(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}
	if t.Type != models.TypeRecurring || t.RecurrencePattern == nil || t.NextOccurrence == nil {
		return nil, E(KindValidation, "transaction %s is not a recurring template", t.ID)
	}

	due := StartOfDay(*t.NextOccurrence)
	if t.LastMaterialized != nil && !due.After(*t.LastMaterialized) {
		return nil, nil // this period was already materialized
	}

	next, err := NextAfter(due, *t.RecurrencePattern)
	if err != nil {
		return nil, err
	}

	occurrence := &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: t.Description,
		AmountCents: t.AmountCents,
		Type:        models.TypeExpense,
		Status:      models.StatusPending,
		Date:        due,
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional update is the idempotency guard under concurrency:
		// whoever moves the marker first owns this period.
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND user_id = ?", t.ID, userID).
			Where("last_materialized IS NULL OR last_materialized < ?", due).
			Updates(map[string]any{
				"last_materialized": due,
				"next_occurrence":   next,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			occurrence = nil
			return nil
		}
		return tx.Create(occurrence).Error
	})
	if err != nil {
		return nil, wrapDBErr(err, "recurring transaction")
	}
	return occurrence, nil
}

// SweepRecurring materializes every due occurrence up to now for all of the
// user's recurring templates, returning how many records were created.
func (s *Store) SweepRecurring(ctx context.Context, userID uint, now time.Time) (int, error) {
	cctx, cancel := s.opCtx(ctx)
	var templates []models.Transaction
	err := s.db.WithContext(cctx).
		Where("user_id = ? AND type = ?", userID, models.TypeRecurring).
		Find(&templates).Error
	cancel()
	if err != nil {
		return 0, wrapDBErr(err, "recurring transactions")
	}

	cutoff := EndOfDay(now)
	generated := 0
	for i := range templates {
		for {
			t, err := s.Get(ctx, userID, templates[i].ID)
			if err != nil {
				return generated, err
			}
			if t.NextOccurrence == nil || t.NextOccurrence.After(cutoff) {
				break
			}
			occ, err := s.MaterializeOccurrence(ctx, userID, t.ID)
			if err != nil {
				return generated, err
			}
			if occ == nil {
				break
			}
			generated++
		}
	}
	return generated, nil
}
