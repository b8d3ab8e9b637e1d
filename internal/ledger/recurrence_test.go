package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/NicolasBispo/personal-finances-app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTemplate(t *testing.T, s *Store, pattern models.RecurrencePattern, base time.Time) *models.Transaction {
	t.Helper()
	tmpl, err := NewRecurringTemplate(1, "Rent", 120000, base, pattern, time.Time{})
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), tmpl))
	return tmpl
}

func TestNewRecurringTemplateSeedsNextOccurrence(t *testing.T) {
	tmpl, err := NewRecurringTemplate(1, "Rent", 120000, date(2024, time.January, 31), models.RecurMonthly, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, tmpl.NextOccurrence)
	assert.True(t, tmpl.NextOccurrence.Equal(date(2024, time.February, 29)))
}

func TestAdvanceMovesPointer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tmpl := newTemplate(t, s, models.RecurMonthly, date(2024, time.January, 31))

	next, err := s.Advance(ctx, 1, tmpl.ID)
	require.NoError(t, err)
	assert.True(t, next.Equal(date(2024, time.March, 29)))

	got, err := s.Get(ctx, 1, tmpl.ID)
	require.NoError(t, err)
	require.NotNil(t, got.NextOccurrence)
	assert.True(t, got.NextOccurrence.Equal(next))
}

func TestAdvanceRejectsNonRecurring(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := newExpense(1, "not recurring", 100, date(2024, time.January, 1))
	require.NoError(t, s.Create(ctx, tx))

	_, err := s.Advance(ctx, 1, tx.ID)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestMaterializeOccurrenceIsIdempotentPerPeriod(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tmpl := newTemplate(t, s, models.RecurMonthly, date(2024, time.January, 15))
	due := date(2024, time.February, 15)

	occ, err := s.MaterializeOccurrence(ctx, 1, tmpl.ID)
	require.NoError(t, err)
	require.NotNil(t, occ)
	assert.Equal(t, models.TypeExpense, occ.Type)
	assert.Equal(t, models.StatusPending, occ.Status)
	assert.Equal(t, int64(120000), occ.AmountCents)
	assert.True(t, occ.Date.Equal(due))
	assert.Nil(t, occ.ParentTransactionID)

	// pointer advanced past the materialized period
	got, err := s.Get(ctx, 1, tmpl.ID)
	require.NoError(t, err)
	require.NotNil(t, got.NextOccurrence)
	assert.True(t, got.NextOccurrence.Equal(date(2024, time.March, 15)))
	require.NotNil(t, got.LastMaterialized)
	assert.True(t, got.LastMaterialized.Equal(due))

	// manually rewinding the pointer must not duplicate the period
	require.NoError(t, s.DB().Model(&models.Transaction{}).
		Where("id = ?", tmpl.ID).
		Update("next_occurrence", due).Error)
	again, err := s.MaterializeOccurrence(ctx, 1, tmpl.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestSweepRecurringGeneratesAllDue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTemplate(t, s, models.RecurWeekly, date(2024, time.January, 1))

	generated, err := s.SweepRecurring(ctx, 1, date(2024, time.January, 31))
	require.NoError(t, err)
	// due: Jan 8, 15, 22, 29
	assert.Equal(t, 4, generated)

	txs, err := s.Query(ctx, 1, date(2024, time.January, 1), date(2024, time.January, 31),
		[]models.TransactionType{models.TypeExpense})
	require.NoError(t, err)
	require.Len(t, txs, 4)
	assert.True(t, txs[0].Date.Equal(date(2024, time.January, 8)))
	assert.True(t, txs[3].Date.Equal(date(2024, time.January, 29)))

	// second sweep is a no-op
	generated, err = s.SweepRecurring(ctx, 1, date(2024, time.January, 31))
	require.NoError(t, err)
	assert.Zero(t, generated)
}

func TestSweepRecurringIgnoresOtherUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTemplate(t, s, models.RecurMonthly, date(2024, time.January, 1))

	generated, err := s.SweepRecurring(ctx, 2, date(2024, time.June, 1))
	require.NoError(t, err)
	assert.Zero(t, generated)
}
