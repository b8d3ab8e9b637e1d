package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/NicolasBispo/personal-finances-app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExpense(userID uint, desc string, cents int64, d time.Time) *models.Transaction {
	return &models.Transaction{
		UserID:      userID,
		Description: desc,
		AmountCents: cents,
		Type:        models.TypeExpense,
		Status:      models.StatusPending,
		Date:        d,
	}
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := newExpense(1, "Groceries", 4200, date(2024, time.March, 5))
	require.NoError(t, s.Create(ctx, tx))

	assert.NotEmpty(t, tx.ID)
	assert.False(t, tx.CreatedAt.IsZero())

	got, err := s.Get(ctx, 1, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Description)
	assert.Equal(t, int64(4200), got.AmountCents)
}

func TestCreateValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := date(2024, time.March, 5)

	tests := []struct {
		name string
		tx   *models.Transaction
	}{
		{"empty description", newExpense(1, "  ", 100, base)},
		{"negative amount", newExpense(1, "x", -1, base)},
		{"unknown type", &models.Transaction{UserID: 1, Description: "x", AmountCents: 1, Type: "WEIRD", Status: models.StatusPending, Date: base}},
		{"missing date", &models.Transaction{UserID: 1, Description: "x", AmountCents: 1, Type: models.TypeExpense, Status: models.StatusPending}},
		{"due date before date", func() *models.Transaction {
			tx := newExpense(1, "x", 100, base)
			d := base.AddDate(0, 0, -1)
			tx.DueDate = &d
			return tx
		}()},
		{"installment fields on expense", func() *models.Transaction {
			tx := newExpense(1, "x", 100, base)
			n := 1
			tx.InstallmentNumber = &n
			return tx
		}()},
		{"recurrence fields on expense", func() *models.Transaction {
			tx := newExpense(1, "x", 100, base)
			p := models.RecurMonthly
			tx.RecurrencePattern = &p
			return tx
		}()},
		{"date occurred while pending", func() *models.Transaction {
			tx := newExpense(1, "x", 100, base)
			now := time.Now()
			tx.DateOccurred = &now
			return tx
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Create(ctx, tt.tx)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestGetNotFoundAndOwnerScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := newExpense(1, "Groceries", 4200, date(2024, time.March, 5))
	require.NoError(t, s.Create(ctx, tx))

	_, err := s.Get(ctx, 1, "nope")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))

	// another user never sees it
	_, err = s.Get(ctx, 2, tx.ID)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpdatePatchesWhitelistedFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := newExpense(1, "Groceries", 4200, date(2024, time.March, 5))
	require.NoError(t, s.Create(ctx, tx))

	desc := "Supermarket"
	amount := int64(5000)
	newDate := date(2024, time.March, 8)
	got, err := s.Update(ctx, 1, tx.ID, Patch{
		Description: &desc,
		AmountCents: &amount,
		Date:        &newDate,
	})
	require.NoError(t, err)
	assert.Equal(t, "Supermarket", got.Description)
	assert.Equal(t, int64(5000), got.AmountCents)
	assert.True(t, got.Date.Equal(newDate))
	// status untouched
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestUpdateRejectsInvalidPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := newExpense(1, "Groceries", 4200, date(2024, time.March, 5))
	require.NoError(t, s.Create(ctx, tx))

	bad := int64(-10)
	_, err := s.Update(ctx, 1, tx.ID, Patch{AmountCents: &bad})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestDeleteNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Delete(context.Background(), 1, "missing")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestQueryRangeInclusiveAndTypeFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inWindow := newExpense(1, "on boundary", 100, date(2024, time.February, 29))
	outWindow := newExpense(1, "next month", 100, date(2024, time.March, 1))
	income := &models.Transaction{
		UserID: 1, Description: "salary", AmountCents: 900,
		Type: models.TypeIncome, Status: models.StatusPending,
		Date: date(2024, time.February, 10),
	}
	require.NoError(t, s.Create(ctx, inWindow))
	require.NoError(t, s.Create(ctx, outWindow))
	require.NoError(t, s.Create(ctx, income))

	start := date(2024, time.February, 1)
	end := date(2024, time.February, 29)

	got, err := s.Query(ctx, 1, start, end, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// ordered by date ascending
	assert.Equal(t, "salary", got[0].Description)
	assert.Equal(t, "on boundary", got[1].Description)

	onlyIncome, err := s.Query(ctx, 1, start, end, []models.TransactionType{models.TypeIncome})
	require.NoError(t, err)
	require.Len(t, onlyIncome, 1)
	assert.Equal(t, "salary", onlyIncome[0].Description)
}

func TestQueryOrderingStableOnSameDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := date(2024, time.April, 2)

	first := newExpense(1, "first", 1, d)
	second := newExpense(1, "second", 2, d)
	require.NoError(t, s.Create(ctx, first))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.Create(ctx, second))

	got, err := s.Query(ctx, 1, d, d, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Description)
	assert.Equal(t, "second", got[1].Description)
}
