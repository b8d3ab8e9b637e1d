package ledger

import (
	"context"
	"time"

	"github.com/NicolasBispo/personal-finances-app/internal/models"
)

// CanTransition reports whether a record of the given type may move from
// its current status to next. PENDING is the only state with outgoing
// edges: PAID (expense-polarity types), RECEIVED (income) and CANCELLED
// are all terminal.
func CanTransition(txType models.TransactionType, from, to models.TransactionStatus) bool {
	if from != models.StatusPending {
		return false
	}
	switch to {
	case models.StatusPaid:
		return txType == models.TypeExpense || txType == models.TypeInstallment
	case models.StatusReceived:
		return txType == models.TypeIncome
	case models.StatusCancelled:
		return true
	default:
		return false
	}
}

// Transition applies a status change with its side effects: moving into
// PAID or RECEIVED stamps DateOccurred. Concurrent transitions on the same
// record are serialized by an optimistic check on updated_at; losing the
// race yields KindConflict so the caller re-fetches instead of silently
// overwriting the settlement timestamp.
func (s *Store) Transition(ctx context.Context, userID uint, id string, next models.TransactionStatus) (*models.Transaction, error) {
	if !models.ValidStatus(next) {
		return nil, E(KindValidation, "unknown status %q", next)
	}

	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Type, t.Status, next) {
		return nil, E(KindInvalidTransition,
			"cannot change %s transaction from %s to %s", t.Type, t.Status, next)
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":     next,
		"updated_at": now,
	}
	if next == models.StatusPaid || next == models.StatusReceived {
		updates["date_occurred"] = now
	}

	cctx, cancel := s.opCtx(ctx)
	defer cancel()
	res := s.db.WithContext(cctx).Model(&models.Transaction{}).
		Where("id = ? AND user_id = ? AND updated_at = ?", t.ID, userID, t.UpdatedAt).
		Updates(updates)
	if res.Error != nil {
		return nil, wrapDBErr(res.Error, "transaction")
	}
	if res.RowsAffected == 0 {
		// Row still exists, so someone else won the race.
		if _, err := s.Get(ctx, userID, id); err != nil {
			return nil, err
		}
		return nil, E(KindConflict, "transaction was modified concurrently, fetch it again")
	}

	return s.Get(ctx, userID, id)
}
