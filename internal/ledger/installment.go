package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/NicolasBispo/personal-finances-app/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InstallmentRequest describes a purchase paid in equal parts.
// AmountCents is the amount of each part, not the purchase total.
type InstallmentRequest struct {
	UserID            uint
	Description       string
	AmountCents       int64
	FirstDueDate      time.Time
	TotalInstallments int
}

// ExpandInstallments turns one purchase into a parent anchor plus N child
// records. The parent carries TotalInstallments with no InstallmentNumber;
// child k is dated k-1 months after the base date (calendar clamped) with
// DueDate equal to that date. The whole set is written in one database
// transaction so a reader never observes a partial expansion.
func (s *Store) ExpandInstallments(ctx context.Context, req InstallmentRequest) (*models.Transaction, []models.Transaction, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, nil, E(KindValidation, "description is required")
	}
	if req.AmountCents <= 0 {
		return nil, nil, E(KindValidation, "installment amount must be positive")
	}
	if req.TotalInstallments < 2 || req.TotalInstallments > MaxInstallments {
		return nil, nil, E(KindValidation, "totalInstallments must be between 2 and %d", MaxInstallments)
	}
	if req.FirstDueDate.IsZero() {
		return nil, nil, E(KindValidation, "date is required")
	}

	base := StartOfDay(req.FirstDueDate)
	total := req.TotalInstallments

	parent := &models.Transaction{
		ID:                uuid.NewString(),
		UserID:            req.UserID,
		Description:       req.Description,
		AmountCents:       req.AmountCents,
		Type:              models.TypeInstallment,
		Status:            models.StatusPending,
		Date:              base,
		TotalInstallments: &total,
	}
	if err := Validate(parent); err != nil {
		return nil, nil, err
	}

	children := make([]models.Transaction, 0, total)
	for k := 1; k <= total; k++ {
		n := k
		due := AddMonthsClamped(base, k-1)
		parentID := parent.ID
		child := models.Transaction{
			ID:                  uuid.NewString(),
			UserID:              req.UserID,
			Description:         req.Description,
			AmountCents:         req.AmountCents,
			Type:                models.TypeInstallment,
			Status:              models.StatusPending,
			Date:                due,
			DueDate:             &due,
			InstallmentNumber:   &n,
			TotalInstallments:   &total,
			ParentTransactionID: &parentID,
		}
		if err := Validate(&child); err != nil {
			return nil, nil, err
		}
		children = append(children, child)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(parent).Error; err != nil {
			return err
		}
		return tx.Create(&children).Error
	})
	if err != nil {
		return nil, nil, wrapDBErr(err, "installments")
	}
	return parent, children, nil
}
