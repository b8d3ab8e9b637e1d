package models

import "time"

// TransactionType classifies a transaction record.
type TransactionType string

const (
	TypeIncome      TransactionType = "INCOME"
	TypeExpense     TransactionType = "EXPENSE"
	TypeTransfer    TransactionType = "TRANSFER"
	TypeRecurring   TransactionType = "RECURRING"
	TypeInstallment TransactionType = "INSTALLMENT"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusPaid      TransactionStatus = "PAID"
	StatusReceived  TransactionStatus = "RECEIVED"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// RecurrencePattern is the cadence of a RECURRING template.
type RecurrencePattern string

const (
	RecurMonthly RecurrencePattern = "MONTHLY"
	RecurWeekly  RecurrencePattern = "WEEKLY"
	RecurYearly  RecurrencePattern = "YEARLY"
)

// ValidType reports whether t is one of the known transaction types.
func ValidType(t TransactionType) bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer, TypeRecurring, TypeInstallment:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s TransactionStatus) bool {
	switch s {
	case StatusPending, StatusPaid, StatusReceived, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ValidPattern reports whether p is a known recurrence pattern.
func ValidPattern(p RecurrencePattern) bool {
	switch p {
	case RecurMonthly, RecurWeekly, RecurYearly:
		return true
	}
	return false
}

// Transaction represents one financial record.
// Money is stored in cents to avoid float error, e.g. R$ 12.34 = 1234.
//
// Installment purchases form a one-level tree: a parent anchor (with
// TotalInstallments set and InstallmentNumber nil) plus N children that
// each point back via ParentTransactionID. RECURRING rows are templates;
// each due period is materialized as an ordinary INCOME/EXPENSE row.
type Transaction struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      uint   `gorm:"index;not null"`
	Description string `gorm:"size:255;not null"`
	AmountCents int64  `gorm:"not null"`

	Type   TransactionType   `gorm:"size:16;index;not null"`
	Status TransactionStatus `gorm:"size:16;index;not null"`

	Date         time.Time  `gorm:"index;not null"` // planned/expected date
	DueDate      *time.Time // optional, never before Date
	DateOccurred *time.Time // set iff Status is PAID or RECEIVED

	// Installment fields (INSTALLMENT only).
	InstallmentNumber   *int    `gorm:"index"`
	TotalInstallments   *int
	ParentTransactionID *string `gorm:"index;size:36"`

	// Recurrence fields (RECURRING only).
	RecurrencePattern *RecurrencePattern `gorm:"size:16"`
	NextOccurrence    *time.Time
	LastMaterialized  *time.Time // last period already turned into a record

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsInstallmentParent reports whether the record anchors an installment set.
func (t *Transaction) IsInstallmentParent() bool {
	return t.Type == TypeInstallment && t.ParentTransactionID == nil
}
