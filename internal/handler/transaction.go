package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/NicolasBispo/personal-finances-app/internal/ledger"
	"github.com/NicolasBispo/personal-finances-app/internal/models"
	"github.com/NicolasBispo/personal-finances-app/internal/util"

	"github.com/gin-gonic/gin"
)

// TransactionHandler serves the /transactions endpoints.
type TransactionHandler struct {
	Store *ledger.Store
}

func NewTransactionHandler(store *ledger.Store) *TransactionHandler {
	return &TransactionHandler{Store: store}
}

// ---------- request/response shapes ----------

type createTransactionReq struct {
	Description       string `json:"description" binding:"required,max=255"`
	AmountInCents     int64  `json:"amountInCents" binding:"required,gt=0"`
	Date              string `json:"date" binding:"required"`
	DueDate           string `json:"dueDate"`
	Type              string `json:"type" binding:"required,oneof=INCOME EXPENSE TRANSFER INSTALLMENT RECURRING"`
	TotalInstallments *int   `json:"totalInstallments"`
	RecurrencePattern string `json:"recurrencePattern"`
	NextOccurrence    string `json:"nextOccurrence"`
}

type updateTransactionReq struct {
	Description   *string `json:"description"`
	AmountInCents *int64  `json:"amountInCents"`
	Date          *string `json:"date"`
	DueDate       *string `json:"dueDate"`
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

type transactionResp struct {
	ID                  string                    `json:"id"`
	Description         string                    `json:"description"`
	AmountInCents       int64                     `json:"amountInCents"`
	AmountFormatted     string                    `json:"amountFormatted"`
	Date                string                    `json:"date"`
	DueDate             *string                   `json:"dueDate,omitempty"`
	Type                models.TransactionType    `json:"type"`
	Status              models.TransactionStatus  `json:"status"`
	DateOccurred        *time.Time                `json:"dateOccurred,omitempty"`
	UserID              uint                      `json:"userId"`
	InstallmentNumber   *int                      `json:"installmentNumber,omitempty"`
	TotalInstallments   *int                      `json:"totalInstallments,omitempty"`
	ParentTransactionID *string                   `json:"parentTransactionId,omitempty"`
	RecurrencePattern   *models.RecurrencePattern `json:"recurrencePattern,omitempty"`
	NextOccurrence      *string                   `json:"nextOccurrence,omitempty"`
	TotalAmountInCents  int64                     `json:"totalAmountInCents"`
	Progress            float64                   `json:"progress"`
	CreatedAt           time.Time                 `json:"createdAt"`
	UpdatedAt           time.Time                 `json:"updatedAt"`
	Installments        []transactionResp         `json:"installments,omitempty"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:                  t.ID,
		Description:         t.Description,
		AmountInCents:       t.AmountCents,
		AmountFormatted:     util.FormatCents(t.AmountCents),
		Date:                formatDate(t.Date),
		DueDate:             formatDatePtr(t.DueDate),
		Type:                t.Type,
		Status:              t.Status,
		DateOccurred:        t.DateOccurred,
		UserID:              t.UserID,
		InstallmentNumber:   t.InstallmentNumber,
		TotalInstallments:   t.TotalInstallments,
		ParentTransactionID: t.ParentTransactionID,
		RecurrencePattern:   t.RecurrencePattern,
		NextOccurrence:      formatDatePtr(t.NextOccurrence),
		TotalAmountInCents:  ledger.TotalAmount(t),
		Progress:            ledger.Progress(t),
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

func toTransactionList(txs []models.Transaction) []transactionResp {
	out := make([]transactionResp, 0, len(txs))
	for i := range txs {
		out = append(out, toTransactionResp(&txs[i]))
	}
	return out
}

// ---------- create ----------

// Create makes a simple transaction, expands an installment purchase, or
// seeds a recurring template, depending on the requested type.
func (h *TransactionHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createTransactionReq
	if err := bindStrict(c, &req); err != nil {
		util.Error(c, http.StatusBadRequest, ledger.KindValidation, "invalid transaction payload")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		util.Error(c, http.StatusBadRequest, ledger.KindValidation, "date must be YYYY-MM-DD")
		return
	}

	txType := models.TransactionType(req.Type)

	// Mismatched optional fields are rejected, not ignored.
	if req.TotalInstallments != nil && txType != models.TypeInstallment {
		util.Error(c, http.StatusBadRequest, ledger.KindValidation, "totalInstallments is only valid for INSTALLMENT")
		return
	}
	if (req.RecurrencePattern != "" || req.NextOccurrence != "") && txType != models.TypeRecurring {
		util.Error(c, http.StatusBadRequest, ledger.KindValidation, "recurrence fields are only valid for RECURRING")
		return
	}

	switch txType {
	case models.TypeInstallment:
		if req.TotalInstallments == nil {
			util.Error(c, http.StatusBadRequest, ledger.KindValidation, "totalInstallments is required for INSTALLMENT")
			return
		}
		parent, children, err := h.Store.ExpandInstallments(c.Request.Context(), ledger.InstallmentRequest{
			UserID:            user.ID,
			Description:       req.Description,
			AmountCents:       req.AmountInCents,
			FirstDueDate:      date,
			TotalInstallments: *req.TotalInstallments,
		})
		if err != nil {
			util.DomainError(c, err)
			return
		}
		resp := toTransactionResp(parent)
		resp.Installments = toTransactionList(children)
		c.JSON(http.StatusCreated, resp)
		return

	case models.TypeRecurring:
		pattern := models.RecurrencePattern(strings.ToUpper(req.RecurrencePattern))
		if !models.ValidPattern(pattern) {
			util.Error(c, http.StatusBadRequest, ledger.KindValidation, "recurrencePattern must be MONTHLY, WEEKLY or YEARLY")
			return
		}
		var next time.Time
		if req.NextOccurrence != "" {
			if next, err = parseDate(req.NextOccurrence); err != nil {
				util.Error(c, http.StatusBadRequest, ledger.KindValidation, "nextOccurrence must be YYYY-MM-DD")
				return
			}
		}
		template, err := ledger.NewRecurringTemplate(user.ID, req.Description, req.AmountInCents, date, pattern, next)
		if err != nil {
			util.DomainError(c, err)
			return
		}
		if err := h.Store.Create(c.Request.Context(), template); err != nil {
			util.DomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toTransactionResp(template))
		return
	}

	t := &models.Transaction{
		UserID:      user.ID,
		Description: req.Description,
		AmountCents: req.AmountInCents,
		Type:        txType,
		Status:      models.StatusPending,
		Date:        ledger.StartOfDay(date),
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			util.Error(c, http.StatusBadRequest, ledger.KindValidation, "dueDate must be YYYY-MM-DD")
			return
		}
		d := ledger.StartOfDay(due)
		t.DueDate = &d
	}
	if err := h.Store.Create(c.Request.Context(), t); err != nil {
		util.DomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTransactionResp(t))
}

// ---------- read ----------

// List answers the planner window query: records whose date falls inside
// [startDate, endDate], optionally narrowed by a comma-separated type set.
// Due recurring occurrences are materialized first so the window always
// shows them.
func (h *TransactionHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	now := time.Now().UTC()
	start := ledger.StartOfDay(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC))
	end := ledger.AddMonthsClamped(start, 1).AddDate(0, 0, -1)

	if s := c.Query("startDate"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, ledger.KindValidation, "startDate must be YYYY-MM-DD")
			return
		}
		start = t
	}
	if s := c.Query("endDate"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, ledger.KindValidation, "endDate must be YYYY-MM-DD")
			return
		}
		end = t
	}
	if end.Before(start) {
		util.Error(c, http.StatusBadRequest, ledger.KindValidation, "endDate cannot be before startDate")
		return
	}

	var types []models.TransactionType
	if s := c.Query("type"); s != "" {
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(strings.ToUpper(part))
			if part == "" {
				continue
			}
			tt := models.TransactionType(part)
			if !models.ValidType(tt) {
				util.Error(c, http.StatusBadRequest, ledger.KindValidation, "unknown transaction type "+part)
				return
			}
			types = append(types, tt)
		}
	}

	if _, err := h.Store.SweepRecurring(c.Request.Context(), user.ID, end); err != nil {
		util.DomainError(c, err)
		return
	}

	txs, err := h.Store.Query(c.Request.Context(), user.ID, start, end, types)
	if err != nil {
		util.DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionList(txs))
}

// Get returns one transaction; ?withInstallments=true embeds the children
// of an installment parent.
func (h *TransactionHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	t, err := h.Store.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		util.DomainError(c, err)
		return
	}

	resp := toTransactionResp(t)
	if c.Query("withInstallments") == "true" && t.IsInstallmentParent() {
		children, err := h.Store.Children(c.Request.Context(), user.ID, t.ID)
		if err != nil {
			util.DomainError(c, err)
			return
		}
		resp.Installments = toTransactionList(children)
	}
	c.JSON(http.StatusOK, resp)
}

// Summary aggregates one calendar month (?month=YYYY-MM, default current).
func (h *TransactionHandler) Summary(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	monthStr := c.Query("month")
	if monthStr == "" {
		monthStr = time.Now().UTC().Format("2006-01")
	}
	t, err := time.Parse("2006-01", monthStr)
	if err != nil {
		util.Error(c, http.StatusBadRequest, ledger.KindValidation, "month must be YYYY-MM")
		return
	}

	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := ledger.AddMonthsClamped(start, 1).AddDate(0, 0, -1)

	txs, err := h.Store.Query(c.Request.Context(), user.ID, start, end, nil)
	if err != nil {
		util.DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledger.Summarize(monthStr, txs))
}

// ---------- mutate ----------

// Update patches the editable fields. Status is deliberately absent from
// the payload; it has its own endpoint backed by the status machine.
func (h *TransactionHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateTransactionReq
	if err := bindStrict(c, &req); err != nil {
		util.Error(c, http.StatusBadRequest, ledger.KindValidation, "invalid update payload")
		return
	}

	var patch ledger.Patch
	patch.Description = req.Description
	patch.AmountCents = req.AmountInCents
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			util.Error(c, http.StatusBadRequest, ledger.KindValidation, "date must be YYYY-MM-DD")
			return
		}
		patch.Date = &d
	}
	if req.DueDate != nil {
		d, err := parseDate(*req.DueDate)
		if err != nil {
			util.Error(c, http.StatusBadRequest, ledger.KindValidation, "dueDate must be YYYY-MM-DD")
			return
		}
		patch.DueDate = &d
	}

	t, err := h.Store.Update(c.Request.Context(), user.ID, c.Param("id"), patch)
	if err != nil {
		util.DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResp(t))
}

// UpdateStatus runs the status machine for one record.
func (h *TransactionHandler) UpdateStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateStatusReq
	if err := bindStrict(c, &req); err != nil {
		util.Error(c, http.StatusBadRequest, ledger.KindValidation, "invalid status payload")
		return
	}

	t, err := h.Store.Transition(c.Request.Context(), user.ID,
		c.Param("id"), models.TransactionStatus(strings.ToUpper(req.Status)))
	if err != nil {
		util.DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResp(t))
}

// Delete removes one record; installment parents cascade.
func (h *TransactionHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.Store.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		util.DomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SweepRecurring materializes all due recurring occurrences on demand.
func (h *TransactionHandler) SweepRecurring(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	generated, err := h.Store.SweepRecurring(c.Request.Context(), user.ID, time.Now().UTC())
	if err != nil {
		util.DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"generated": generated})
}
