package handler

import (
	"net/http"

	"github.com/NicolasBispo/personal-finances-app/internal/ledger"
	"github.com/NicolasBispo/personal-finances-app/internal/models"
	"github.com/NicolasBispo/personal-finances-app/internal/util"

	"github.com/gin-gonic/gin"
)

// InstallmentHandler serves the /installments endpoints the client uses to
// inspect and delete a whole installment set via its parent.
type InstallmentHandler struct {
	Store *ledger.Store
}

func NewInstallmentHandler(store *ledger.Store) *InstallmentHandler {
	return &InstallmentHandler{Store: store}
}

// getParent loads the record and resolves it to the set's anchor: asking
// for a child answers about its parent, so the client can navigate from
// any installment.
func (h *InstallmentHandler) getParent(c *gin.Context, userID uint) (*models.Transaction, bool) {
	t, err := h.Store.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.DomainError(c, err)
		return nil, false
	}
	if t.Type != models.TypeInstallment {
		util.Error(c, http.StatusBadRequest, ledger.KindValidation, "transaction is not an installment")
		return nil, false
	}
	if t.ParentTransactionID != nil {
		parent, err := h.Store.Get(c.Request.Context(), userID, *t.ParentTransactionID)
		if err != nil {
			util.DomainError(c, err)
			return nil, false
		}
		return parent, true
	}
	return t, true
}

// Get returns the installment parent for an id (parent or child).
func (h *InstallmentHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	parent, ok := h.getParent(c, user.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toTransactionResp(parent))
}

// Children lists all installments in the set, ordered by number.
func (h *InstallmentHandler) Children(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	parent, ok := h.getParent(c, user.ID)
	if !ok {
		return
	}
	children, err := h.Store.Children(c.Request.Context(), user.ID, parent.ID)
	if err != nil {
		util.DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionList(children))
}

// Delete removes the whole set: parent plus every child, atomically. The
// client warns the user before calling this.
func (h *InstallmentHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	parent, ok := h.getParent(c, user.ID)
	if !ok {
		return
	}
	if err := h.Store.Delete(c.Request.Context(), user.ID, parent.ID); err != nil {
		util.DomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
