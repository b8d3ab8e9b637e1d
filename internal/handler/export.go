package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/NicolasBispo/personal-finances-app/internal/ledger"
	"github.com/NicolasBispo/personal-finances-app/internal/models"
	"github.com/NicolasBispo/personal-finances-app/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler streams the user's transactions as CSV or XLSX.
type ExportHandler struct {
	DB        *gorm.DB
	SheetName string
}

func NewExportHandler(db *gorm.DB, sheetName string) *ExportHandler {
	if sheetName == "" {
		sheetName = "Transactions"
	}
	return &ExportHandler{DB: db, SheetName: sheetName}
}

var exportHeader = []string{"Date", "Type", "Status", "Description", "Amount", "Installment"}

func exportRow(t *models.Transaction) []string {
	installment := ""
	if t.InstallmentNumber != nil && t.TotalInstallments != nil {
		installment = fmt.Sprintf("%d/%d", *t.InstallmentNumber, *t.TotalInstallments)
	}
	return []string{
		t.Date.UTC().Format(ledger.DateLayout),
		string(t.Type),
		string(t.Status),
		t.Description,
		util.FormatCents(t.AmountCents),
		installment,
	}
}

func (h *ExportHandler) fetch(c *gin.Context, userID uint) ([]models.Transaction, bool) {
	var txs []models.Transaction
	if err := h.DB.Where("user_id = ?", userID).
		Order("date ASC, created_at ASC").
		Find(&txs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, ledger.KindInternal, "failed to load transactions")
		return nil, false
	}
	return txs, true
}

// ExportCSV writes all transactions as a CSV attachment.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	txs, ok := h.fetch(c, user.ID)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.csv\"",
		time.Now().Format("20060102")))

	// UTF-8 BOM so spreadsheet apps detect the encoding
	_, _ = c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	_ = writer.Write(exportHeader)
	for i := range txs {
		_ = writer.Write(exportRow(&txs[i]))
	}
}

// ExportXLSX writes all transactions as an XLSX attachment.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	txs, ok := h.fetch(c, user.ID)
	if !ok {
		return
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(h.SheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, ledger.KindInternal, "failed to create sheet")
		return
	}
	f.SetActiveSheet(index)

	for i, name := range exportHeader {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(h.SheetName, cell, name)
	}
	for idx := range txs {
		row := idx + 2
		for col, value := range exportRow(&txs[idx]) {
			cell := fmt.Sprintf("%c%d", 'A'+col, row)
			f.SetCellValue(h.SheetName, cell, value)
		}
	}

	f.SetColWidth(h.SheetName, "A", "A", 12)
	f.SetColWidth(h.SheetName, "B", "C", 14)
	f.SetColWidth(h.SheetName, "D", "D", 30)
	f.SetColWidth(h.SheetName, "E", "E", 14)
	f.SetColWidth(h.SheetName, "F", "F", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, ledger.KindInternal, "failed to write export")
	}
}
