// controllers/installment.go
package controllers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"boutiquepro-backend/config"
	"boutiquepro-backend/models"
	"boutiquepro-backend/services"
	"boutiquepro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PayInstallment marks an installment as fully paid.
func PayInstallment(c *gin.Context) {
	toggleInstallment(c, true)
}

// UnpayInstallment reverses a payment, resetting the installment to pending.
func UnpayInstallment(c *gin.Context) {
	toggleInstallment(c, false)
}

// toggleInstallment applies the pay/unpay toggle and recomputes the owning
// sale's status inside the same transaction, so a sale is never observed with
// a status inconsistent with its installments. Redundant toggles are
// harmless: paying a paid installment leaves it paid.
func toggleInstallment(c *gin.Context, paying bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	saleUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid sale ID format")
		return
	}
	instUUID, err := uuid.Parse(c.Param("installmentId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid installment ID format")
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var sale models.Sale
	if err := tx.Preload("Installments").
		Where("user_id = ? AND id = ?", userID, saleUUID).
		First(&sale).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Sale not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	idx := -1
	for i, inst := range sale.Installments {
		if inst.ID == instUUID {
			idx = i
			break
		}
	}
	if idx < 0 {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusNotFound, "Installment not found")
		return
	}

	inst := &sale.Installments[idx]
	if paying {
		inst.PaidAmount = inst.Amount
		inst.Status = models.StatusPaid
	} else {
		inst.PaidAmount = decimal.Zero
		inst.Status = models.StatusPending
	}

	if err := tx.Model(&models.Installment{}).Where("id = ?", inst.ID).
		Updates(map[string]interface{}{
			"paid_amount": inst.PaidAmount,
			"status":      inst.Status,
		}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update installment")
		return
	}

	sale.Status = services.SaleStatusFor(sale.Installments)
	if err := tx.Model(&models.Sale{}).Where("id = ?", sale.ID).
		Update("status", sale.Status).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update sale status")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, sale)
}

// AgendaEntry is one receivable in the calendar view
type AgendaEntry struct {
	models.Installment
	CustomerName      string `json:"customerName"`
	SaleDescription   string `json:"saleDescription"`
	InstallmentIndex  int    `json:"installmentIndex"`
	TotalInstallments int    `json:"totalInstallments"`
	Overdue           bool   `json:"overdue"`
}

// AgendaMonth groups a month's receivables with their expected and collected totals
type AgendaMonth struct {
	Month        string          `json:"month"` // YYYY-MM
	Expected     decimal.Decimal `json:"expected"`
	Collected    decimal.Decimal `json:"collected"`
	Installments []AgendaEntry   `json:"installments"`
}

// GetAgenda returns every installment grouped by due month, oldest month
// first, each month's entries ordered by due date.
func GetAgenda(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var sales []models.Sale
	if err := config.DB.Preload("Installments").
		Where("user_id = ?", userID).Find(&sales).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve sales")
		return
	}

	var customers []models.Customer
	if err := config.DB.Where("user_id = ?", userID).Find(&customers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}
	names := make(map[uuid.UUID]string, len(customers))
	for _, customer := range customers {
		names[customer.ID] = customer.Name
	}

	now := time.Now()
	grouped := make(map[string][]AgendaEntry)
	for _, sale := range sales {
		customerName := "Walk-in sale"
		if sale.CustomerID != nil {
			if name, found := names[*sale.CustomerID]; found {
				customerName = name
			} else {
				customerName = "Deleted customer"
			}
		}
		sort.Slice(sale.Installments, func(a, b int) bool {
			return sale.Installments[a].DueDate.Before(sale.Installments[b].DueDate)
		})
		for i, inst := range sale.Installments {
			key := inst.DueDate.Format("2006-01")
			grouped[key] = append(grouped[key], AgendaEntry{
				Installment:       inst,
				CustomerName:      customerName,
				SaleDescription:   sale.Description,
				InstallmentIndex:  i + 1,
				TotalInstallments: len(sale.Installments),
				Overdue:           inst.Status != models.StatusPaid && inst.DueDate.Before(now),
			})
		}
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	months := make([]AgendaMonth, 0, len(keys))
	for _, key := range keys {
		entries := grouped[key]
		sort.Slice(entries, func(a, b int) bool {
			return entries[a].DueDate.Before(entries[b].DueDate)
		})
		expected := decimal.Zero
		collected := decimal.Zero
		for _, entry := range entries {
			expected = expected.Add(entry.Amount)
			collected = collected.Add(entry.PaidAmount)
		}
		months = append(months, AgendaMonth{
			Month:        key,
			Expected:     expected,
			Collected:    collected,
			Installments: entries,
		})
	}

	c.JSON(http.StatusOK, months)
}
