package controllers

import (
	"net/http"

	"boutiquepro-backend/config"
	"boutiquepro-backend/models"
	"boutiquepro-backend/services"
	"boutiquepro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// InsightController wraps the AI collaborator so the handler stays thin.
type InsightController struct {
	Service *services.InsightService
}

// GetInsights returns a short AI commentary on the store's financial health.
// Always 200: collaborator failures degrade to static advisory text.
func (ic *InsightController) GetInsights(c *gin.Context) {
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

	var customerCount int64
	config.DB.Model(&models.Customer{}).Where("user_id = ?", userID).Count(&customerCount)

	totalValue := decimal.Zero
	openInstallments := 0
	for _, sale := range sales {
		totalValue = totalValue.Add(sale.TotalAmount)
		for _, inst := range sale.Installments {
			if inst.Status != models.StatusPaid {
				openInstallments++
			}
		}
	}

	text := ic.Service.FinancialInsights(c.Request.Context(), services.InsightContext{
		SaleCount:        len(sales),
		TotalSaleValue:   totalValue.StringFixed(2),
		CustomerCount:    int(customerCount),
		OpenInstallments: openInstallments,
	})

	c.JSON(http.StatusOK, gin.H{"insight": text})
}
