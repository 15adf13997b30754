// controllers/sale.go
package controllers

import (
	"errors"
	"net/http"
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

// CreateSaleInput defines the expected JSON structure for creating a sale.
// CustomerID is omitted for walk-in counter sales.
type CreateSaleInput struct {
	CustomerID   *uuid.UUID      `json:"customerId"`
	ProductID    *uuid.UUID      `json:"productId"`
	Description  string          `json:"description" binding:"required"`
	BaseAmount   decimal.Decimal `json:"baseAmount"`
	Discount     decimal.Decimal `json:"discount"`
	CardFeeRate  decimal.Decimal `json:"cardFeeRate"`
	Type         string          `json:"type" binding:"required,oneof=cash credit"`
	Installments int             `json:"installments"`
	DueDay       int             `json:"dueDay"`
	SaleDate     *time.Time      `json:"date"`
	UpdateStock  bool            `json:"updateStock"`
}

// CreateSale records a sale: computes pricing, generates the installment
// schedule, and, when the sale tracks a product with updateStock set,
// decrements that product's stock by one unit. Sale insert and stock write
// share a transaction so neither is ever observed without the other.
func CreateSale(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input CreateSaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.BaseAmount.IsNegative() || input.Discount.IsNegative() || input.CardFeeRate.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Amounts cannot be negative")
		return
	}

	total, fee, net := services.ComputePricing(input.BaseAmount, input.Discount, input.CardFeeRate)
	if !total.IsPositive() {
		utils.RespondWithError(c, http.StatusBadRequest, "Sale total must be positive")
		return
	}

	// Registered-customer sales must point at an existing customer.
	if input.CustomerID != nil {
		var customer models.Customer
		if err := config.DB.Where("user_id = ? AND id = ?", userID, input.CustomerID).
			First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Customer not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
	}

	// The product's unit cost is captured now; later cost edits don't
	// rewrite history.
	totalCost := decimal.Zero
	var product models.Product
	hasProduct := false
	if input.ProductID != nil {
		if err := config.DB.Where("user_id = ? AND id = ?", userID, input.ProductID).
			First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Product not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
		hasProduct = true
		totalCost = product.CostPrice
	}

	saleDate := time.Now()
	if input.SaleDate != nil {
		saleDate = *input.SaleDate
	}

	dueDay := input.DueDay
	if dueDay == 0 {
		dueDay = saleDate.Day()
	}
	count := input.Installments
	if input.Type == models.SaleTypeCash {
		count = 1
	}

	installments, err := services.BuildInstallments(total, input.Type, count, dueDay, saleDate)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	sale := models.Sale{
		UserID:        userID,
		CustomerID:    input.CustomerID,
		ProductID:     input.ProductID,
		Description:   input.Description,
		BaseAmount:    input.BaseAmount,
		Discount:      input.Discount,
		TotalAmount:   total,
		CardFeeRate:   input.CardFeeRate,
		CardFeeAmount: fee,
		NetAmount:     net,
		TotalCost:     totalCost,
		SaleDate:      utils.BeginningOfDay(saleDate),
		Type:          input.Type,
		Status:        services.SaleStatusFor(installments),
		UpdateStock:   hasProduct && input.UpdateStock,
		Installments:  installments,
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&sale).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create sale")
		return
	}

	if sale.UpdateStock {
		// One unit per sale line, floored at zero.
		if product.Stock > 0 {
			product.Stock--
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
			Update("stock", product.Stock).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update stock")
			return
		}
	}

	tx.Commit()

	c.JSON(http.StatusCreated, sale)
}

// GetSales retrieves the store's sales, optionally filtered by ?type=cash|credit
func GetSales(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	query := config.DB.Preload("Installments").Where("user_id = ?", userID)
	if saleType := c.Query("type"); saleType != "" {
		if saleType != models.SaleTypeCash && saleType != models.SaleTypeCredit {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid sale type filter")
			return
		}
		query = query.Where("type = ?", saleType)
	}

	var sales []models.Sale
	if err := query.Order("sale_date DESC").Find(&sales).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve sales")
		return
	}

	c.JSON(http.StatusOK, sales)
}

// GetSale retrieves a specific sale with its installments
func GetSale(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	saleUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	var sale models.Sale
	if err := config.DB.Preload("Installments").
		Where("user_id = ? AND id = ?", userID, saleUUID).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Sale not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, sale)
}

// DeleteSale removes a sale and its installments. Stock is not restored;
// corrections go through inventory edits.
func DeleteSale(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	saleUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	var sale models.Sale
	if err := config.DB.Where("user_id = ? AND id = ?", userID, saleUUID).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Sale not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.Installment{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete installments")
		return
	}
	if err := tx.Delete(&sale).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete sale")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted successfully"})
}
