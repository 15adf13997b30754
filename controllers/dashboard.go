package controllers

import (
	"net/http"
	"time"

	"boutiquepro-backend/config"
	"boutiquepro-backend/models"
	"boutiquepro-backend/services"
	"boutiquepro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// MonthHistoryRow is one month of the revenue/profit history chart
type MonthHistoryRow struct {
	Month      string          `json:"month"` // YYYY-MM
	NetRevenue decimal.Decimal `json:"netRevenue"`
	RealProfit decimal.Decimal `json:"realProfit"`
}

// DashboardOverview is the financial snapshot of the store
type DashboardOverview struct {
	Month            string                   `json:"month"`
	Financials       services.MonthFinancials `json:"financials"`
	ProductProfit    decimal.Decimal          `json:"productProfit"`
	RealProfit       decimal.Decimal          `json:"realProfit"`
	FixedExpenses    decimal.Decimal          `json:"fixedExpenses"`
	TotalReceivable  decimal.Decimal          `json:"totalReceivable"`
	OverdueSales     int                      `json:"overdueSales"`
	StockCapital     decimal.Decimal          `json:"stockCapital"`
	TotalCustomers   int                      `json:"totalCustomers"`
	TotalSales       int                      `json:"totalSales"`
	History          []MonthHistoryRow        `json:"history"`
	LowStockProducts []models.Product         `json:"lowStockProducts"`
}

// GetDashboardOverview aggregates the monthly P&L, receivables and inventory
// position. Accepts optional ?month=1-12&year=YYYY, defaulting to the current
// month. Fixed expenses are a flat run-rate subtracted for whichever month is
// queried.
func GetDashboardOverview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	now := time.Now()
	month := now.Month()
	year := now.Year()
	var monthQuery struct {
		Month int `form:"month" binding:"omitempty,min=1,max=12"`
		Year  int `form:"year" binding:"omitempty,min=2000,max=2200"`
	}
	if err := c.ShouldBindQuery(&monthQuery); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid month or year")
		return
	}
	if monthQuery.Month != 0 {
		month = time.Month(monthQuery.Month)
	}
	if monthQuery.Year != 0 {
		year = monthQuery.Year
	}

	var sales []models.Sale
	if err := config.DB.Preload("Installments").
		Where("user_id = ?", userID).Find(&sales).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve sales")
		return
	}

	var expenses []models.Expense
	if err := config.DB.Where("user_id = ?", userID).Find(&expenses).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve expenses")
		return
	}

	var products []models.Product
	if err := config.DB.Where("user_id = ?", userID).Find(&products).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	var customerCount int64
	config.DB.Model(&models.Customer{}).Where("user_id = ?", userID).Count(&customerCount)

	fixedExpenses := services.TotalFixedExpenses(expenses)
	financials := services.SummarizeMonth(sales, month, year)
	productProfit, realProfit := services.ProfitFor(financials, fixedExpenses)

	// Six months of history ending at the queried month
	history := make([]MonthHistoryRow, 0, 6)
	anchor := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for i := 5; i >= 0; i-- {
		m := anchor.AddDate(0, -i, 0)
		f := services.SummarizeMonth(sales, m.Month(), m.Year())
		_, profit := services.ProfitFor(f, fixedExpenses)
		history = append(history, MonthHistoryRow{
			Month:      m.Format("2006-01"),
			NetRevenue: f.NetRevenue,
			RealProfit: profit,
		})
	}

	lowStock := make([]models.Product, 0)
	for _, p := range products {
		if p.LowStock() {
			lowStock = append(lowStock, p)
		}
	}

	c.JSON(http.StatusOK, DashboardOverview{
		Month:            anchor.Format("2006-01"),
		Financials:       financials,
		ProductProfit:    productProfit,
		RealProfit:       realProfit,
		FixedExpenses:    fixedExpenses,
		TotalReceivable:  services.TotalReceivable(sales),
		OverdueSales:     services.OverdueSaleCount(sales, time.Now()),
		StockCapital:     services.StockCapital(products),
		TotalCustomers:   int(customerCount),
		TotalSales:       len(sales),
		History:          history,
		LowStockProducts: lowStock,
	})
}
