package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"boutiquepro-backend/config"
	"boutiquepro-backend/controllers"
	"boutiquepro-backend/models"
	"boutiquepro-backend/routes"
	"boutiquepro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupAPI wires a router against a throwaway sqlite database and returns a
// ready-to-use bearer token for a seeded store owner.
func setupAPI(t *testing.T) (*gin.Engine, models.User, string) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("GEMINI_API_KEY", "")
	gin.SetMode(gin.TestMode)
	config.Logger = zap.NewNop()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Product{},
		&models.Expense{},
		&models.Sale{},
		&models.Installment{},
		&models.ReminderLog{},
	))
	config.DB = db

	user := models.User{
		Name:      "Owner",
		Email:     "owner@example.com",
		Password:  "password123",
		StoreName: "Test Boutique",
		IsActive:  true,
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := utils.GenerateToken(user.ID.String())
	require.NoError(t, err)

	return routes.SetupRouter(), user, token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out),
		"body was: %s", w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	r, _, _ := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"name":      "Maria",
		"email":     "Maria@Example.com",
		"password":  "supersecret",
		"storeName": "Maria Modas",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeInto(t, w, &registered)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "maria@example.com", registered.User.Email, "emails are stored lowercased")

	// Same email again, regardless of case.
	w = doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"name":     "Maria",
		"email":    "maria@example.com",
		"password": "supersecret",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "maria@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "maria@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	decodeInto(t, w, &registered)

	w = doJSON(t, r, http.MethodGet, "/auth/me", registered.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/sales", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "api routes demand a token")
}

func TestCashSaleDecrementsStock(t *testing.T) {
	r, _, token := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/products", token, gin.H{
		"sku":       "VEST-01",
		"name":      "Summer Dress",
		"costPrice": 40,
		"price":     99.90,
		"stock":     1,
		"minStock":  1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product models.Product
	decodeInto(t, w, &product)

	newCashSale := func() gin.H {
		return gin.H{
			"description": "Summer Dress",
			"baseAmount":  99.90,
			"type":        "cash",
			"productId":   product.ID,
			"updateStock": true,
		}
	}

	w = doJSON(t, r, http.MethodPost, "/api/sales", token, newCashSale())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sale models.Sale
	decodeInto(t, w, &sale)
	assert.Equal(t, models.StatusPaid, sale.Status)
	require.Len(t, sale.Installments, 1)
	assert.True(t, sale.Installments[0].PaidAmount.Equal(sale.TotalAmount))
	assert.True(t, sale.IsWalkIn())

	w = doJSON(t, r, http.MethodGet, "/api/products/"+product.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeInto(t, w, &product)
	assert.Equal(t, 0, product.Stock)

	// Selling out of stock floors at zero rather than going negative.
	w = doJSON(t, r, http.MethodPost, "/api/sales", token, newCashSale())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/products/"+product.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeInto(t, w, &product)
	assert.Equal(t, 0, product.Stock)

	w = doJSON(t, r, http.MethodGet, "/api/products/low-stock", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var low []models.Product
	decodeInto(t, w, &low)
	assert.Len(t, low, 1)
}

func TestSaleWithStockOptOutLeavesStock(t *testing.T) {
	r, _, token := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/products", token, gin.H{
		"sku":      "CAMISA-7",
		"name":     "Linen Shirt",
		"price":    79.90,
		"stock":    5,
		"minStock": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product models.Product
	decodeInto(t, w, &product)

	// Tracking a product without touching inventory.
	w = doJSON(t, r, http.MethodPost, "/api/sales", token, gin.H{
		"description": "Linen Shirt",
		"baseAmount":  79.90,
		"type":        "cash",
		"productId":   product.ID,
		"updateStock": false,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sale models.Sale
	decodeInto(t, w, &sale)
	assert.False(t, sale.UpdateStock)

	w = doJSON(t, r, http.MethodGet, "/api/products/"+product.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeInto(t, w, &product)
	assert.Equal(t, 5, product.Stock)

	// Asking for a stock update without a product is a no-op, not an error.
	w = doJSON(t, r, http.MethodPost, "/api/sales", token, gin.H{
		"description": "Alteration service",
		"baseAmount":  25,
		"type":        "cash",
		"updateStock": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	decodeInto(t, w, &sale)
	assert.False(t, sale.UpdateStock)

	w = doJSON(t, r, http.MethodGet, "/api/products/"+product.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeInto(t, w, &product)
	assert.Equal(t, 5, product.Stock)
}

func TestCreditSalePayToggle(t *testing.T) {
	r, _, token := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/customers", token, gin.H{
		"name":  "Ana Souza",
		"phone": "+5511999990000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var customer models.Customer
	decodeInto(t, w, &customer)

	w = doJSON(t, r, http.MethodPost, "/api/sales", token, gin.H{
		"description":  "Winter coat",
		"baseAmount":   300,
		"type":         "credit",
		"customerId":   customer.ID,
		"installments": 3,
		"dueDay":       10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sale models.Sale
	decodeInto(t, w, &sale)
	require.Len(t, sale.Installments, 3)
	assert.Equal(t, models.StatusPending, sale.Status)

	// Pin the installment IDs now; later responses may list them in any order.
	saleID := sale.ID
	instIDs := []string{
		sale.Installments[0].ID.String(),
		sale.Installments[1].ID.String(),
		sale.Installments[2].ID.String(),
	}
	payPath := func(i int, action string) string {
		return fmt.Sprintf("/api/sales/%s/installments/%s/%s", saleID, instIDs[i], action)
	}

	w = doJSON(t, r, http.MethodPost, payPath(0, "pay"), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeInto(t, w, &sale)
	assert.Equal(t, models.StatusPartial, sale.Status)

	w = doJSON(t, r, http.MethodPost, payPath(1, "pay"), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPost, payPath(2, "pay"), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeInto(t, w, &sale)
	assert.Equal(t, models.StatusPaid, sale.Status)

	// Reversing a mistaken payment drops the sale back to partial.
	w = doJSON(t, r, http.MethodPost, payPath(1, "unpay"), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeInto(t, w, &sale)
	assert.Equal(t, models.StatusPartial, sale.Status)
	for _, inst := range sale.Installments {
		if inst.Status == models.StatusPending {
			assert.True(t, inst.PaidAmount.IsZero())
		}
	}

	// A walk-in counter sale belongs to no customer: it must stay out of the
	// per-customer rows yet still count into the global totals.
	w = doJSON(t, r, http.MethodPost, "/api/sales", token, gin.H{
		"description": "Counter sale",
		"baseAmount":  50,
		"type":        "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Ana's balance reflects two of three installments paid.
	w = doJSON(t, r, http.MethodGet, "/api/customers/balances", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	type balance struct {
		TotalPurchased decimal.Decimal `json:"totalPurchased"`
		TotalPaid      decimal.Decimal `json:"totalPaid"`
		Debt           decimal.Decimal `json:"debt"`
	}
	var balances struct {
		Customers []struct {
			Balance balance `json:"balance"`
		} `json:"customers"`
		Totals balance `json:"totals"`
	}
	decodeInto(t, w, &balances)
	require.Len(t, balances.Customers, 1)
	b := balances.Customers[0].Balance
	assert.True(t, decimal.NewFromInt(300).Equal(b.TotalPurchased))
	assert.True(t, decimal.NewFromInt(200).Equal(b.TotalPaid))
	assert.True(t, decimal.NewFromInt(100).Equal(b.Debt))

	assert.True(t, decimal.NewFromInt(350).Equal(balances.Totals.TotalPurchased))
	assert.True(t, decimal.NewFromInt(250).Equal(balances.Totals.TotalPaid))
	assert.True(t, decimal.NewFromInt(100).Equal(balances.Totals.Debt))
}

func TestCreateSaleRejectsBadInput(t *testing.T) {
	r, _, token := setupAPI(t)

	// Unknown customer.
	w := doJSON(t, r, http.MethodPost, "/api/sales", token, gin.H{
		"description": "Ghost sale",
		"baseAmount":  50,
		"type":        "credit",
		"customerId":  "4fbc34f5-86b4-45b6-9b3c-111111111111",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Discount swallowing the whole base leaves nothing to sell.
	w = doJSON(t, r, http.MethodPost, "/api/sales", token, gin.H{
		"description": "Free item",
		"baseAmount":  50,
		"discount":    60,
		"type":        "cash",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Installment count beyond the cap.
	w = doJSON(t, r, http.MethodPost, "/api/sales", token, gin.H{
		"description":  "Marathon plan",
		"baseAmount":   100,
		"type":         "credit",
		"installments": 25,
		"dueDay":       5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBackupRoundTrip(t *testing.T) {
	r, _, token := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/customers", token, gin.H{
		"name":  "Carla Dias",
		"phone": "+5511988887777",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var customer models.Customer
	decodeInto(t, w, &customer)

	w = doJSON(t, r, http.MethodPost, "/api/products", token, gin.H{
		"name":  "Leather Belt",
		"price": 59.90,
		"stock": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/sales", token, gin.H{
		"description":  "Leather Belt",
		"baseAmount":   59.90,
		"type":         "credit",
		"customerId":   customer.ID,
		"installments": 2,
		"dueDay":       15,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var sale models.Sale
	decodeInto(t, w, &sale)

	w = doJSON(t, r, http.MethodGet, "/api/backup/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc controllers.BackupDocument
	decodeInto(t, w, &doc)
	require.Len(t, doc.Customers, 1)
	require.Len(t, doc.Products, 1)
	require.Len(t, doc.Sales, 1)
	require.NotNil(t, doc.ExportedAt)

	// Importing the export restores the same records with the same IDs.
	w = doJSON(t, r, http.MethodPost, "/api/backup/import", token, doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/backup/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var restored controllers.BackupDocument
	decodeInto(t, w, &restored)
	require.Len(t, restored.Customers, 1)
	require.Len(t, restored.Products, 1)
	require.Len(t, restored.Sales, 1)
	assert.Equal(t, customer.ID, restored.Customers[0].ID)
	assert.Equal(t, sale.ID, restored.Sales[0].ID)
	assert.Len(t, restored.Sales[0].Installments, 2)
	assert.True(t, restored.Sales[0].TotalAmount.Equal(sale.TotalAmount))
}

func TestAgendaGroupsByDueMonth(t *testing.T) {
	r, _, token := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/sales", token, gin.H{
		"description":  "Denim jacket",
		"baseAmount":   200,
		"type":         "credit",
		"installments": 2,
		"dueDay":       15,
		"date":         "2026-05-02T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/agenda", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var months []controllers.AgendaMonth
	decodeInto(t, w, &months)
	require.Len(t, months, 2)

	assert.Equal(t, "2026-06", months[0].Month)
	assert.Equal(t, "2026-07", months[1].Month)
	for i, m := range months {
		require.Len(t, m.Installments, 1)
		entry := m.Installments[0]
		assert.Equal(t, "Walk-in sale", entry.CustomerName)
		assert.Equal(t, "Denim jacket", entry.SaleDescription)
		assert.Equal(t, i+1, entry.InstallmentIndex)
		assert.Equal(t, 2, entry.TotalInstallments)
		assert.True(t, decimal.NewFromInt(100).Equal(m.Expected))
		assert.True(t, m.Collected.IsZero())
	}
}

func TestAgendaOverdueTurnsAtTheDueInstant(t *testing.T) {
	r, user, token := setupAPI(t)

	now := time.Now()
	sale := models.Sale{
		UserID:      user.ID,
		Description: "Wool sweater",
		BaseAmount:  decimal.NewFromInt(100),
		TotalAmount: decimal.NewFromInt(100),
		NetAmount:   decimal.NewFromInt(100),
		SaleDate:    utils.BeginningOfDay(now.AddDate(0, -1, 0)),
		Type:        models.SaleTypeCredit,
		Status:      models.StatusPending,
		Installments: []models.Installment{
			{Amount: decimal.NewFromInt(50), DueDate: utils.BeginningOfDay(now), Status: models.StatusPending},
			{Amount: decimal.NewFromInt(50), DueDate: utils.BeginningOfDay(now.AddDate(0, 1, 0)), Status: models.StatusPending},
		},
	}
	require.NoError(t, config.DB.Create(&sale).Error)

	w := doJSON(t, r, http.MethodGet, "/api/agenda", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var months []controllers.AgendaMonth
	decodeInto(t, w, &months)

	overdue := make(map[string]bool)
	for _, m := range months {
		for _, entry := range m.Installments {
			overdue[entry.ID.String()] = entry.Overdue
		}
	}
	assert.True(t, overdue[sale.Installments[0].ID.String()],
		"an installment due at today's midnight is overdue once that instant passes")
	assert.False(t, overdue[sale.Installments[1].ID.String()])
}

func TestSKUUniquePerStore(t *testing.T) {
	r, _, token := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/products", token, gin.H{
		"sku":   "JEANS-1",
		"name":  "Slim Jeans",
		"price": 150,
		"stock": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/products", token, gin.H{
		"sku":   "jeans-1",
		"name":  "Other Jeans",
		"price": 120,
		"stock": 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code, "SKUs are case-insensitively unique within a store")

	other := models.User{
		Name:      "Rival",
		Email:     "rival@example.com",
		Password:  "password123",
		StoreName: "Rival Modas",
		IsActive:  true,
	}
	require.NoError(t, config.DB.Create(&other).Error)
	otherToken, err := utils.GenerateToken(other.ID.String())
	require.NoError(t, err)

	// Another store may reuse the code.
	w = doJSON(t, r, http.MethodPost, "/api/products", otherToken, gin.H{
		"sku":   "JEANS-1",
		"name":  "Slim Jeans",
		"price": 140,
		"stock": 3,
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestDashboardOverview(t *testing.T) {
	r, _, token := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/expenses", token, gin.H{
		"description": "Rent",
		"amount":      500,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/sales", token, gin.H{
		"description": "Silk scarf",
		"baseAmount":  120,
		"discount":    20,
		"type":        "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var overview struct {
		Financials struct {
			NetRevenue decimal.Decimal `json:"netRevenue"`
		} `json:"financials"`
		RealProfit      decimal.Decimal `json:"realProfit"`
		FixedExpenses   decimal.Decimal `json:"fixedExpenses"`
		TotalReceivable decimal.Decimal `json:"totalReceivable"`
		History         []struct {
			Month string `json:"month"`
		} `json:"history"`
	}
	decodeInto(t, w, &overview)
	assert.True(t, decimal.NewFromInt(100).Equal(overview.Financials.NetRevenue))
	assert.True(t, decimal.NewFromInt(500).Equal(overview.FixedExpenses))
	assert.True(t, decimal.NewFromInt(-400).Equal(overview.RealProfit),
		"cash revenue of 100 against a 500 run-rate")
	assert.True(t, overview.TotalReceivable.IsZero())
	assert.Len(t, overview.History, 6)
}
