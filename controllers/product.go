package controllers

import (
	"errors"
	"net/http"
	"strings"

	"boutiquepro-backend/config"
	"boutiquepro-backend/models"
	"boutiquepro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateProductInput defines the expected JSON structure for creating a product
type CreateProductInput struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name" binding:"required"`
	Category  string          `json:"category"`
	CostPrice decimal.Decimal `json:"costPrice"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock" binding:"min=0"`
	MinStock  int             `json:"minStock" binding:"min=0"`
}

// UpdateProductInput defines the expected JSON structure for updating a product
type UpdateProductInput struct {
	SKU       *string          `json:"sku"`
	Name      *string          `json:"name"`
	Category  *string          `json:"category"`
	CostPrice *decimal.Decimal `json:"costPrice"`
	Price     *decimal.Decimal `json:"price"`
	Stock     *int             `json:"stock"`
	MinStock  *int             `json:"minStock"`
}

// skuTaken reports whether another product of this store already uses the SKU.
// SKUs are stored uppercased, so the comparison is case-insensitive.
func skuTaken(userID uuid.UUID, sku string, exclude *uuid.UUID) (bool, error) {
	query := config.DB.Where("user_id = ? AND sku = ?", userID, sku)
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}
	var existing models.Product
	err := query.First(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// CreateProduct adds an inventory item. A blank SKU gets an auto-generated
// code; a duplicate SKU is rejected before any write.
func CreateProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	sku := strings.ToUpper(strings.TrimSpace(input.SKU))
	if sku == "" {
		sku = utils.GenerateRandomString(6)
	}

	taken, err := skuTaken(userID, sku, nil)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if taken {
		utils.RespondWithError(c, http.StatusConflict, "A product with this SKU already exists")
		return
	}

	category := input.Category
	if category == "" {
		category = "General"
	}

	product := models.Product{
		UserID:    userID,
		SKU:       sku,
		Name:      input.Name,
		Category:  category,
		CostPrice: input.CostPrice,
		Price:     input.Price,
		Stock:     input.Stock,
		MinStock:  input.MinStock,
	}

	if err := config.DB.Create(&product).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProducts retrieves the store's inventory
func GetProducts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var products []models.Product
	if err := config.DB.Where("user_id = ?", userID).Order("sku").Find(&products).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetLowStockProducts lists items at or below their restock threshold
func GetLowStockProducts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var products []models.Product
	if err := config.DB.Where("user_id = ? AND stock <= min_stock", userID).
		Order("stock").Find(&products).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct retrieves a specific product by ID
func GetProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var product models.Product
	if err := config.DB.Where("user_id = ? AND id = ?", userID, productUUID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// UpdateProduct updates an inventory item
func UpdateProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var product models.Product
	if err := config.DB.Where("user_id = ? AND id = ?", userID, productUUID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.SKU != nil {
		sku := strings.ToUpper(strings.TrimSpace(*input.SKU))
		if sku == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "SKU cannot be blank")
			return
		}
		if sku != product.SKU {
			taken, err := skuTaken(userID, sku, &product.ID)
			if err != nil {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
				return
			}
			if taken {
				utils.RespondWithError(c, http.StatusConflict, "Another product with this SKU already exists")
				return
			}
		}
		product.SKU = sku
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.CostPrice != nil {
		product.CostPrice = *input.CostPrice
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "Stock cannot be negative")
			return
		}
		product.Stock = *input.Stock
	}
	if input.MinStock != nil {
		if *input.MinStock < 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "Minimum stock cannot be negative")
			return
		}
		product.MinStock = *input.MinStock
	}

	if err := config.DB.Save(&product).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct soft deletes a product. Past sales keep their captured cost
// and description.
func DeleteProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	result := config.DB.Where("user_id = ? AND id = ?", userID, productUUID).
		Delete(&models.Product{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
