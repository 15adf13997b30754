// controllers/backup.go
package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"boutiquepro-backend/config"
	"boutiquepro-backend/models"
	"boutiquepro-backend/utils"

	"github.com/gin-gonic/gin"
)

// BackupDocument is the import/export file shape. Products are optional on
// import and default to empty.
type BackupDocument struct {
	Customers  []models.Customer `json:"customers"`
	Sales      []models.Sale     `json:"sales"`
	Products   []models.Product  `json:"products"`
	ExportedAt *time.Time        `json:"exportedAt,omitempty"`
}

// rawBackup defers section decoding so one malformed section degrades to an
// empty collection instead of failing the whole import.
type rawBackup struct {
	Customers json.RawMessage `json:"customers"`
	Sales     json.RawMessage `json:"sales"`
	Products  json.RawMessage `json:"products"`
}

// ExportBackup emits the store's customers, sales and products as one JSON
// document, stamped with the export time.
func ExportBackup(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var doc BackupDocument
	if err := config.DB.Where("user_id = ?", userID).Find(&doc.Customers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to export customers")
		return
	}
	if err := config.DB.Preload("Installments").
		Where("user_id = ?", userID).Find(&doc.Sales).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to export sales")
		return
	}
	if err := config.DB.Where("user_id = ?", userID).Find(&doc.Products).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to export products")
		return
	}
	if doc.Customers == nil {
		doc.Customers = []models.Customer{}
	}
	if doc.Sales == nil {
		doc.Sales = []models.Sale{}
	}
	if doc.Products == nil {
		doc.Products = []models.Product{}
	}

	now := time.Now().UTC()
	doc.ExportedAt = &now

	c.JSON(http.StatusOK, doc)
}

// decodeSection parses one backup array, falling back to empty on missing or
// malformed data.
func decodeSection[T any](raw json.RawMessage) []T {
	if len(raw) == 0 {
		return []T{}
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []T{}
	}
	return out
}

// ImportBackup fully replaces the store's customers, sales and products with
// the uploaded document. All deletes and inserts run in one transaction;
// record ids are preserved so export-then-import is a no-op.
func ImportBackup(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var raw rawBackup
	if err := c.ShouldBindJSON(&raw); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid backup document: "+err.Error())
		return
	}

	customers := decodeSection[models.Customer](raw.Customers)
	sales := decodeSection[models.Sale](raw.Sales)
	products := decodeSection[models.Product](raw.Products)

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Replace semantics: wipe the current collections first.
	if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Customer{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear customers")
		return
	}
	if err := tx.Unscoped().
		Where("sale_id IN (?)", tx.Model(&models.Sale{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.Installment{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear installments")
		return
	}
	if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Sale{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear sales")
		return
	}
	if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Product{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear products")
		return
	}

	for i := range customers {
		customers[i].UserID = userID
	}
	for i := range sales {
		sales[i].UserID = userID
	}
	for i := range products {
		products[i].UserID = userID
	}

	if len(customers) > 0 {
		if err := tx.Create(&customers).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to import customers")
			return
		}
	}
	if len(sales) > 0 {
		if err := tx.Create(&sales).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to import sales")
			return
		}
	}
	if len(products) > 0 {
		if err := tx.Create(&products).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to import products")
			return
		}
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{
		"message":   "Import completed",
		"customers": len(customers),
		"sales":     len(sales),
		"products":  len(products),
	})
}
