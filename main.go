package main

import (
	"fmt"
	"os"

	"boutiquepro-backend/config"
	"boutiquepro-backend/models"
	"boutiquepro-backend/routes"
	"boutiquepro-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found")
	}
	config.InitLogger()
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Product{},
		&models.Expense{},
		&models.Sale{},
		&models.Installment{},
		&models.ReminderLog{},
	)
}

func main() {
	defer config.Logger.Sync()

	reminders := services.NewReminderService(config.DB, config.Logger)
	reminders.StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)

	config.Logger.Info("Server starting", zap.String("port", port))
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
