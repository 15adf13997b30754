package routes

import (
	"os"
	"strings"

	"boutiquepro-backend/config"
	"boutiquepro-backend/controllers"
	"boutiquepro-backend/services"
	"boutiquepro-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	insightController := controllers.InsightController{
		Service: services.NewInsightService(config.Logger),
	}

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Customer routes
		customers := api.Group("/customers")
		{
			customers.POST("", controllers.CreateCustomer)
			customers.GET("", controllers.GetCustomers)
			customers.GET("/balances", controllers.GetCustomerBalances)
			customers.GET("/:id", controllers.GetCustomer)
			customers.PUT("/:id", controllers.UpdateCustomer)
			customers.DELETE("/:id", controllers.DeleteCustomer)
		}

		// Inventory routes
		products := api.Group("/products")
		{
			products.POST("", controllers.CreateProduct)
			products.GET("", controllers.GetProducts)
			products.GET("/low-stock", controllers.GetLowStockProducts)
			products.GET("/:id", controllers.GetProduct)
			products.PUT("/:id", controllers.UpdateProduct)
			products.DELETE("/:id", controllers.DeleteProduct)
		}

		// Expense routes
		expenses := api.Group("/expenses")
		{
			expenses.POST("", controllers.CreateExpense)
			expenses.GET("", controllers.GetExpenses)
			expenses.DELETE("/:id", controllers.DeleteExpense)
		}

		// Sale routes
		sales := api.Group("/sales")
		{
			sales.POST("", controllers.CreateSale)
			sales.GET("", controllers.GetSales)
			sales.GET("/:id", controllers.GetSale)
			sales.DELETE("/:id", controllers.DeleteSale)
			sales.POST("/:id/installments/:installmentId/pay", controllers.PayInstallment)
			sales.POST("/:id/installments/:installmentId/unpay", controllers.UnpayInstallment)
		}

		// Receivables calendar
		api.GET("/agenda", controllers.GetAgenda)

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)

		// AI commentary
		api.GET("/insights", insightController.GetInsights)

		// Backup routes
		backup := api.Group("/backup")
		{
			backup.GET("/export", controllers.ExportBackup)
			backup.POST("/import", controllers.ImportBackup)
		}
	}

	return r
}
