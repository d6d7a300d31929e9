package main

import (
	"context"
	"log"
	"os"

	_ "tradeflow/api/swagger" // swagger docs
	"tradeflow/internal/database"
	"tradeflow/internal/handler"
	"tradeflow/internal/middleware"
	"tradeflow/internal/notify"
	"tradeflow/internal/repository"
	"tradeflow/internal/service"
	"tradeflow/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           TradeFlow API
// @version         1.0
// @description     Business management API for quotations, purchases, expenses, spec orders and corporate accounts.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "tradeflow"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Permission middleware needs DB access for role lookups
	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	notifier := notify.New(wsHub, notify.NewMailerFromEnv())

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	specOrderRepo := repository.NewSpecOrderRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	docNumRepo := repository.NewDocumentNumberRepository(db)

	userService := service.NewUserService(userRepo)
	roleService := service.NewRoleService(db)
	customerService := service.NewCustomerService(customerRepo, auditRepo, txManager)
	productService := service.NewProductService(productRepo, auditRepo, txManager)
	quotationService := service.NewQuotationService(quotationRepo, customerRepo, productRepo, docNumRepo, auditRepo, txManager, notifier)
	purchaseService := service.NewPurchaseService(purchaseRepo, expenseRepo, productRepo, docNumRepo, auditRepo, txManager, notifier)
	expenseService := service.NewExpenseService(expenseRepo, docNumRepo, auditRepo, txManager, notifier)
	specOrderService := service.NewSpecOrderService(specOrderRepo, customerRepo, quotationRepo, docNumRepo, auditRepo, txManager, notifier)
	accountService := service.NewAccountService(accountRepo, docNumRepo, auditRepo, txManager, notifier)
	importService := service.NewImportService(customerRepo, productRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	dashboardService := service.NewDashboardService(db)

	// Seed default roles and their permission sets
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Printf("WARNING: Failed to seed roles and permissions: %v", err)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	customerHandler := handler.NewCustomerHandler(customerService)
	productHandler := handler.NewProductHandler(productService)
	quotationHandler := handler.NewQuotationHandler(quotationService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	specOrderHandler := handler.NewSpecOrderHandler(specOrderService)
	accountHandler := handler.NewAccountHandler(accountService)
	importHandler := handler.NewImportHandler(importService)
	auditHandler := handler.NewAuditHandler(auditService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	root := router.Group("")
	userHandler.RegisterRoutes(root)
	roleHandler.RegisterRoutes(root)
	customerHandler.RegisterRoutes(root)
	productHandler.RegisterRoutes(root)
	quotationHandler.RegisterRoutes(root)
	purchaseHandler.RegisterRoutes(root)
	expenseHandler.RegisterRoutes(root)
	specOrderHandler.RegisterRoutes(root)
	accountHandler.RegisterRoutes(root)
	importHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)
	dashboardHandler.RegisterRoutes(root)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
