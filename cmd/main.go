package main

import (
	"context"
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"bizcore/internal/caching"
	"bizcore/internal/config"
	"bizcore/internal/handlers"
	"bizcore/internal/jobs/background"
	"bizcore/internal/middleware"
	"bizcore/internal/repositories"
	"bizcore/internal/services"
	"bizcore/internal/tenancy"
	"bizcore/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Database connection pool with tenant binding on every checkout
	binder := tenancy.Binder{}
	pool, err := database.NewPool(ctx, cfg.Database.URL, binder)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Row security policies are re-applied on every boot; the statements are
	// idempotent, so a table added to the allow-list is protected before the
	// server takes traffic.
	policies := tenancy.NewPolicySet(tenancy.TenantScopedTables)
	if err := policies.Apply(ctx, pool); err != nil {
		log.Fatalf("Failed to apply row security policies: %v", err)
	}

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// Report archive (MinIO)
	archive, err := services.NewMinioReportArchive(
		cfg.Minio.Endpoint,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.Bucket,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("Failed to initialize report archive: %v", err)
	}
	if err := archive.EnsureBucketExists(ctx); err != nil {
		log.Printf("WARNING: report archive bucket unavailable: %v", err)
	}

	// Create repositories
	userRepo := repositories.NewUserRepo(pool)
	tenantRepo := repositories.NewTenantRepo(pool)
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	employeeRepo := repositories.NewEmployeeRepo(pool)
	productRepo := repositories.NewProductRepo(pool)
	auditLogRepo := repositories.NewAuditLogsRepo(pool)

	// Create services
	auditor := tenancy.NewAuditor(pool, cfg.Audit.ExemptTables)
	if findings, err := auditor.CheckSessionRole(ctx); err != nil {
		log.Printf("WARNING: could not verify session role: %v", err)
	} else if len(findings) > 0 {
		log.Printf("CRITICAL: %s", findings[0].Detail)
	}
	auditSvc := services.NewAuditService(auditor, tenantRepo, cacheSvc, archive, policies, pool, cfg.Audit.SampleTenants)
	tenantSvc := services.NewTenantService(tenantRepo, cacheSvc)
	invoiceSvc := services.NewInvoiceService(invoiceRepo, auditLogRepo)

	// Create handlers
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc)
	auditHandlers := handlers.NewAuditHandlers(auditSvc)
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceSvc)
	productHandlers := handlers.NewProductHandlers(productRepo)
	employeeHandlers := handlers.NewEmployeeHandlers(employeeRepo)
	userHandlers := handlers.NewUserHandlers(userRepo)
	auditLogHandlers := handlers.NewAuditLogHandlers(auditLogRepo)

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", handlers.HealthCheck)
	e.GET("/health/ready", func(c echo.Context) error {
		return handlers.ReadinessCheck(c, pool)
	})

	// Pre-auth bootstrap lookup: which tenant does this subdomain belong to
	e.GET("/tenants/resolve/:subdomain", tenantHandlers.ResolveTenant)

	// Authenticated routes carry a resolved principal
	api := e.Group("/api")
	api.Use(middleware.JWTMiddleware(userRepo, cfg.JWTSecret))

	// Business routes require a tenant scope; row security enforces isolation
	tenanted := api.Group("")
	tenanted.Use(middleware.TenantContext())

	tenanted.GET("/invoices", invoiceHandlers.ListInvoices)
	tenanted.POST("/invoices", invoiceHandlers.CreateInvoice)
	tenanted.GET("/invoices/:id", invoiceHandlers.GetInvoice)
	tenanted.POST("/invoices/:id/pay", invoiceHandlers.MarkInvoicePaid)
	tenanted.DELETE("/invoices/:id", invoiceHandlers.DeleteInvoice)

	tenanted.GET("/products", productHandlers.ListProducts)
	tenanted.POST("/products", productHandlers.CreateProduct)
	tenanted.GET("/products/:id", productHandlers.GetProduct)
	tenanted.PUT("/products/:id", productHandlers.UpdateProduct)
	tenanted.DELETE("/products/:id", productHandlers.DeleteProduct)

	tenanted.GET("/users", userHandlers.ListUsers)
	tenanted.GET("/audit-logs", auditLogHandlers.ListAuditLogs)

	tenanted.GET("/employees", employeeHandlers.ListEmployees)
	tenanted.POST("/employees", employeeHandlers.CreateEmployee)
	tenanted.GET("/employees/:id", employeeHandlers.GetEmployee)
	tenanted.PUT("/employees/:id", employeeHandlers.UpdateEmployee)
	tenanted.DELETE("/employees/:id", employeeHandlers.DeleteEmployee)

	// Admin routes run unrestricted. Every route mounted here is part of the
	// declared tenant-exempt surface; keep it short.
	admin := api.Group("/admin")
	admin.Use(middleware.AdminContext())

	admin.GET("/tenants", tenantHandlers.ListTenants)
	admin.POST("/tenants", tenantHandlers.ProvisionTenant)
	admin.GET("/tenants/:id", tenantHandlers.GetTenant)
	admin.PUT("/tenants/:id", tenantHandlers.UpdateTenant)
	admin.POST("/tenants/:id/deactivate", tenantHandlers.DeactivateTenant)
	admin.POST("/tenants/merge", tenantHandlers.MergeTenants)
	admin.DELETE("/tenants/:id", tenantHandlers.DeleteTenant)

	admin.POST("/users", userHandlers.CreateUser)

	admin.GET("/isolation/report", auditHandlers.GetIsolationReport)
	admin.GET("/isolation/reports/url", auditHandlers.GetReportDownloadURL)
	admin.POST("/isolation/run", auditHandlers.RunIsolationAudit)
	admin.POST("/isolation/policies/apply", auditHandlers.ApplyPolicies)

	// Background audit scheduler
	scheduler, err := background.NewJobScheduler(auditSvc, cfg.Audit.Interval)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("WARNING: scheduler shutdown: %v", err)
		}
	}()

	log.Printf("Starting bizcore %s on port %d", version, cfg.Server.Port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Server.Port)))
}
