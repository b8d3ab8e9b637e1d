package router

import (
	"net/http"

	"github.com/NicolasBispo/personal-finances-app/internal/config"
	"github.com/NicolasBispo/personal-finances-app/internal/handler"
	"github.com/NicolasBispo/personal-finances-app/internal/ledger"
	"github.com/NicolasBispo/personal-finances-app/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the gin engine and all API routes.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	store := ledger.NewStore(db, cfg.Database.OpTimeout())

	jwtSecret := cfg.JWT.Secret
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	r.POST("/auth/signup", authHandler.Signup)
	r.POST("/auth/login", authHandler.Login)

	protected := r.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db),
	)

	protected.GET("/auth/me", authHandler.Me)

	txHandler := handler.NewTransactionHandler(store)
	protected.GET("/transactions", txHandler.List)
	protected.POST("/transactions", txHandler.Create)
	protected.GET("/transactions/summary", txHandler.Summary)
	protected.GET("/transactions/:id", txHandler.Get)
	protected.PUT("/transactions/:id", txHandler.Update)
	protected.PUT("/transactions/:id/status", txHandler.UpdateStatus)
	protected.DELETE("/transactions/:id", txHandler.Delete)
	protected.POST("/recurring/sweep", txHandler.SweepRecurring)

	instHandler := handler.NewInstallmentHandler(store)
	protected.GET("/installments/:id", instHandler.Get)
	protected.GET("/installments/:id/installments", instHandler.Children)
	protected.DELETE("/installments/:id", instHandler.Delete)

	exportHandler := handler.NewExportHandler(db, cfg.Export.SheetName)
	protected.GET("/transactions/export.csv", exportHandler.ExportCSV)
	protected.GET("/transactions/export.xlsx", exportHandler.ExportXLSX)

	auditHandler := handler.NewAuditHandler(db)
	protected.GET("/audit-logs", auditHandler.List)

	return r
}
