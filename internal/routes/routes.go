package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cash-application-backend/internal/config"
	handler "cash-application-backend/internal/handlers"
	"cash-application-backend/internal/repository"
	"cash-application-backend/internal/services/journal"
	"cash-application-backend/internal/services/ledger"
	"cash-application-backend/internal/services/matching"
	"cash-application-backend/internal/services/processing"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	txRepo := repository.NewBankTransactionRepository(db)
	advRepo := repository.NewRemittanceRepository(db)
	matchStore := repository.NewMatchStore(db)
	journalRepo := repository.NewJournalRepository(db)

	led := ledger.New(matchStore)
	decider := matching.NewDecider(cfg.Matching)
	journalSvc := journal.NewService(journal.NewGenerator(cfg.Journal), journalRepo)

	processingSvc := processing.NewService(
		txRepo,
		advRepo,
		decider,
		led,
		journalSvc,
		cfg.Selector,
		cfg.Processing.Workers,
	)

	matchHandler := handler.NewMatchHandler(led, matchStore, txRepo, advRepo, journalSvc)
	journalHandler := handler.NewJournalHandler(journalRepo)
	processingHandler := handler.NewProcessingHandler(processingSvc)
	ingestHandler := handler.NewIngestHandler(txRepo, advRepo)
	statsHandler := handler.NewStatsHandler(matchStore, journalRepo)

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	api.GET("/stats", statsHandler.Get)

	proc := api.Group("/processing")
	proc.POST("/run", processingHandler.Run)

	matches := api.Group("/matches")
	matches.GET("", matchHandler.List)
	matches.GET("/:id", matchHandler.Get)
	matches.POST("/:id/approve", matchHandler.Approve)
	matches.POST("/:id/reject", matchHandler.Reject)
	matches.POST("/:id/requeue", matchHandler.Requeue)
	matches.POST("/:id/clear", matchHandler.Clear)

	jrnl := api.Group("/journal")
	jrnl.GET("", journalHandler.List)
	jrnl.GET("/export", journalHandler.Export)

	api.POST("/transactions", ingestHandler.CreateTransaction)
	api.POST("/remittances", ingestHandler.CreateRemittance)
}
