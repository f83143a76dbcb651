package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"cash-application-backend/internal/config"
	"cash-application-backend/internal/models"
	"cash-application-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg := config.Load()
	db := config.InitDB(cfg)

	db.AutoMigrate(
		&models.BankTransaction{},
		&models.RemittanceAdvice{},
		&models.RemittanceLineItem{},
		&models.Match{},
		&models.JournalEntry{},
		&models.MatchAuditLog{},
	)

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, cfg)

	r.Run(cfg.ServerAddr)
}
