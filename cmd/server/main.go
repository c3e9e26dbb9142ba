package main

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"erp-finance-backend/internal/config"
	"erp-finance-backend/internal/models"
	"erp-finance-backend/internal/routes"
)

func main() {
	log := config.GetLogger()

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, relying on system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	config.SetLogLevel(cfg.Log.Level)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Account{},
		&models.GLTransaction{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.WithField("addr", addr).Info("starting server")
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
