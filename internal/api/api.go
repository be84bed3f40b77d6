package api

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appointments_module "github.com/clinicvoice/server/internal/api/modules/appointments"
	auth_module "github.com/clinicvoice/server/internal/api/modules/auth"
	health_module "github.com/clinicvoice/server/internal/api/modules/health"
	patients_module "github.com/clinicvoice/server/internal/api/modules/patients"
	sessions_module "github.com/clinicvoice/server/internal/api/modules/sessions"
	templates_module "github.com/clinicvoice/server/internal/api/modules/templates"
	"github.com/clinicvoice/server/internal/jobs"
	"github.com/clinicvoice/server/internal/stores/clinic"
	"github.com/clinicvoice/server/pkg/utils"
)

func Start(cfg *utils.Config) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "3000")

	// Open the database
	store, err := clinic.NewStore(cfg.Get("DATABASE_DSN"))
	if err != nil {
		log.Fatal("[API-MAIN]: Failed to open database: ", err)
	}

	// Add app level settings/routes
	engine := gin.Default()

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)

	if err := auth_module.Init(cfg, store); err != nil {
		log.Fatal("[API-MAIN]: Failed to initialize auth module: ", err)
	}
	auth_module.RegisterRoutes(baseGroup)

	patients_module.Init(store)
	patients_module.RegisterRoutes(baseGroup)

	appointments_module.Init(store)
	appointments_module.RegisterRoutes(baseGroup)

	templates_module.Init(store, cfg.GetBool("DEV_MODE"))
	templates_module.RegisterRoutes(baseGroup)

	if err := sessions_module.Init(cfg, store); err != nil {
		log.Fatal("[API-MAIN]: Failed to initialize sessions module: ", err)
	}
	sessions_module.RegisterRoutes(baseGroup)
	sessions_module.RegisterAudioRoutes(engine)

	// Background maintenance jobs
	scheduler, err := jobs.NewScheduler(store)
	if err != nil {
		log.Fatal("[API-MAIN]: Failed to create job scheduler: ", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Then after performing initial setup, start the server
	if err := engine.Run(":" + port); err != nil {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}
