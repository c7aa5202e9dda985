package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/denteliv/iv-api/internal/config"
	"github.com/denteliv/iv-api/internal/handlers"
	"github.com/denteliv/iv-api/internal/middleware"
	"github.com/denteliv/iv-api/internal/services"
	"github.com/denteliv/iv-api/internal/source"
	"github.com/denteliv/iv-api/internal/store"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// --- Database Connection ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDatabase)
	logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")

	// --- Stores ---
	appointmentStore := store.NewAppointmentStore(db)
	attendanceStore := store.NewAttendanceStore(db)
	fetchLogStore := store.NewFetchLogStore(db)
	userStore := store.NewUserStore(db)
	officeStore := store.NewOfficeStore(db)

	// --- Source Adapter ---
	sheetsSource, err := source.NewSheetsSource(context.Background(), cfg.SheetsCredentialsFile, cfg.SpreadsheetID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create sheets source")
	}

	// --- Services ---
	ingestion := services.NewIngestion(sheetsSource, appointmentStore, fetchLogStore, officeStore,
		cfg.BusinessTZ, cfg.LookbackDays, cfg.HorizonDays, logger)
	lifecycle := services.NewLifecycle(appointmentStore, cfg.BusinessTZ)
	analytics := services.NewAnalytics(appointmentStore, cfg.BusinessTZ)
	attendance := services.NewAttendance(attendanceStore, userStore)

	h := handlers.NewHandler(ingestion, lifecycle, analytics, attendance, userStore, fetchLogStore, cfg.JWTSecret, logger)

	// --- Scheduled ingestion ---
	// One run at a time: the next tick is not handled until the current run
	// returns. Nothing serializes runs across processes (see Ingestion docs).
	go func() {
		ticker := time.NewTicker(cfg.FetchInterval)
		defer ticker.Stop()
		for range ticker.C {
			summary, err := ingestion.Run(context.Background())
			if err != nil {
				logger.Error().Err(err).Msg("scheduled ingestion failed")
				continue
			}
			logger.Info().Str("operationId", summary.OperationID).Int("offices", len(summary.Offices)).Msg("scheduled ingestion finished")
		}
	}()

	// --- Gin Router ---
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	// --- Routes ---
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
	}

	apiRoutes := r.Group("/api")
	apiRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		// Ingestion
		apiRoutes.POST("/appointments/fetch", h.FetchAppointments)
		apiRoutes.GET("/fetch-log", h.GetFetchLog)

		// Listings
		apiRoutes.GET("/appointments/office/:office", h.GetOfficeAppointments)
		apiRoutes.GET("/appointments/user/:id", h.GetUserAppointments)

		// Lifecycle
		apiRoutes.PATCH("/appointments/:id/assign", h.AssignAppointment)
		apiRoutes.POST("/appointments/rush", h.CreateRushAppointment)
		apiRoutes.PUT("/appointments/bulk", h.BulkUpdateAppointments)
		apiRoutes.PUT("/appointments/:id", h.UpdateAppointmentDetails)

		// Analytics
		apiRoutes.GET("/analytics/assigned-counts", h.GetAssignedCounts)
		apiRoutes.GET("/analytics/completion-count/:userId", h.GetCompletionCountByUser)
		apiRoutes.GET("/analytics/completion-analysis", h.GetCompletionAnalysis)
		apiRoutes.POST("/analytics/aggregate", h.RunAggregate)

		// Attendance
		apiRoutes.POST("/attendance", h.SaveAttendance)
		apiRoutes.POST("/attendance/bulk", h.BulkSaveAttendance)
		apiRoutes.GET("/attendance/user/:id", h.GetUserAttendance)
		apiRoutes.GET("/attendance/summary", h.GetAttendanceSummary)
		apiRoutes.GET("/users/active", h.GetActiveUsers)
	}

	logger.Info().Str("port", cfg.APIPort).Msg("starting server")
	if err := r.Run(":" + cfg.APIPort); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
