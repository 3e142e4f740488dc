package routes

import (
	"context"
	"fmt"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SudeepMi/parking-api/internal/config"
	"github.com/SudeepMi/parking-api/internal/handlers"
	"github.com/SudeepMi/parking-api/internal/middleware"
	"github.com/SudeepMi/parking-api/internal/repository"
	"github.com/SudeepMi/parking-api/internal/services"
	gatews "github.com/SudeepMi/parking-api/internal/websocket"
	"github.com/SudeepMi/parking-api/pkg/utils"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) error {
	userRepo := repository.NewUserRepository(db)
	spotRepo := repository.NewSpotRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	gateHub := gatews.NewHub()
	go gateHub.Run()

	parkingService := services.NewParkingService(db, sessionRepo, paymentRepo, reservationRepo, gateHub)
	nearestService := services.NewNearestSpotService(spotRepo)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	spotHandler := handlers.NewSpotHandler(spotRepo, userRepo, nearestService)
	reservationHandler := handlers.NewReservationHandler(reservationRepo, spotRepo)
	parkingHandler := handlers.NewParkingHandler(parkingService)
	gateFeedHandler := handlers.NewGateFeedHandler(gateHub, cfg.JWTSecret)

	if err := seedDefaultAdmin(cfg, db); err != nil {
		return err
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	users := authProtected.Group("/users")
	users.Put("/location", authHandler.UpdateLocation)

	spots := authProtected.Group("/spots")
	spots.Post("", spotHandler.CreateSpot)
	spots.Get("", spotHandler.ListSpots)
	spots.Get("/nearest", spotHandler.Nearest)
	spots.Get("/:id", spotHandler.GetSpot)

	reservations := authProtected.Group("/reservations")
	reservations.Post("", reservationHandler.CreateReservation)
	reservations.Get("/mine", reservationHandler.ListMyReservations)

	parkings := authProtected.Group("/parkings")
	parkings.Post("", parkingHandler.RecordEntry)
	parkings.Get("", parkingHandler.ListParkings)
	parkings.Get("/count", parkingHandler.CountParkings)
	parkings.Get("/mine", parkingHandler.ListMyParkings)
	parkings.Get("/:id", parkingHandler.GetParking)
	parkings.Put("/:id/exit", parkingHandler.RecordExit)
	parkings.Put("/:id/verify", parkingHandler.VerifyPaymentAndRelease)
	parkings.Post("/:id/payments", parkingHandler.RecordPayment)
	parkings.Delete("/:id", parkingHandler.DeleteParking)

	api.Use("/v1/ws", gateFeedHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(gateFeedHandler.HandleWebSocket))

	registerDocsRoutes(app, cfg)

	return nil
}

// seedDefaultAdmin creates the bootstrap admin account when configured, so a
// fresh deployment has someone able to operate the gate.
func seedDefaultAdmin(cfg *config.Config, db *pgxpool.Pool) error {
	if cfg.DefaultAdminEmail == "" || cfg.DefaultAdminPassword == "" {
		return nil
	}

	hashed, err := utils.HashPassword(cfg.DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	_, err = db.Exec(
		context.Background(),
		`INSERT INTO users (email, password_hash, role)
		 VALUES ($1, $2, 'admin')
		 ON CONFLICT (email) DO NOTHING`,
		cfg.DefaultAdminEmail,
		hashed,
	)
	if err != nil {
		return fmt.Errorf("seed default admin: %w", err)
	}

	return nil
}
