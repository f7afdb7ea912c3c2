package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"fixhub/internal/config"
	"fixhub/internal/database"
	"fixhub/internal/middleware"
	"fixhub/internal/modules/assignment"
	"fixhub/internal/modules/auth"
	"fixhub/internal/modules/events"
	"fixhub/internal/modules/issue"
	"fixhub/internal/modules/notification"
	"fixhub/internal/modules/schedule"
	jwtsvc "fixhub/internal/pkg/jwt"
	"fixhub/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	extRepo := repository.NewExtensionRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	proofRepo := repository.NewProofRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	hub := events.NewHub()

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	issueService := issue.NewService(issueRepo, bookingRepo, timelineRepo, nil)
	issueHandler := issue.NewHandler(issueService)

	scheduleService := schedule.NewService(slotRepo, bookingRepo).WithHorizon(cfg.AllocatorMaxDays)
	scheduleHandler := schedule.NewHandler(scheduleService)

	notifService := notification.NewService(notifRepo, userRepo, hub, nil)
	notifHandler := notification.NewHandler(notifService)

	assignmentService := assignment.NewService(
		db,
		bookingRepo,
		issueRepo,
		extRepo,
		timelineRepo,
		proofRepo,
		scheduleService,
		notifService,
		nil,
	)
	assignmentHandler := assignment.NewHandler(assignmentService)

	wsHandler := events.NewWSHandler(hub, j)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	r.GET("/ws/events", wsHandler.HandleWebSocket)

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			issueHandler.RegisterRoutes(protected)
			scheduleHandler.RegisterRoutes(protected)
			assignmentHandler.RegisterRoutes(protected)
			notifHandler.RegisterRoutes(protected)
		}

		internal := v1.Group("/internal")
		internal.Use(middleware.InternalTokenAuth())
		{
			notifHandler.RegisterInternalRoutes(internal)
		}
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
