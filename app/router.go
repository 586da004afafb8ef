package app

import (
	"fmt"
	"net/http"

	"quizblog/auth"
	"quizblog/config"
	"quizblog/handlers"
	"quizblog/mail"
	"quizblog/middleware"
	"quizblog/routes"
	"quizblog/services"
	"quizblog/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    redis.Cmdable
	Notifier mail.Notifier
	Files    storage.ObjectStore
	Hub      *services.Hub
	Tokens   *auth.TokenCodec
}

// NewRouter wires services, handlers and routes into one http.Handler,
// wrapped in CORS and per-IP rate limiting.
func NewRouter(d Deps) (http.Handler, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	cfg := d.Config
	siteURL := cfg.Server.ClientURL

	// A nil *Hub must not end up inside the interface.
	var events services.EventPublisher
	if d.Hub != nil {
		events = d.Hub
	}

	cascade := services.NewCascade(d.DB, d.Files)
	authService := services.NewAuthService(d.DB, d.Tokens, services.NewResetTokenStore(d.Redis), d.Notifier, siteURL)
	quizService := services.NewQuizService(d.DB, cascade, d.Notifier, events, siteURL)

	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		User:         handlers.NewUserHandler(services.NewUserService(d.DB)),
		Category:     handlers.NewCategoryHandler(services.NewCategoryService(d.DB, cascade)),
		Quiz:         handlers.NewQuizHandler(quizService),
		Question:     handlers.NewQuestionHandler(services.NewQuestionService(d.DB)),
		Score:        handlers.NewScoreHandler(services.NewScoreService(d.DB)),
		Course:       handlers.NewCourseHandler(services.NewCourseService(d.DB, cascade)),
		Notes:        handlers.NewNotesHandler(services.NewNotesService(d.DB, d.Files, cascade)),
		Contact:      handlers.NewContactHandler(services.NewContactService(d.DB, d.Notifier, events, siteURL)),
		Subscriber:   handlers.NewSubscriberHandler(services.NewSubscriberService(d.DB, d.Notifier, siteURL)),
		Notification: handlers.NewNotificationHandler(d.Hub, cfg.Server.CORSOrigins),
		Health:       handlers.NewHealthHandler(d.DB, d.Redis),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(), middleware.Recovery(), middleware.Metrics())
	router.NoRoute(func(c *gin.Context) {
		middleware.Abort(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	gates := middleware.NewGates(d.Tokens, cfg.Auth.LegacyRoleGate)
	routes.SetupRoutes(router, h, gates)

	if disk, ok := d.Files.(*storage.DiskStore); ok {
		router.Static(notesURLPrefix, disk.Dir())
	}

	var handler http.Handler = router
	handler = middleware.RateLimit(cfg.Server.RateLimit)(handler)
	handler = middleware.CORS(cfg.Server.CORSOrigins)(handler)
	return handler, nil
}
