package server

import (
	"context"
	"log"
	"net/http"

	"github.com/LXKing/Kahla/internal/config"
	"github.com/LXKing/Kahla/internal/handler"
	appmw "github.com/LXKing/Kahla/internal/middleware"
	"github.com/LXKing/Kahla/internal/push"
	"github.com/LXKing/Kahla/internal/repository"
	"github.com/LXKing/Kahla/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Server struct {
	e      *echo.Echo
	digest *service.DigestService
}

func New(db *gorm.DB, cfg *config.Config, realtime push.RealtimeChannel, devices push.DevicePush, email push.EmailTransport, attachments push.AttachmentStore) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.AppDomain, "http://localhost:4200"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	convRepo := repository.NewConversationRepository(db)
	relRepo := repository.NewRelationRepository(db)
	userRepo := repository.NewUserRepository(db)
	reqRepo := repository.NewRequestRepository(db)

	pusher := service.NewPushService(realtime, devices, cfg.PushTimeout)
	unreadSvc := service.NewUnreadService(convRepo, relRepo)
	convSvc := service.NewConversationService(convRepo, relRepo, pusher, attachments)
	friendSvc := service.NewFriendshipService(userRepo, reqRepo, convRepo, pusher)
	groupSvc := service.NewGroupService(convRepo, relRepo, userRepo, pusher)
	userSvc := service.NewUserService(userRepo)
	digest := service.NewDigestService(userRepo, convRepo, reqRepo, unreadSvc, email,
		cfg.AppDomain, cfg.DigestCooldown, cfg.DigestInterval, cfg.DigestStartDelay)

	convHandler := handler.NewConversationHandler(convSvc, unreadSvc)
	friendHandler := handler.NewFriendshipHandler(friendSvc)
	groupHandler := handler.NewGroupHandler(groupSvc)
	userHandler := handler.NewUserHandler(userSvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	api := e.Group("/api")
	if cfg.FirebaseProjectID != "" {
		authMw, err := appmw.NewAuthMiddleware(context.Background(), cfg.FirebaseProjectID, userRepo)
		if err != nil {
			e.Logger.Fatalf("failed to init firebase auth: %v", err)
		}
		api.Use(authMw.RequireAuth)
	} else {
		log.Printf("FIREBASE_PROJECT_ID not set; API runs unauthenticated")
	}

	api.GET("/me", userHandler.Me)
	api.POST("/me/channel", userHandler.InitChannel)
	api.DELETE("/me/channel", userHandler.DropChannel)
	api.POST("/me/devices", userHandler.RegisterDevice)
	api.DELETE("/me/devices/:id", userHandler.RemoveDevice)
	api.POST("/me/email-notification", userHandler.SetEmailNotification)

	api.GET("/conversations", convHandler.List)
	api.GET("/conversations/:id", convHandler.Detail)
	api.GET("/conversations/:id/messages", convHandler.GetMessages)
	api.POST("/conversations/:id/messages", convHandler.SendMessage)
	api.POST("/conversations/:id/read", convHandler.MarkRead)
	api.POST("/conversations/:id/lifetime", convHandler.UpdateRetention)
	api.GET("/conversations/:id/files", convHandler.FileHistory)

	api.POST("/requests", friendHandler.CreateRequest)
	api.POST("/requests/:id/complete", friendHandler.CompleteRequest)
	api.DELETE("/friends/:id", friendHandler.RemoveFriend)

	api.POST("/groups", groupHandler.Create)
	api.POST("/groups/:id/join", groupHandler.Join)
	api.POST("/groups/:id/leave", groupHandler.Leave)
	api.POST("/groups/:id/dissolve", groupHandler.Dissolve)
	api.POST("/groups/:id/mute", groupHandler.SetMuted)

	return &Server{e: e, digest: digest}
}

// StartDigest launches the background email digest loop.
func (s *Server) StartDigest(ctx context.Context) {
	s.digest.Start(ctx)
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
