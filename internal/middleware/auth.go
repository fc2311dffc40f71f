package middleware

import (
	"context"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/repository"
	"github.com/labstack/echo/v4"
)

type AuthMiddleware struct {
	authClient *auth.Client
	users      repository.UserRepository
}

func NewAuthMiddleware(ctx context.Context, projectID string, users repository.UserRepository) (*AuthMiddleware, error) {
	if projectID == "" {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "FIREBASE_PROJECT_ID is not set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{authClient: client, users: users}, nil
}

// RequireAuth resolves the caller from the bearer token and makes sure a
// local user record exists for them.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")
		token, err := m.authClient.VerifyIDToken(c.Request().Context(), tokenStr)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}
		u := &model.User{ID: token.UID}
		if email, ok := token.Claims["email"].(string); ok {
			u.Email = email
		}
		if name, ok := token.Claims["name"].(string); ok {
			u.NickName = name
		}
		if err := m.users.Upsert(c.Request().Context(), u); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "user_sync_failed"})
		}
		c.Set("uid", token.UID)
		return next(c)
	}
}

func (m *AuthMiddleware) Client() *auth.Client {
	return m.authClient
}
