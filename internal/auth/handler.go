package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"aeroform-backend/internal/engine"
	"aeroform-backend/internal/store"
)

const refreshExpiryLayout = "2006-01-02 15:04:05"

// Handler handles authentication endpoints.
type Handler struct {
	store     *store.Store
	jwtSecret string
}

func NewHandler(s *store.Store, jwtSecret string) *Handler {
	return &Handler{store: s, jwtSecret: jwtSecret}
}

func RegisterAuthRoutes(app *fiber.App, h *Handler, authMW fiber.Handler) {
	api := app.Group("/api/auth")
	api.Post("/login", h.Login)
	api.Post("/refresh", h.Refresh)
	api.Post("/logout", h.Logout)
	api.Get("/me", authMW, h.Me)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return engine.UnauthorizedError("Email and password are required")
	}

	ctx := c.Context()

	user, err := h.findUserByEmail(ctx, body.Email)
	if err != nil {
		return engine.UnauthorizedError("Invalid email or password")
	}

	if !store.Truthy(user["active"]) {
		return engine.UnauthorizedError("Account is disabled")
	}

	passwordHash, _ := user["password_hash"].(string)
	if !CheckPassword(body.Password, passwordHash) {
		return engine.UnauthorizedError("Invalid email or password")
	}

	userID, _ := user["id"].(string)
	roles := extractRoles(user["roles"])

	pair, err := h.issueTokens(ctx, userID, roles)
	if err != nil {
		return fmt.Errorf("issue tokens: %w", err)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user": fiber.Map{
			"id":    userID,
			"email": body.Email,
			"roles": roles,
		},
	}})
}

// Refresh handles POST /api/auth/refresh. Refresh tokens are rotated on
// every use.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err != nil || body.RefreshToken == "" {
		return engine.UnauthorizedError("Refresh token is required")
	}

	ctx := c.Context()
	p := h.store.Dialect.Placeholder

	row, err := store.QueryRow(ctx, h.store.DB,
		fmt.Sprintf("SELECT id, user_id, expires_at FROM _refresh_tokens WHERE token = %s", p(1)),
		body.RefreshToken)
	if err != nil {
		return engine.UnauthorizedError("Invalid refresh token")
	}

	if expiresAt, ok := parseExpiry(row["expires_at"]); !ok || time.Now().After(expiresAt) {
		return engine.UnauthorizedError("Refresh token expired")
	}

	userID, _ := row["user_id"].(string)
	user, err := store.QueryRow(ctx, h.store.DB,
		fmt.Sprintf("SELECT id, roles, active FROM _users WHERE id = %s", p(1)), userID)
	if err != nil || !store.Truthy(user["active"]) {
		return engine.UnauthorizedError("Account is disabled")
	}

	// Rotate: drop the used token before issuing a new one.
	tokenID, _ := row["id"].(string)
	if _, err := store.Exec(ctx, h.store.DB,
		fmt.Sprintf("DELETE FROM _refresh_tokens WHERE id = %s", p(1)), tokenID); err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}

	pair, err := h.issueTokens(ctx, userID, extractRoles(user["roles"]))
	if err != nil {
		return fmt.Errorf("issue tokens: %w", err)
	}

	return c.JSON(fiber.Map{"data": pair})
}

// Logout handles POST /api/auth/logout. Dropping the refresh token is
// all there is to revoke; access tokens simply expire.
func (h *Handler) Logout(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.RefreshToken == "" {
		return engine.UnauthorizedError("Refresh token is required")
	}

	p := h.store.Dialect.Placeholder
	_, _ = store.Exec(c.Context(), h.store.DB,
		fmt.Sprintf("DELETE FROM _refresh_tokens WHERE token = %s", p(1)), body.RefreshToken)

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/auth/me (auth required).
func (h *Handler) Me(c *fiber.Ctx) error {
	user := GetUser(c)
	if user == nil {
		return engine.UnauthorizedError("Missing auth token")
	}

	p := h.store.Dialect.Placeholder
	row, err := store.QueryRow(c.Context(), h.store.DB,
		fmt.Sprintf("SELECT id, email, roles, created_at FROM _users WHERE id = %s", p(1)), user.ID)
	if err != nil {
		return engine.NotFoundError("user", user.ID)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"id":    row["id"],
		"email": row["email"],
		"roles": extractRoles(row["roles"]),
	}})
}

func (h *Handler) issueTokens(ctx context.Context, userID string, roles []string) (*TokenPair, error) {
	access, err := GenerateAccessToken(userID, roles, h.jwtSecret)
	if err != nil {
		return nil, err
	}

	refresh := GenerateRefreshToken()
	expires := time.Now().UTC().Add(RefreshTokenTTL).Format(refreshExpiryLayout)
	p := h.store.Dialect.Placeholder
	if _, err := store.Exec(ctx, h.store.DB,
		fmt.Sprintf("INSERT INTO _refresh_tokens (id, user_id, token, expires_at) VALUES (%s, %s, %s, %s)",
			p(1), p(2), p(3), p(4)),
		uuid.New().String(), userID, refresh, expires); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (h *Handler) findUserByEmail(ctx context.Context, email string) (map[string]any, error) {
	p := h.store.Dialect.Placeholder
	return store.QueryRow(ctx, h.store.DB,
		fmt.Sprintf("SELECT id, email, password_hash, roles, active FROM _users WHERE email = %s", p(1)),
		email)
}

// parseExpiry reads expires_at in whatever shape the driver returns it:
// time.Time from postgres, TEXT from sqlite.
func parseExpiry(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		for _, layout := range []string{refreshExpiryLayout, time.RFC3339Nano, time.RFC3339} {
			if t, err := time.Parse(layout, val); err == nil {
				return t, true
			}
		}
	case []byte:
		return parseExpiry(string(val))
	}
	return time.Time{}, false
}

// extractRoles decodes the roles column, stored as a JSON string array.
func extractRoles(v any) []string {
	var raw string
	switch val := v.(type) {
	case string:
		raw = val
	case []byte:
		raw = string(val)
	default:
		return nil
	}
	var roles []string
	if err := json.Unmarshal([]byte(raw), &roles); err != nil {
		return nil
	}
	return roles
}
