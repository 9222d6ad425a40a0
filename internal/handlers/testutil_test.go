package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/sorelly/internal/config"
	"github.com/example/sorelly/internal/database"
	"github.com/example/sorelly/internal/handlers"
	"github.com/example/sorelly/internal/middleware"
	"github.com/example/sorelly/internal/models"
	"github.com/example/sorelly/internal/services"
	"github.com/example/sorelly/internal/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		AppPort: "8080",
		AppEnv:  "test",
	}
}

type stubDirectory struct {
	profile *services.ResellerProfile
	err     error
}

func (s *stubDirectory) FetchResellerByEmail(string) (*services.ResellerProfile, error) {
	return s.profile, s.err
}

type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) SendVerificationCode(_ context.Context, to, code string) error {
	m.sent = append(m.sent, to+":"+code)
	return nil
}

func newTestApp(t *testing.T, db *gorm.DB, directory handlers.ResellerDirectory) *fiber.App {
	t.Helper()

	if directory == nil {
		directory = &stubDirectory{}
	}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})

	cfg := testConfig()
	authHandler := handlers.NewAuthHandler(db, cfg, directory, &recordingMailer{})
	clientHandler := handlers.NewClientHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	orderHandler := handlers.NewOrderHandler(db)
	favoriteHandler := handlers.NewFavoriteHandler(db)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/verify", authHandler.Verify)
	auth.Post("/session", authHandler.Session)

	api.Post("/carts", cartHandler.Submit)

	protected := api.Group("", middleware.RequireSession(db))
	protected.Get("/clients", clientHandler.List)
	protected.Post("/clients", clientHandler.Create)
	protected.Get("/clients/:id", clientHandler.Get)
	protected.Patch("/clients/:id", clientHandler.Update)
	protected.Delete("/clients/:id", clientHandler.Delete)
	protected.Get("/carts", cartHandler.List)
	protected.Post("/orders", orderHandler.Create)
	protected.Get("/orders", orderHandler.List)
	protected.Get("/orders/:id", orderHandler.Get)
	protected.Patch("/orders/:id/restore", orderHandler.Restore)
	protected.Patch("/orders/:id/cancel", orderHandler.Cancel)
	protected.Get("/favorites", favoriteHandler.List)
	protected.Post("/favorites", favoriteHandler.Add)
	protected.Delete("/favorites", favoriteHandler.Remove)

	return app
}

func seedUser(t *testing.T, db *gorm.DB, id int, email string) models.User {
	t.Helper()

	user := models.User{ID: id, Name: "Revendedora", Email: email, IsVerified: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedSession(t *testing.T, db *gorm.DB, userID int) string {
	t.Helper()

	session := models.Session{
		UserID:       userID,
		SessionToken: uuid.NewString(),
	}
	require.NoError(t, db.Create(&session).Error)
	return session.SessionToken
}

func seedClient(t *testing.T, db *gorm.DB, userID int, name, phone string) models.Client {
	t.Helper()

	client := models.Client{
		UserID:   userID,
		Name:     name,
		Phone:    phone,
		WhatsApp: "https://wa.me/" + utils.DigitsOnly(phone),
	}
	require.NoError(t, db.Create(&client).Error)
	return client
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	payload := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload), "body: %s", raw)
	}

	return resp.StatusCode, payload
}
