package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/schoolhealth-notify/internal/config"
	"github.com/yourorg/schoolhealth-notify/internal/middleware"
	"github.com/yourorg/schoolhealth-notify/internal/model"
	"github.com/yourorg/schoolhealth-notify/internal/repository"
	"github.com/yourorg/schoolhealth-notify/internal/service"
)

type testEnv struct {
	router    *gin.Engine
	auth      *service.AuthService
	notifs    *service.NotificationService
	guardian  int
	nurse     int
	guardTok  string
	nurseTok  string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.OpenStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret",
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 24 * time.Hour,
		},
	}

	userRepo := repository.NewUserRepository(db, logger)
	notifRepo := repository.NewNotificationRepository(db, logger)
	authService := service.NewAuthService(userRepo, cfg, logger)
	notifService := service.NewNotificationService(notifRepo, userRepo, nil, logger)

	env := &testEnv{auth: authService, notifs: notifService}

	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.MinCost)
	require.NoError(t, err)
	env.guardian, err = userRepo.Create(ctx, "guardian@school.local", "Phụ huynh", "guardian", string(hash))
	require.NoError(t, err)
	env.nurse, err = userRepo.Create(ctx, "nurse@school.local", "Y tá", "nurse", string(hash))
	require.NoError(t, err)

	env.guardTok = login(t, authService, "guardian@school.local")
	env.nurseTok = login(t, authService, "nurse@school.local")

	router := gin.New()
	notifHandler := NewNotificationHandler(notifService, logger)
	notify := router.Group("/notify")
	notify.Use(middleware.AuthMiddleware(authService, logger))
	notify.GET("/user/:userId", notifHandler.GetUserNotifications)
	notify.PUT("/mark-read", notifHandler.MarkRead)
	env.router = router

	return env
}

func login(t *testing.T, auth *service.AuthService, email string) string {
	t.Helper()
	tokens, err := auth.Login(context.Background(), &model.UserLogin{Email: email, Password: "pass"})
	require.NoError(t, err)
	return tokens.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestGetNotificationsWireFormat(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.notifs.Create(ctx, &model.NotificationCreate{
			UserID: env.guardian, Title: "Thông báo", Message: "nội dung",
		})
		require.NoError(t, err)
	}

	w := env.do(t, http.MethodGet, "/notify/user/1?page=1&limit=2", env.guardTok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page model.NotificationPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Notifications, 2)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 3, page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, 3, page.UnreadCount)
}

func TestGetNotificationsRequiresToken(t *testing.T) {
	env := setupEnv(t)
	w := env.do(t, http.MethodGet, "/notify/user/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetNotificationsForbiddenForOtherUser(t *testing.T) {
	env := setupEnv(t)
	w := env.do(t, http.MethodGet, "/notify/user/1", env.nurseTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMarkReadScopedToCaller(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	id, err := env.notifs.Create(ctx, &model.NotificationCreate{
		UserID: env.guardian, Title: "t", Message: "m",
	})
	require.NoError(t, err)

	// The nurse cannot mark the guardian's notification
	w := env.do(t, http.MethodPut, "/notify/mark-read", env.nurseTok,
		model.MarkReadRequest{NotificationIDs: []int{id}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.MarkReadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.MarkedCount)

	// The owner can
	w = env.do(t, http.MethodPut, "/notify/mark-read", env.guardTok,
		model.MarkReadRequest{NotificationIDs: []int{id}})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.MarkedCount)
}

func TestMarkReadRejectsEmptyBody(t *testing.T) {
	env := setupEnv(t)
	w := env.do(t, http.MethodPut, "/notify/mark-read", env.guardTok,
		model.MarkReadRequest{NotificationIDs: []int{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
