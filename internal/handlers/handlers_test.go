package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/SageBrian/group-savings-app/internal/auth"
	"github.com/SageBrian/group-savings-app/internal/handlers"
	"github.com/SageBrian/group-savings-app/internal/ledger"
	"github.com/SageBrian/group-savings-app/internal/middleware"
	"github.com/SageBrian/group-savings-app/internal/routes"
	"github.com/SageBrian/group-savings-app/models"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.SavingsGroup{},
		&models.GroupMember{},
		&models.Contribution{},
		&models.WithdrawalRequest{},
	))

	authSvc := auth.NewService(db, "test-secret", time.Hour)
	groupLedger := ledger.New(db)

	r := gin.New()
	routes.SetupRoutes(r, routes.Handlers{
		Auth:         handlers.NewAuthHandler(authSvc),
		Groups:       handlers.NewGroupHandler(groupLedger),
		Withdrawals:  handlers.NewWithdrawalHandler(groupLedger),
		Profile:      handlers.NewProfileHandler(db, nil, t.TempDir()),
		AuthRequired: middleware.AuthMiddleware(authSvc, db, nil),
	})
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
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
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func registerUser(t *testing.T, r *gin.Engine, name, email string) string {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	token, ok := decodeBody(t, w)["token"].(string)
	require.True(t, ok)
	return token
}

func createGroup(t *testing.T, r *gin.Engine, token, name string, target float64) uint {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/groups", token, gin.H{
		"name":          name,
		"target_amount": target,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	group := decodeBody(t, w)["group"].(map[string]any)
	return uint(group["id"].(float64))
}

func TestRegisterAndLogin(t *testing.T) {
	r := newTestServer(t)

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])

	// Повторная регистрация с тем же email.
	w = doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeBody(t, w)["token"])

	w = doRequest(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	r := newTestServer(t)

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	r := newTestServer(t)

	w := doRequest(t, r, http.MethodGet, "/api/groups", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/groups", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateGroupValidation(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "Alice", "alice@example.com")

	w := doRequest(t, r, http.MethodPost, "/api/groups", token, gin.H{
		"target_amount": 100,
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doRequest(t, r, http.MethodPost, "/api/groups", token, gin.H{
		"name": "Group",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// camelCase-алиас тоже принимается.
	w = doRequest(t, r, http.MethodPost, "/api/groups", token, gin.H{
		"name":         "Group",
		"targetAmount": 100,
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestGroupLifecycle(t *testing.T) {
	r := newTestServer(t)
	adminToken := registerUser(t, r, "Alice", "alice@example.com")
	memberToken := registerUser(t, r, "Bob", "bob@example.com")
	outsiderToken := registerUser(t, r, "Carol", "carol@example.com")

	groupID := createGroup(t, r, adminToken, "Отпуск", 1000)
	groupPath := fmt.Sprintf("/api/groups/%d", groupID)

	// Вступление и повторное вступление.
	w := doRequest(t, r, http.MethodPost, groupPath+"/join", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, r, http.MethodPost, groupPath+"/join", memberToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	// Взнос участника.
	w = doRequest(t, r, http.MethodPost, groupPath+"/contribute", memberToken, gin.H{"amount": 100})
	require.Equal(t, http.StatusCreated, w.Code)
	group := decodeBody(t, w)["group"].(map[string]any)
	assert.Equal(t, 100.0, group["current_amount"])

	// Не участник не может ни смотреть, ни вносить.
	w = doRequest(t, r, http.MethodGet, groupPath, outsiderToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	w = doRequest(t, r, http.MethodPost, groupPath+"/contribute", outsiderToken, gin.H{"amount": 10})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Запрос на вывод сверх баланса отклоняется без создания записи.
	w = doRequest(t, r, http.MethodPost, groupPath+"/withdraw", memberToken, gin.H{"amount": 150})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPost, groupPath+"/withdraw", memberToken, gin.H{"amount": 50, "reason": "билеты"})
	require.Equal(t, http.StatusCreated, w.Code)
	withdrawal := decodeBody(t, w)["withdrawal"].(map[string]any)
	assert.Equal(t, "pending", withdrawal["status"])
	withdrawalID := uint(withdrawal["id"].(float64))
	processPath := fmt.Sprintf("/api/withdrawals/%d/process", withdrawalID)

	// Обычный участник не может обработать запрос.
	w = doRequest(t, r, http.MethodPost, processPath, memberToken, gin.H{"status": "approved"})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Неизвестный статус.
	w = doRequest(t, r, http.MethodPost, processPath, adminToken, gin.H{"status": "paid"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Одобрение списывает сумму.
	w = doRequest(t, r, http.MethodPost, processPath, adminToken, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code)

	// Повторное одобрение — конфликт, баланс не меняется.
	w = doRequest(t, r, http.MethodPost, processPath, adminToken, gin.H{"status": "approved"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, r, http.MethodGet, groupPath, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decodeBody(t, w)["group"].(map[string]any)
	assert.Equal(t, 50.0, detail["current_amount"])
	assert.Equal(t, true, detail["is_admin"])
	assert.Len(t, detail["members"].([]any), 2)

	// Обработка несуществующего запроса.
	w = doRequest(t, r, http.MethodPost, "/api/withdrawals/9999/process", adminToken, gin.H{"status": "approved"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDiscoverGroups(t *testing.T) {
	r := newTestServer(t)
	aliceToken := registerUser(t, r, "Alice", "alice@example.com")
	bobToken := registerUser(t, r, "Bob", "bob@example.com")

	createGroup(t, r, aliceToken, "First", 100)
	secondID := createGroup(t, r, aliceToken, "Second", 200)

	w := doRequest(t, r, http.MethodGet, "/api/discover", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	groups := decodeBody(t, w)["groups"].([]any)
	require.Len(t, groups, 2)

	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/groups/%d/join", secondID), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/discover", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	groups = decodeBody(t, w)["groups"].([]any)
	require.Len(t, groups, 1)
	assert.Equal(t, "First", groups[0].(map[string]any)["name"])

	w = doRequest(t, r, http.MethodGet, "/api/groups", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	groups = decodeBody(t, w)["groups"].([]any)
	require.Len(t, groups, 1)
	assert.Equal(t, "Second", groups[0].(map[string]any)["name"])
}

func TestProfile(t *testing.T) {
	r := newTestServer(t)
	aliceToken := registerUser(t, r, "Alice", "alice@example.com")
	registerUser(t, r, "Bob", "bob@example.com")

	w := doRequest(t, r, http.MethodGet, "/api/profile", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, "Alice", user["name"])

	w = doRequest(t, r, http.MethodPut, "/api/profile", aliceToken, gin.H{
		"name":   "Alice Updated",
		"avatar": "https://example.com/a.png",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/profile", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user = decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, "Alice Updated", user["name"])
	assert.Equal(t, "https://example.com/a.png", user["avatar"])

	// Смена email на занятый другим пользователем.
	w = doRequest(t, r, http.MethodPut, "/api/profile", aliceToken, gin.H{
		"email": "bob@example.com",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestExportHistory(t *testing.T) {
	r := newTestServer(t)
	aliceToken := registerUser(t, r, "Alice", "alice@example.com")
	bobToken := registerUser(t, r, "Bob", "bob@example.com")

	groupID := createGroup(t, r, aliceToken, "Group", 500)
	groupPath := fmt.Sprintf("/api/groups/%d", groupID)

	w := doRequest(t, r, http.MethodPost, groupPath+"/contribute", aliceToken, gin.H{"amount": 30})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, http.MethodGet, groupPath+"/export", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "contribution")
	assert.Contains(t, lines[1], "Alice")

	// Выгрузка доступна только участникам.
	w = doRequest(t, r, http.MethodGet, groupPath+"/export", bobToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}
