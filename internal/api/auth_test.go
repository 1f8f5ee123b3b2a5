package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dchat/internal/auth"
	"dchat/internal/models"
)

const testSecret = "test-secret"

type authTestEnv struct {
	router     *gin.Engine
	users      *memUsers
	activities *memActivities
}

func newAuthTestEnv() *authTestEnv {
	gin.SetMode(gin.TestMode)
	users := newMemUsers()
	activities := newMemActivities()
	h := NewAuthHandler(users, activities, testSecret, time.Hour, zap.NewNop())

	router := gin.New()
	router.POST("/v1/auth/register", h.Register)
	router.POST("/v1/auth/login", h.Login)
	return &authTestEnv{router: router, users: users, activities: activities}
}

func (env *authTestEnv) post(t *testing.T, path string, body any) (*httptest.ResponseRecorder, authResponse) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(rec, req)

	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestRegister_ReturnsTokenForNewUser(t *testing.T) {
	req := require.New(t)
	env := newAuthTestEnv()

	rec, resp := env.post(t, "/v1/auth/register", credentialsRequest{Username: "alice", Password: "pw1"})

	req.Equal(http.StatusCreated, rec.Code)
	req.Nil(resp.Error)
	req.NotEmpty(resp.AccessToken)

	claims, err := auth.ParseToken(resp.AccessToken, testSecret)
	req.NoError(err)
	stored, err := env.users.GetByUsername(context.Background(), "alice")
	req.NoError(err)
	req.Equal(stored.ID, claims.UserID)

	// The stored password is a hash, never the plaintext.
	req.NotEqual("pw1", stored.Password)
	req.True(auth.CheckPassword(stored.Password, "pw1"))
}

func TestRegister_DuplicateUsernameRejected(t *testing.T) {
	req := require.New(t)
	env := newAuthTestEnv()

	rec, _ := env.post(t, "/v1/auth/register", credentialsRequest{Username: "alice", Password: "pw1"})
	req.Equal(http.StatusCreated, rec.Code)

	rec, resp := env.post(t, "/v1/auth/register", credentialsRequest{Username: "alice", Password: "pw2"})
	req.Equal(http.StatusBadRequest, rec.Code)
	req.NotNil(resp.Error)
	req.Equal("Username already in use", *resp.Error)
}

func TestRegister_BlankFieldsRejected(t *testing.T) {
	req := require.New(t)
	env := newAuthTestEnv()

	rec, resp := env.post(t, "/v1/auth/register", credentialsRequest{Username: "", Password: "pw"})
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("Username is a required field", *resp.Error)

	rec, resp = env.post(t, "/v1/auth/register", credentialsRequest{Username: "alice", Password: ""})
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("Password is a required field", *resp.Error)
}

func TestLogin_WrongPassword(t *testing.T) {
	req := require.New(t)
	env := newAuthTestEnv()
	env.post(t, "/v1/auth/register", credentialsRequest{Username: "alice", Password: "right"})

	rec, resp := env.post(t, "/v1/auth/login", credentialsRequest{Username: "alice", Password: "wrong"})

	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("Invalid password", *resp.Error)
	// Failed logins leave no audit trail.
	req.Empty(env.activities.byType(models.ActivityUserLoggedIn))
}

func TestLogin_UnknownUsername(t *testing.T) {
	req := require.New(t)
	env := newAuthTestEnv()

	rec, resp := env.post(t, "/v1/auth/login", credentialsRequest{Username: "nobody", Password: "pw"})

	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("Invalid username", *resp.Error)
}

func TestLogin_SuccessIssuesTokenAndRecordsActivity(t *testing.T) {
	req := require.New(t)
	env := newAuthTestEnv()
	env.post(t, "/v1/auth/register", credentialsRequest{Username: "alice", Password: "pw1"})

	rec, resp := env.post(t, "/v1/auth/login", credentialsRequest{Username: "alice", Password: "pw1"})

	req.Equal(http.StatusOK, rec.Code)
	req.Nil(resp.Error)
	req.NotEmpty(resp.AccessToken)

	logins := env.activities.byType(models.ActivityUserLoggedIn)
	req.Len(logins, 1)
	stored, err := env.users.GetByUsername(context.Background(), "alice")
	req.NoError(err)
	req.Equal(stored.ID, logins[0].Owner)
	req.Positive(logins[0].Timestamp)
}
