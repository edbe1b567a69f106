package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-auth-api/internal/config"
	"github.com/yukikurage/task-auth-api/internal/database/dbtest"
	"github.com/yukikurage/task-auth-api/internal/logging"
	"github.com/yukikurage/task-auth-api/internal/metrics"
	"github.com/yukikurage/task-auth-api/internal/middleware"
)

// RouterTestSuite drives the assembled API over HTTP
type RouterTestSuite struct {
	suite.Suite
	router  *gin.Engine
	metrics *metrics.Metrics
}

// SetupTest runs before each test
func (suite *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.metrics = metrics.New()

	router, err := NewRouter(Deps{
		Config: &config.Config{
			JWTSecret:    "router-test-secret-that-is-long-enough",
			JWTExpiresIn: time.Hour,
		},
		DB:      dbtest.New(suite.T()),
		Logger:  logging.NewWithOutput("error", "text", io.Discard),
		Metrics: suite.metrics,
	})
	suite.Require().NoError(err)
	suite.router = router
}

func (suite *RouterTestSuite) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *RouterTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (suite *RouterTestSuite) registerAndLogin(username, password string) (string, string) {
	creds := `{"username":"` + username + `","password":"` + password + `"}`

	w := suite.do(http.MethodPost, "/auth/register", "", creds)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var user map[string]string
	suite.decode(w, &user)

	w = suite.do(http.MethodPost, "/auth/login", "", creds)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var login map[string]string
	suite.decode(w, &login)

	return user["id"], login["token"]
}

func (suite *RouterTestSuite) TestTaskLifecycle() {
	ownerID, token := suite.registerAndLogin("alice", "s3cret")

	w := suite.do(http.MethodGet, "/tasks", token, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`[]`, w.Body.String())

	w = suite.do(http.MethodPost, "/tasks", token, `{"title":"Write report","description":"Q3","status":"pending"}`)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created map[string]any
	suite.decode(w, &created)
	taskID := created["id"].(string)
	suite.Equal(ownerID, created["owner_id"])
	suite.Equal("Q3", created["description"])

	w = suite.do(http.MethodGet, "/tasks/"+taskID, token, "")
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPatch, "/tasks/"+taskID, token, `{"status":"in-progress"}`)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated map[string]any
	suite.decode(w, &updated)
	suite.Equal("Write report", updated["title"])
	suite.Equal("in-progress", updated["status"])
	suite.Equal("Q3", updated["description"])

	w = suite.do(http.MethodGet, "/tasks", token, "")
	var listed []map[string]any
	suite.decode(w, &listed)
	suite.Require().Len(listed, 1)
	suite.Equal("in-progress", listed[0]["status"])

	w = suite.do(http.MethodDelete, "/tasks/"+taskID, token, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"message":"Task `+taskID+` deleted successfully","id":"`+taskID+`"}`, w.Body.String())

	w = suite.do(http.MethodGet, "/tasks/"+taskID, token, "")
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodDelete, "/tasks/"+taskID, token, "")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestCrossUserAccessLooksLikeMissing() {
	_, aliceToken := suite.registerAndLogin("alice", "s3cret")
	_, bobToken := suite.registerAndLogin("bob", "hunter2")

	w := suite.do(http.MethodPost, "/tasks", aliceToken, `{"title":"Private","status":"pending"}`)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var created map[string]any
	suite.decode(w, &created)
	taskID := created["id"].(string)

	missing := suite.do(http.MethodGet, "/tasks/00000000-0000-4000-8000-000000000000", bobToken, "")
	suite.Equal(http.StatusNotFound, missing.Code)

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		body := ""
		if method == http.MethodPatch {
			body = `{"title":"Hijacked"}`
		}
		w := suite.do(method, "/tasks/"+taskID, bobToken, body)
		suite.Equal(http.StatusNotFound, w.Code, method)
		suite.JSONEq(missing.Body.String(), w.Body.String(), method)
	}

	w = suite.do(http.MethodGet, "/tasks", bobToken, "")
	suite.JSONEq(`[]`, w.Body.String())

	w = suite.do(http.MethodGet, "/tasks/"+taskID, aliceToken, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	var task map[string]any
	suite.decode(w, &task)
	suite.Equal("Private", task["title"])
}

func (suite *RouterTestSuite) TestTaskRoutesRequireToken() {
	_, token := suite.registerAndLogin("alice", "s3cret")

	requests := []struct {
		method, path, header string
	}{
		{http.MethodGet, "/tasks", ""},
		{http.MethodPost, "/tasks", ""},
		{http.MethodGet, "/tasks/some-id", ""},
		{http.MethodGet, "/tasks", "Token " + token},
		{http.MethodGet, "/tasks", "Bearer " + token[:strings.LastIndex(token, ".")+1] + "invalidsignature"},
	}

	for _, r := range requests {
		req := httptest.NewRequest(r.method, r.path, nil)
		if r.header != "" {
			req.Header.Set("Authorization", r.header)
		}
		w := httptest.NewRecorder()
		suite.router.ServeHTTP(w, req)

		suite.Equal(http.StatusUnauthorized, w.Code, r.method+" "+r.path)
		suite.Contains(w.Body.String(), "Authentication token is missing or invalid.")
	}

	suite.Equal(float64(3), testutil.ToFloat64(suite.metrics.AuthFailuresTotal.WithLabelValues(middleware.ReasonMissingHeader)))
	suite.Equal(float64(1), testutil.ToFloat64(suite.metrics.AuthFailuresTotal.WithLabelValues(middleware.ReasonMalformed)))
	suite.Equal(float64(1), testutil.ToFloat64(suite.metrics.AuthFailuresTotal.WithLabelValues(middleware.ReasonInvalid)))
}

func (suite *RouterTestSuite) TestDuplicateRegistration() {
	suite.registerAndLogin("alice", "s3cret")

	w := suite.do(http.MethodPost, "/auth/register", "", `{"username":"alice","password":"other"}`)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "Username already exists")
	suite.NotContains(w.Body.String(), "$2a$")
}

func (suite *RouterTestSuite) TestFallbacks() {
	w := suite.do(http.MethodGet, "/nope", "", "")
	suite.Equal(http.StatusNotFound, w.Code)
	suite.JSONEq(`{"error":"Not Found","code":"NOT_FOUND"}`, w.Body.String())

	w = suite.do(http.MethodGet, "/", "", "")
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"status":"ok"}`, w.Body.String())

	w = suite.do(http.MethodGet, "/health", "", "")
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"status":"ok","database":"ok"}`, w.Body.String())
	suite.NotEmpty(w.Header().Get("X-Request-ID"))
	suite.Empty(w.Header().Get("X-Powered-By"))

	suite.router.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	w = suite.do(http.MethodGet, "/boom", "", "")
	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.JSONEq(`{"error":"Internal server error","code":"INTERNAL_ERROR"}`, w.Body.String())
}

func (suite *RouterTestSuite) TestMetricsEndpoint() {
	suite.do(http.MethodGet, "/", "", "")

	w := suite.do(http.MethodGet, "/metrics", "", "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "taskapi_http_requests_total")
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestNewRouter_RejectsEmptySecret(t *testing.T) {
	_, err := NewRouter(Deps{
		Config:  &config.Config{JWTExpiresIn: time.Hour},
		DB:      dbtest.New(t),
		Logger:  logrus.New(),
		Metrics: metrics.New(),
	})
	if err == nil {
		t.Fatal("expected an error for an empty token secret")
	}
}
