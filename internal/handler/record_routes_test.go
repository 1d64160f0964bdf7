package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalmiddleware "github.com/noah-isme/academic-record-api/internal/middleware"
	"github.com/noah-isme/academic-record-api/internal/models"
	"github.com/noah-isme/academic-record-api/internal/repository"
	"github.com/noah-isme/academic-record-api/internal/service"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

type headerTokens struct{}

// ValidateToken accepts "<role>:<user>" so tests can pick identities freely.
func (headerTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.JWTClaims{Role: models.UserRole(parts[0]), UserID: parts[1]}, nil
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func buildRecordRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := repository.NewMemoryRecordRepository()
	semesters := service.NewSemesterService(store, service.SemesterOptions{ConflictRetries: 2})
	students := service.NewStudentService(store, nil, 0, nil)

	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	api := router.Group("/api/v1", internalmiddleware.JWT(headerTokens{}), internalmiddleware.ReadOnlyForAdvisors())
	RegisterRecordRoutes(api, Handlers{
		Students:   NewStudentHandler(students, service.NewAdvisorFeedService(store, nil, service.AdvisorFeedOptions{})),
		Subjects:   NewSubjectHandler(service.NewSubjectService(semesters, nil)),
		Semesters:  NewSemesterHandler(semesters),
		Transcript: NewTranscriptHandler(service.NewTranscriptService(store, nil, nil, nil)),
	})
	return router
}

func call(t *testing.T, router *gin.Engine, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestRecordLifecycleOverHTTP(t *testing.T) {
	router := buildRecordRouter()
	const student = "student:u1"

	rec, _ := call(t, router, http.MethodGet, "/users/me", student, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = call(t, router, http.MethodPost, "/users/me/record", student, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := call(t, router, http.MethodPost, "/users/me/record", student, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, appErrors.ErrConflict.Code, env.Error.Code)

	rec, _ = call(t, router, http.MethodPost, "/users/me/subjects", student, `{"name":"Programming","code":"cs101","credits":4}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = call(t, router, http.MethodPost, "/users/me/subjects", student, `{"name":"Calculus","code":"MA101","credits":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = call(t, router, http.MethodPost, "/users/me/subjects", student, `{"name":"Again","code":"CS101","credits":3}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, appErrors.ErrDuplicateCode.Code, env.Error.Code)

	rec, env = call(t, router, http.MethodPost, "/users/me/subjects", student, `{"name":"Heavy","code":"HV1","credits":9}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrInvalidCredits.Code, env.Error.Code)

	rec, env = call(t, router, http.MethodGet, "/users/me/subjects", student, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var subjects []models.Subject
	require.NoError(t, json.Unmarshal(env.Data, &subjects))
	require.Len(t, subjects, 2)
	assert.Equal(t, "CS101", subjects[0].Code)

	rec, env = call(t, router, http.MethodPost, "/users/me/complete-semester", student, `{"CS101":"A"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrIncompleteGradeSet.Code, env.Error.Code)

	rec, env = call(t, router, http.MethodPost, "/users/me/complete-semester", student, `{"CS101":"A","MA101":"O"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var semester models.SemesterRecord
	require.NoError(t, json.Unmarshal(env.Data, &semester))
	assert.Equal(t, 8.67, semester.SGPA)

	rec, env = call(t, router, http.MethodGet, "/users/me", student, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 8.67, summary["cgpa"])
	assert.Equal(t, float64(2), summary["current_semester_number"])
	assert.Equal(t, false, env.Meta["cache_hit"])

	rec, _ = call(t, router, http.MethodGet, "/users/me/history/1", student, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = call(t, router, http.MethodGet, "/users/me/history/2", student, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = call(t, router, http.MethodGet, "/users/me/history/abc", student, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, router, http.MethodGet, "/users/me/transcript?format=csv", student, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "transcript-u1.csv")
	assert.Contains(t, rec.Body.String(), "total,,CGPA,6,,52,8.67")
}

func TestCGPAIsNullBeforeFirstCompletion(t *testing.T) {
	router := buildRecordRouter()
	call(t, router, http.MethodPost, "/users/me/record", "student:u2", "")

	rec, env := call(t, router, http.MethodGet, "/users/me", "student:u2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"cgpa":null`)
}

func TestAdvisorIsReadOnly(t *testing.T) {
	router := buildRecordRouter()
	call(t, router, http.MethodPost, "/users/me/record", "student:u3", "")
	call(t, router, http.MethodPost, "/users/me/subjects", "student:u3", `{"name":"Programming","code":"CS101","credits":4}`)

	rec, env := call(t, router, http.MethodGet, "/users/me/advisor-context", "advisor:u3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"CS101"`)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/users/me/subjects", `{"name":"X","code":"X1","credits":1}`},
		{http.MethodDelete, "/users/me/subjects/CS101", ""},
		{http.MethodPost, "/users/me/complete-semester", `{"CS101":"A"}`},
		{http.MethodPost, "/users/me/record", ""},
	} {
		rec, _ := call(t, router, tc.method, tc.path, "advisor:u3", tc.body)
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.path)
	}

	rec, env = call(t, router, http.MethodGet, "/users/me/subjects", "student:u3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"CS101"`)
}

func TestUnknownRoleIsForbidden(t *testing.T) {
	router := buildRecordRouter()
	call(t, router, http.MethodPost, "/users/me/record", "student:u6", "")

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/users/me"},
		{http.MethodGet, "/users/me/history"},
		{http.MethodPost, "/users/me/record"},
	} {
		rec, env := call(t, router, tc.method, tc.path, "registrar:u6", "")
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.path)
		require.NotNil(t, env.Error)
		assert.Equal(t, appErrors.ErrForbidden.Code, env.Error.Code)
	}

	rec, _ := call(t, router, http.MethodGet, "/users/me", "student:u6", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRemoveSubjectOverHTTP(t *testing.T) {
	router := buildRecordRouter()
	call(t, router, http.MethodPost, "/users/me/record", "student:u4", "")
	call(t, router, http.MethodPost, "/users/me/subjects", "student:u4", `{"name":"Programming","code":"CS101","credits":4}`)

	rec, _ := call(t, router, http.MethodDelete, "/users/me/subjects/cs101", "student:u4", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, env := call(t, router, http.MethodDelete, "/users/me/subjects/CS101", "student:u4", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)

	rec, env = call(t, router, http.MethodPost, "/users/me/complete-semester", "student:u4", `{}`)
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, appErrors.ErrEmptySemester.Code, env.Error.Code)
}

func TestMalformedBodies(t *testing.T) {
	router := buildRecordRouter()
	call(t, router, http.MethodPost, "/users/me/record", "student:u5", "")

	rec, env := call(t, router, http.MethodPost, "/users/me/subjects", "student:u5", `{"credits":"four"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)

	rec, _ = call(t, router, http.MethodPost, "/users/me/complete-semester", "student:u5", `["A"]`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, router, http.MethodGet, "/users/me", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
