package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobboard/backend/internal/api/handlers"
	"jobboard/backend/internal/api/middleware"
	"jobboard/backend/internal/models"
	"jobboard/backend/internal/services"
	"jobboard/backend/internal/storage"
	"jobboard/backend/internal/testutil"
)

type server struct {
	t      *testing.T
	db     *storage.Database
	auth   *middleware.Auth
	router http.Handler
}

func newServer(t *testing.T, redis *storage.RedisClient, rateLimit int) *server {
	t.Helper()

	db := testutil.NewDB(t)
	testutil.SeedDefaults(t, db)

	logger := zap.NewNop()
	files, err := storage.NewDiskStore(t.TempDir(), logger)
	require.NoError(t, err)

	catalogs := services.NewCatalogService(db, redis, time.Minute, logger)
	auth := middleware.NewAuth("test-secret", logger)

	router := handlers.NewRouter(handlers.RouterDeps{
		DB:           db,
		Redis:        redis,
		Auth:         auth,
		Jobs:         services.NewJobService(db, files, catalogs, services.JobServiceConfig{CatalogAutoCreate: true}, logger),
		Applications: services.NewApplicationService(db, files, logger),
		Search:       services.NewSearchService(db, logger),
		Catalogs:     catalogs,
		Comments:     services.NewCommentService(db, logger),
		RateLimit:    rateLimit,
		Logger:       logger,
	})

	return &server{t: t, db: db, auth: auth, router: router}
}

func newUser(role models.Role) models.User {
	return models.User{ID: uuid.New(), Role: role}
}

func (s *server) do(user *models.User, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	s.t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if user != nil {
		token, err := s.auth.GenerateToken(*user, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *server) json(user *models.User, method, path string, payload interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(b)
	}
	return s.do(user, method, path, body, "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func jobPayload(title string) map[string]interface{} {
	return map[string]interface{}{
		"job_title":        title,
		"description":      "Keep the lights on",
		"deadline":         "2030-03-01",
		"experience_level": "expert",
		"salary_from":      4000,
		"salary_to":        6000,
		"work_type":        "remote",
		"location_id":      1,
		"skills":           []int64{1, 50},
		"benefits":         []int64{1},
		"categories":       []int64{1},
	}
}

type jobBody struct {
	ID                   int64  `json:"id"`
	Status               string `json:"status"`
	Slug                 string `json:"slug"`
	Deadline             string `json:"deadline"`
	NumberOfApplications int64  `json:"number_of_applications"`
	Skills               []struct {
		ID int64 `json:"id"`
	} `json:"skills"`
}

func (s *server) createJob(user models.User, title string) jobBody {
	s.t.Helper()

	rec := s.json(&user, http.MethodPost, "/api/jobs", jobPayload(title))
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Message string  `json:"message"`
		Job     jobBody `json:"job"`
	}
	decode(s.t, rec, &resp)
	assert.Equal(s.t, "Job listing created successfully", resp.Message)
	return resp.Job
}

func (s *server) openJob(user models.User, title string) jobBody {
	s.t.Helper()
	job := s.createJob(user, title)

	adm := newUser(models.RoleAdmin)
	rec := s.json(&adm, http.MethodPatch, "/api/jobs/"+strconv.FormatInt(job.ID, 10)+"/accept-reject",
		map[string]string{"status": "accepted"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return job
}

func (s *server) jobCounter(id int64) int64 {
	s.t.Helper()
	adm := newUser(models.RoleAdmin)
	rec := s.json(&adm, http.MethodGet, "/api/jobs/"+strconv.FormatInt(id, 10), nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var job jobBody
	decode(s.t, rec, &job)
	return job.NumberOfApplications
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t, nil, 0)

	rec := s.json(nil, http.MethodGet, "/api/jobs", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := middleware.NewAuth("another-secret", zap.NewNop())
	token, err := other.GenerateToken(newUser(models.RoleAdmin), time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newServer(t, nil, 0)

	rec := s.do(nil, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Services["database"])
	assert.Equal(t, "not_configured", resp.Services["redis"])
}

func TestJobEndpoints(t *testing.T) {
	s := newServer(t, nil, 0)
	employer := newUser(models.RoleEmployer)
	candidate := newUser(models.RoleCandidate)

	job := s.createJob(employer, "Staff Engineer")
	assert.Equal(t, "pending", job.Status)
	assert.Equal(t, "staff-engineer", job.Slug)
	assert.Equal(t, "2030-03-01", job.Deadline)
	assert.Zero(t, job.NumberOfApplications)
	assert.Len(t, job.Skills, 2)

	path := "/api/jobs/" + strconv.FormatInt(job.ID, 10)

	rec := s.json(&candidate, http.MethodPost, "/api/jobs", jobPayload("Nope"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var denied map[string]string
	decode(t, rec, &denied)
	assert.Equal(t, "You do not have permission to create job, only employers can create jobs", denied["error"])

	bad := jobPayload("Bad salary")
	bad["salary_to"] = 100
	rec = s.json(&employer, http.MethodPost, "/api/jobs", bad)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var verr struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	decode(t, rec, &verr)
	assert.Equal(t, "Validation failed", verr.Message)
	assert.Contains(t, verr.Errors, "salary_to")

	rec = s.json(&candidate, http.MethodGet, "/api/jobs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var msg map[string]string
	decode(t, rec, &msg)
	assert.Equal(t, "No open jobs found", msg["message"])

	rec = s.json(&candidate, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.json(&candidate, http.MethodGet, "/api/jobs/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.json(&candidate, http.MethodGet, "/api/jobs/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.json(&employer, http.MethodPut, path, map[string]interface{}{"job_title": "Principal Engineer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated struct {
		Message string  `json:"message"`
		Job     jobBody `json:"job"`
	}
	decode(t, rec, &updated)
	assert.Equal(t, "Job listing updated successfully", updated.Message)
	assert.Equal(t, "principal-engineer", updated.Job.Slug)

	admin := newUser(models.RoleAdmin)
	rec = s.json(&admin, http.MethodPatch, path+"/accept-reject", map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, rec.Code)
	var moderated struct {
		Message string  `json:"message"`
		Data    jobBody `json:"data"`
	}
	decode(t, rec, &moderated)
	assert.Equal(t, "Job accepted successfully.", moderated.Message)
	assert.Equal(t, "open", moderated.Data.Status)

	rec = s.json(&candidate, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []jobBody
	decode(t, rec, &list)
	assert.Len(t, list, 1)

	rec = s.json(&candidate, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.json(&employer, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &msg)
	assert.Equal(t, "Job listing deleted successfully", msg["message"])
}

func TestComments(t *testing.T) {
	s := newServer(t, nil, 0)
	employer := newUser(models.RoleEmployer)
	candidate := newUser(models.RoleCandidate)
	job := s.openJob(employer, "Commented role")
	path := "/api/jobs/" + strconv.FormatInt(job.ID, 10) + "/comments"

	rec := s.json(&candidate, http.MethodPost, path, map[string]string{"body": "Is it remote-first?"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.json(&candidate, http.MethodPost, path, map[string]string{"body": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.json(&employer, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var comments []models.Comment
	decode(t, rec, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, candidate.ID, comments[0].UserID)
}

func multipartCV(t *testing.T, jobID int64, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("type", "cv"))
	require.NoError(t, mw.WriteField("job_id", strconv.FormatInt(jobID, 10)))
	fw, err := mw.CreateFormFile("cv", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestApplicationEndpoints(t *testing.T) {
	s := newServer(t, nil, 0)
	employer := newUser(models.RoleEmployer)
	candidate := newUser(models.RoleCandidate)
	admin := newUser(models.RoleAdmin)
	job := s.openJob(employer, "Go Engineer")

	body, ct := multipartCV(t, job.ID, "cv.pdf", []byte("%PDF-1.4\n%%EOF\n"))
	rec := s.do(&candidate, http.MethodPost, "/api/applications", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var submitted struct {
		Message string `json:"message"`
		ID      int64  `json:"id"`
	}
	decode(t, rec, &submitted)
	assert.Equal(t, "application was submitted successfully", submitted.Message)
	assert.EqualValues(t, 1, s.jobCounter(job.ID))

	body, ct = multipartCV(t, job.ID, "cv.pdf", []byte("plain text"))
	rec = s.do(&candidate, http.MethodPost, "/api/applications", body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	appPath := "/api/applications/" + strconv.FormatInt(submitted.ID, 10)

	rec = s.json(&candidate, http.MethodGet, appPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var app map[string]interface{}
	decode(t, rec, &app)
	assert.Equal(t, "cv", app["type"])

	stranger := newUser(models.RoleCandidate)
	rec = s.json(&stranger, http.MethodGet, appPath, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.json(&stranger, http.MethodDelete, appPath, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.json(&candidate, http.MethodGet, "/api/applications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []map[string]interface{}
	decode(t, rec, &mine)
	require.Len(t, mine, 1)

	rec = s.json(&employer, http.MethodGet, "/api/applications", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.json(&candidate, http.MethodDelete, appPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msg map[string]string
	decode(t, rec, &msg)
	assert.Equal(t, "application deleted successfully", msg["message"])
	assert.Zero(t, s.jobCounter(job.ID))

	rec = s.json(&admin, http.MethodGet, appPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEndToEnd_FormApplication(t *testing.T) {
	s := newServer(t, nil, 0)
	employer := newUser(models.RoleEmployer)
	candidate := newUser(models.RoleCandidate)
	admin := newUser(models.RoleAdmin)

	job := s.createJob(employer, "Release Manager")
	assert.Zero(t, job.NumberOfApplications)

	rec := s.json(&candidate, http.MethodPost, "/api/applications", map[string]interface{}{
		"type":         "form",
		"job_id":       job.ID,
		"name":         "Ann Lee",
		"email":        "ann@example.com",
		"phone_number": "+4915100000",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var submitted struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &submitted)
	assert.EqualValues(t, 1, s.jobCounter(job.ID))

	rec = s.json(&admin, http.MethodDelete, "/api/applications/"+strconv.FormatInt(submitted.ID, 10), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, s.jobCounter(job.ID))

	var rows int
	require.NoError(t, s.db.Conn().GetContext(context.Background(), &rows,
		s.db.Conn().Rebind(`SELECT COUNT(*) FROM form_applications WHERE application_id = ?`), submitted.ID))
	assert.Zero(t, rows)
}

func TestSearchAndCatalogEndpoints(t *testing.T) {
	s := newServer(t, nil, 0)
	employer := newUser(models.RoleEmployer)
	candidate := newUser(models.RoleCandidate)
	s.openJob(employer, "Remote SRE")
	s.createJob(employer, "Unpublished")

	rec := s.json(&candidate, http.MethodGet, "/api/search", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []jobBody
	decode(t, rec, &jobs)
	require.Len(t, jobs, 1)
	assert.Equal(t, "open", jobs[0].Status)

	rec = s.json(&candidate, http.MethodGet, "/api/search?work_type=onsite", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &jobs)
	assert.Empty(t, jobs)

	rec = s.json(&candidate, http.MethodGet, "/api/search?work_type=office", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.json(&candidate, http.MethodGet, "/api/autocomplete?searchtype=skills&query=p", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.CatalogItem
	decode(t, rec, &items)
	assert.Len(t, items, 5)

	rec = s.json(&candidate, http.MethodGet, "/api/autocomplete?searchtype=locations&query=all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &items)
	assert.Len(t, items, 2)

	rec = s.json(&candidate, http.MethodGet, "/api/autocomplete?searchtype=skills", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	for path, n := range map[string]int{"/api/locations": 2, "/api/skills": 9, "/api/benefits": 2, "/api/categories": 2} {
		rec = s.json(&candidate, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		decode(t, rec, &items)
		assert.Len(t, items, n, path)
	}
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	redis, err := storage.NewRedisClient(mr.Addr(), "", 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { redis.Close() })

	s := newServer(t, redis, 2)
	candidate := newUser(models.RoleCandidate)

	for i := 0; i < 2; i++ {
		rec := s.json(&candidate, http.MethodGet, "/api/skills", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := s.json(&candidate, http.MethodGet, "/api/skills", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	other := newUser(models.RoleCandidate)
	rec = s.json(&other, http.MethodGet, "/api/skills", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
