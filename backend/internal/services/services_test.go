package services_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobboard/backend/internal/models"
	"jobboard/backend/internal/policy"
	"jobboard/backend/internal/services"
	"jobboard/backend/internal/storage"
	"jobboard/backend/internal/testutil"
)

var pdfContent = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type env struct {
	db           *storage.Database
	files        *storage.DiskStore
	dir          string
	jobs         *services.JobService
	applications *services.ApplicationService
	catalogs     *services.CatalogService
	search       *services.SearchService
	comments     *services.CommentService
}

func newEnv(t *testing.T, autoCreate bool) *env {
	t.Helper()

	db := testutil.NewDB(t)
	testutil.SeedDefaults(t, db)

	dir := t.TempDir()
	files, err := storage.NewDiskStore(dir, zap.NewNop())
	require.NoError(t, err)

	logger := zap.NewNop()
	catalogs := services.NewCatalogService(db, nil, 0, logger)
	return &env{
		db:           db,
		files:        files,
		dir:          dir,
		catalogs:     catalogs,
		jobs:         services.NewJobService(db, files, catalogs, services.JobServiceConfig{CatalogAutoCreate: autoCreate}, logger),
		applications: services.NewApplicationService(db, files, logger),
		search:       services.NewSearchService(db, logger),
		comments:     services.NewCommentService(db, logger),
	}
}

func admin() models.User     { return models.User{ID: uuid.New(), Role: models.RoleAdmin} }
func employer() models.User  { return models.User{ID: uuid.New(), Role: models.RoleEmployer} }
func candidate() models.User { return models.User{ID: uuid.New(), Role: models.RoleCandidate} }

func str(s string) *string { return &s }
func num(n int64) *int64   { return &n }

func jobInput(title string) services.JobInput {
	return services.JobInput{
		Title:           str(title),
		Description:     str("Build and run services"),
		Deadline:        str("2030-06-01"),
		ExperienceLevel: str("intermediate"),
		SalaryFrom:      num(3000),
		SalaryTo:        num(5000),
		WorkType:        str("remote"),
		LocationID:      num(1),
	}
}

// openJob вакансия, одобренная админом
func (e *env) openJob(t *testing.T, owner models.User, in services.JobInput) *models.Job {
	t.Helper()
	ctx := context.Background()

	job, err := e.jobs.Create(ctx, owner, in)
	require.NoError(t, err)
	job, err = e.jobs.AcceptReject(ctx, admin(), job.ID, services.AcceptRejectInput{Status: "accepted"})
	require.NoError(t, err)
	return job
}

func (e *env) counter(t *testing.T, jobID int64) int64 {
	t.Helper()
	job, err := storage.NewJobRepository(e.db.Conn()).Get(context.Background(), jobID)
	require.NoError(t, err)
	return job.NumberOfApplications
}

func (e *env) count(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.Conn().GetContext(context.Background(), &n, e.db.Conn().Rebind(query), args...))
	return n
}

func cvUpload(name string, content []byte) *services.Upload {
	return &services.Upload{
		Filename: name,
		Size:     int64(len(content)),
		Content:  bytes.NewReader(content),
	}
}

func requireFieldError(t *testing.T, err error, field string) *services.ValidationError {
	t.Helper()
	var verr *services.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	require.Contains(t, verr.Fields, field)
	return verr
}

func requireDenied(t *testing.T, err error) {
	t.Helper()
	var denied *policy.DeniedError
	require.True(t, errors.As(err, &denied), "expected denied error, got %v", err)
}

func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	require.NoError(t, err)
	return true
}

func cvFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "cvs", "*"))
	require.NoError(t, err)
	return matches
}
