package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/backend/internal/models"
	"jobboard/backend/internal/services"
	"jobboard/backend/internal/storage"
)

func TestJobService_CreateRejectsSalaryRange(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	in := jobInput("Backend Developer")
	in.SalaryTo = num(3000)

	_, err := e.jobs.Create(ctx, employer(), in)
	verr := requireFieldError(t, err, "salary_to")
	assert.Equal(t, []string{"The salary to must be greater than salary from."}, verr.Fields["salary_to"])

	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM job_listings`))
	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM employer_jobs`))
}

func TestJobService_CreateRequiredFields(t *testing.T) {
	e := newEnv(t, true)

	_, err := e.jobs.Create(context.Background(), employer(), services.JobInput{Title: str("   ")})
	verr := requireFieldError(t, err, "job_title")
	for _, f := range []string{"description", "deadline", "experience_level", "salary_from", "salary_to", "work_type", "location_id"} {
		assert.Contains(t, verr.Fields, f)
	}
	assert.Equal(t, []string{"The job title field is required."}, verr.Fields["job_title"])
}

func TestJobService_CreateUnknownLocation(t *testing.T) {
	e := newEnv(t, true)

	in := jobInput("Backend Developer")
	in.LocationID = num(99)
	_, err := e.jobs.Create(context.Background(), employer(), in)
	verr := requireFieldError(t, err, "location_id")
	assert.Equal(t, []string{"The selected location id is invalid."}, verr.Fields["location_id"])
}

func TestJobService_CreateWithAssociations(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	owner := employer()

	in := jobInput("Platform Engineer")
	// 1 и 2 есть в справочнике, 40 и 41 будут созданы
	in.Skills = []int64{1, 2, 40, 41}
	in.Benefits = []int64{1}
	in.Categories = []int64{2}

	job, err := e.jobs.Create(ctx, owner, in)
	require.NoError(t, err)

	assert.Equal(t, models.JobPending, job.Status)
	assert.Zero(t, job.NumberOfApplications)
	assert.Equal(t, "platform-engineer", job.Slug)
	assert.Equal(t, owner.ID, job.EmployerID)
	require.NotNil(t, job.Location)
	assert.Equal(t, "Berlin", job.Location.Name)

	require.Len(t, job.Skills, 4)
	ids := make([]int64, 0, len(job.Skills))
	for _, s := range job.Skills {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []int64{1, 2, 40, 41}, ids)
	assert.Len(t, job.Benefits, 1)
	assert.Len(t, job.Categories, 1)

	assert.Equal(t, 4, e.count(t, `SELECT COUNT(*) FROM job_skills WHERE job_listing_id = ?`, job.ID))
	assert.Equal(t, 2, e.count(t, `SELECT COUNT(*) FROM skills WHERE id IN (40, 41) AND name = ''`))

	ej, err := storage.NewJobRepository(e.db.Conn()).GetEmployerJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmployerJobPending, ej.Status)
	assert.Equal(t, owner.ID, ej.EmployerID)
}

func TestJobService_CreateUnknownCatalogWithoutAutoCreate(t *testing.T) {
	e := newEnv(t, false)

	in := jobInput("Platform Engineer")
	in.Skills = []int64{1, 77}
	_, err := e.jobs.Create(context.Background(), employer(), in)
	verr := requireFieldError(t, err, "skills")
	assert.Equal(t, []string{"One or more skills do not exist."}, verr.Fields["skills"])

	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM job_listings`))
	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM skills WHERE id = 77`))
}

func TestJobService_CreateDeniedForCandidate(t *testing.T) {
	e := newEnv(t, true)

	_, err := e.jobs.Create(context.Background(), candidate(), jobInput("Nope"))
	requireDenied(t, err)
	assert.EqualError(t, err, "You do not have permission to create job, only employers can create jobs")
}

func TestJobService_Update(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	owner := employer()

	in := jobInput("Data Engineer")
	in.Skills = []int64{1, 2, 3}
	in.Benefits = []int64{1, 2}
	job, err := e.jobs.Create(ctx, owner, in)
	require.NoError(t, err)

	// salary_to ниже сохраненного salary_from
	_, err = e.jobs.Update(ctx, owner, job.ID, services.JobInput{SalaryTo: num(2000)})
	requireFieldError(t, err, "salary_to")

	updated, err := e.jobs.Update(ctx, owner, job.ID, services.JobInput{
		Title:  str("Senior Data Engineer"),
		Skills: []int64{8},
	})
	require.NoError(t, err)
	assert.Equal(t, "senior-data-engineer", updated.Slug)
	require.Len(t, updated.Skills, 1)
	assert.Equal(t, "Rust", updated.Skills[0].Name)
	// льготы не переданы и не меняются
	assert.Len(t, updated.Benefits, 2)
	assert.EqualValues(t, 5000, updated.SalaryTo)

	_, err = e.jobs.Update(ctx, employer(), job.ID, services.JobInput{Title: str("Hijack")})
	requireDenied(t, err)

	_, err = e.jobs.Update(ctx, owner, 999, services.JobInput{})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestJobService_ListAndGet(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	owner := employer()

	_, err := e.jobs.List(ctx, candidate())
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.EqualError(t, err, "No open jobs found")

	jobs, err := e.jobs.List(ctx, admin())
	require.NoError(t, err)
	assert.Empty(t, jobs)

	pending, err := e.jobs.Create(ctx, owner, jobInput("Pending role"))
	require.NoError(t, err)
	open := e.openJob(t, owner, jobInput("Open role"))

	jobs, err = e.jobs.List(ctx, candidate())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, open.ID, jobs[0].ID)

	jobs, err = e.jobs.List(ctx, admin())
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	_, err = e.jobs.Get(ctx, candidate(), pending.ID)
	requireDenied(t, err)

	got, err := e.jobs.Get(ctx, owner, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, got.ID)

	_, err = e.jobs.Get(ctx, candidate(), open.ID)
	require.NoError(t, err)

	_, err = e.jobs.Get(ctx, candidate(), 999)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestJobService_AcceptReject(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	job, err := e.jobs.Create(ctx, employer(), jobInput("Moderated"))
	require.NoError(t, err)

	_, err = e.jobs.AcceptReject(ctx, employer(), job.ID, services.AcceptRejectInput{Status: "accepted"})
	requireDenied(t, err)
	assert.EqualError(t, err, "You do not have permission to accept or reject this job")

	_, err = e.jobs.AcceptReject(ctx, admin(), job.ID, services.AcceptRejectInput{Status: "maybe"})
	requireFieldError(t, err, "status")

	got, err := e.jobs.AcceptReject(ctx, admin(), job.ID, services.AcceptRejectInput{Status: "accepted"})
	require.NoError(t, err)
	assert.Equal(t, models.JobOpen, got.Status)

	got, err = e.jobs.AcceptReject(ctx, admin(), job.ID, services.AcceptRejectInput{Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, models.JobClosed, got.Status)

	ej, err := storage.NewJobRepository(e.db.Conn()).GetEmployerJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmployerJobRejected, ej.Status)
}

func TestJobService_DeleteCascades(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	owner := employer()

	in := jobInput("Short lived")
	in.Skills = []int64{1, 2}
	job := e.openJob(t, owner, in)

	_, err := e.applications.Create(ctx, candidate(), services.ApplicationInput{
		Type:  "cv",
		JobID: job.ID,
		CV:    cvUpload("resume.pdf", pdfContent),
	})
	require.NoError(t, err)
	require.Len(t, cvFiles(t, e.dir), 1)

	_, err = e.comments.Create(ctx, candidate(), job.ID, services.CommentInput{Body: "Is relocation covered?"})
	require.NoError(t, err)

	err = e.jobs.Delete(ctx, employer(), job.ID)
	requireDenied(t, err)

	require.NoError(t, e.jobs.Delete(ctx, owner, job.ID))

	for _, table := range []string{"job_listings", "employer_jobs", "job_skills", "comments", "applications", "cv_applications"} {
		assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM `+table), table)
	}
	assert.Empty(t, cvFiles(t, e.dir))

	err = e.jobs.Delete(ctx, owner, job.ID)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}
