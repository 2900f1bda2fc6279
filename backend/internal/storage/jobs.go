package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"

	"jobboard/backend/internal/models"
)

const jobColumns = `id, job_title, description, experience_level, salary_from, salary_to, work_type,
	status, deadline, location_id, employer_id, number_of_applications, slug, created_at, updated_at`

// JobRepository доступ к вакансиям и строкам владения
type JobRepository struct {
	q Querier
}

func NewJobRepository(q Querier) *JobRepository {
	return &JobRepository{q: q}
}

// Create вставляет вакансию и проставляет ей id
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	query, args, err := r.q.BindNamed(`
		INSERT INTO job_listings (
			job_title, description, experience_level, salary_from, salary_to, work_type,
			status, deadline, location_id, employer_id, number_of_applications, slug,
			created_at, updated_at
		) VALUES (
			:job_title, :description, :experience_level, :salary_from, :salary_to, :work_type,
			:status, :deadline, :location_id, :employer_id, :number_of_applications, :slug,
			:created_at, :updated_at
		) RETURNING id`, job)
	if err != nil {
		return err
	}

	if err := r.q.QueryRowxContext(ctx, query, args...).Scan(&job.ID); err != nil {
		return fmt.Errorf("insert job: %w", conflict(err))
	}
	return nil
}

// Get вакансия по id без связей
func (r *JobRepository) Get(ctx context.Context, id int64) (*models.Job, error) {
	var job models.Job
	query := r.q.Rebind(`SELECT ` + jobColumns + ` FROM job_listings WHERE id = ?`)
	if err := r.q.GetContext(ctx, &job, query, id); err != nil {
		return nil, notFound(err)
	}
	return &job, nil
}

// List вакансии с заданным статусом, пустой статус - все
func (r *JobRepository) List(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	jobs := []*models.Job{}
	query := `SELECT ` + jobColumns + ` FROM job_listings`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id`

	if err := r.q.SelectContext(ctx, &jobs, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Update сохраняет изменяемые поля вакансии
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	query, args, err := r.q.BindNamed(`
		UPDATE job_listings SET
			job_title = :job_title,
			description = :description,
			experience_level = :experience_level,
			salary_from = :salary_from,
			salary_to = :salary_to,
			work_type = :work_type,
			deadline = :deadline,
			location_id = :location_id,
			slug = :slug,
			updated_at = :updated_at
		WHERE id = :id`, job)
	if err != nil {
		return err
	}

	return r.execOne(ctx, "update job", query, args...)
}

// Delete удаляет строку вакансии
func (r *JobRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, "delete job", r.q.Rebind(`DELETE FROM job_listings WHERE id = ?`), id)
}

// SetStatus меняет статус вакансии
func (r *JobRepository) SetStatus(ctx context.Context, id int64, status models.JobStatus) error {
	query := r.q.Rebind(`UPDATE job_listings SET status = ?, updated_at = ? WHERE id = ?`)
	return r.execOne(ctx, "set job status", query, status, time.Now().UTC(), id)
}

// IncrementApplications атомарно увеличивает счетчик откликов
func (r *JobRepository) IncrementApplications(ctx context.Context, id int64) error {
	query := r.q.Rebind(`UPDATE job_listings SET number_of_applications = number_of_applications + 1 WHERE id = ?`)
	return r.execOne(ctx, "increment applications", query, id)
}

// DecrementApplications атомарно уменьшает счетчик, не опускаясь ниже нуля
func (r *JobRepository) DecrementApplications(ctx context.Context, id int64) error {
	query := r.q.Rebind(`UPDATE job_listings SET number_of_applications =
		CASE WHEN number_of_applications > 0 THEN number_of_applications - 1 ELSE 0 END
		WHERE id = ?`)
	return r.execOne(ctx, "decrement applications", query, id)
}

// CloseExpired закрывает открытые вакансии с дедлайном раньше before
func (r *JobRepository) CloseExpired(ctx context.Context, before time.Time) (int64, error) {
	query := r.q.Rebind(`UPDATE job_listings SET status = ?, updated_at = ? WHERE status = ? AND deadline < ?`)
	res, err := r.q.ExecContext(ctx, query, models.JobClosed, time.Now().UTC(), models.JobOpen, before)
	if err != nil {
		return 0, fmt.Errorf("close expired jobs: %w", err)
	}
	return res.RowsAffected()
}

// UniqueSlug slug из заголовка; при коллизии добавляется -1, -2, ...
func (r *JobRepository) UniqueSlug(ctx context.Context, title string, excludeID int64) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "job"
	}

	candidate := base
	for i := 1; ; i++ {
		var count int
		query := r.q.Rebind(`SELECT COUNT(*) FROM job_listings WHERE slug = ? AND id <> ?`)
		if err := r.q.GetContext(ctx, &count, query, candidate, excludeID); err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// CreateEmployerJob записывает владение вакансией
func (r *JobRepository) CreateEmployerJob(ctx context.Context, ej models.EmployerJob) error {
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO employer_jobs (employer_id, job_listing_id, status, created_at, updated_at)
		VALUES (:employer_id, :job_listing_id, :status, :created_at, :updated_at)`, ej)
	if err != nil {
		return fmt.Errorf("insert employer job: %w", err)
	}
	return nil
}

// GetEmployerJob строка владения вакансией
func (r *JobRepository) GetEmployerJob(ctx context.Context, jobID int64) (*models.EmployerJob, error) {
	var ej models.EmployerJob
	query := r.q.Rebind(`SELECT employer_id, job_listing_id, status, created_at, updated_at
		FROM employer_jobs WHERE job_listing_id = ?`)
	if err := r.q.GetContext(ctx, &ej, query, jobID); err != nil {
		return nil, notFound(err)
	}
	return &ej, nil
}

// SetEmployerJobStatus меняет статус модерации
func (r *JobRepository) SetEmployerJobStatus(ctx context.Context, jobID int64, status models.EmployerJobStatus) error {
	query := r.q.Rebind(`UPDATE employer_jobs SET status = ?, updated_at = ? WHERE job_listing_id = ?`)
	if _, err := r.q.ExecContext(ctx, query, status, time.Now().UTC(), jobID); err != nil {
		return fmt.Errorf("set employer job status: %w", err)
	}
	return nil
}

// DeleteEmployerJobs удаляет строки владения вакансией
func (r *JobRepository) DeleteEmployerJobs(ctx context.Context, jobID int64) error {
	query := r.q.Rebind(`DELETE FROM employer_jobs WHERE job_listing_id = ?`)
	if _, err := r.q.ExecContext(ctx, query, jobID); err != nil {
		return fmt.Errorf("delete employer jobs: %w", err)
	}
	return nil
}

// LoadAssociations заполняет локацию, навыки, льготы и категории
func (r *JobRepository) LoadAssociations(ctx context.Context, jobs ...*models.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(jobs))
	locationIDs := make([]int64, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
		locationIDs = append(locationIDs, job.LocationID)
	}

	catalogs := NewCatalogRepository(r.q)

	locations, err := catalogs.ByIDs(ctx, CatalogLocations, uniqueIDs(locationIDs))
	if err != nil {
		return err
	}
	skills, err := catalogs.ForJobs(ctx, CatalogSkills, ids)
	if err != nil {
		return err
	}
	benefits, err := catalogs.ForJobs(ctx, CatalogBenefits, ids)
	if err != nil {
		return err
	}
	categories, err := catalogs.ForJobs(ctx, CatalogCategories, ids)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if loc, ok := locations[job.LocationID]; ok {
			loc := loc
			job.Location = &loc
		}
		job.Skills = nonNil(skills[job.ID])
		job.Benefits = nonNil(benefits[job.ID])
		job.Categories = nonNil(categories[job.ID])
	}
	return nil
}

func (r *JobRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, conflict(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nonNil(items []models.CatalogItem) []models.CatalogItem {
	if items == nil {
		return []models.CatalogItem{}
	}
	return items
}
