package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobboard/backend/internal/models"
	"jobboard/backend/internal/policy"
	"jobboard/backend/internal/storage"
)

// JobInput поля вакансии из запроса. При обновлении все поля необязательны;
// nil-массив означает "не передан", пустой - "очистить связи".
type JobInput struct {
	Title           *string `json:"job_title" validate:"omitnil,notblank,max=255"`
	Description     *string `json:"description" validate:"omitnil,notblank"`
	Deadline        *string `json:"deadline" validate:"omitnil,datetime=2006-01-02"`
	ExperienceLevel *string `json:"experience_level" validate:"omitnil,oneof=entry_level intermediate expert"`
	SalaryFrom      *int64  `json:"salary_from" validate:"omitnil,min=0"`
	SalaryTo        *int64  `json:"salary_to" validate:"omitnil,min=0"`
	WorkType        *string `json:"work_type" validate:"omitnil,oneof=remote onsite hybrid"`
	LocationID      *int64  `json:"location_id" validate:"omitnil,gt=0"`
	Skills          []int64 `json:"skills" validate:"omitempty,dive,gt=0"`
	Benefits        []int64 `json:"benefits" validate:"omitempty,dive,gt=0"`
	Categories      []int64 `json:"categories" validate:"omitempty,dive,gt=0"`
}

// associations переданные наборы связей по справочникам
func (in JobInput) associations() map[storage.Catalog][]int64 {
	out := make(map[storage.Catalog][]int64, 3)
	if in.Skills != nil {
		out[storage.CatalogSkills] = in.Skills
	}
	if in.Benefits != nil {
		out[storage.CatalogBenefits] = in.Benefits
	}
	if in.Categories != nil {
		out[storage.CatalogCategories] = in.Categories
	}
	return out
}

var associationFields = map[storage.Catalog]string{
	storage.CatalogSkills:     "skills",
	storage.CatalogBenefits:   "benefits",
	storage.CatalogCategories: "categories",
}

const slugAttempts = 3

// JobServiceConfig настройки JobService
type JobServiceConfig struct {
	// CatalogAutoCreate создавать отсутствующие элементы справочников вместо 422
	CatalogAutoCreate bool
}

// JobService операции над вакансиями
type JobService struct {
	db       *storage.Database
	files    storage.CVStore
	catalogs *CatalogService
	cfg      JobServiceConfig
	logger   *zap.Logger
}

func NewJobService(db *storage.Database, files storage.CVStore, catalogs *CatalogService, cfg JobServiceConfig, logger *zap.Logger) *JobService {
	return &JobService{
		db:       db,
		files:    files,
		catalogs: catalogs,
		cfg:      cfg,
		logger:   logger,
	}
}

// List админ видит все вакансии, остальные только открытые
func (s *JobService) List(ctx context.Context, user models.User) ([]*models.Job, error) {
	var status models.JobStatus
	if !user.IsAdmin() {
		status = models.JobOpen
	}

	repo := storage.NewJobRepository(s.db.Conn())
	jobs, err := repo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 && !user.IsAdmin() {
		return nil, &NotFoundError{Message: "No open jobs found"}
	}

	if err := repo.LoadAssociations(ctx, jobs...); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Get вакансия со связями
func (s *JobService) Get(ctx context.Context, user models.User, id int64) (*models.Job, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(user, policy.JobView, job); err != nil {
		return nil, err
	}

	if err := storage.NewJobRepository(s.db.Conn()).LoadAssociations(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Create создает вакансию, строку владения и связи в одной транзакции
func (s *JobService) Create(ctx context.Context, user models.User, in JobInput) (*models.Job, error) {
	if err := policy.Authorize(user, policy.JobCreate, nil); err != nil {
		return nil, err
	}

	verr := validateStruct(in)
	requireField(verr, in.Title != nil, "job_title")
	requireField(verr, in.Description != nil, "description")
	requireField(verr, in.Deadline != nil, "deadline")
	requireField(verr, in.ExperienceLevel != nil, "experience_level")
	requireField(verr, in.SalaryFrom != nil, "salary_from")
	requireField(verr, in.SalaryTo != nil, "salary_to")
	requireField(verr, in.WorkType != nil, "work_type")
	requireField(verr, in.LocationID != nil, "location_id")
	if in.SalaryFrom != nil && in.SalaryTo != nil {
		checkSalary(verr, *in.SalaryFrom, *in.SalaryTo)
	}
	if err := s.checkReferences(ctx, verr, in); err != nil {
		return nil, err
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &models.Job{
		Status:     models.JobPending,
		EmployerID: user.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyJobInput(job, in)

	var created bool
	err := s.withSlugRetry(ctx, func(tx storage.Querier) error {
		jobs := storage.NewJobRepository(tx)

		slug, err := jobs.UniqueSlug(ctx, job.Title, 0)
		if err != nil {
			return err
		}
		job.Slug = slug

		if err := jobs.Create(ctx, job); err != nil {
			return err
		}

		err = jobs.CreateEmployerJob(ctx, models.EmployerJob{
			EmployerID:   user.ID,
			JobListingID: job.ID,
			Status:       models.EmployerJobPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}

		created, err = s.syncAssociations(ctx, tx, job.ID, in.associations())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if created {
		s.catalogs.Invalidate(ctx)
	}

	s.logger.Info("Job created",
		zap.Int64("job_id", job.ID),
		zap.String("employer_id", user.ID.String()),
		zap.String("slug", job.Slug))

	if err := storage.NewJobRepository(s.db.Conn()).LoadAssociations(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Update обновляет переданные поля и связи в одной транзакции
func (s *JobService) Update(ctx context.Context, user models.User, id int64, in JobInput) (*models.Job, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(user, policy.JobUpdate, job); err != nil {
		return nil, err
	}

	verr := validateStruct(in)
	if _, bad := verr.Fields["salary_from"]; !bad {
		if _, bad := verr.Fields["salary_to"]; !bad {
			from, to := job.SalaryFrom, job.SalaryTo
			if in.SalaryFrom != nil {
				from = *in.SalaryFrom
			}
			if in.SalaryTo != nil {
				to = *in.SalaryTo
			}
			checkSalary(verr, from, to)
		}
	}
	if err := s.checkReferences(ctx, verr, in); err != nil {
		return nil, err
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	oldTitle := job.Title
	applyJobInput(job, in)
	job.UpdatedAt = time.Now().UTC()

	var created bool
	err = s.withSlugRetry(ctx, func(tx storage.Querier) error {
		jobs := storage.NewJobRepository(tx)

		if job.Title != oldTitle {
			slug, err := jobs.UniqueSlug(ctx, job.Title, job.ID)
			if err != nil {
				return err
			}
			job.Slug = slug
		}

		if err := jobs.Update(ctx, job); err != nil {
			return err
		}

		var err error
		created, err = s.syncAssociations(ctx, tx, job.ID, in.associations())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update job %d: %w", id, err)
	}

	if created {
		s.catalogs.Invalidate(ctx)
	}

	if err := storage.NewJobRepository(s.db.Conn()).LoadAssociations(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Delete удаляет вакансию вместе со связями, комментариями, владением и откликами
func (s *JobService) Delete(ctx context.Context, user models.User, id int64) error {
	job, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(user, policy.JobDelete, job); err != nil {
		return err
	}

	var cvPaths []string
	err = s.db.WithTx(ctx, func(tx storage.Querier) error {
		catalogs := storage.NewCatalogRepository(tx)
		for _, c := range []storage.Catalog{storage.CatalogSkills, storage.CatalogBenefits, storage.CatalogCategories} {
			if err := catalogs.DetachJob(ctx, c, id); err != nil {
				return err
			}
		}

		if err := storage.NewCommentRepository(tx).DeleteForJob(ctx, id); err != nil {
			return err
		}

		apps := storage.NewApplicationRepository(tx)
		paths, err := apps.CVPathsForJob(ctx, id)
		if err != nil {
			return err
		}
		cvPaths = paths
		if err := apps.DeleteForJob(ctx, id); err != nil {
			return err
		}

		jobs := storage.NewJobRepository(tx)
		if err := jobs.DeleteEmployerJobs(ctx, id); err != nil {
			return err
		}
		return jobs.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete job %d: %w", id, err)
	}

	// строки уже удалены, оставшийся файл не влияет на целостность
	for _, path := range cvPaths {
		if err := s.files.Delete(ctx, path); err != nil {
			s.logger.Warn("Failed to remove CV of deleted job",
				zap.Int64("job_id", id),
				zap.String("path", path),
				zap.Error(err))
		}
	}

	s.logger.Info("Job deleted", zap.Int64("job_id", id))
	return nil
}

// AcceptRejectInput решение модерации
type AcceptRejectInput struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

// AcceptReject публикует (open) или закрывает (closed) вакансию
func (s *JobService) AcceptReject(ctx context.Context, user models.User, id int64, in AcceptRejectInput) (*models.Job, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(user, policy.JobAcceptReject, job); err != nil {
		return nil, err
	}
	if err := validateStruct(in).Err(); err != nil {
		return nil, err
	}

	jobStatus, ejStatus := models.JobClosed, models.EmployerJobRejected
	if in.Status == string(models.EmployerJobAccepted) {
		jobStatus, ejStatus = models.JobOpen, models.EmployerJobAccepted
	}

	err = s.db.WithTx(ctx, func(tx storage.Querier) error {
		jobs := storage.NewJobRepository(tx)
		if err := jobs.SetStatus(ctx, id, jobStatus); err != nil {
			return err
		}
		return jobs.SetEmployerJobStatus(ctx, id, ejStatus)
	})
	if err != nil {
		return nil, fmt.Errorf("update job %d status: %w", id, err)
	}

	s.logger.Info("Job moderated",
		zap.Int64("job_id", id),
		zap.String("status", string(jobStatus)))

	return s.Get(ctx, user, id)
}

// withSlugRetry повторяет транзакцию, если параллельный запрос занял тот же slug
func (s *JobService) withSlugRetry(ctx context.Context, fn func(tx storage.Querier) error) error {
	var err error
	for attempt := 1; attempt <= slugAttempts; attempt++ {
		err = s.db.WithTx(ctx, fn)
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}
		s.logger.Warn("Job slug conflict, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}
	return err
}

func (s *JobService) load(ctx context.Context, id int64) (*models.Job, error) {
	job, err := storage.NewJobRepository(s.db.Conn()).Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Job not found")
	}
	return job, nil
}

// checkReferences локация должна существовать; справочники - если автосоздание выключено
func (s *JobService) checkReferences(ctx context.Context, verr *ValidationError, in JobInput) error {
	catalogs := storage.NewCatalogRepository(s.db.Conn())

	if in.LocationID != nil {
		if _, bad := verr.Fields["location_id"]; !bad {
			ok, err := catalogs.Exists(ctx, storage.CatalogLocations, *in.LocationID)
			if err != nil {
				return err
			}
			if !ok {
				verr.Add("location_id", "The selected location id is invalid.")
			}
		}
	}

	if s.cfg.CatalogAutoCreate {
		return nil
	}
	for c, ids := range in.associations() {
		missing, err := catalogs.MissingIDs(ctx, c, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			verr.Add(associationFields[c], fmt.Sprintf("One or more %s do not exist.", associationFields[c]))
		}
	}
	return nil
}

// syncAssociations приводит наборы связей к переданным id; true, если создавались элементы справочников
func (s *JobService) syncAssociations(ctx context.Context, tx storage.Querier, jobID int64, sets map[storage.Catalog][]int64) (bool, error) {
	catalogs := storage.NewCatalogRepository(tx)
	var created bool

	for c, ids := range sets {
		if s.cfg.CatalogAutoCreate {
			newIDs, err := catalogs.Ensure(ctx, c, ids)
			if err != nil {
				return false, err
			}
			if len(newIDs) > 0 {
				created = true
				s.logger.Info("Catalog entries created",
					zap.String("catalog", string(c)),
					zap.Int64s("ids", newIDs))
			}
		}
		if err := catalogs.SyncJob(ctx, c, jobID, ids); err != nil {
			return false, err
		}
	}
	return created, nil
}

// applyJobInput переносит переданные поля в вакансию; поля уже провалидированы
func applyJobInput(job *models.Job, in JobInput) {
	if in.Title != nil {
		job.Title = *in.Title
	}
	if in.Description != nil {
		job.Description = *in.Description
	}
	if in.Deadline != nil {
		if d, err := time.Parse(models.DateLayout, *in.Deadline); err == nil {
			job.Deadline = d
		}
	}
	if in.ExperienceLevel != nil {
		job.ExperienceLevel = models.ExperienceLevel(*in.ExperienceLevel)
	}
	if in.SalaryFrom != nil {
		job.SalaryFrom = *in.SalaryFrom
	}
	if in.SalaryTo != nil {
		job.SalaryTo = *in.SalaryTo
	}
	if in.WorkType != nil {
		job.WorkType = models.WorkType(*in.WorkType)
	}
	if in.LocationID != nil {
		job.LocationID = *in.LocationID
	}
}

func requireField(verr *ValidationError, present bool, field string) {
	if !present {
		verr.Add(field, fmt.Sprintf("The %s field is required.", attribute(field)))
	}
}

func checkSalary(verr *ValidationError, from, to int64) {
	if to <= from {
		verr.Add("salary_to", "The salary to must be greater than salary from.")
	}
}
