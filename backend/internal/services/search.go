package services

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"jobboard/backend/internal/models"
	"jobboard/backend/internal/storage"
)

// SearchParams фильтры поиска в том виде, в каком пришли в query string
type SearchParams struct {
	Query           string `json:"query"`
	Location        string `json:"location"`
	Category        string `json:"category"`
	Skill           string `json:"skill"`
	Benefit         string `json:"benefit"`
	ExperienceLevel string `json:"experience_level" validate:"omitempty,oneof=entry_level intermediate expert"`
	WorkType        string `json:"work_type" validate:"omitempty,oneof=remote onsite hybrid"`
	SalaryFrom      string `json:"salary_from"`
	SalaryTo        string `json:"salary_to"`
	CreatedAt       string `json:"created_at" validate:"omitempty,datetime=2006-01-02"`
}

// SearchService поиск вакансий
type SearchService struct {
	db     *storage.Database
	logger *zap.Logger
}

func NewSearchService(db *storage.Database, logger *zap.Logger) *SearchService {
	return &SearchService{
		db:     db,
		logger: logger,
	}
}

// Search кандидаты и работодатели видят только открытые вакансии, админ - все
func (s *SearchService) Search(ctx context.Context, user models.User, p SearchParams) ([]*models.Job, error) {
	filter, err := p.filter()
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		filter.Status = models.JobOpen
	}

	repo := storage.NewJobRepository(s.db.Conn())
	jobs, err := repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := repo.LoadAssociations(ctx, jobs...); err != nil {
		return nil, err
	}

	s.logger.Debug("Job search",
		zap.String("role", string(user.Role)),
		zap.Int("results", len(jobs)))
	return jobs, nil
}

// filter проверяет значения и переводит их в storage.JobFilter
func (p SearchParams) filter() (storage.JobFilter, error) {
	if err := validateStruct(p).Err(); err != nil {
		return storage.JobFilter{}, err
	}

	f := storage.JobFilter{
		Query:           p.Query,
		Location:        p.Location,
		Category:        p.Category,
		Skill:           p.Skill,
		Benefit:         p.Benefit,
		ExperienceLevel: models.ExperienceLevel(p.ExperienceLevel),
		WorkType:        models.WorkType(p.WorkType),
	}

	verr := newValidationError()
	if p.SalaryFrom != "" {
		v, err := strconv.ParseInt(p.SalaryFrom, 10, 64)
		if err != nil {
			verr.Add("salary_from", "The salary from must be an integer.")
		}
		f.SalaryFrom = &v
	}
	if p.SalaryTo != "" {
		v, err := strconv.ParseInt(p.SalaryTo, 10, 64)
		if err != nil {
			verr.Add("salary_to", "The salary to must be an integer.")
		}
		f.SalaryTo = &v
	}
	if p.CreatedAt != "" {
		// вакансии, опубликованные начиная с этой даты
		d, _ := time.Parse(models.DateLayout, p.CreatedAt)
		f.CreatedFrom = &d
	}

	if err := verr.Err(); err != nil {
		return storage.JobFilter{}, err
	}
	return f, nil
}
