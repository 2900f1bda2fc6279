package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jobboard/backend/internal/models"
)

// JobFilter фильтры поиска вакансий; пустые поля не участвуют
type JobFilter struct {
	Status          models.JobStatus
	Query           string
	Location        string
	Category        string
	Skill           string
	Benefit         string
	ExperienceLevel models.ExperienceLevel
	WorkType        models.WorkType
	SalaryFrom      *int64
	SalaryTo        *int64
	CreatedFrom     *time.Time
}

// Search вакансии, удовлетворяющие всем заданным фильтрам
func (r *JobRepository) Search(ctx context.Context, f JobFilter) ([]*models.Job, error) {
	var (
		where []string
		args  []interface{}
	)

	add := func(cond string, values ...interface{}) {
		where = append(where, cond)
		args = append(args, values...)
	}

	if f.Status != "" {
		add(`j.status = ?`, f.Status)
	}
	if f.Query != "" {
		pattern := containsPattern(f.Query)
		add(`(LOWER(j.job_title) LIKE LOWER(?) ESCAPE '\' OR LOWER(j.description) LIKE LOWER(?) ESCAPE '\')`,
			pattern, pattern)
	}
	if f.Location != "" {
		add(`EXISTS (SELECT 1 FROM locations l WHERE l.id = j.location_id
			AND LOWER(l.name) LIKE LOWER(?) ESCAPE '\')`, containsPattern(f.Location))
	}
	if f.Category != "" {
		add(pivotMatch(CatalogCategories), containsPattern(f.Category))
	}
	if f.Skill != "" {
		add(pivotMatch(CatalogSkills), containsPattern(f.Skill))
	}
	if f.Benefit != "" {
		add(pivotMatch(CatalogBenefits), containsPattern(f.Benefit))
	}
	if f.ExperienceLevel != "" {
		add(`j.experience_level = ?`, f.ExperienceLevel)
	}
	if f.WorkType != "" {
		add(`j.work_type = ?`, f.WorkType)
	}
	if f.SalaryFrom != nil {
		add(`j.salary_from >= ?`, *f.SalaryFrom)
	}
	if f.SalaryTo != nil {
		add(`j.salary_to <= ?`, *f.SalaryTo)
	}
	if f.CreatedFrom != nil {
		add(`j.created_at >= ?`, f.CreatedFrom.UTC())
	}

	query := `SELECT ` + jobColumns + ` FROM job_listings j`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY j.id`

	jobs := []*models.Job{}
	if err := r.q.SelectContext(ctx, &jobs, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}
	return jobs, nil
}

// pivotMatch условие: вакансия связана с элементом справочника, имя которого подходит
func pivotMatch(c Catalog) string {
	table, column := c.pivot()
	return fmt.Sprintf(`EXISTS (SELECT 1 FROM %s p JOIN %s t ON t.id = p.%s
		WHERE p.job_listing_id = j.id AND LOWER(t.name) LIKE LOWER(?) ESCAPE '\')`, table, c, column)
}

func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}
