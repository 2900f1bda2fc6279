package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"jobboard/backend/internal/models"
)

// Catalog справочник, на который ссылаются вакансии
type Catalog string

const (
	CatalogSkills     Catalog = "skills"
	CatalogBenefits   Catalog = "benefits"
	CatalogCategories Catalog = "categories"
	CatalogLocations  Catalog = "locations"
)

// Catalogs все справочники
var Catalogs = []Catalog{CatalogSkills, CatalogBenefits, CatalogCategories, CatalogLocations}

// pivot таблица связи с вакансией и колонка справочника в ней
func (c Catalog) pivot() (table, column string) {
	switch c {
	case CatalogSkills:
		return "job_skills", "skill_id"
	case CatalogBenefits:
		return "job_benefits", "benefit_id"
	case CatalogCategories:
		return "job_category", "category_id"
	}
	return "", ""
}

// CatalogRepository доступ к справочникам и таблицам связей
type CatalogRepository struct {
	q Querier
}

func NewCatalogRepository(q Querier) *CatalogRepository {
	return &CatalogRepository{q: q}
}

// List весь справочник по имени
func (r *CatalogRepository) List(ctx context.Context, c Catalog) ([]models.CatalogItem, error) {
	items := []models.CatalogItem{}
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY name, id`, c)
	if err := r.q.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	return items, nil
}

// SearchPrefix до limit элементов, имя которых начинается с prefix
func (r *CatalogRepository) SearchPrefix(ctx context.Context, c Catalog, prefix string, limit int) ([]models.CatalogItem, error) {
	items := []models.CatalogItem{}
	query := r.q.Rebind(fmt.Sprintf(
		`SELECT id, name FROM %s WHERE LOWER(name) LIKE LOWER(?) ESCAPE '\' ORDER BY name, id LIMIT ?`, c))
	if err := r.q.SelectContext(ctx, &items, query, escapeLike(prefix)+"%", limit); err != nil {
		return nil, fmt.Errorf("search %s: %w", c, err)
	}
	return items, nil
}

// Exists есть ли элемент с таким id
func (r *CatalogRepository) Exists(ctx context.Context, c Catalog, id int64) (bool, error) {
	missing, err := r.MissingIDs(ctx, c, []int64{id})
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// ByIDs элементы справочника по набору id
func (r *CatalogRepository) ByIDs(ctx context.Context, c Catalog, ids []int64) (map[int64]models.CatalogItem, error) {
	out := make(map[int64]models.CatalogItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf(`SELECT id, name FROM %s WHERE id IN (?)`, c), ids)
	if err != nil {
		return nil, err
	}

	var items []models.CatalogItem
	if err := r.q.SelectContext(ctx, &items, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load %s: %w", c, err)
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

// MissingIDs id из списка, которых нет в справочнике (без повторов, в исходном порядке)
func (r *CatalogRepository) MissingIDs(ctx context.Context, c Catalog, ids []int64) ([]int64, error) {
	ids = uniqueIDs(ids)
	existing, err := r.ByIDs(ctx, c, ids)
	if err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Ensure создает отсутствующие элементы с пустым именем, возвращает созданные id
func (r *CatalogRepository) Ensure(ctx context.Context, c Catalog, ids []int64) ([]int64, error) {
	missing, err := r.MissingIDs(ctx, c, ids)
	if err != nil {
		return nil, err
	}

	query := r.q.Rebind(fmt.Sprintf(
		`INSERT INTO %s (id, name) VALUES (?, '') ON CONFLICT (id) DO NOTHING`, c))
	for _, id := range missing {
		if _, err := r.q.ExecContext(ctx, query, id); err != nil {
			return nil, fmt.Errorf("create %s %d: %w", c, id, err)
		}
	}
	return missing, nil
}

// Upsert создает или переименовывает элементы справочника
func (r *CatalogRepository) Upsert(ctx context.Context, c Catalog, items ...models.CatalogItem) error {
	query := r.q.Rebind(fmt.Sprintf(
		`INSERT INTO %s (id, name) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET name = excluded.name`, c))
	for _, item := range items {
		if _, err := r.q.ExecContext(ctx, query, item.ID, item.Name); err != nil {
			return fmt.Errorf("upsert %s %d: %w", c, item.ID, err)
		}
	}
	return nil
}

// SyncJob заменяет набор связей вакансии ровно на ids
func (r *CatalogRepository) SyncJob(ctx context.Context, c Catalog, jobID int64, ids []int64) error {
	if err := r.DetachJob(ctx, c, jobID); err != nil {
		return err
	}

	table, column := c.pivot()
	query := r.q.Rebind(fmt.Sprintf(`INSERT INTO %s (job_listing_id, %s) VALUES (?, ?)`, table, column))
	for _, id := range uniqueIDs(ids) {
		if _, err := r.q.ExecContext(ctx, query, jobID, id); err != nil {
			return fmt.Errorf("attach %s %d to job %d: %w", c, id, jobID, err)
		}
	}
	return nil
}

// DetachJob удаляет все связи вакансии с справочником
func (r *CatalogRepository) DetachJob(ctx context.Context, c Catalog, jobID int64) error {
	table, _ := c.pivot()
	if table == "" {
		return fmt.Errorf("catalog %s has no job associations", c)
	}

	query := r.q.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE job_listing_id = ?`, table))
	if _, err := r.q.ExecContext(ctx, query, jobID); err != nil {
		return fmt.Errorf("detach %s from job %d: %w", c, jobID, err)
	}
	return nil
}

// ForJobs связанные элементы для набора вакансий
func (r *CatalogRepository) ForJobs(ctx context.Context, c Catalog, jobIDs []int64) (map[int64][]models.CatalogItem, error) {
	out := make(map[int64][]models.CatalogItem, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}

	table, column := c.pivot()
	query, args, err := sqlx.In(fmt.Sprintf(
		`SELECT p.job_listing_id, t.id, t.name FROM %s p JOIN %s t ON t.id = p.%s
		 WHERE p.job_listing_id IN (?) ORDER BY t.id`, table, c, column), jobIDs)
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryxContext(ctx, r.q.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", c, err)
	}
	defer rows.Close()

	for rows.Next() {
		var jobID int64
		var item models.CatalogItem
		if err := rows.Scan(&jobID, &item.ID, &item.Name); err != nil {
			return nil, err
		}
		out[jobID] = append(out[jobID], item)
	}
	return out, rows.Err()
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike экранирует спецсимволы LIKE
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
