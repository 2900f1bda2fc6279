package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jobboard/backend/internal/models"
)

const applicationColumns = `id, type, job_id, candidate_id, status, created_at`

type cvRow struct {
	ApplicationID int64  `db:"application_id"`
	CV            string `db:"cv"`
}

type formRow struct {
	ApplicationID int64  `db:"application_id"`
	Name          string `db:"name"`
	Email         string `db:"email"`
	PhoneNumber   string `db:"phone_number"`
}

// ApplicationRepository доступ к откликам и их под-записям
type ApplicationRepository struct {
	q Querier
}

func NewApplicationRepository(q Querier) *ApplicationRepository {
	return &ApplicationRepository{q: q}
}

// Insert вставляет строку отклика и проставляет ему id
func (r *ApplicationRepository) Insert(ctx context.Context, app *models.Application) error {
	if app.Payload == nil {
		return fmt.Errorf("application payload is required")
	}

	query := r.q.Rebind(`INSERT INTO applications (type, job_id, candidate_id, status, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := r.q.QueryRowxContext(ctx, query, app.Type(), app.JobID, app.CandidateID, app.Status, app.CreatedAt).
		Scan(&app.ID)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// AttachPayload вставляет под-запись, соответствующую типу отклика
func (r *ApplicationRepository) AttachPayload(ctx context.Context, app *models.Application) error {
	var err error
	switch p := app.Payload.(type) {
	case models.CVPayload:
		query := r.q.Rebind(`INSERT INTO cv_applications (application_id, cv) VALUES (?, ?)`)
		_, err = r.q.ExecContext(ctx, query, app.ID, p.Path)
	case models.FormPayload:
		query := r.q.Rebind(`INSERT INTO form_applications (application_id, name, email, phone_number)
			VALUES (?, ?, ?, ?)`)
		_, err = r.q.ExecContext(ctx, query, app.ID, p.Name, p.Email, p.PhoneNumber)
	default:
		return fmt.Errorf("unsupported application payload %T", app.Payload)
	}
	if err != nil {
		return fmt.Errorf("insert %s application: %w", app.Type(), err)
	}
	return nil
}

// Get отклик вместе с под-записью
func (r *ApplicationRepository) Get(ctx context.Context, id int64) (*models.Application, error) {
	var row models.ApplicationRow
	query := r.q.Rebind(`SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`)
	if err := r.q.GetContext(ctx, &row, query, id); err != nil {
		return nil, notFound(err)
	}

	apps, err := r.withPayloads(ctx, []models.ApplicationRow{row})
	if err != nil {
		return nil, err
	}
	return apps[0], nil
}

// List все отклики в полном представлении
func (r *ApplicationRepository) List(ctx context.Context) ([]*models.Application, error) {
	var rows []models.ApplicationRow
	query := `SELECT ` + applicationColumns + ` FROM applications ORDER BY id`
	if err := r.q.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return r.withPayloads(ctx, rows)
}

// ListSubmitted краткие отклики кандидата с данными вакансии
func (r *ApplicationRepository) ListSubmitted(ctx context.Context, candidateID uuid.UUID) ([]models.SubmittedApplication, error) {
	apps := []models.SubmittedApplication{}
	query := r.q.Rebind(`
		SELECT a.id, a.type, a.status, a.created_at, a.job_id,
			j.job_title AS job_title, j.slug AS job_slug, j.status AS job_status
		FROM applications a
		JOIN job_listings j ON j.id = a.job_id
		WHERE a.candidate_id = ?
		ORDER BY a.id`)
	if err := r.q.SelectContext(ctx, &apps, query, candidateID); err != nil {
		return nil, fmt.Errorf("list submitted applications: %w", err)
	}
	return apps, nil
}

// Delete удаляет под-запись и сам отклик
func (r *ApplicationRepository) Delete(ctx context.Context, app *models.Application) error {
	var sub string
	switch app.Payload.(type) {
	case models.CVPayload:
		sub = `DELETE FROM cv_applications WHERE application_id = ?`
	case models.FormPayload:
		sub = `DELETE FROM form_applications WHERE application_id = ?`
	default:
		return fmt.Errorf("unsupported application payload %T", app.Payload)
	}

	if _, err := r.q.ExecContext(ctx, r.q.Rebind(sub), app.ID); err != nil {
		return fmt.Errorf("delete %s application: %w", app.Type(), err)
	}

	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM applications WHERE id = ?`), app.ID)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteForJob удаляет все отклики вакансии вместе с под-записями
func (r *ApplicationRepository) DeleteForJob(ctx context.Context, jobID int64) error {
	for _, query := range []string{
		`DELETE FROM cv_applications WHERE application_id IN (SELECT id FROM applications WHERE job_id = ?)`,
		`DELETE FROM form_applications WHERE application_id IN (SELECT id FROM applications WHERE job_id = ?)`,
		`DELETE FROM applications WHERE job_id = ?`,
	} {
		if _, err := r.q.ExecContext(ctx, r.q.Rebind(query), jobID); err != nil {
			return fmt.Errorf("delete job applications: %w", err)
		}
	}
	return nil
}

// CVPathsForJob пути резюме всех откликов на вакансию
func (r *ApplicationRepository) CVPathsForJob(ctx context.Context, jobID int64) ([]string, error) {
	var paths []string
	query := r.q.Rebind(`SELECT c.cv FROM cv_applications c
		JOIN applications a ON a.id = c.application_id
		WHERE a.job_id = ? AND c.cv <> ''`)
	if err := r.q.SelectContext(ctx, &paths, query, jobID); err != nil {
		return nil, fmt.Errorf("list job cvs: %w", err)
	}
	return paths, nil
}

func (r *ApplicationRepository) withPayloads(ctx context.Context, rows []models.ApplicationRow) ([]*models.Application, error) {
	apps := make([]*models.Application, 0, len(rows))
	if len(rows) == 0 {
		return apps, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	cvs := make(map[int64]cvRow)
	query, args, err := sqlx.In(`SELECT application_id, cv FROM cv_applications WHERE application_id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var cvRows []cvRow
	if err := r.q.SelectContext(ctx, &cvRows, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load cv applications: %w", err)
	}
	for _, c := range cvRows {
		cvs[c.ApplicationID] = c
	}

	forms := make(map[int64]formRow)
	query, args, err = sqlx.In(`SELECT application_id, name, email, phone_number
		FROM form_applications WHERE application_id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var formRows []formRow
	if err := r.q.SelectContext(ctx, &formRows, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load form applications: %w", err)
	}
	for _, f := range formRows {
		forms[f.ApplicationID] = f
	}

	for _, row := range rows {
		app := &models.Application{
			ID:          row.ID,
			JobID:       row.JobID,
			CandidateID: row.CandidateID,
			Status:      row.Status,
			CreatedAt:   row.CreatedAt,
		}

		switch row.Type {
		case models.ApplicationCV:
			c, ok := cvs[row.ID]
			if !ok {
				return nil, fmt.Errorf("application %d has no cv record", row.ID)
			}
			app.Payload = models.CVPayload{Path: c.CV}
		case models.ApplicationForm:
			f, ok := forms[row.ID]
			if !ok {
				return nil, fmt.Errorf("application %d has no form record", row.ID)
			}
			app.Payload = models.FormPayload{Name: f.Name, Email: f.Email, PhoneNumber: f.PhoneNumber}
		default:
			return nil, fmt.Errorf("application %d has unknown type %q", row.ID, row.Type)
		}

		apps = append(apps, app)
	}
	return apps, nil
}
