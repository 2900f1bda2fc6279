package storage

import (
	"context"
	"fmt"

	"jobboard/backend/internal/models"
)

// CommentRepository комментарии к вакансиям
type CommentRepository struct {
	q Querier
}

func NewCommentRepository(q Querier) *CommentRepository {
	return &CommentRepository{q: q}
}

// Create сохраняет комментарий и проставляет ему id
func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	query := r.q.Rebind(`INSERT INTO comments (job_id, user_id, body, created_at)
		VALUES (?, ?, ?, ?) RETURNING id`)
	if err := r.q.QueryRowxContext(ctx, query, c.JobID, c.UserID, c.Body, c.CreatedAt).Scan(&c.ID); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ListForJob комментарии вакансии в порядке добавления
func (r *CommentRepository) ListForJob(ctx context.Context, jobID int64) ([]models.Comment, error) {
	comments := []models.Comment{}
	query := r.q.Rebind(`SELECT id, job_id, user_id, body, created_at FROM comments WHERE job_id = ? ORDER BY id`)
	if err := r.q.SelectContext(ctx, &comments, query, jobID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// DeleteForJob удаляет все комментарии вакансии
func (r *CommentRepository) DeleteForJob(ctx context.Context, jobID int64) error {
	if _, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM comments WHERE job_id = ?`), jobID); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	return nil
}
