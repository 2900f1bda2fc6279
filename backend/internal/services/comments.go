package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobboard/backend/internal/models"
	"jobboard/backend/internal/policy"
	"jobboard/backend/internal/storage"
)

// CommentInput новый комментарий
type CommentInput struct {
	Body string `json:"body" validate:"notblank,max=2000"`
}

// CommentService комментарии к вакансиям
type CommentService struct {
	db     *storage.Database
	logger *zap.Logger
}

func NewCommentService(db *storage.Database, logger *zap.Logger) *CommentService {
	return &CommentService{db: db, logger: logger}
}

// List комментарии вакансии, доступны тем, кто видит вакансию
func (s *CommentService) List(ctx context.Context, user models.User, jobID int64) ([]models.Comment, error) {
	if _, err := s.job(ctx, user, jobID, policy.CommentView); err != nil {
		return nil, err
	}
	return storage.NewCommentRepository(s.db.Conn()).ListForJob(ctx, jobID)
}

// Create добавляет комментарий от имени пользователя
func (s *CommentService) Create(ctx context.Context, user models.User, jobID int64, in CommentInput) (*models.Comment, error) {
	if _, err := s.job(ctx, user, jobID, policy.CommentCreate); err != nil {
		return nil, err
	}
	if err := validateStruct(in).Err(); err != nil {
		return nil, err
	}

	c := &models.Comment{
		JobID:     jobID,
		UserID:    user.ID,
		Body:      strings.TrimSpace(in.Body),
		CreatedAt: time.Now().UTC(),
	}
	if err := storage.NewCommentRepository(s.db.Conn()).Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("Comment added", zap.Int64("job_id", jobID), zap.Int64("comment_id", c.ID))
	return c, nil
}

func (s *CommentService) job(ctx context.Context, user models.User, jobID int64, action policy.Action) (*models.Job, error) {
	job, err := storage.NewJobRepository(s.db.Conn()).Get(ctx, jobID)
	if err != nil {
		return nil, notFound(err, "Job not found")
	}
	if err := policy.Authorize(user, action, job); err != nil {
		return nil, err
	}
	return job, nil
}
