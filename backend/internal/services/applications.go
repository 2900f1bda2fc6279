package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"jobboard/backend/internal/models"
	"jobboard/backend/internal/policy"
	"jobboard/backend/internal/storage"
)

// Допустимые форматы резюме
var cvMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Upload загруженный файл резюме
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// ApplicationInput отклик из запроса
type ApplicationInput struct {
	Type        string  `json:"type" validate:"required,oneof=cv form"`
	JobID       int64   `json:"job_id" validate:"required,gt=0"`
	Name        string  `json:"name" validate:"required_if=Type form,max=255"`
	Email       string  `json:"email" validate:"required_if=Type form,omitempty,email"`
	PhoneNumber string  `json:"phone_number" validate:"required_if=Type form,max=32"`
	CV          *Upload `json:"-"`
}

// ApplicationList результат списка: полный для админа, краткий для кандидата
type ApplicationList struct {
	Full    []*models.Application
	Summary []models.SubmittedApplication
}

// ApplicationService операции над откликами
type ApplicationService struct {
	db     *storage.Database
	files  storage.CVStore
	logger *zap.Logger
}

func NewApplicationService(db *storage.Database, files storage.CVStore, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		db:     db,
		files:  files,
		logger: logger,
	}
}

// Create сохраняет отклик, его под-запись и увеличивает счетчик вакансии
func (s *ApplicationService) Create(ctx context.Context, user models.User, in ApplicationInput) (*models.Application, error) {
	if err := policy.Authorize(user, policy.ApplicationCreate, nil); err != nil {
		return nil, err
	}

	verr := validateStruct(in)
	if _, bad := verr.Fields["job_id"]; !bad && in.JobID > 0 {
		if _, err := storage.NewJobRepository(s.db.Conn()).Get(ctx, in.JobID); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			verr.Add("job_id", "The selected job id is invalid.")
		}
	}

	var cvType *mimetype.MIME
	if in.Type == string(models.ApplicationCV) {
		if in.CV == nil {
			verr.Add("cv", "The cv field is required.")
		} else {
			mt, err := detectCV(in.CV)
			if err != nil {
				return nil, err
			}
			if mt == nil {
				verr.Add("cv", "The cv must be a file of type: doc, pdf, docx.")
			}
			cvType = mt
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	app := &models.Application{
		JobID:       in.JobID,
		CandidateID: user.ID,
		Status:      models.ApplicationPending,
		CreatedAt:   time.Now().UTC(),
	}
	if in.Type == string(models.ApplicationCV) {
		// путь станет известен после сохранения файла
		app.Payload = models.CVPayload{}
	} else {
		app.Payload = models.FormPayload{Name: in.Name, Email: in.Email, PhoneNumber: in.PhoneNumber}
	}

	var storedPath string
	err := s.db.WithTx(ctx, func(tx storage.Querier) error {
		apps := storage.NewApplicationRepository(tx)
		if err := apps.Insert(ctx, app); err != nil {
			return err
		}

		if cvType != nil {
			path, err := s.files.Save(ctx, in.CV.Content, in.CV.Size, cvType.Extension(), cvType.String())
			if err != nil {
				return err
			}
			storedPath = path
			app.Payload = models.CVPayload{Path: path}
		}

		if err := apps.AttachPayload(ctx, app); err != nil {
			return err
		}
		return storage.NewJobRepository(tx).IncrementApplications(ctx, app.JobID)
	})
	if err != nil {
		if storedPath != "" {
			if rmErr := s.files.Delete(ctx, storedPath); rmErr != nil {
				s.logger.Error("Failed to remove CV after rollback",
					zap.String("path", storedPath),
					zap.Error(rmErr))
			}
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.logger.Info("Application submitted",
		zap.Int64("application_id", app.ID),
		zap.Int64("job_id", app.JobID),
		zap.String("type", string(app.Type())))

	return app, nil
}

// Get отклик целиком для владельца или админа
func (s *ApplicationService) Get(ctx context.Context, user models.User, id int64) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(user, policy.ApplicationView, app); err != nil {
		return nil, err
	}
	return app, nil
}

// List админ получает все отклики, кандидат - свои в кратком виде
func (s *ApplicationService) List(ctx context.Context, user models.User) (*ApplicationList, error) {
	repo := storage.NewApplicationRepository(s.db.Conn())
	out := &ApplicationList{}

	switch user.Role {
	case models.RoleAdmin:
		apps, err := repo.List(ctx)
		if err != nil {
			return nil, err
		}
		out.Full = apps
		if len(apps) > 0 {
			return out, nil
		}
	case models.RoleCandidate:
		apps, err := repo.ListSubmitted(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		out.Summary = apps
		if len(apps) > 0 {
			return out, nil
		}
	}

	return nil, &NotFoundError{Message: "No applications found"}
}

// Delete удаляет под-запись, уменьшает счетчик, удаляет отклик и файл резюме
func (s *ApplicationService) Delete(ctx context.Context, user models.User, id int64) error {
	app, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(user, policy.ApplicationDelete, app); err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(tx storage.Querier) error {
		if err := storage.NewApplicationRepository(tx).Delete(ctx, app); err != nil {
			return err
		}
		if err := storage.NewJobRepository(tx).DecrementApplications(ctx, app.JobID); err != nil {
			return err
		}

		// файл удаляется последним: при ошибке строки откатываются
		if cv, ok := app.CV(); ok && cv.Path != "" {
			return s.files.Delete(ctx, cv.Path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete application %d: %w", id, err)
	}

	s.logger.Info("Application deleted",
		zap.Int64("application_id", app.ID),
		zap.Int64("job_id", app.JobID))
	return nil
}

func (s *ApplicationService) load(ctx context.Context, id int64) (*models.Application, error) {
	app, err := storage.NewApplicationRepository(s.db.Conn()).Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Application not found")
	}
	return app, nil
}

// detectCV тип файла по содержимому; nil, если формат не допускается
func detectCV(u *Upload) (*mimetype.MIME, error) {
	mt, err := mimetype.DetectReader(u.Content)
	if err != nil {
		return nil, fmt.Errorf("detect cv type: %w", err)
	}
	if _, err := u.Content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind cv: %w", err)
	}

	for _, allowed := range cvMimeTypes {
		if mt.Is(allowed) {
			return mt, nil
		}
	}

	// docx без характерных частей в начале архива определяется как zip
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if ext == ".docx" && mt.Is("application/zip") {
		return mimetype.Lookup(cvMimeTypes[2]), nil
	}
	return nil, nil
}
