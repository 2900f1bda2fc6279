package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ApplicationType способ подачи отклика
type ApplicationType string

const (
	ApplicationCV   ApplicationType = "cv"
	ApplicationForm ApplicationType = "form"
)

// ApplicationStatus статус отклика
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Payload данные конкретного типа отклика.
// Реализации: CVPayload и FormPayload, других нет.
type Payload interface {
	applicationType() ApplicationType
}

// CVPayload отклик с загруженным резюме
type CVPayload struct {
	Path string `json:"cv"`
}

func (CVPayload) applicationType() ApplicationType { return ApplicationCV }

// FormPayload отклик через форму
type FormPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

func (FormPayload) applicationType() ApplicationType { return ApplicationForm }

// Application отклик кандидата на вакансию
type Application struct {
	ID          int64             `json:"id"`
	JobID       int64             `json:"job_id"`
	CandidateID uuid.UUID         `json:"candidate_id"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	Payload     Payload           `json:"-"`
}

// Type тип отклика, определяется содержимым
func (a Application) Type() ApplicationType {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.applicationType()
}

// CV путь к резюме, если отклик типа cv
func (a Application) CV() (CVPayload, bool) {
	p, ok := a.Payload.(CVPayload)
	return p, ok
}

// Form данные формы, если отклик типа form
func (a Application) Form() (FormPayload, bool) {
	p, ok := a.Payload.(FormPayload)
	return p, ok
}

// MarshalJSON полное представление отклика
func (a Application) MarshalJSON() ([]byte, error) {
	type alias Application
	out := struct {
		alias
		Type ApplicationType `json:"type"`
		CV   *CVPayload      `json:"cv_application,omitempty"`
		Form *FormPayload    `json:"form_application,omitempty"`
	}{alias: alias(a), Type: a.Type()}

	switch p := a.Payload.(type) {
	case CVPayload:
		out.CV = &p
	case FormPayload:
		out.Form = &p
	}
	return json.Marshal(out)
}

// ApplicationRow строка таблицы applications
type ApplicationRow struct {
	ID          int64             `db:"id"`
	Type        ApplicationType   `db:"type"`
	JobID       int64             `db:"job_id"`
	CandidateID uuid.UUID         `db:"candidate_id"`
	Status      ApplicationStatus `db:"status"`
	CreatedAt   time.Time         `db:"created_at"`
}

// SubmittedApplication краткое представление отклика для кандидата
type SubmittedApplication struct {
	ID        int64             `json:"id" db:"id"`
	Type      ApplicationType   `json:"type" db:"type"`
	Status    ApplicationStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	JobID     int64             `json:"job_id" db:"job_id"`
	JobTitle  string            `json:"job_title" db:"job_title"`
	JobSlug   string            `json:"job_slug" db:"job_slug"`
	JobStatus JobStatus         `json:"job_status" db:"job_status"`
}
