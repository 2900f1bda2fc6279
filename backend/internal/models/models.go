package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role роль пользователя
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleEmployer  Role = "employer"
	RoleCandidate Role = "candidate"
)

// User текущий пользователь запроса (идентичность приходит извне, из токена)
type User struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

func (u User) IsAdmin() bool     { return u.Role == RoleAdmin }
func (u User) IsEmployer() bool  { return u.Role == RoleEmployer }
func (u User) IsCandidate() bool { return u.Role == RoleCandidate }

// ExperienceLevel требуемый опыт
type ExperienceLevel string

const (
	ExperienceEntryLevel   ExperienceLevel = "entry_level"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceExpert       ExperienceLevel = "expert"
)

// WorkType формат работы
type WorkType string

const (
	WorkRemote WorkType = "remote"
	WorkOnsite WorkType = "onsite"
	WorkHybrid WorkType = "hybrid"
)

// JobStatus статус вакансии
type JobStatus string

const (
	JobOpen    JobStatus = "open"
	JobClosed  JobStatus = "closed"
	JobPending JobStatus = "pending"
)

// EmployerJobStatus статус модерации вакансии работодателя
type EmployerJobStatus string

const (
	EmployerJobPending  EmployerJobStatus = "pending"
	EmployerJobAccepted EmployerJobStatus = "accepted"
	EmployerJobRejected EmployerJobStatus = "rejected"
)

// DateLayout формат дат (deadline, фильтр created_at)
const DateLayout = "2006-01-02"

// Job вакансия
type Job struct {
	ID                   int64           `json:"id" db:"id"`
	Title                string          `json:"job_title" db:"job_title"`
	Description          string          `json:"description" db:"description"`
	ExperienceLevel      ExperienceLevel `json:"experience_level" db:"experience_level"`
	SalaryFrom           int64           `json:"salary_from" db:"salary_from"`
	SalaryTo             int64           `json:"salary_to" db:"salary_to"`
	WorkType             WorkType        `json:"work_type" db:"work_type"`
	Status               JobStatus       `json:"status" db:"status"`
	Deadline             time.Time       `json:"-" db:"deadline"`
	LocationID           int64           `json:"location_id" db:"location_id"`
	EmployerID           uuid.UUID       `json:"employer_id" db:"employer_id"`
	NumberOfApplications int64           `json:"number_of_applications" db:"number_of_applications"`
	Slug                 string          `json:"slug" db:"slug"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`

	// Связи, заполняются при загрузке
	Location   *CatalogItem  `json:"location,omitempty" db:"-"`
	Skills     []CatalogItem `json:"skills" db:"-"`
	Benefits   []CatalogItem `json:"benefits" db:"-"`
	Categories []CatalogItem `json:"categories" db:"-"`
}

// DeadlineString дата дедлайна в формате YYYY-MM-DD
func (j Job) DeadlineString() string {
	return j.Deadline.Format(DateLayout)
}

// MarshalJSON отдает deadline датой без времени
func (j Job) MarshalJSON() ([]byte, error) {
	type alias Job
	return json.Marshal(struct {
		alias
		Deadline string `json:"deadline"`
	}{alias(j), j.DeadlineString()})
}

// EmployerJob строка владения вакансией
type EmployerJob struct {
	EmployerID   uuid.UUID         `json:"employer_id" db:"employer_id"`
	JobListingID int64             `json:"job_listing_id" db:"job_listing_id"`
	Status       EmployerJobStatus `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}

// CatalogItem элемент справочника (навык, льгота, категория, локация)
type CatalogItem struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Comment комментарий к вакансии
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	JobID     int64     `json:"job_id" db:"job_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
