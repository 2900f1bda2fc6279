// Package policy проверки прав на каждую операцию по роли и владению ресурсом.
package policy

import (
	"fmt"

	"jobboard/backend/internal/models"
)

// Action операция, на которую проверяются права
type Action string

const (
	JobCreate         Action = "job.create"
	JobView           Action = "job.view"
	JobUpdate         Action = "job.update"
	JobDelete         Action = "job.delete"
	JobAcceptReject   Action = "job.accept_reject"
	ApplicationCreate Action = "application.create"
	ApplicationView   Action = "application.view"
	ApplicationDelete Action = "application.delete"
	CommentCreate     Action = "comment.create"
	CommentView       Action = "comment.view"
)

var messages = map[Action]string{
	JobCreate:         "You do not have permission to create job, only employers can create jobs",
	JobView:           "You do not have permission to view this job",
	JobUpdate:         "You do not have permission to update this job",
	JobDelete:         "You do not have permission to delete this job",
	JobAcceptReject:   "You do not have permission to accept or reject this job",
	ApplicationCreate: "You do not have permission to apply for a job, only candidates can apply for jobs",
	ApplicationView:   "You do not have permission to view this application",
	ApplicationDelete: "You do not have permission to view this application",
	CommentCreate:     "You do not have permission to comment on this job",
	CommentView:       "You do not have permission to view comments of this job",
}

// DeniedError отказ в доступе с фиксированным сообщением операции
type DeniedError struct {
	Action  Action
	Message string
}

func (e *DeniedError) Error() string {
	return e.Message
}

// Authorize проверяет, может ли user выполнить action над resource.
// resource: nil, *models.Job или *models.Application в зависимости от action.
func Authorize(user models.User, action Action, resource interface{}) error {
	if allowed(user, action, resource) {
		return nil
	}
	return deny(action)
}

func allowed(user models.User, action Action, resource interface{}) bool {
	if user.IsAdmin() {
		return true
	}

	switch action {
	case JobCreate:
		return user.IsEmployer()

	case JobView, CommentCreate, CommentView:
		job, ok := resource.(*models.Job)
		return ok && (job.Status == models.JobOpen || ownsJob(user, job))

	case JobUpdate, JobDelete:
		job, ok := resource.(*models.Job)
		return ok && ownsJob(user, job)

	case JobAcceptReject:
		return false

	case ApplicationCreate:
		return user.IsCandidate()

	case ApplicationView, ApplicationDelete:
		app, ok := resource.(*models.Application)
		return ok && user.IsCandidate() && app.CandidateID == user.ID
	}

	return false
}

func ownsJob(user models.User, job *models.Job) bool {
	return user.IsEmployer() && job.EmployerID == user.ID
}

func deny(action Action) *DeniedError {
	msg, ok := messages[action]
	if !ok {
		msg = fmt.Sprintf("You do not have permission to perform %s", action)
	}
	return &DeniedError{Action: action, Message: msg}
}
