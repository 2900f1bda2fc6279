package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jobboard/backend/internal/models"
	"jobboard/backend/internal/policy"
	"jobboard/backend/internal/services"
	"jobboard/backend/pkg/utils"
)

type JobHandler struct {
	jobs     *services.JobService
	comments *services.CommentService
	logger   *zap.Logger
}

func NewJobHandler(jobs *services.JobService, comments *services.CommentService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobs:     jobs,
		comments: comments,
		logger:   logger,
	}
}

// JobResponse ответ на создание и обновление вакансии
type JobResponse struct {
	Message string      `json:"message"`
	Job     *models.Job `json:"job"`
}

// ListJobs список вакансий
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	jobs, err := h.jobs.List(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, jobs)
}

// CreateJob создание вакансии
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	// права проверяются до разбора тела
	if err := policy.Authorize(user, policy.JobCreate, nil); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	var in services.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}

	job, err := h.jobs.Create(r.Context(), user, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, JobResponse{
		Message: "Job listing created successfully",
		Job:     job,
	})
}

// GetJob одна вакансия
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Job not found")
	if !ok {
		return
	}

	job, err := h.jobs.Get(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, job)
}

// UpdateJob частичное обновление вакансии
func (h *JobHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Job not found")
	if !ok {
		return
	}

	var in services.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}

	job, err := h.jobs.Update(r.Context(), user, id, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, JobResponse{
		Message: "Job listing updated successfully",
		Job:     job,
	})
}

// DeleteJob удаление вакансии
func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Job not found")
	if !ok {
		return
	}

	if err := h.jobs.Delete(r.Context(), user, id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Job listing deleted successfully")
}

// AcceptRejectJob модерация вакансии админом
func (h *JobHandler) AcceptRejectJob(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Job not found")
	if !ok {
		return
	}

	var in services.AcceptRejectInput
	if !decodeJSON(w, r, &in) {
		return
	}

	job, err := h.jobs.AcceptReject(r.Context(), user, id, in)
	if err != nil {
		if isInternal(err) {
			h.logger.Error("Failed to update job status", zap.Int64("job_id", id), zap.Error(err))
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{
				"message": "Failed to update job status.",
				"error":   err.Error(),
			})
			return
		}
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Job %s successfully.", in.Status),
		"data":    job,
	})
}

// ListComments комментарии вакансии
func (h *JobHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Job not found")
	if !ok {
		return
	}

	comments, err := h.comments.List(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, comments)
}

// CreateComment новый комментарий к вакансии
func (h *JobHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Job not found")
	if !ok {
		return
	}

	var in services.CommentInput
	if !decodeJSON(w, r, &in) {
		return
	}

	comment, err := h.comments.Create(r.Context(), user, id, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// Routes настройка маршрутов
func (h *JobHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListJobs)
	r.Post("/", h.CreateJob)
	r.Get("/{id}", h.GetJob)
	r.Put("/{id}", h.UpdateJob)
	r.Delete("/{id}", h.DeleteJob)
	r.Patch("/{id}/accept-reject", h.AcceptRejectJob)
	r.Get("/{id}/comments", h.ListComments)
	r.Post("/{id}/comments", h.CreateComment)

	return r
}
