package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jobboard/backend/internal/policy"
	"jobboard/backend/internal/services"
	"jobboard/backend/pkg/utils"
)

// maxUploadSize предел размера multipart запроса с резюме
const maxUploadSize = 10 << 20

type ApplicationHandler struct {
	applications *services.ApplicationService
	logger       *zap.Logger
}

func NewApplicationHandler(applications *services.ApplicationService, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		applications: applications,
		logger:       logger,
	}
}

// SubmitResponse ответ на отклик
type SubmitResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// GetApplications админ получает все отклики, кандидат - свои
func (h *ApplicationHandler) GetApplications(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.applications.List(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if list.Full != nil {
		utils.WriteJSON(w, http.StatusOK, list.Full)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list.Summary)
}

// SubmitApplication отклик через multipart (cv или form) или JSON (form)
func (h *ApplicationHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := policy.Authorize(user, policy.ApplicationCreate, nil); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	var in services.ApplicationInput
	if utils.IsJSON(r) {
		if !decodeJSON(w, r, &in) {
			return
		}
	} else {
		parsed, err := h.parseMultipart(w, r)
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
		in = parsed
		defer r.MultipartForm.RemoveAll()
		if in.CV != nil {
			if f, ok := in.CV.Content.(io.Closer); ok {
				defer f.Close()
			}
		}
	}

	app, err := h.applications.Create(r.Context(), user, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, SubmitResponse{
		Message: "application was submitted successfully",
		ID:      app.ID,
	})
}

// GetApplication отклик целиком
func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Application not found")
	if !ok {
		return
	}

	app, err := h.applications.Get(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, app)
}

// DeleteApplication удаление отклика и файла резюме
func (h *ApplicationHandler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Application not found")
	if !ok {
		return
	}

	if err := h.applications.Delete(r.Context(), user, id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "application deleted successfully")
}

func (h *ApplicationHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (services.ApplicationInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.ApplicationInput{}, services.Invalid("cv", "The cv may not be greater than 10240 kilobytes.")
		}
		return services.ApplicationInput{}, services.Invalid("body", "The request must be multipart/form-data or JSON.")
	}

	in := services.ApplicationInput{
		Type:        strings.TrimSpace(r.FormValue("type")),
		Name:        strings.TrimSpace(r.FormValue("name")),
		Email:       strings.TrimSpace(r.FormValue("email")),
		PhoneNumber: strings.TrimSpace(r.FormValue("phone_number")),
	}
	// нечисловой job_id остается нулем и не проходит валидацию
	in.JobID, _ = strconv.ParseInt(r.FormValue("job_id"), 10, 64)

	file, header, err := r.FormFile("cv")
	switch {
	case err == nil:
		in.CV = &services.Upload{
			Filename: header.Filename,
			Size:     header.Size,
			Content:  file,
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		return services.ApplicationInput{}, err
	}
	return in, nil
}

// Routes настройка маршрутов
func (h *ApplicationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetApplications)
	r.Post("/", h.SubmitApplication)
	r.Get("/{id}", h.GetApplication)
	r.Delete("/{id}", h.DeleteApplication)

	return r
}
