package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jobboard/backend/internal/api/middleware"
	"jobboard/backend/internal/models"
	"jobboard/backend/internal/policy"
	"jobboard/backend/internal/services"
	"jobboard/backend/pkg/utils"
)

// writeServiceError переводит ошибку сервиса в HTTP ответ
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var (
		verr   *services.ValidationError
		denied *policy.DeniedError
		nf     *services.NotFoundError
	)

	switch {
	case errors.As(err, &verr):
		utils.WriteValidationError(w, verr.Fields)
	case errors.As(err, &denied):
		utils.WriteForbidden(w, denied.Message)
	case errors.As(err, &nf):
		utils.WriteNotFound(w, nf.Message)
	case errors.Is(err, services.ErrNotFound):
		utils.WriteNotFound(w, "Not found")
	default:
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		utils.WriteInternalError(w, err)
	}
}

// currentUser пользователь из токена; без него 401
func currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorized(w, "Authentication required")
	}
	return user, ok
}

// pathID числовой {id} из пути; для нечислового id отвечает 404 с notFound
func pathID(w http.ResponseWriter, r *http.Request, notFound string) (int64, bool) {
	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteNotFound(w, notFound)
		return 0, false
	}
	return id, true
}

// decodeJSON читает тело запроса; битый JSON отдается как ошибка валидации
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := utils.BindJSON(r, v); err != nil {
		utils.WriteValidationError(w, map[string][]string{
			"body": {"The request body must be valid JSON."},
		})
		return false
	}
	return true
}

// isInternal ошибка не относится к валидации, правам или отсутствию ресурса
func isInternal(err error) bool {
	var (
		verr   *services.ValidationError
		denied *policy.DeniedError
	)
	return !errors.As(err, &verr) && !errors.As(err, &denied) && !errors.Is(err, services.ErrNotFound)
}
