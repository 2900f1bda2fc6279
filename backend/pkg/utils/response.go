package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MessageResponse ответ с сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse ответ с ошибкой (403, 401, 429)
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationResponse ответ 422
type ValidationResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// WriteJSON записывает JSON ответ
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteMessage ответ {"message": ...}
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, MessageResponse{Message: message})
}

// WriteError ответ {"error": ...}
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteValidationError ошибка валидации по полям
func WriteValidationError(w http.ResponseWriter, errors map[string][]string) {
	WriteJSON(w, http.StatusUnprocessableEntity, ValidationResponse{
		Message: "Validation failed",
		Errors:  errors,
	})
}

// WriteNotFound 404 ошибка
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteMessage(w, http.StatusNotFound, message)
}

// WriteUnauthorized 401 ошибка
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// WriteForbidden 403 ошибка
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

// WriteInternalError 500 ошибка с текстом причины
func WriteInternalError(w http.ResponseWriter, err error) {
	WriteMessage(w, http.StatusInternalServerError, err.Error())
}

// HealthCheckResponse ответ для health check
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

// WriteHealthCheck записывает health check ответ
func WriteHealthCheck(w http.ResponseWriter, status string, services map[string]string) {
	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	response := HealthCheckResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	}
	WriteJSON(w, code, response)
}

// BindJSON парсит JSON из тела запроса
func BindJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}

	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// IsJSON тело запроса в JSON
func IsJSON(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// GetQueryParam получает параметр из query string
func GetQueryParam(r *http.Request, key string, defaultValue string) string {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// ParseID разбирает положительный числовой id из пути
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
