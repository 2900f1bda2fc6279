package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jobboard/backend/internal/services"
	"jobboard/backend/internal/storage"
	"jobboard/backend/pkg/utils"
)

type SearchHandler struct {
	search   *services.SearchService
	catalogs *services.CatalogService
	logger   *zap.Logger
}

func NewSearchHandler(search *services.SearchService, catalogs *services.CatalogService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		search:   search,
		catalogs: catalogs,
		logger:   logger,
	}
}

// Search поиск вакансий по фильтрам из query string
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	params := services.SearchParams{
		Query:           strings.TrimSpace(q.Get("query")),
		Location:        strings.TrimSpace(q.Get("location")),
		Category:        strings.TrimSpace(q.Get("category")),
		Skill:           strings.TrimSpace(q.Get("skill")),
		Benefit:         strings.TrimSpace(q.Get("benefit")),
		ExperienceLevel: q.Get("experience_level"),
		WorkType:        q.Get("work_type"),
		SalaryFrom:      q.Get("salary_from"),
		SalaryTo:        q.Get("salary_to"),
		CreatedAt:       q.Get("created_at"),
	}

	jobs, err := h.search.Search(r.Context(), user, params)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, jobs)
}

// Autocomplete подсказки по справочнику
func (h *SearchHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalogs.Autocomplete(r.Context(),
		utils.GetQueryParam(r, "searchtype", ""),
		utils.GetQueryParam(r, "query", ""))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, items)
}

// catalog весь справочник c
func (h *SearchHandler) catalog(c storage.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.catalogs.List(r.Context(), c)
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, items)
	}
}

// Register маршруты поиска и справочников лежат прямо в /api
func (h *SearchHandler) Register(r chi.Router) {
	r.Get("/search", h.Search)
	r.Get("/autocomplete", h.Autocomplete)
	for _, c := range storage.Catalogs {
		r.Get("/"+string(c), h.catalog(c))
	}
}
