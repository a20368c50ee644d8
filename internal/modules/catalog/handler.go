package catalog

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Handler exposes catalog HTTP endpoints.
type Handler struct {
	service Service
	logger  *zap.Logger
	admin   func(http.Handler) http.Handler
	suggest func(http.Handler) http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithAdminGuard protects every write route with mw.
func WithAdminGuard(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.admin = mw }
}

// WithSuggestLimiter throttles the suggestion endpoint with mw.
func WithSuggestLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.suggest = mw }
}

// NewHandler creates a catalog handler; without options writes are unguarded.
func NewHandler(service Service, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger, admin: passthrough, suggest: passthrough}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func passthrough(next http.Handler) http.Handler { return next }

// RegisterRoutes mounts the plant, category and common storefront routes.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/plants", func(r chi.Router) {
		r.Get("/", h.listPlants)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.getPlant)
		r.Group(func(r chi.Router) {
			r.Use(h.admin)
			r.Post("/", h.createPlant)
			r.Put("/{id}", h.updatePlant)
			r.Delete("/{id}", h.deletePlant)
		})
	})
	r.Route("/api/categories", func(r chi.Router) {
		r.Use(h.admin)
		r.Post("/", h.createCategory)
		r.Delete("/{id}", h.deleteCategory)
	})
	r.Route("/api/common", func(r chi.Router) {
		r.Get("/categories", h.listCategories)
		r.With(h.suggest).Get("/suggest", h.suggestions)
		r.Get("/filter", h.filterPlants)
	})
}

func (h *Handler) listPlants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := ParsePage(q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	f, err := ParseFilter(q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	plants, err := h.service.ListPlants(r.Context(), f, page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, plants)
}

func (h *Handler) filterPlants(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	plants, err := h.service.FilterPlants(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, plants)
}

func (h *Handler) getPlant(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPlant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, p)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, st)
}

func (h *Handler) createPlant(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	in, err := ParsePlantCreate(body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.service.CreatePlant(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, p)
}

func (h *Handler) updatePlant(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	in, err := ParsePlantUpdate(body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.service.UpdatePlant(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, p)
}

func (h *Handler) deletePlant(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePlant(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]string{"message": "Plant deleted"})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req CategoryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, invalid("Request body must be a JSON object with string category and description."))
		return
	}
	c, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]CategoryRef, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryRef{ID: c.ID, Category: c.Category})
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, s)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, invalid("Request body is too large.")
		}
		return nil, invalid("Request body could not be read.")
	}
	return body, nil
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// writeError maps catalog errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		verr *ValidationError
		nerr *NotFoundError
		derr *DuplicateError
		ierr *InvalidIDError
	)
	switch {
	case errors.As(err, &verr):
		h.respond(w, http.StatusBadRequest, ErrorResponse{Message: verr.Message, Errors: verr.Fields})
	case errors.As(err, &ierr):
		h.respond(w, http.StatusBadRequest, ErrorResponse{Message: ierr.Error()})
	case errors.As(err, &nerr):
		h.respond(w, http.StatusNotFound, ErrorResponse{Message: nerr.Error()})
	case errors.As(err, &derr):
		h.respond(w, http.StatusConflict, ErrorResponse{Message: derr.Error()})
	default:
		h.logger.Error("catalog request failed", zap.Error(err))
		h.respond(w, http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
}

// respond writes body as JSON. A body that cannot be encoded is logged and
// answered with a 500.
func (h *Handler) respond(w http.ResponseWriter, status int, body interface{}) {
	payload, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("encode response", zap.Int("status", status), zap.Error(err))
		status = http.StatusInternalServerError
		payload, _ = json.Marshal(ErrorResponse{Message: "Response could not be encoded."})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(payload, '\n'))
}
