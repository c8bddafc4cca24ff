package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/confessly/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type ConfessionHandler struct {
	service   *services.ConfessionService
	validator *services.ValidationHelper
}

func NewConfessionHandler(service *services.ConfessionService) *ConfessionHandler {
	return &ConfessionHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// Create posts a new confession
// @Summary Create a confession
// @Description Post a confession with photo and chat prices set by the author
// @Tags confessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.CreateConfessionInput true "Confession data"
// @Success 201 {object} object{id=string}
// @Failure 400 {object} services.ErrorResponse
// @Router /confessions [post]
func (h *ConfessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var input services.CreateConfessionInput
	if err := dec.Decode(&input); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&input); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	id, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		log.Printf("[CONFESSION] Create failed for %s: %v", userID, err)
		services.SendErrorResponse(w, "Failed to create confession", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

// List returns the confession feed
// @Summary List confessions
// @Tags confessions
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} services.ConfessionPage
// @Router /confessions [get]
func (h *ConfessionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		log.Printf("[CONFESSION] List failed: %v", err)
		services.SendErrorResponse(w, "Failed to fetch confessions", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Get returns one confession
// @Summary Get a confession
// @Tags confessions
// @Produce json
// @Param id path string true "Confession ID"
// @Success 200 {object} models.Confession
// @Failure 404 {object} services.ErrorResponse
// @Router /confessions/{id} [get]
func (h *ConfessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	confession, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			services.SendErrorResponse(w, "Confession not found", http.StatusNotFound, nil)
			return
		}
		log.Printf("[CONFESSION] Get failed for %s: %v", id, err)
		services.SendErrorResponse(w, "Failed to fetch confession", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(confession)
}
