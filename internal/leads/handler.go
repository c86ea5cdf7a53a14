package leads

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/attento-ai/interview-platform/pkg/logging"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new leads handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// CreateLead handles POST /leads requests.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode lead request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrMissingConversation) || errors.Is(err, ErrMissingContact) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create lead", "error", err)
		http.Error(w, "failed to create lead", http.StatusInternalServerError)
		return
	}

	h.logger.Info("lead created", "id", lead.ID, "conversation_id", lead.ConversationID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(lead)
}

// GetLead handles GET /leads/{leadID} requests.
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "leadID")
	if id == "" {
		http.Error(w, "missing lead id", http.StatusBadRequest)
		return
	}

	lead, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			http.Error(w, "lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load lead", "error", err, "id", id)
		http.Error(w, "failed to load lead", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lead)
}
