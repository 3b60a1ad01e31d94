package remedy

import (
	"encoding/json"
	"net/http"

	middle "github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/middleware"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type TriggerRequest struct {
	Instruction string `json:"instruction" validate:"required,max=4000"`
}

type TriggerResponse struct {
	JobID string `json:"job_id"`
}

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service, validator *validator.Validate) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
	}
}

// POST /remediations/{jobID}/trigger
func (h *Handler) TriggerRemediation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	user, ok := middle.UserFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "job id is required")
		return
	}

	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	enqueuedID, err := h.service.Trigger(ctx, user.UserID, jobID, req.Instruction)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusAccepted, reqID, "remediation enqueued", TriggerResponse{JobID: enqueuedID})
}
