package alert

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/utils"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SendAlertRequest is posted by worker processes once a diagnostic or
// remediation job finishes.
type SendAlertRequest struct {
	MonitorID    string `json:"monitor_id" validate:"required,uuid"`
	MonitorName  string `json:"monitor_name"`
	URL          string `json:"url" validate:"required,url"`
	Status       string `json:"status" validate:"required,oneof=UP DOWN"`
	StatusCode   int32  `json:"status_code"`
	ErrorMessage string `json:"error_message"`
	RepoLink     string `json:"repo_link" validate:"omitempty,url"`
	Analysis     string `json:"analysis"`
	CommitLink   string `json:"commit_link" validate:"omitempty,url"`
	PRLink       string `json:"pr_link" validate:"omitempty,url"`
	Timestamp    string `json:"timestamp"`
}

type SendAlertResponse struct {
	Deliveries []DeliveryResult `json:"deliveries"`
}

type Handler struct {
	dispatcher *Dispatcher
	validator  *validator.Validate
}

func NewHandler(dispatcher *Dispatcher, validator *validator.Validate) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		validator:  validator,
	}
}

func (h *Handler) SendAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req SendAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	monitorID, err := uuid.Parse(req.MonitorID)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	msg := AlertMessage{
		MonitorID:    monitorID,
		MonitorName:  req.MonitorName,
		URL:          req.URL,
		Status:       req.Status,
		StatusCode:   req.StatusCode,
		ErrorMessage: req.ErrorMessage,
		RepoLink:     req.RepoLink,
		Analysis:     req.Analysis,
		CommitLink:   req.CommitLink,
		PRLink:       req.PRLink,
	}
	if req.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
			msg.Timestamp = ts
		}
	}

	results, err := h.dispatcher.Dispatch(ctx, msg)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "alert dispatched", SendAlertResponse{Deliveries: results})
}
