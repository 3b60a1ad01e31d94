package alert

import (
	"encoding/json"
	"net/http"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/utils"
	"github.com/go-chi/chi/v5/middleware"
)

// WorkerLogRequest is one streamed log line from a worker process.
type WorkerLogRequest struct {
	Level    string `json:"level" validate:"required,oneof=info warn error"`
	Stage    string `json:"stage" validate:"required"`
	Category string `json:"category"`
	JobID    string `json:"job_id" validate:"required"`
	Repo     string `json:"repo"`
	Message  string `json:"message" validate:"required"`
}

// ReceiveWorkerLog ingests a worker log line into the structured log stream.
// Workers treat this endpoint as best effort, so it only ever fails on bad
// input.
func (h *Handler) ReceiveWorkerLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req WorkerLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	event := h.dispatcher.logger.Info()
	switch req.Level {
	case "warn":
		event = h.dispatcher.logger.Warn()
	case "error":
		event = h.dispatcher.logger.Error()
	}

	event.
		Str("stage", req.Stage).
		Str("category", req.Category).
		Str("job_id", req.JobID).
		Str("repo", req.Repo).
		Msg(req.Message)

	utils.WriteJSON(w, http.StatusAccepted, reqID, "log accepted", struct{}{})
}
