package monitor

import "time"

type CreateMonitorRequest struct {
	Name             string            `json:"name" validate:"required,max=120"`
	URL              string            `json:"url" validate:"required,url"`
	Method           string            `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD"`
	RequestHeader    map[string]string `json:"request_header"`
	RequestBody      string            `json:"request_body"`
	CheckIntervalSec int32             `json:"check_interval_sec" validate:"required,gte=10"`
	TimeoutSec       int32             `json:"timeout_sec" validate:"required,gte=1"`
	Active           *bool             `json:"active"`
	RepoLink         string            `json:"repo_link" validate:"omitempty,url"`
}

type UpdateMonitorRequest struct {
	Name             *string            `json:"name" validate:"omitempty,max=120"`
	URL              *string            `json:"url" validate:"omitempty,url"`
	Method           *string            `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD"`
	RequestHeader    *map[string]string `json:"request_header"`
	RequestBody      *string            `json:"request_body"`
	CheckIntervalSec *int32             `json:"check_interval_sec" validate:"omitempty,gte=10"`
	TimeoutSec       *int32             `json:"timeout_sec" validate:"omitempty,gte=1"`
	RepoLink         *string            `json:"repo_link" validate:"omitempty,url"`
}

type MonitorResponse struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	URL              string            `json:"url"`
	Method           string            `json:"method"`
	RequestHeader    map[string]string `json:"request_header,omitempty"`
	RequestBody      string            `json:"request_body,omitempty"`
	CheckIntervalSec int32             `json:"check_interval_sec"`
	TimeoutSec       int32             `json:"timeout_sec"`
	Active           bool              `json:"active"`
	Status           Status            `json:"status"`
	LastCheckedAt    *time.Time        `json:"last_checked_at,omitempty"`
	RepoLink         string            `json:"repo_link,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

type ListMonitorsResponse struct {
	Limit    int32             `json:"limit"`
	Offset   int32             `json:"offset"`
	Monitors []MonitorResponse `json:"monitors"`
}

type CheckRecordResponse struct {
	ID             string    `json:"id"`
	Status         Status    `json:"status"`
	StatusCode     *int32    `json:"status_code,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

type LiveStatusResponse struct {
	MonitorID      string     `json:"monitor_id"`
	Status         Status     `json:"status"`
	StatusCode     *int32     `json:"status_code,omitempty"`
	ResponseTimeMs int64      `json:"response_time_ms"`
	CheckedAt      *time.Time `json:"checked_at,omitempty"`
	Cached         bool       `json:"cached"`
}

type HistoryResponse struct {
	MonitorID string                `json:"monitor_id"`
	Limit     int32                 `json:"limit"`
	Offset    int32                 `json:"offset"`
	Checks    []CheckRecordResponse `json:"checks"`
}

func toMonitorResponse(m Monitor) MonitorResponse {
	resp := MonitorResponse{
		ID:               m.ID.String(),
		Name:             m.Name,
		URL:              m.URL,
		Method:           m.Method,
		RequestHeader:    m.RequestHeader,
		RequestBody:      m.RequestBody,
		CheckIntervalSec: m.CheckIntervalSec,
		TimeoutSec:       m.TimeoutSec,
		Active:           m.Active,
		Status:           m.Status,
		RepoLink:         m.RepoLink,
		CreatedAt:        m.CreatedAt,
	}
	if !m.LastCheckedAt.IsZero() {
		t := m.LastCheckedAt
		resp.LastCheckedAt = &t
	}
	return resp
}

func toLiveStatusResponse(ls LiveStatus) LiveStatusResponse {
	resp := LiveStatusResponse{
		MonitorID:      ls.MonitorID.String(),
		Status:         ls.Status,
		ResponseTimeMs: ls.ResponseTimeMs,
		Cached:         ls.Cached,
	}
	if ls.StatusCode != 0 {
		code := ls.StatusCode
		resp.StatusCode = &code
	}
	if !ls.CheckedAt.IsZero() {
		t := ls.CheckedAt
		resp.CheckedAt = &t
	}
	return resp
}

func toCheckRecordResponse(rec CheckRecord) CheckRecordResponse {
	resp := CheckRecordResponse{
		ID:             rec.ID.String(),
		Status:         rec.Status,
		ResponseTimeMs: rec.ResponseTimeMs,
		ErrorMessage:   rec.ErrorMessage,
		CheckedAt:      rec.CheckedAt,
	}
	if rec.StatusCode != 0 {
		code := rec.StatusCode
		resp.StatusCode = &code
	}
	return resp
}
