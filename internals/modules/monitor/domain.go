package monitor

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUp      Status = "UP"
	StatusDown    Status = "DOWN"
	StatusUnknown Status = "UNKNOWN"
)

// AllowedMethods is the fixed set of probe methods a monitor may use.
var AllowedMethods = map[string]struct{}{
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"PATCH":  {},
	"DELETE": {},
	"HEAD":   {},
}

type Monitor struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Name             string
	URL              string
	Method           string
	RequestHeader    map[string]string
	RequestBody      string
	CheckIntervalSec int32
	TimeoutSec       int32
	Active           bool
	Status           Status
	LastCheckedAt    time.Time
	RepoLink         string
	CreatedAt        time.Time
}

type CreateMonitorCmd struct {
	UserID           uuid.UUID
	Name             string
	URL              string
	Method           string
	RequestHeader    map[string]string
	RequestBody      string
	CheckIntervalSec int32
	TimeoutSec       int32
	Active           bool
	RepoLink         string
}

// UpdateMonitorCmd carries the whitelisted patch fields. Nil means
// "leave unchanged".
type UpdateMonitorCmd struct {
	Name             *string
	URL              *string
	Method           *string
	RequestHeader    *map[string]string
	RequestBody      *string
	CheckIntervalSec *int32
	TimeoutSec       *int32
	RepoLink         *string
}

func (c UpdateMonitorCmd) Empty() bool {
	return c.Name == nil &&
		c.URL == nil &&
		c.Method == nil &&
		c.RequestHeader == nil &&
		c.RequestBody == nil &&
		c.CheckIntervalSec == nil &&
		c.TimeoutSec == nil &&
		c.RepoLink == nil
}

// LiveStatus is the latest probe outcome for one monitor. Cached reports
// whether it came from the status cache or from the stored row.
type LiveStatus struct {
	MonitorID      uuid.UUID
	Status         Status
	StatusCode     int32
	ResponseTimeMs int64
	CheckedAt      time.Time
	Cached         bool
}

// CheckRecord is the immutable outcome of one probe attempt.
type CheckRecord struct {
	ID             uuid.UUID
	MonitorID      uuid.UUID
	Status         Status
	StatusCode     int32 // 0 when no response was received
	ResponseTimeMs int64
	ErrorMessage   string
	CheckedAt      time.Time
}
