package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateCheckInRequest schedules a new check-in.
type CreateCheckInRequest struct {
	ClientID        uuid.UUID `json:"clientId" validate:"required"`
	ScheduledAt     time.Time `json:"scheduledAt" validate:"required"`
	DurationMinutes int       `json:"durationMinutes" validate:"min=5,max=480"`
	Notes           *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateCheckInRequest reschedules or annotates an existing check-in.
type UpdateCheckInRequest struct {
	ScheduledAt     *time.Time `json:"scheduledAt,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty" validate:"omitempty,min=5,max=480"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CompleteCheckInRequest marks a check-in done, optionally with notes.
type CompleteCheckInRequest struct {
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ListCheckInsRequest selects a calendar range.
type ListCheckInsRequest struct {
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	ClientID *uuid.UUID `form:"clientId"`
}

// CheckInResponse represents a check-in in API responses.
type CheckInResponse struct {
	ID              uuid.UUID `json:"id"`
	ClientID        uuid.UUID `json:"clientId"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CheckInListResponse wraps a calendar range of check-ins.
type CheckInListResponse struct {
	Items []CheckInResponse `json:"items"`
	Total int               `json:"total"`
}
