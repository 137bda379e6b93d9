// Package schedules stores the weekly booking rules of each appointment type.
package schedules

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("schedule not found")
)

// Mode says how a day accepts bookings.
type Mode string

const (
	ModeAllDay      Mode = "24h"
	ModeAppointment Mode = "appointment"
	ModeCustom      Mode = "custom"
)

// TimeRange is an HH:MM opening window within one day.
type TimeRange struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// DayRule is the booking rule for one weekday.
type DayRule struct {
	ID     string      `json:"id"`
	Label  string      `json:"label"`
	Mode   Mode        `json:"mode"`
	Ranges []TimeRange `json:"ranges,omitempty"`
}

// Definition is the complete schedule of one appointment type. It is always
// written as a whole document.
type Definition struct {
	AppointmentType string    `json:"appointmentType"`
	Days            []DayRule `json:"schedule"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ValidationError describes an invalid schedule document.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return "schedules: " + e.Message
}

// Normalize trims identifiers and drops ranges on 24h days.
func (d *Definition) Normalize() {
	d.AppointmentType = strings.TrimSpace(d.AppointmentType)
	for i := range d.Days {
		day := &d.Days[i]
		day.ID = strings.TrimSpace(day.ID)
		day.Label = strings.TrimSpace(day.Label)
		day.Mode = Mode(strings.ToLower(strings.TrimSpace(string(day.Mode))))
		if day.Mode == ModeAllDay {
			day.Ranges = nil
		}
	}
}

func (d *Definition) Validate() error {
	var missing []string
	if d.AppointmentType == "" {
		missing = append(missing, "appointmentType")
	}
	if len(d.Days) == 0 {
		missing = append(missing, "schedule")
	}
	if len(missing) > 0 {
		return &ValidationError{Message: "missing required fields", Fields: missing}
	}

	seen := make(map[string]bool, len(d.Days))
	for i, day := range d.Days {
		field := fmt.Sprintf("schedule[%d]", i)
		if day.ID == "" {
			return &ValidationError{Message: "day id is required", Fields: []string{field + ".id"}}
		}
		if seen[day.ID] {
			return &ValidationError{Message: "duplicate day " + day.ID, Fields: []string{field + ".id"}}
		}
		seen[day.ID] = true
		if day.Label == "" {
			return &ValidationError{Message: "day label is required", Fields: []string{field + ".label"}}
		}

		switch day.Mode {
		case ModeAllDay, ModeAppointment:
		case ModeCustom:
			if len(day.Ranges) == 0 {
				return &ValidationError{Message: "custom days need at least one range", Fields: []string{field + ".ranges"}}
			}
		default:
			return &ValidationError{Message: fmt.Sprintf("unknown mode %q", day.Mode), Fields: []string{field + ".mode"}}
		}
		for j, r := range day.Ranges {
			if err := r.validate(); err != nil {
				return &ValidationError{Message: err.Error(), Fields: []string{fmt.Sprintf("%s.ranges[%d]", field, j)}}
			}
		}
	}
	return nil
}

func (r TimeRange) validate() error {
	open, err := time.Parse("15:04", r.Open)
	if err != nil {
		return fmt.Errorf("open time %q must be HH:MM", r.Open)
	}
	closing, err := time.Parse("15:04", r.Close)
	if err != nil {
		return fmt.Errorf("close time %q must be HH:MM", r.Close)
	}
	if !open.Before(closing) {
		return fmt.Errorf("range %s-%s closes before it opens", r.Open, r.Close)
	}
	return nil
}
