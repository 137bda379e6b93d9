package appointments

import (
	"strings"
	"time"
)

// PendingAppointment is a patient request awaiting staff review.
type PendingAppointment struct {
	ID                string    `json:"id"`
	AppointmentNumber string    `json:"appointmentNumber"`
	AppointmentType   string    `json:"appointmentType"`
	Hospital          string    `json:"hospital,omitempty"`
	ScheduledAt       time.Time `json:"datetime"`
	FullName          string    `json:"fullName"`
	Email             string    `json:"email,omitempty"`
	Mobile            string    `json:"mobile"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ConfirmedAppointment is a request accepted by staff. It keeps the pending
// record's id, number and creation time.
type ConfirmedAppointment struct {
	PendingAppointment
	AcceptedAt time.Time `json:"acceptedAt"`
	SlipRef    string    `json:"slipRef,omitempty"`
}

// CreateRequest is the public booking form.
type CreateRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Mobile          string `json:"mobile"`
	Datetime        string `json:"datetime"`
	AppointmentType string `json:"appointmentType"`
	Hospital        string `json:"hospital"`
}

// Validate reports every missing required field at once.
func (r *CreateRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(r.Mobile) == "" {
		missing = append(missing, "mobile")
	}
	if strings.TrimSpace(r.Datetime) == "" {
		missing = append(missing, "datetime")
	}
	if strings.TrimSpace(r.AppointmentType) == "" {
		missing = append(missing, "appointmentType")
	}
	if len(missing) > 0 {
		return missingFields(missing)
	}
	return nil
}

// UpdateRequest carries a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	FullName        *string `json:"fullName"`
	Email           *string `json:"email"`
	Mobile          *string `json:"mobile"`
	Datetime        *string `json:"datetime"`
	AppointmentType *string `json:"appointmentType"`
	Hospital        *string `json:"hospital"`
}

// ConfirmRequest optionally reschedules while confirming. Date is YYYY-MM-DD
// and Time is HH:MM, both in the clinic's time zone.
type ConfirmRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseDatetime accepts RFC 3339 or a zone-less local datetime, which is
// interpreted in loc.
func parseDatetime(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// override resolves the optional reschedule. Both parts or neither.
func (r ConfirmRequest) override(loc *time.Location) (*time.Time, error) {
	date, clock := strings.TrimSpace(r.Date), strings.TrimSpace(r.Time)
	if date == "" && clock == "" {
		return nil, nil
	}
	if date == "" || clock == "" {
		return nil, invalidField("date and time must be supplied together", "date", "time")
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, date+"T"+clock, loc); err == nil {
			return &t, nil
		}
	}
	return nil, invalidField("invalid date or time", "date", "time")
}

func (r *UpdateRequest) apply(a *PendingAppointment, loc *time.Location) error {
	var blank []string
	set := func(dst *string, src *string, field string, required bool) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if required && v == "" {
			blank = append(blank, field)
			return
		}
		*dst = v
	}
	set(&a.FullName, r.FullName, "fullName", true)
	set(&a.Mobile, r.Mobile, "mobile", true)
	set(&a.AppointmentType, r.AppointmentType, "appointmentType", true)
	set(&a.Email, r.Email, "email", false)
	set(&a.Hospital, r.Hospital, "hospital", false)
	if len(blank) > 0 {
		return missingFields(blank)
	}
	if r.Datetime != nil {
		t, ok := parseDatetime(*r.Datetime, loc)
		if !ok {
			return invalidField("invalid datetime", "datetime")
		}
		a.ScheduledAt = t
	}
	return nil
}
