// Package availability records doctor holidays and the adjusted opening
// hours that apply during them. It is independent of appointment schedules.
package availability

import (
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("availability exception not found")

// Exception is a doctor's holiday window at one hospital.
type Exception struct {
	ID           string    `json:"id"`
	DoctorName   string    `json:"doctor_name"`
	HospitalName string    `json:"hospital_name"`
	HolidayStart string    `json:"holiday_start"` // YYYY-MM-DD
	HolidayEnd   string    `json:"holiday_end"`   // YYYY-MM-DD
	OpenTime     string    `json:"open_time"`     // HH:MM
	CloseTime    string    `json:"close_time"`    // HH:MM
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Input is the create/update body. Every field is required.
type Input struct {
	DoctorName   string `json:"doctor_name"`
	HospitalName string `json:"hospital_name"`
	HolidayStart string `json:"holiday_start"`
	HolidayEnd   string `json:"holiday_end"`
	OpenTime     string `json:"open_time"`
	CloseTime    string `json:"close_time"`
}

// ValidationError lists bad or missing fields.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return "availability: " + e.Message
}

func (in *Input) normalize() {
	in.DoctorName = strings.TrimSpace(in.DoctorName)
	in.HospitalName = strings.TrimSpace(in.HospitalName)
	in.HolidayStart = strings.TrimSpace(in.HolidayStart)
	in.HolidayEnd = strings.TrimSpace(in.HolidayEnd)
	in.OpenTime = strings.TrimSpace(in.OpenTime)
	in.CloseTime = strings.TrimSpace(in.CloseTime)
}

func (in *Input) Validate() error {
	in.normalize()
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"doctor_name", in.DoctorName},
		{"hospital_name", in.HospitalName},
		{"holiday_start", in.HolidayStart},
		{"holiday_end", in.HolidayEnd},
		{"open_time", in.OpenTime},
		{"close_time", in.CloseTime},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Message: "missing required fields", Fields: missing}
	}

	start, err := time.Parse(time.DateOnly, in.HolidayStart)
	if err != nil {
		return &ValidationError{Message: "holiday_start must be YYYY-MM-DD", Fields: []string{"holiday_start"}}
	}
	end, err := time.Parse(time.DateOnly, in.HolidayEnd)
	if err != nil {
		return &ValidationError{Message: "holiday_end must be YYYY-MM-DD", Fields: []string{"holiday_end"}}
	}
	if end.Before(start) {
		return &ValidationError{Message: "holiday_end is before holiday_start", Fields: []string{"holiday_start", "holiday_end"}}
	}
	if _, err := time.Parse("15:04", in.OpenTime); err != nil {
		return &ValidationError{Message: "open_time must be HH:MM", Fields: []string{"open_time"}}
	}
	if _, err := time.Parse("15:04", in.CloseTime); err != nil {
		return &ValidationError{Message: "close_time must be HH:MM", Fields: []string{"close_time"}}
	}
	return nil
}

func (in Input) apply(e *Exception) {
	e.DoctorName = in.DoctorName
	e.HospitalName = in.HospitalName
	e.HolidayStart = in.HolidayStart
	e.HolidayEnd = in.HolidayEnd
	e.OpenTime = in.OpenTime
	e.CloseTime = in.CloseTime
}
