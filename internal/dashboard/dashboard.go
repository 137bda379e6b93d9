// Package dashboard aggregates appointment and staff counts for the staff UI.
package dashboard

import (
	"context"
	"database/sql"
	"fmt"
)

type Summary struct {
	NewAppointments      int `json:"newAppointments"`
	AcceptedAppointments int `json:"acceptedAppointments"`
	TotalUsers           int `json:"totalUsers"`
}

type MonthCount struct {
	Month int `json:"month"`
	Count int `json:"count"`
}

type HospitalCount struct {
	Hospital string `json:"hospital"`
	Count    int    `json:"count"`
}

type Charts struct {
	MonthlyAppointments     []MonthCount    `json:"monthlyAppointments"`
	AppointmentsPerHospital []HospitalCount `json:"appointmentsPerHospital"`
}

type Stats struct {
	Summary Summary `json:"summary"`
	Charts  Charts  `json:"charts"`
}

// Service runs the aggregate queries.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	if db == nil {
		panic("dashboard: sql db required")
	}
	return &Service{db: db}
}

// Stats returns counts and chart series. Months are 1-12 and always present;
// a zero year means all years. Confirmed appointments are bucketed by the
// time they were accepted.
func (s *Service) Stats(ctx context.Context, year int) (*Stats, error) {
	var st Stats
	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"pending_appointments", &st.Summary.NewAppointments},
		{"confirmed_appointments", &st.Summary.AcceptedAppointments},
		{"staff_users", &st.Summary.TotalUsers},
	} {
		if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("dashboard: count %s: %w", c.table, err)
		}
	}

	monthly, err := s.monthly(ctx, year)
	if err != nil {
		return nil, err
	}
	st.Charts.MonthlyAppointments = monthly

	perHospital, err := s.perHospital(ctx)
	if err != nil {
		return nil, err
	}
	st.Charts.AppointmentsPerHospital = perHospital
	return &st, nil
}

func (s *Service) monthly(ctx context.Context, year int) ([]MonthCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT EXTRACT(MONTH FROM accepted_at)::int AS month, count(*)
		FROM confirmed_appointments
		WHERE ($1 = 0 OR EXTRACT(YEAR FROM accepted_at)::int = $1)
		GROUP BY 1`, year)
	if err != nil {
		return nil, fmt.Errorf("dashboard: monthly: %w", err)
	}
	defer rows.Close()

	months := make([]MonthCount, 12)
	for i := range months {
		months[i].Month = i + 1
	}
	for rows.Next() {
		var month, count int
		if err := rows.Scan(&month, &count); err != nil {
			return nil, fmt.Errorf("dashboard: scan monthly: %w", err)
		}
		if month >= 1 && month <= 12 {
			months[month-1].Count = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard: monthly: %w", err)
	}
	return months, nil
}

func (s *Service) perHospital(ctx context.Context) ([]HospitalCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(trim(hospital), ''), 'Unknown') AS hospital, count(*)
		FROM confirmed_appointments
		GROUP BY 1
		ORDER BY 2 DESC, 1`)
	if err != nil {
		return nil, fmt.Errorf("dashboard: per hospital: %w", err)
	}
	defer rows.Close()

	out := []HospitalCount{}
	for rows.Next() {
		var hc HospitalCount
		if err := rows.Scan(&hc.Hospital, &hc.Count); err != nil {
			return nil, fmt.Errorf("dashboard: scan per hospital: %w", err)
		}
		out = append(out, hc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard: per hospital: %w", err)
	}
	return out, nil
}
