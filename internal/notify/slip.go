package notify

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
	"time"

	"github.com/wolfman30/clinic-booking/internal/appointments"
)

const slipHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}} {{.Number}}</title></head>
<body>
<h1>{{.Clinic}}</h1>
<h2>{{.Title}}</h2>
<table>
<tr><th>Appointment number</th><td>{{.Number}}</td></tr>
<tr><th>Status</th><td>{{.Status}}</td></tr>
<tr><th>Patient</th><td>{{.Patient}}</td></tr>
<tr><th>Mobile</th><td>{{.Mobile}}</td></tr>
<tr><th>Appointment type</th><td>{{.Type}}</td></tr>
{{- if .Hospital}}
<tr><th>Location</th><td>{{.Hospital}}</td></tr>
{{- end}}
<tr><th>Scheduled</th><td>{{.Scheduled}}</td></tr>
{{- if .Accepted}}
<tr><th>Confirmed</th><td>{{.Accepted}}</td></tr>
{{- end}}
</table>
</body>
</html>
`

const slipText = `{{.Title}}

Dear {{.Patient}},

Appointment number: {{.Number}}
Status: {{.Status}}
Appointment type: {{.Type}}
{{- if .Hospital}}
Location: {{.Hospital}}
{{- end}}
Scheduled: {{.Scheduled}}

{{.Clinic}}
`

// Slip is a rendered appointment slip.
type Slip struct {
	Subject string
	Text    string
	HTML    []byte
}

type slipData struct {
	Clinic    string
	Title     string
	Status    string
	Number    string
	Patient   string
	Mobile    string
	Type      string
	Hospital  string
	Scheduled string
	Accepted  string
}

// SlipRenderer renders slips with times shown in the clinic's zone.
type SlipRenderer struct {
	clinic   string
	location *time.Location
	html     *template.Template
	text     *texttemplate.Template
}

func NewSlipRenderer(clinicName string, loc *time.Location) *SlipRenderer {
	if loc == nil {
		loc = time.Local
	}
	return &SlipRenderer{
		clinic:   clinicName,
		location: loc,
		html:     template.Must(template.New("slip.html").Option("missingkey=error").Parse(slipHTML)),
		text:     texttemplate.Must(texttemplate.New("slip.txt").Option("missingkey=error").Parse(slipText)),
	}
}

const slipTimeLayout = "Mon, 02 Jan 2006 15:04 MST"

// Render builds the slip for kind. Confirmed slips include the acceptance time.
func (r *SlipRenderer) Render(kind jobKind, appt appointments.ConfirmedAppointment) (*Slip, error) {
	data := slipData{
		Clinic:    r.clinic,
		Number:    appt.AppointmentNumber,
		Patient:   appt.FullName,
		Mobile:    appt.Mobile,
		Type:      appt.AppointmentType,
		Hospital:  appt.Hospital,
		Scheduled: appt.ScheduledAt.In(r.location).Format(slipTimeLayout),
	}
	switch kind {
	case jobKindReceived:
		data.Title = "Appointment request received"
		data.Status = "Pending confirmation"
	case jobKindConfirmed:
		data.Title = "Appointment confirmed"
		data.Status = "Confirmed"
		data.Accepted = appt.AcceptedAt.In(r.location).Format(slipTimeLayout)
	default:
		return nil, fmt.Errorf("notify: unknown slip kind %q", kind)
	}

	var html, text bytes.Buffer
	if err := r.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("notify: render slip html: %w", err)
	}
	if err := r.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("notify: render slip text: %w", err)
	}
	return &Slip{
		Subject: fmt.Sprintf("%s (%s)", data.Title, data.Number),
		Text:    text.String(),
		HTML:    html.Bytes(),
	}, nil
}
