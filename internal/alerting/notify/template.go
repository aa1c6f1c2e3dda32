package notify

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	alerting "room-monitor/internal/alerting/domain"
)

const DefaultAlertTemplate = `Room {{.Room}} reported out-of-range readings at {{.Time}}.
{{range .Breaches}}
{{.Label}}: current reading is {{.Reading}}, {{.Direction}} the configured {{.BoundName}} of {{.Bound}}.
{{- end}}`

const DefaultFailureTemplate = `The monitor in room {{.Room}} failed to read its sensor at {{.Time}}.

{{.Error}}

Readings will resume automatically once the sensor recovers.`

const timeLayout = "01-02-2006 15:04:05"

// Breach describes one out-of-range metric for rendering.
type Breach struct {
	Metric    alerting.Metric
	Label     string
	Reading   string
	Direction string
	BoundName string
	Bound     string
}

// AlertData feeds the alert body template.
type AlertData struct {
	Room     string
	Time     string
	Breaches []Breach
}

// FailureData feeds the sensor-failure body template.
type FailureData struct {
	Room  string
	Time  string
	Error string
}

// Template renders alert and sensor-failure messages.
type Template struct {
	alert   *template.Template
	failure *template.Template
}

// NewTemplate parses the alert body template, falling back to
// DefaultAlertTemplate when tpl is empty.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultAlertTemplate
	}
	alert, err := template.New("alert").Parse(tpl)
	if err != nil {
		return nil, fmt.Errorf("alert template: %w", err)
	}
	failure, err := template.New("sensor-failure").Parse(DefaultFailureTemplate)
	if err != nil {
		return nil, fmt.Errorf("failure template: %w", err)
	}
	return &Template{alert: alert, failure: failure}, nil
}

// RenderAlert produces the message for the breached metrics of one sample.
func (t *Template) RenderAlert(room string, eval alerting.Evaluation, metrics []alerting.Metric, at time.Time) (Message, error) {
	if t == nil || t.alert == nil {
		return Message{}, errors.New("alert template: nil")
	}
	if len(metrics) == 0 {
		return Message{}, errors.New("alert template: no breached metrics")
	}

	data := AlertData{Room: room, Time: at.Format(timeLayout)}
	for _, metric := range metrics {
		data.Breaches = append(data.Breaches, buildBreach(metric, eval))
	}

	var buf bytes.Buffer
	if err := t.alert.Execute(&buf, data); err != nil {
		return Message{}, err
	}
	return Message{
		Subject: alertSubject(room, metrics, at),
		Body:    buf.String(),
	}, nil
}

// RenderFailure produces the message for a sensor read failure.
func (t *Template) RenderFailure(room string, cause error, at time.Time) (Message, error) {
	if t == nil || t.failure == nil {
		return Message{}, errors.New("failure template: nil")
	}
	data := FailureData{Room: room, Time: at.Format(timeLayout)}
	if cause != nil {
		data.Error = cause.Error()
	}

	var buf bytes.Buffer
	if err := t.failure.Execute(&buf, data); err != nil {
		return Message{}, err
	}
	subject := fmt.Sprintf("[SENSOR WARNING]: ROOM %s - %s", room, at.Format(timeLayout))
	return Message{Subject: subject, Body: buf.String()}, nil
}

func alertSubject(room string, metrics []alerting.Metric, at time.Time) string {
	names := make([]string, 0, len(metrics))
	for _, metric := range metrics {
		names = append(names, strings.ToUpper(string(metric)))
	}
	return fmt.Sprintf("[%s WARNING]: ROOM %s - %s", strings.Join(names, "/"), room, at.Format(timeLayout))
}

func buildBreach(metric alerting.Metric, eval alerting.Evaluation) Breach {
	breach := Breach{Metric: metric}
	status := eval.StatusOf(metric)

	switch metric {
	case alerting.MetricHumidity:
		breach.Label = "Humidity"
		breach.Reading = fmt.Sprintf("%.3f %%", eval.Sample.HumidityPct)
	default:
		breach.Label = "Temperature"
		breach.Reading = fmt.Sprintf("%.3f ˚C", eval.Sample.TemperatureC)
	}

	if status == alerting.StatusBelow {
		breach.Direction = "below"
		breach.BoundName = "minimum"
	} else {
		breach.Direction = "above"
		breach.BoundName = "maximum"
	}
	breach.Bound = fmt.Sprintf("%.1f", eval.BoundOf(metric, status))
	return breach
}
