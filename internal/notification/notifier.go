// Package notification delivers templated email messages to customers and admins.
// Callers treat delivery as best-effort: a failed send is logged, never rolled back into.
package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"
)

// Message is a templated notification request.
type Message struct {
	To       string
	Subject  string
	Template string // template file name without extension, e.g. "two-factor-code"
	Vars     map[string]any
}

// Notifier delivers a rendered message to its recipient.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

//go:embed templates/*.txt
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

// Render renders the named template with the message variables.
func Render(msg Message) (string, error) {
	t := templates.Lookup(msg.Template + ".txt")
	if t == nil {
		return "", fmt.Errorf("notification: unknown template %q", msg.Template)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, msg.Vars); err != nil {
		return "", fmt.Errorf("notification: render %q: %w", msg.Template, err)
	}
	return buf.String(), nil
}
