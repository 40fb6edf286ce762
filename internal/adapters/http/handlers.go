package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"workouts/internal/adapters/http/middleware"
	"workouts/internal/domain/workout"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

//go:embed templates/*.html
var templateFS embed.FS

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// internalErrorJSON is internalError for API clients.
func internalErrorJSON(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeMessage(w, http.StatusInternalServerError, "Server Error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeFields decodes a JSON object body into raw workout fields.
// Numbers stay json.Number so validation can tell 5 from 5.5.
func decodeFields(r *http.Request) (workout.Input, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var in workout.Input
	if err := dec.Decode(&in); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return in, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err.Error())
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// requester returns the identity attached by the auth middleware.
func requester(r *http.Request) workout.Requester {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess.Requester()
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

// renderTemplateStatus renders a page inside the layout with the given status code.
func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	role := ""
	name := ""
	if ok {
		role = sess.Role
		name = sess.Name
	}

	funcMap := template.FuncMap{
		"currentRole": func() string { return role },
		"currentName": func() string { return name },
		"isLoggedIn":  func() bool { return role != "" },
		"isAdmin":     func() bool { return role == "admin" },
		"csrfField":   func() template.HTML { return csrf.TemplateField(r) },
		"csrfToken":   func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"displayDate": func(t time.Time) string { return t.UTC().Format("Mon 2 Jan 2006, 15:04") },
		"fieldError": func(errs workout.ValidationErrors, field string) string {
			return errs[field]
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, fmt.Errorf("parse template %s: %w", templateName, err))
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render template %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

