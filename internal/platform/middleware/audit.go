package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/platform/auth"
)

// AuditEntry records one access to patient data.
type AuditEntry struct {
	Timestamp  time.Time
	RequestID  string
	UserID     string
	UserRoles  []string
	Resource   string
	PatientID  string
	Action     string
	Method     string
	Path       string
	IPAddress  string
	StatusCode int
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error { return f(entry) }

// auditedResources are the API collections that hold patient data.
var auditedResources = map[string]bool{
	"patients":        true,
	"appointments":    true,
	"medical-records": true,
}

// Audit logs every request that touches patient data, after the handler ran
// so the status is known. Entries also go to recorder when one is given.
func Audit(logger zerolog.Logger, recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			resource := auditResource(req.URL.Path)
			if resource == "" {
				return next(c)
			}

			err := next(c)

			ctx := req.Context()
			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				RequestID:  requestID(c),
				UserID:     auth.UserIDFromContext(ctx),
				UserRoles:  auth.RolesFromContext(ctx),
				Resource:   resource,
				PatientID:  auditPatientID(c, resource),
				Action:     auditAction(req.Method),
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
			}
			if recorder != nil {
				if rerr := recorder.RecordAccess(entry); rerr != nil {
					logger.Error().Err(rerr).Str("request_id", entry.RequestID).Msg("failed to record audit entry")
				}
			}
			logger.Info().
				Str("type", "patient_data_access").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("resource", entry.Resource).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("audit")
			return err
		}
	}
}

// auditResource returns the audited collection addressed by path, if any.
// /api/v1/admin/patients counts as patients.
func auditResource(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/v1/")
	if !ok {
		return ""
	}
	rest = strings.TrimPrefix(rest, "admin/")
	name, _, _ := strings.Cut(rest, "/")
	if auditedResources[name] {
		return name
	}
	return ""
}

func auditAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return "read"
}

// auditPatientID finds the patient a request is about: the id in a
// /patients/<id> path, or the patient_id query parameter.
func auditPatientID(c echo.Context, resource string) string {
	if resource == "patients" {
		path := strings.TrimPrefix(c.Request().URL.Path, "/api/v1/")
		path = strings.TrimPrefix(path, "admin/")
		if id, _, _ := strings.Cut(strings.TrimPrefix(path, "patients/"), "/"); isUUID(id) {
			return id
		}
	}
	if id := c.QueryParam("patient_id"); isUUID(id) {
		return id
	}
	return ""
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return s != "" && err == nil
}
