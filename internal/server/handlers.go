package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sentinelops/aws-log-sentinel/internal/audit"
	"github.com/sentinelops/aws-log-sentinel/internal/cloud"
	"github.com/sentinelops/aws-log-sentinel/internal/events"
)

// redactRequest is the body of POST /v1/redact
type redactRequest struct {
	Text string `json:"text"`
}

// redactResponse is the reply of POST /v1/redact
type redactResponse struct {
	Text     string `json:"text"`
	Redacted bool   `json:"redacted"`
}

// redactBatchRequest is the body of POST /v1/redact/batch
type redactBatchRequest struct {
	Texts []string `json:"texts"`
}

// redactBatchResponse is the reply of POST /v1/redact/batch
type redactBatchResponse struct {
	Texts    []string `json:"texts"`
	Redacted bool     `json:"redacted"`
}

// handleRedact sanitizes a single text
func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	var req redactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text, redacted := s.engine.Redact(req.Text)
	writeJSON(w, http.StatusOK, redactResponse{Text: text, Redacted: redacted})
}

// handleRedactBatch sanitizes a sequence of texts, preserving order
func (s *Server) handleRedactBatch(w http.ResponseWriter, r *http.Request) {
	var req redactBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	texts, redacted := s.engine.RedactBatch(req.Texts)
	writeJSON(w, http.StatusOK, redactBatchResponse{Texts: texts, Redacted: redacted})
}

// handleListProfiles lists the loaded compliance profiles
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": s.engine.ListProfiles(),
	})
}

// handleStats reports operational counters: cache performance, audit
// trail totals with the newest events, and connected dashboard clients.
// Disabled subsystems are simply absent from the response.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"websocket": map[string]interface{}{
			"active_clients": s.hub.ActiveClients(),
		},
	}

	if s.cache != nil {
		stats, err := s.cache.GetStats(r.Context())
		if err != nil {
			s.logger.Warn("Failed to collect cache stats", zap.Error(err))
		} else {
			resp["cache"] = stats
		}
	}

	if s.audit != nil {
		stats, err := s.audit.GetStats(r.Context())
		if err != nil {
			s.logger.Warn("Failed to collect audit stats", zap.Error(err))
		} else {
			recent, err := s.audit.Recent(r.Context(), 10)
			if err != nil {
				s.logger.Warn("Failed to query recent audit events", zap.Error(err))
			}
			resp["audit"] = map[string]interface{}{
				"stats":  stats,
				"recent": recent,
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleListLogGroups lists CloudWatch log groups, optionally filtered by
// prefix
func (s *Server) handleListLogGroups(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	prefix := r.URL.Query().Get("prefix")

	list, err := s.logs.ListLogGroups(r.Context(), prefix)
	if err != nil {
		s.writeToolError(w, r, "list_log_groups", err)
		return
	}

	groups, redacted := s.engine.RedactBatch(list.Groups)
	list.Groups = groups

	s.recordToolCall(r, "list_log_groups", len(groups), redacted, start)
	writeJSON(w, http.StatusOK, list)
}

// handleRecentErrors queries a log group for recent error patterns. The
// sanitized report may be served from cache within its TTL.
func (s *Server) handleRecentErrors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logGroup := r.URL.Query().Get("group")
	if logGroup == "" {
		writeError(w, http.StatusBadRequest, "missing required query parameter: group")
		return
	}

	minutes := 15
	if raw := r.URL.Query().Get("minutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid minutes parameter")
			return
		}
		minutes = parsed
	}

	// Cached reports are already sanitized.
	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.ErrorReportKey(logGroup, minutes)
		if report, ok := s.cache.GetErrorReport(r.Context(), cacheKey); ok {
			writeJSON(w, http.StatusOK, report)
			return
		}
	}

	report, err := s.logs.RecentErrors(r.Context(), logGroup, minutes)
	if err != nil {
		s.writeToolError(w, r, "check_recent_errors", err)
		return
	}

	redacted := s.sanitizeErrorReport(report)

	if s.cache != nil {
		if err := s.cache.SetErrorReport(r.Context(), cacheKey, report); err != nil {
			s.logger.Warn("Failed to cache error report", zap.Error(err))
		}
	}

	s.recordToolCall(r, "check_recent_errors", len(report.Errors), redacted, start)
	writeJSON(w, http.StatusOK, report)
}

// handleDeploymentStatus reports the latest CodeDeploy deployment for an
// application
func (s *Server) handleDeploymentStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	application := mux.Vars(r)["application"]

	report, err := s.deploys.DeploymentStatus(r.Context(), application)
	if err != nil {
		s.writeToolError(w, r, "check_deployment_status", err)
		return
	}

	redacted := s.sanitizeDeploymentReport(report)

	s.recordToolCall(r, "check_deployment_status", 1, redacted, start)
	writeJSON(w, http.StatusOK, report)
}

// sanitizeErrorReport runs every log message through the engine in place
func (s *Server) sanitizeErrorReport(report *cloud.ErrorReport) bool {
	messages := make([]string, len(report.Errors))
	for i, e := range report.Errors {
		messages[i] = e.Message
	}

	sanitized, redacted := s.engine.RedactBatch(messages)
	for i := range report.Errors {
		report.Errors[i].Message = sanitized[i]
	}
	return redacted
}

// sanitizeDeploymentReport runs the free-text fields of a deployment
// report through the engine in place
func (s *Server) sanitizeDeploymentReport(report *cloud.DeploymentReport) bool {
	redacted := false

	clean := func(text string) string {
		out, changed := s.engine.Redact(text)
		if changed {
			redacted = true
		}
		return out
	}

	report.Message = clean(report.Message)
	if d := report.Deployment; d != nil {
		d.RevisionLocation = clean(d.RevisionLocation)
		if d.ErrorInfo != nil {
			d.ErrorInfo.Message = clean(d.ErrorInfo.Message)
		}
		if d.RollbackInfo != nil {
			d.RollbackInfo.RollbackMessage = clean(d.RollbackInfo.RollbackMessage)
		}
	}
	return redacted
}

// writeToolError returns a sanitized error to the caller. AWS error
// strings can embed account-specific identifiers, so they go through the
// engine like any other tool output.
func (s *Server) writeToolError(w http.ResponseWriter, r *http.Request, tool string, err error) {
	s.logger.WithRequestID(requestID(r.Context())).Error("Tool call failed",
		zap.String("tool", tool),
		zap.Error(err),
	)

	message, _ := s.engine.Redact(err.Error())
	writeError(w, http.StatusBadGateway, message)
}

// recordToolCall emits the post-sanitization bookkeeping for one tool
// invocation: structured log, dashboard event, and audit row.
func (s *Server) recordToolCall(r *http.Request, tool string, items int, redacted bool, start time.Time) {
	id := requestID(r.Context())
	durationMS := float64(time.Since(start).Nanoseconds()) / 1e6

	s.logger.WithRequestID(id).LogToolCall(tool, durationMS, redacted, nil)

	s.hub.BroadcastEvent(events.Event{
		Type:      events.EventTypeRedaction,
		Timestamp: time.Now(),
		RequestID: id,
		Data: events.RedactionEvent{
			RequestID:  id,
			Tool:       tool,
			Items:      items,
			Redacted:   redacted,
			DurationMS: durationMS,
		},
	})

	if s.audit != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		event := &audit.Event{
			RequestID:  id,
			Tool:       tool,
			Items:      items,
			Redacted:   redacted,
			DurationMS: durationMS,
		}
		if err := s.audit.Record(ctx, event); err != nil {
			s.logger.Warn("Failed to record audit event", zap.Error(err))
		}
	}
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}
