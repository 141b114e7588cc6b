package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/voxlane/frontdesk/internal/telephony"
	"github.com/voxlane/frontdesk/internal/version"
)

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	ActiveCalls int    `json:"activeCalls"`
	UptimeSec   int64  `json:"uptimeSec"`
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var uptime int64
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Version:     version.Version,
		ActiveCalls: s.deps.Registry.Len(),
		UptimeSec:   uptime,
	})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeTwiML renders a TwiML document to the response. Render errors are
// unrecoverable mid-call, so the fallback is an empty document.
func (s *Server) writeTwiML(w http.ResponseWriter, resp *telephony.Response) {
	body, err := resp.Render()
	if err != nil {
		s.log.Error().Err(err).Msg("twiml render failed")
		body, _ = telephony.NewResponse().Render()
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Write(body)
}
