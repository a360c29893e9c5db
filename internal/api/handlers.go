package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/arlobright/knxlink/internal/recorder"
)

// healthResponse is the body of GET /api/v1/health.
type healthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Interface      string `json:"interface"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	BrokerOK       *bool  `json:"broker_connected,omitempty"`
	MonitorClients int    `json:"monitor_clients"`
}

// statsResponse is the body of GET /api/v1/stats.
type statsResponse struct {
	Interface    string                     `json:"interface"`
	Recorder     bool                       `json:"recorder_enabled"`
	Frames       int                        `json:"frames"`
	Errors       int                        `json:"errors"`
	MessageCodes []recorder.MessageCodeStat `json:"message_codes,omitempty"`
}

// handleHealth reports gateway liveness and broker connectivity.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:         "ok",
		Version:        s.version,
		Interface:      s.iface,
		UptimeSeconds:  int64(time.Since(s.started).Seconds()),
		MonitorClients: s.hub.ClientCount(),
	}
	if s.broker != nil {
		connected := s.broker.IsConnected()
		resp.BrokerOK = &connected
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleStats reports recorded traffic statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Interface: s.iface}

	if s.stats == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Recorder = true

	ctx := r.Context()
	frames, err := s.stats.FrameCount(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "querying frame count: "+err.Error())
		return
	}
	errCount, err := s.stats.ErrorCount(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "querying error count: "+err.Error())
		return
	}
	codes, err := s.stats.MessageCodeStats(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "querying message code stats: "+err.Error())
		return
	}

	resp.Frames = frames
	resp.Errors = errCount
	resp.MessageCodes = codes
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck // Response already committed
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
