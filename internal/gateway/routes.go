package gateway

import "net/http"

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Twilio voice webhooks
	mux.HandleFunc("POST /voice/incoming", s.handleIncomingCall)
	mux.HandleFunc("POST /voice/speech", s.handleSpeech)
	mux.HandleFunc("POST /voice/respond", s.handleRespond)
	mux.HandleFunc("POST /voice/recording", s.handleRecording)
	mux.HandleFunc("POST /voice/status", s.handleCallStatus)
	mux.HandleFunc("GET /voice/greeting", s.handleGreetingAudio)
	mux.HandleFunc("GET /voice/audio", s.handleReplyAudio)

	// Twilio messaging webhook
	mux.HandleFunc("POST /sms/incoming", s.handleIncomingSMS)

	// Dashboard API
	mux.HandleFunc("GET /api/appointments", s.handleListAppointments)
	mux.HandleFunc("POST /api/appointments", s.handleCreateAppointment)
	mux.HandleFunc("POST /api/appointments/{id}/accept", s.handleAcceptAppointment)
	mux.HandleFunc("POST /api/appointments/{id}/reject", s.handleRejectAppointment)
	mux.HandleFunc("GET /api/messages", s.handleListMessages)
	mux.HandleFunc("POST /api/messages", s.handleCreateMessage)
	mux.HandleFunc("POST /api/messages/{id}/read", s.handleMarkMessageRead)
	mux.HandleFunc("GET /api/calls", s.handleListCalls)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws/events", s.events.HandleWS)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}
