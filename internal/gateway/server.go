// Package gateway is the HTTP surface of the receptionist: Twilio voice and
// SMS webhooks, the dashboard API, and the live call-event feed.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/voxlane/frontdesk/internal/call"
	"github.com/voxlane/frontdesk/internal/config"
	"github.com/voxlane/frontdesk/internal/language"
	"github.com/voxlane/frontdesk/internal/ledger"
	"github.com/voxlane/frontdesk/internal/logging"
	"github.com/voxlane/frontdesk/internal/pipeline"
	"github.com/voxlane/frontdesk/internal/store"
	"github.com/voxlane/frontdesk/internal/telephony"
	"github.com/voxlane/frontdesk/internal/version"
)

// Deps are the collaborators a running server needs. All fields are
// required unless noted.
type Deps struct {
	Registry  *call.Registry
	Promises  *call.Promises
	Slots     *ledger.Ledger
	Generator *pipeline.Generator
	Selector  *language.Selector

	Memory      *store.CallerMemoryStore
	Bookings    *store.BookingStore
	Messages    *store.MessageStore
	CallLog     *store.CallLogStore
	SMSSessions *store.SMSSessionStore

	Twilio      *telephony.TwilioClient
	Transcriber telephony.Transcriber
	Synthesizer telephony.Synthesizer // optional, Say fallback when nil
}

// Server handles all inbound HTTP traffic.
type Server struct {
	cfg        *config.Config
	log        *logging.Logger
	deps       Deps
	events     *EventHub
	greetings  *greetingCache
	replies    *replyAudioCache
	startedAt  time.Time
	httpServer *http.Server
}

// New creates a gateway server.
func New(cfg *config.Config, log *logging.Logger, deps Deps) *Server {
	glog := log.Sub("gateway")
	return &Server{
		cfg:       cfg,
		log:       glog,
		deps:      deps,
		events:    NewEventHub(glog, cfg.Gateway.CORSOrigins),
		greetings: newGreetingCache(deps.Synthesizer),
		replies:   newReplyAudioCache(),
	}
}

// Events returns the live event feed hub.
func (s *Server) Events() *EventHub {
	return s.events
}

// Start begins listening. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	host := s.cfg.Gateway.Bind
	if host == "" {
		host = "0.0.0.0"
	}
	addr := fmt.Sprintf("%s:%d", host, s.cfg.Gateway.Port)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := withMiddleware(mux, s.log, s.cfg.Gateway.CORSOrigins)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()
	if s.deps.Synthesizer != nil {
		go s.prewarmGreetings(ctx)
	}
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("version", version.Version).
		Int("tenants", len(s.cfg.Tenants)).
		Msg("gateway server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.events.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// prewarmGreetings synthesizes every tenant's greeting up front so the
// first caller doesn't wait on TTS. Failures are retried lazily on demand.
func (s *Server) prewarmGreetings(ctx context.Context) {
	for i := range s.cfg.Tenants {
		tenant := &s.cfg.Tenants[i]
		if _, err := s.greetings.Get(ctx, tenant); err != nil {
			s.log.Warn().Err(err).Str("tenant", tenant.ID).Msg("greeting prewarm failed")
		}
	}
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// publicURL joins a webhook path onto the externally reachable base URL so
// TwiML callbacks resolve from Twilio's side.
func (s *Server) publicURL(path string, query url.Values) string {
	base := s.cfg.Gateway.PublicURL
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// tenantForCallee resolves which business a webhook belongs to from the
// number the caller dialed.
func (s *Server) tenantForCallee(to string) *config.TenantConfig {
	return s.cfg.TenantByNumber(to)
}
