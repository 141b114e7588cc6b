package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/voxlane/frontdesk/internal/call"
	"github.com/voxlane/frontdesk/internal/config"
	"github.com/voxlane/frontdesk/internal/domain"
	"github.com/voxlane/frontdesk/internal/language"
	"github.com/voxlane/frontdesk/internal/pipeline"
	"github.com/voxlane/frontdesk/internal/telephony"
)

// generateTimeout bounds one reply generation including its side effects.
const generateTimeout = 60 * time.Second

// fillers are spoken while the reply is being generated so the caller never
// hears dead air. Rotated per turn.
var fillers = []string{
	"One moment.",
	"Let me check that for you.",
	"Just a second.",
}

// handleIncomingCall answers a new call: resolve the tenant, open a
// session, play the greeting, and start listening.
func (s *Server) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	callSID := r.PostFormValue("CallSid")
	from := r.PostFormValue("From")
	to := r.PostFormValue("To")

	tenant := s.tenantForCallee(to)
	if tenant == nil {
		s.log.Warn().Str("to", to).Msg("call for unconfigured number")
		s.writeTwiML(w, telephony.NewResponse().Add(
			telephony.Say{Text: "This number is not in service. Goodbye."},
			telephony.Hangup{},
		))
		return
	}

	sess := s.deps.Registry.Create(callSID, from, to, tenant.ID)
	sess.Memory = s.deps.Memory.Get(tenant.ID, from)
	sess.State = domain.StateListening

	s.log.Info().
		Str("call", callSID).
		Str("tenant", tenant.ID).
		Str("from", from).
		Msg("call started")
	s.events.Broadcast("call.started", map[string]string{
		"callSid": callSID, "tenantId": tenant.ID, "from": from,
	})

	var greet any = telephony.Say{Text: greetingText(tenant)}
	if s.deps.Synthesizer != nil {
		greet = telephony.Play{URL: s.publicURL("/voice/greeting", url.Values{"tenant": {tenant.ID}})}
	}

	s.writeTwiML(w, telephony.NewResponse().Add(
		telephony.Gather{
			Input:         "speech",
			Action:        s.publicURL("/voice/speech", nil),
			Method:        "POST",
			Language:      "en-US",
			SpeechTimeout: "auto",
			Nested:        []any{greet},
		},
		telephony.Say{Text: "Sorry, I didn't catch anything. Goodbye."},
		telephony.Hangup{},
	))
}

// handleSpeech receives a live-recognition transcript and either accepts it
// or asks the caller to repeat via record-and-transcribe when the script
// cannot be trusted.
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	callSID := r.PostFormValue("CallSid")
	text := r.PostFormValue("SpeechResult")
	confidence, _ := strconv.ParseFloat(r.PostFormValue("Confidence"), 64)

	sess := s.deps.Registry.Get(callSID)
	if sess == nil {
		s.hangupUnknownCall(w, r, callSID)
		return
	}
	tenant := s.cfg.Tenant(sess.TenantID)

	if text == "" {
		s.writeTwiML(w, s.listen(sess, telephony.Say{Text: "Sorry, I didn't catch that. Could you say it again?"}))
		return
	}

	lang := s.deps.Selector.Detect(r.Context(), text)
	dec := language.Evaluate(lang, sess.FirstUtterance(), confidence)
	if dec.Recapture {
		sess.Language = dec.Language
		s.log.Info().
			Str("call", callSID).
			Str("language", dec.Language).
			Float64("confidence", confidence).
			Msg("transcript untrusted, recapturing")
		s.writeTwiML(w, telephony.NewResponse().Add(
			telephony.Say{Language: dec.LocaleHint, Text: "Please repeat that after the beep."},
			s.recordVerb(),
		))
		return
	}

	s.acceptUtterance(w, sess, tenant, text, dec)
}

// handleRecording receives a finished recording, transcribes it, and feeds
// the transcript into the normal turn flow.
func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	callSID := r.PostFormValue("CallSid")
	recordingURL := r.PostFormValue("RecordingUrl")

	sess := s.deps.Registry.Get(callSID)
	if sess == nil {
		s.hangupUnknownCall(w, r, callSID)
		return
	}
	tenant := s.cfg.Tenant(sess.TenantID)

	audio, err := s.deps.Twilio.DownloadRecording(r.Context(), recordingURL)
	if err != nil {
		s.log.Error().Err(err).Str("call", callSID).Msg("recording download failed")
		s.writeTwiML(w, s.listen(sess, telephony.Say{Text: "I'm sorry, I couldn't hear that. Could you say it again?"}))
		return
	}

	text, err := s.deps.Transcriber.Transcribe(r.Context(), audio, sess.Language)
	if err != nil || text == "" {
		s.log.Error().Err(err).Str("call", callSID).Msg("transcription failed")
		s.writeTwiML(w, s.listen(sess, telephony.Say{Text: "I'm sorry, I couldn't hear that. Could you say it again?"}))
		return
	}

	// The transcript may reveal the caller switched languages; re-detect,
	// but never re-capture a transcript that came through this path.
	lang := s.deps.Selector.Detect(r.Context(), text)
	dec := language.Evaluate(lang, false, 1.0)
	dec.Recapture = false
	s.acceptUtterance(w, sess, tenant, text, dec)
}

// acceptUtterance commits a caller turn, kicks off generation in the
// background, and responds immediately with a filler so the line never goes
// quiet.
func (s *Server) acceptUtterance(w http.ResponseWriter, sess *domain.CallSession, tenant *config.TenantConfig, text string, dec language.Decision) {
	sess.Language = dec.Language
	sess.Turns = append(sess.Turns, domain.Turn{
		Role: domain.RoleCaller, Content: text, Timestamp: time.Now(),
	})
	sess.State = domain.StateAwaiting

	turns := make([]domain.Turn, len(sess.Turns))
	copy(turns, sess.Turns)
	req := pipeline.Request{
		Tenant:      tenant,
		Turns:       turns,
		Memory:      sess.Memory,
		Language:    sess.Language,
		CallerPhone: sess.From,
		Source:      "phone",
	}

	s.deps.Promises.Begin(sess.CallSID)
	go s.generate(sess.CallSID, req)

	filler := fillers[len(sess.Turns)%len(fillers)]
	s.writeTwiML(w, telephony.NewResponse().Add(
		telephony.Say{Language: dec.LocaleHint, Text: filler},
		telephony.Redirect{Method: "POST", URL: s.respondURL(1)},
	))
}

// generate runs the pipeline off the webhook path and settles the call's
// promise. A panic settles an error; the caller hears an apology instead of
// silence.
func (s *Server) generate(callSID string, req pipeline.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error().Interface("panic", rec).Str("call", callSID).Msg("generation panicked")
			s.deps.Promises.Settle(callSID, call.Result{Outcome: call.OutcomeError})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	reply, err := s.deps.Generator.Respond(ctx, req)
	if err != nil {
		s.log.Error().Err(err).Str("call", callSID).Msg("generation failed")
		s.deps.Promises.Settle(callSID, call.Result{Outcome: call.OutcomeError})
		return
	}

	audioRef := s.synthesizeReply(ctx, callSID, reply.Text)
	if reply.ForwardTo != "" {
		s.deps.Promises.Settle(callSID, call.Result{
			Outcome: call.OutcomeForward, Text: reply.Text, ForwardTo: reply.ForwardTo, AudioRef: audioRef,
		})
		return
	}
	s.deps.Promises.Settle(callSID, call.Result{
		Outcome: call.OutcomeReady, Text: reply.Text, Booked: reply.Booked, AudioRef: audioRef,
	})
}

// synthesizeReply turns the reply text into audio and parks it for the
// poll handler's TwiML to play. Returns an empty reference when no
// synthesizer is configured or TTS fails; the reply degrades to <Say>.
func (s *Server) synthesizeReply(ctx context.Context, callSID, text string) string {
	if s.deps.Synthesizer == nil || text == "" {
		return ""
	}
	audio, err := s.deps.Synthesizer.Synthesize(ctx, text)
	if err != nil {
		s.log.Warn().Err(err).Str("call", callSID).Msg("reply synthesis failed")
		return ""
	}
	return s.replies.Put(audio)
}

// replyVerb is the spoken form of a settled result: natural TTS when a
// clip was synthesized, plain <Say> otherwise.
func (s *Server) replyVerb(sess *domain.CallSession, res call.Result) any {
	if res.AudioRef != "" {
		return telephony.Play{URL: s.publicURL("/voice/audio", url.Values{"id": {res.AudioRef}})}
	}
	return telephony.Say{Language: language.LocaleHint(sess.Language), Text: res.Text}
}

// handleRespond is the poll loop: speak the reply if it is ready, otherwise
// pause briefly and redirect back here, up to the configured retry budget.
func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	callSID := r.PostFormValue("CallSid")
	attempt, _ := strconv.Atoi(r.URL.Query().Get("attempt"))
	if attempt < 1 {
		attempt = 1
	}

	sess := s.deps.Registry.Get(callSID)
	if sess == nil {
		s.hangupUnknownCall(w, r, callSID)
		return
	}

	tenant := s.cfg.Tenant(sess.TenantID)

	if _, settled := s.deps.Promises.Poll(callSID); !settled {
		if attempt >= s.cfg.Call.MaxPollAttempts {
			s.deps.Promises.Drop(callSID)
			s.log.Warn().Str("call", callSID).Int("attempts", attempt).Msg("reply never arrived")
			s.writeTwiML(w, s.errorRecovery(sess, tenant))
			return
		}
		s.writeTwiML(w, telephony.NewResponse().Add(
			telephony.Pause{Length: s.cfg.Call.PollPauseSec},
			telephony.Redirect{Method: "POST", URL: s.respondURL(attempt + 1)},
		))
		return
	}

	res, _ := s.deps.Promises.Take(callSID)
	switch res.Outcome {
	case call.OutcomeForward:
		sess.State = domain.StateForwarding
		sess.Outcome = domain.OutcomeForwarded
		s.events.Broadcast("call.forwarded", map[string]string{
			"callSid": callSID, "to": res.ForwardTo,
		})
		resp := telephony.NewResponse()
		if res.Text != "" {
			resp.Add(s.replyVerb(sess, res))
		}
		resp.Add(
			telephony.Dial{CallerID: s.cfg.Twilio.FromNumber, Number: res.ForwardTo},
			// Reached only if the bridge fails; a completed dial ends the call.
			telephony.Say{Text: "I'm sorry, I wasn't able to connect you. Please call back later."},
			telephony.Hangup{},
		)
		s.writeTwiML(w, resp)

	case call.OutcomeReady:
		sess.Turns = append(sess.Turns, domain.Turn{
			Role: domain.RoleAssistant, Content: res.Text, Timestamp: time.Now(),
		})
		sess.State = domain.StateSpeaking
		if res.Booked != nil {
			sess.CallerName = res.Booked.Name
			sess.CallReason = res.Booked.Reason
			s.events.Broadcast("appointment.booked", res.Booked)
		}
		s.writeTwiML(w, s.listen(sess, s.replyVerb(sess, res)))

	default:
		s.writeTwiML(w, s.errorRecovery(sess, tenant))
	}
}

// handleCallStatus finalizes the call on the first terminal status event.
// Duplicate deliveries find no session and do nothing.
func (s *Server) handleCallStatus(w http.ResponseWriter, r *http.Request) {
	callSID := r.PostFormValue("CallSid")
	status := r.PostFormValue("CallStatus")

	if !telephony.TerminalStatus(status) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sess := s.deps.Registry.Remove(callSID)
	w.WriteHeader(http.StatusNoContent)
	if sess == nil {
		return
	}
	s.finalize(sess, status)
}

// finalize writes the call log entry and the caller memory, exactly once
// per call.
func (s *Server) finalize(sess *domain.CallSession, status string) {
	sess.State = domain.StateEnded
	s.deps.Promises.Drop(sess.CallSID)

	hadConversation := false
	for _, t := range sess.Turns {
		if t.Role == domain.RoleCaller {
			hadConversation = true
			break
		}
	}

	outcome := sess.Outcome
	if outcome == "" {
		switch {
		case !hadConversation:
			outcome = domain.OutcomeMissed
		case status == telephony.StatusCompleted:
			outcome = domain.OutcomeAnswered
		default:
			outcome = domain.OutcomeError
		}
	}

	category := "inquiry"
	switch {
	case sess.CallerName != "":
		category = "booking"
	case outcome == domain.OutcomeForwarded:
		category = "transfer"
	}

	now := time.Now()
	s.deps.CallLog.Append(domain.CallLogEntry{
		CallSID:   sess.CallSID,
		TenantID:  sess.TenantID,
		From:      sess.From,
		To:        sess.To,
		StartedAt: sess.StartedAt,
		EndedAt:   now,
		Duration:  int(now.Sub(sess.StartedAt).Seconds()),
		Outcome:   outcome,
		Category:  category,
	})

	if hadConversation {
		s.deps.Memory.Record(sess.TenantID, sess.From, sess.CallerName, sess.CallReason)
	}

	s.log.Info().
		Str("call", sess.CallSID).
		Str("outcome", string(outcome)).
		Str("category", category).
		Msg("call ended")
	s.events.Broadcast("call.ended", map[string]string{
		"callSid": sess.CallSID, "outcome": string(outcome),
	})
}

// handleGreetingAudio serves the tenant's synthesized greeting.
func (s *Server) handleGreetingAudio(w http.ResponseWriter, r *http.Request) {
	tenant := s.cfg.Tenant(r.URL.Query().Get("tenant"))
	if tenant == nil {
		writeError(w, http.StatusNotFound, "unknown tenant")
		return
	}
	audio, err := s.greetings.Get(r.Context(), tenant)
	if err != nil {
		s.log.Error().Err(err).Str("tenant", tenant.ID).Msg("greeting synthesis failed")
		writeError(w, http.StatusBadGateway, "greeting unavailable")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audio)
}

// handleReplyAudio serves a per-turn TTS clip exactly once. Twilio fetches
// the <Play> URL a single time; a second fetch means the clip is gone.
func (s *Server) handleReplyAudio(w http.ResponseWriter, r *http.Request) {
	audio, ok := s.replies.Take(r.URL.Query().Get("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "no such clip")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audio)
}

// listen returns TwiML that speaks the given verbs and then captures the
// next utterance with whichever mode the session's language calls for.
func (s *Server) listen(sess *domain.CallSession, verbs ...any) *telephony.Response {
	dec := language.Evaluate(sess.Language, false, 1.0)
	resp := telephony.NewResponse()
	if dec.NextCapture == language.CaptureRecord {
		resp.Add(verbs...)
		resp.Add(s.recordVerb())
		return resp
	}
	resp.Add(telephony.Gather{
		Input:         "speech",
		Action:        s.publicURL("/voice/speech", nil),
		Method:        "POST",
		Language:      dec.LocaleHint,
		SpeechTimeout: "auto",
		Nested:        verbs,
	})
	resp.Add(
		telephony.Say{Text: "Are you still there? Goodbye."},
		telephony.Hangup{},
	)
	return resp
}

func (s *Server) recordVerb() telephony.Record {
	return telephony.Record{
		Action:    s.publicURL("/voice/recording", nil),
		Method:    "POST",
		MaxLength: 30,
		Timeout:   3,
		PlayBeep:  true,
		Trim:      "trim-silence",
	}
}

func (s *Server) respondURL(attempt int) string {
	return s.publicURL("/voice/respond", url.Values{"attempt": {strconv.Itoa(attempt)}})
}

// errorRecovery hands the caller to the tenant's fallback human when one is
// configured; otherwise it apologizes and ends the call.
func (s *Server) errorRecovery(sess *domain.CallSession, tenant *config.TenantConfig) *telephony.Response {
	if tenant != nil && tenant.FallbackNumber != "" {
		if sess != nil {
			sess.State = domain.StateForwarding
			sess.Outcome = domain.OutcomeForwarded
		}
		return telephony.NewResponse().Add(
			telephony.Say{Text: "I'm sorry, I'm having trouble right now. Let me connect you with someone who can help."},
			telephony.Dial{CallerID: s.cfg.Twilio.FromNumber, Number: tenant.FallbackNumber},
			telephony.Say{Text: "I'm sorry, I wasn't able to connect you. Please call back later."},
			telephony.Hangup{},
		)
	}
	return telephony.NewResponse().Add(
		telephony.Say{Text: "I'm sorry, something went wrong. Please call back later."},
		telephony.Hangup{},
	)
}

// hangupUnknownCall handles a webhook whose call id has no session. The
// tenant can still be resolved from the dialed number, so the caller gets
// the same forward-or-apology treatment as any other failure.
func (s *Server) hangupUnknownCall(w http.ResponseWriter, r *http.Request, callSID string) {
	s.log.Warn().Str("call", callSID).Msg("webhook for unknown call")
	s.writeTwiML(w, s.errorRecovery(nil, s.tenantForCallee(r.PostFormValue("To"))))
}
