package gateway

import (
	"fmt"
	"net/http"
	"time"

	"github.com/voxlane/frontdesk/internal/domain"
	"github.com/voxlane/frontdesk/internal/pipeline"
	"github.com/voxlane/frontdesk/internal/telephony"
)

// handleIncomingSMS answers a text message in the same pipeline as a voice
// turn, with the conversation thread persisted across messages.
func (s *Server) handleIncomingSMS(w http.ResponseWriter, r *http.Request) {
	from := r.PostFormValue("From")
	to := r.PostFormValue("To")
	body := r.PostFormValue("Body")

	tenant := s.tenantForCallee(to)
	if tenant == nil {
		s.log.Warn().Str("to", to).Msg("sms for unconfigured number")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if body == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sess := s.deps.SMSSessions.GetOrCreate(tenant.ID, from)
	callerTurn := domain.Turn{Role: domain.RoleCaller, Content: body, Timestamp: time.Now()}
	s.deps.SMSSessions.Append(sess.ID, callerTurn)
	turns := append(sess.Turns, callerTurn)

	reply, err := s.deps.Generator.Respond(r.Context(), pipeline.Request{
		Tenant:      tenant,
		Turns:       turns,
		Memory:      s.deps.Memory.Get(tenant.ID, from),
		CallerPhone: from,
		Source:      "sms",
	})
	if err != nil {
		s.log.Error().Err(err).Str("from", from).Msg("sms reply failed")
		s.writeTwiML(w, telephony.NewResponse().Add(telephony.Message{
			Body: "Sorry, something went wrong on our end. Please try again in a moment.",
		}))
		return
	}

	text := reply.Text
	if reply.ForwardTo != "" {
		// Texts cannot be transferred; point the sender at the human line.
		text = fmt.Sprintf("%s You can reach us directly at %s.", text, reply.ForwardTo)
	}
	if reply.Booked != nil {
		s.events.Broadcast("appointment.booked", reply.Booked)
	}

	s.deps.SMSSessions.Append(sess.ID, domain.Turn{
		Role: domain.RoleAssistant, Content: text, Timestamp: time.Now(),
	})
	s.writeTwiML(w, telephony.NewResponse().Add(telephony.Message{Body: text}))
}
