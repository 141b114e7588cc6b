// Package pipeline turns a caller's utterance into the receptionist's next
// action: a spoken reply, a confirmed booking, or a transfer to a human.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voxlane/frontdesk/internal/config"
	"github.com/voxlane/frontdesk/internal/directive"
	"github.com/voxlane/frontdesk/internal/domain"
	"github.com/voxlane/frontdesk/internal/ledger"
	"github.com/voxlane/frontdesk/internal/llm"
	"github.com/voxlane/frontdesk/internal/logging"
	"github.com/voxlane/frontdesk/internal/store"
)

// turnWindow caps how much conversation history is replayed to the model.
const turnWindow = 20

// slotLookahead is how many days of taken slots are surfaced to the model
// when the caller is booking.
const slotLookahead = 7

// Notifier sends the booking confirmation text. Nil disables confirmations.
type Notifier interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Reply is the pipeline's verdict for one caller turn. A non-empty
// ForwardTo means the call should be handed to that number after Text is
// spoken.
type Reply struct {
	Text      string
	ForwardTo string
	Booked    *domain.Appointment // set when this turn confirmed a booking
}

// Request carries everything one reply depends on. It serves both voice
// turns and SMS threads.
type Request struct {
	Tenant      *config.TenantConfig
	Turns       []domain.Turn // history including the latest caller turn
	Memory      *domain.CallerMemory
	Language    string
	CallerPhone string
	Source      string // "phone" or "sms"
}

// Generator produces replies and applies their side effects: reserving
// slots, recording appointments, and sending confirmations.
type Generator struct {
	client    llm.Client
	slots     *ledger.Ledger
	bookings  *store.BookingStore
	notify    Notifier
	model     string
	maxTokens int
	slotMin   int
	log       *logging.Logger
}

// New creates a generator.
func New(client llm.Client, slots *ledger.Ledger, bookings *store.BookingStore, notify Notifier, cfg *config.Config, log *logging.Logger) *Generator {
	return &Generator{
		client:    client,
		slots:     slots,
		bookings:  bookings,
		notify:    notify,
		model:     cfg.OpenAI.ChatModel,
		maxTokens: cfg.OpenAI.MaxTokens,
		slotMin:   cfg.Call.SlotMinutes,
		log:       log.Sub("pipeline"),
	}
}

// Respond generates the next reply for a conversation.
func (g *Generator) Respond(ctx context.Context, req Request) (Reply, error) {
	var booked []domain.SlotReservation
	if bookingContext(req.Turns) {
		booked = g.upcomingSlots(req.Tenant.ID)
	}
	system := buildSystemPrompt(req.Tenant, req.Memory, req.Language, booked)

	resp, err := g.client.Complete(ctx, llm.CompletionRequest{
		Model:     g.model,
		System:    system,
		Messages:  historyMessages(req.Turns),
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("completing reply: %w", err)
	}

	content := resp.Content
	result := directive.Parse(content)
	spoken := directive.Strip(content)

	switch {
	case result.Transfer != nil:
		return g.transferReply(req.Tenant, result.Transfer.Name, spoken), nil
	case result.Booking != nil:
		return g.bookingReply(ctx, req, result.Booking), nil
	}

	if lastCaller := latestCallerTurn(req.Turns); lastCaller != "" && directive.HumanIntent(lastCaller, content) {
		if req.Tenant.FallbackNumber != "" {
			if spoken == "" {
				spoken = "Of course, let me connect you with someone now."
			}
			return Reply{Text: spoken, ForwardTo: req.Tenant.FallbackNumber}, nil
		}
	}

	return Reply{Text: spoken}, nil
}

// transferReply resolves a TRANSFER_TO target to a dialable number. An
// unknown name falls back to the tenant's fallback line; with nowhere to
// send the call, the reply is spoken as-is.
func (g *Generator) transferReply(tenant *config.TenantConfig, name, spoken string) Reply {
	number := tenant.FallbackNumber
	if staff := tenant.Transfer(name); staff != nil {
		number = staff.Number
	}
	if number == "" {
		g.log.Warn().Str("tenant", tenant.ID).Str("target", name).Msg("transfer requested but no number configured")
		return Reply{Text: "I'm sorry, no one is available to take the call right now. Can I take a message?"}
	}
	if spoken == "" {
		spoken = fmt.Sprintf("One moment, connecting you to %s.", name)
	}
	return Reply{Text: spoken, ForwardTo: number}
}

// bookingReply reserves the requested slot and records the appointment. A
// conflict or an unparseable time turns into a corrective reply instead of
// an error; the caller is still on the line. On success the model's prose
// is discarded and the reply always restates the booked date and time.
func (g *Generator) bookingReply(ctx context.Context, req Request, b *directive.Booking) Reply {
	phone := b.Phone
	if phone == "" {
		phone = req.CallerPhone
	}

	apptID := uuid.New().String()
	err := g.slots.Reserve(req.Tenant.ID, b.Date, b.Time, apptID, g.slotMin)
	switch {
	case errors.Is(err, ledger.ErrSlotTaken):
		return Reply{Text: fmt.Sprintf("I'm sorry, %s on %s was just taken. Is there another time that works for you?", b.Time, b.Date)}
	case errors.Is(err, ledger.ErrBadTime):
		return Reply{Text: "I didn't quite catch the time. Could you say the time for the appointment again?"}
	case err != nil:
		g.log.Error().Err(err).Str("tenant", req.Tenant.ID).Msg("slot reservation failed")
		return Reply{Text: "I'm sorry, I couldn't save that appointment. Could we try that time again?"}
	}

	appt := &domain.Appointment{
		ID:       apptID,
		TenantID: req.Tenant.ID,
		Name:     b.Name,
		Email:    b.Email,
		Phone:    phone,
		Date:     b.Date,
		Time:     b.Time,
		Reason:   b.Reason,
		Source:   req.Source,
	}
	if err := g.bookings.Create(appt); err != nil {
		g.slots.Release(req.Tenant.ID, apptID)
		g.log.Error().Err(err).Str("tenant", req.Tenant.ID).Msg("appointment insert failed")
		return Reply{Text: "I'm sorry, I couldn't save that appointment. Could we try that time again?"}
	}

	g.log.Info().
		Str("tenant", req.Tenant.ID).
		Str("date", b.Date).
		Str("time", b.Time).
		Msg("appointment booked")

	if req.Source != "sms" {
		g.sendConfirmation(req.Tenant, appt)
	}

	return Reply{
		Text:   fmt.Sprintf("You're all set for %s at %s. See you then!", b.Date, b.Time),
		Booked: appt,
	}
}

// sendConfirmation texts the booking details to the caller in the
// background. Failures are logged, never surfaced mid-call.
func (g *Generator) sendConfirmation(tenant *config.TenantConfig, appt *domain.Appointment) {
	if g.notify == nil || appt.Phone == "" {
		return
	}
	body := fmt.Sprintf("%s: your appointment is booked for %s at %s.", tenant.Name, appt.Date, appt.Time)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := g.notify.SendSMS(ctx, appt.Phone, body); err != nil {
			g.log.Warn().Err(err).Str("to", appt.Phone).Msg("confirmation sms failed")
		}
	}()
}

// upcomingSlots collects the tenant's taken slots for the next week.
func (g *Generator) upcomingSlots(tenantID string) []domain.SlotReservation {
	var out []domain.SlotReservation
	now := time.Now()
	for i := 0; i < slotLookahead; i++ {
		date := now.AddDate(0, 0, i).Format("2006-01-02")
		out = append(out, g.slots.Booked(tenantID, date)...)
	}
	return out
}

// historyMessages converts the trailing conversation window to LLM messages.
func historyMessages(turns []domain.Turn) []llm.Message {
	start := len(turns) - turnWindow
	if start < 0 {
		start = 0
	}
	msgs := make([]llm.Message, 0, len(turns)-start)
	for _, t := range turns[start:] {
		role := llm.RoleUser
		if t.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Content})
	}
	return msgs
}

func latestCallerTurn(turns []domain.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == domain.RoleCaller {
			return turns[i].Content
		}
	}
	return ""
}
