package pipeline

import (
	"fmt"
	"strings"

	"github.com/voxlane/frontdesk/internal/config"
	"github.com/voxlane/frontdesk/internal/directive"
	"github.com/voxlane/frontdesk/internal/domain"
)

// maxSlotLines caps how many reserved slots are listed in the prompt so a
// busy calendar cannot crowd out the instructions.
const maxSlotLines = 12

// buildSystemPrompt assembles the receptionist persona for one reply:
// business facts, the directive output contract, the reply language, the
// returning-caller hint, and (only when the caller is talking about booking)
// the slots already taken.
func buildSystemPrompt(tenant *config.TenantConfig, mem *domain.CallerMemory, language string, booked []domain.SlotReservation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the receptionist answering the phone for %s.", tenant.Name)
	b.WriteString(" Keep replies short and natural, one or two sentences, as if speaking aloud.")

	if tenant.Hours != "" {
		fmt.Fprintf(&b, "\nBusiness hours: %s.", tenant.Hours)
	}
	if tenant.Address != "" {
		fmt.Fprintf(&b, "\nAddress: %s.", tenant.Address)
	}
	if len(tenant.Services) > 0 {
		fmt.Fprintf(&b, "\nServices offered: %s.", strings.Join(tenant.Services, ", "))
	}
	if len(tenant.Staff) > 0 {
		names := make([]string, 0, len(tenant.Staff))
		for _, s := range tenant.Staff {
			if s.Role != "" {
				names = append(names, fmt.Sprintf("%s (%s)", s.Name, s.Role))
			} else {
				names = append(names, s.Name)
			}
		}
		fmt.Fprintf(&b, "\nStaff: %s.", strings.Join(names, ", "))
	}

	b.WriteString("\n\nWhen the caller has confirmed every detail of an appointment, append a line in exactly this form:")
	b.WriteString("\nBOOKING: name|phone|email|date|time|reason")
	b.WriteString("\nUse YYYY-MM-DD for the date and 24-hour HH:MM for the time. Leave email blank if not given.")
	b.WriteString("\nDo not emit the BOOKING line until the caller has agreed to a specific date and time.")
	if len(tenant.Staff) > 0 {
		b.WriteString("\nIf the caller asks for a specific staff member, append a line in exactly this form:")
		b.WriteString("\nTRANSFER_TO: staff name")
	}

	if language != "" && language != "English" {
		fmt.Fprintf(&b, "\n\nThe caller speaks %s. Reply only in %s.", language, language)
	}

	if mem != nil && mem.CallCount > 0 {
		fmt.Fprintf(&b, "\n\nThis caller has phoned %d time(s) before.", mem.CallCount)
		if mem.Name != "" {
			fmt.Fprintf(&b, " Their name is %s; greet them by name.", mem.Name)
		}
		if mem.LastReason != "" {
			fmt.Fprintf(&b, " Last time they called about: %s.", mem.LastReason)
		}
	}

	if len(booked) > 0 {
		b.WriteString("\n\nThese times are already taken, do not offer them:")
		n := len(booked)
		if n > maxSlotLines {
			n = maxSlotLines
		}
		for _, slot := range booked[:n] {
			fmt.Fprintf(&b, "\n- %s at %s", slot.Date, slot.Time)
		}
	}

	return b.String()
}

// bookingContext reports whether any recent caller turn shows booking
// intent, which decides whether taken slots enter the prompt.
func bookingContext(turns []domain.Turn) bool {
	// Only the last few turns matter; an opening "I'd like to book" should
	// not pin slot context for a ten-minute call about directions.
	start := len(turns) - 4
	if start < 0 {
		start = 0
	}
	for _, t := range turns[start:] {
		if t.Role == domain.RoleCaller && directive.BookingIntent(t.Content) {
			return true
		}
	}
	return false
}
