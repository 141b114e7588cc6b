// Package directive parses the structured instructions the language model is
// prompted to emit verbatim inside its natural-language replies. The model's
// output contract is validated here, at a single boundary, so the rest of the
// engine works with typed variants instead of raw string scans.
package directive

import "strings"

const (
	bookingMarker  = "BOOKING:"
	transferMarker = "TRANSFER_TO:"
)

// Booking is a parsed BOOKING directive:
//
//	BOOKING: name|phone|email|date|time|reason
//
// Email is optional; the model may leave a blank placeholder.
type Booking struct {
	Name   string
	Phone  string
	Email  string
	Date   string // YYYY-MM-DD
	Time   string // HH:MM
	Reason string
}

// Transfer is a parsed TRANSFER_TO directive naming a staff member.
type Transfer struct {
	Name string
}

// Result is the tagged outcome of scanning one model reply. At most one of
// Booking/Transfer is set.
type Result struct {
	Booking  *Booking
	Transfer *Transfer
}

// None reports whether no directive was found.
func (r Result) None() bool { return r.Booking == nil && r.Transfer == nil }

// Parse scans model output for directives. A booking needs the BOOKING:
// marker and at least 5 of the 6 pipe-delimited fields; anything less yields
// no directive rather than a partial one. A reply carrying both markers
// resolves to the transfer; handing off takes precedence over booking.
func Parse(text string) Result {
	var res Result
	if text == "" {
		return res
	}
	if res.Transfer = parseTransfer(text); res.Transfer != nil {
		return res
	}
	res.Booking = parseBooking(text)
	return res
}

func parseBooking(text string) *Booking {
	idx := strings.Index(text, bookingMarker)
	if idx < 0 {
		return nil
	}
	line := text[idx+len(bookingMarker):]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}

	fields := strings.Split(line, "|")
	if len(fields) < 5 {
		return nil
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	b := &Booking{
		Name:  fields[0],
		Phone: fields[1],
	}
	if len(fields) >= 6 {
		b.Email = fields[2]
		b.Date = fields[3]
		b.Time = fields[4]
		b.Reason = fields[5]
	} else {
		// email omitted entirely
		b.Date = fields[2]
		b.Time = fields[3]
		b.Reason = fields[4]
	}

	if b.Name == "" || b.Date == "" || b.Time == "" {
		return nil
	}
	return b
}

func parseTransfer(text string) *Transfer {
	idx := strings.Index(text, transferMarker)
	if idx < 0 {
		return nil
	}
	name := text[idx+len(transferMarker):]
	if nl := strings.IndexByte(name, '\n'); nl >= 0 {
		name = name[:nl]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &Transfer{Name: name}
}

// Strip removes directive lines from a model reply so they are never spoken
// aloud.
func Strip(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, bookingMarker) || strings.HasPrefix(t, transferMarker) {
			continue
		}
		kept = append(kept, l)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// bookingVocabulary are the keywords that suggest the caller is trying to
// book; matching any of them pulls the already-booked slot list into the
// model prompt.
var bookingVocabulary = []string{
	"book", "appointment", "reservation", "reserve",
	"schedule", "available", "slot", "time for",
}

// BookingIntent reports whether the text suggests a booking attempt.
func BookingIntent(text string) bool {
	t := strings.ToLower(text)
	for _, kw := range bookingVocabulary {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// humanPhrases are caller utterances that mean "get me a person".
var humanPhrases = []string{
	"talk to a person", "speak to a person", "real person",
	"talk to a human", "speak to a human", "operator", "supervisor",
	"talk to someone", "speak to someone",
}

// HumanIntent reports whether the caller's words, or the model's reply,
// indicate the caller wants a human. The model-output heuristic matches
// "transfer" co-occurring with "connect" or "you".
func HumanIntent(callerText, modelText string) bool {
	ct := strings.ToLower(callerText)
	for _, p := range humanPhrases {
		if strings.Contains(ct, p) {
			return true
		}
	}
	mt := strings.ToLower(modelText)
	if strings.Contains(mt, "transfer") &&
		(strings.Contains(mt, "connect") || strings.Contains(mt, "you")) {
		return true
	}
	return false
}
