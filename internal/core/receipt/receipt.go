package receipt

import (
	"time"

	perr "zaplens/internal/platform/errors"
)

// Receipt is a validated zap receipt. Identity is ID
type Receipt struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	// SourceAuthor is the pubkey of the wallet service that published the receipt
	SourceAuthor string     `json:"source_author"`
	Amount       int64      `json:"amount"`
	RawTags      [][]string `json:"raw_tags,omitempty"`

	// Sender is the zapper's pubkey or "" when the zap was anonymous
	Sender        string `json:"sender,omitempty"`
	TargetEventID string `json:"target_event_id,omitempty"`
	TargetAddr    string `json:"target_addr,omitempty"`
	Comment       string `json:"comment,omitempty"`
}

// Malformed reasons, reported through Parse errors and counted by ingestion
const (
	ReasonKind   = "kind"
	ReasonID     = "id"
	ReasonTime   = "created_at"
	ReasonAmount = "amount"
)

// Parse validates a raw receipt event. A receipt is valid only with an amount of at least one sat:
// the zap request amount tag wins, the bolt11 invoice is the fallback
func Parse(ev Event) (Receipt, error) {
	if ev.Kind != KindZapReceipt {
		return Receipt{}, malformed(ReasonKind, "kind %d is not a zap receipt", ev.Kind)
	}
	if ev.ID == "" {
		return Receipt{}, malformed(ReasonID, "missing id")
	}
	if ev.CreatedAt <= 0 {
		return Receipt{}, malformed(ReasonTime, "missing created_at on %s", ev.ID)
	}

	zr, hasReq := parseZapRequest(ev.Tag("description"))
	var amount int64
	if hasReq {
		amount = zr.requestedSats()
	}
	if amount <= 0 {
		if sats, err := Bolt11Sats(ev.Tag("bolt11")); err == nil {
			amount = sats
		}
	}
	if amount <= 0 {
		return Receipt{}, malformed(ReasonAmount, "no decodable amount on %s", ev.ID)
	}

	r := Receipt{
		ID:            ev.ID,
		CreatedAt:     ev.Time(),
		SourceAuthor:  ev.PubKey,
		Amount:        amount,
		RawTags:       ev.Tags,
		TargetEventID: ev.Tag("e"),
		TargetAddr:    ev.Tag("a"),
		Sender:        ev.Tag("P"),
	}
	if hasReq {
		if zr.PubKey != "" {
			r.Sender = zr.PubKey
		}
		r.Comment = zr.Content
	}
	return r, nil
}

// ParseAll keeps the valid receipts of events and reports how many were dropped per reason
func ParseAll(events []Event) (valid []Receipt, dropped map[string]int) {
	valid = make([]Receipt, 0, len(events))
	for _, ev := range events {
		r, err := Parse(ev)
		if err != nil {
			if dropped == nil {
				dropped = map[string]int{}
			}
			dropped[ReasonOf(err)]++
			continue
		}
		valid = append(valid, r)
	}
	return valid, dropped
}

// ReasonOf returns the malformed reason carried by a Parse error
func ReasonOf(err error) string {
	if e, ok := perr.As(err); ok && e.Field() != "" {
		return e.Field()
	}
	return "unknown"
}

func malformed(reason, format string, a ...any) error {
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "malformed receipt: "+format, a...), reason)
}
