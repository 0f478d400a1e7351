// Package receipt models zap receipts as they arrive from a relay and as the
// ingestion and aggregation layers consume them
package receipt

import "time"

// Event kinds the service reads
const (
	KindProfile    = 0
	KindNote       = 1
	KindZapRequest = 9734
	KindZapReceipt = 9735
	KindLongForm   = 30023
)

// Anonymous is the actor id for zaps with no identifiable sender
const Anonymous = "anonymous"

// Event is a raw relay event
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig,omitempty"`
}

// Time returns created_at as UTC
func (e Event) Time() time.Time { return time.Unix(e.CreatedAt, 0).UTC() }

// Tag returns the first value of the first tag named name, or ""
func (e Event) Tag(name string) string { return firstTag(e.Tags, name) }

// TagValues returns the first value of every tag named name
func (e Event) TagValues(name string) []string {
	var out []string
	for _, t := range e.Tags {
		if len(t) >= 2 && t[0] == name && t[1] != "" {
			out = append(out, t[1])
		}
	}
	return out
}

func firstTag(tags [][]string, name string) string {
	for _, t := range tags {
		if len(t) >= 2 && t[0] == name {
			return t[1]
		}
	}
	return ""
}
