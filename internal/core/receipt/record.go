package receipt

import (
	"encoding/json"
	"strings"
	"time"

	str "zaplens/internal/platform/strings"
)

// Content is a note or article a receipt points at
type Content struct {
	ID        string    `json:"id"`
	Kind      int       `json:"kind"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentFromEvent maps a resolved event onto Content
func ContentFromEvent(ev Event) Content {
	return Content{ID: ev.ID, Kind: ev.Kind, Author: ev.PubKey, Body: ev.Content, CreatedAt: ev.Time()}
}

// Profile is kind 0 metadata. Absent fields stay nil
type Profile struct {
	Name        *string `json:"name,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Nip05       *string `json:"nip05,omitempty"`
	Picture     *string `json:"picture,omitempty"`
}

// ProfileFromEvent decodes kind 0 content. Garbage content yields an empty profile
func ProfileFromEvent(ev Event) Profile {
	var raw struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Nip05       string `json:"nip05"`
		Picture     string `json:"picture"`
	}
	if err := json.Unmarshal([]byte(ev.Content), &raw); err != nil {
		return Profile{}
	}
	return Profile{
		Name:        str.Ptr(strings.TrimSpace(raw.Name)),
		DisplayName: str.Ptr(strings.TrimSpace(raw.DisplayName)),
		Nip05:       str.Ptr(strings.TrimSpace(raw.Nip05)),
		Picture:     str.Ptr(strings.TrimSpace(raw.Picture)),
	}
}

// Actor is whoever sent a zap
type Actor struct {
	ID             string  `json:"id"`
	Name           *string `json:"name,omitempty"`
	VerifiedHandle *string `json:"verified_handle,omitempty"`
	Avatar         *string `json:"avatar,omitempty"`
}

// ActorID is the receipt sender or "anonymous"
func ActorID(r Receipt) string {
	if r.Sender == "" {
		return Anonymous
	}
	return r.Sender
}

// NewActor builds an Actor from an id and an optional profile; display_name beats name
func NewActor(id string, p *Profile) Actor {
	a := Actor{ID: id}
	if p == nil {
		return a
	}
	a.Name = p.DisplayName
	if a.Name == nil {
		a.Name = p.Name
	}
	a.VerifiedHandle = p.Nip05
	a.Avatar = p.Picture
	return a
}

// Record is a receipt joined with whatever enrichment resolved
type Record struct {
	Receipt
	Content *Content `json:"content,omitempty"`
	Actor   Actor    `json:"actor"`
}
