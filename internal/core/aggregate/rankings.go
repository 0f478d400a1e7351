package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"zaplens/internal/core/receipt"
)

// ContentStat totals zaps per referenced content
type ContentStat struct {
	ID      string           `json:"id"`
	Content *receipt.Content `json:"content,omitempty"`
	Total   int64            `json:"total"`
	Count   int64            `json:"count"`
}

// KindStat totals zaps per content type
type KindStat struct {
	Kind    string  `json:"kind"`
	Total   int64   `json:"total"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

// ActorStat totals zaps per sender
type ActorStat struct {
	Actor receipt.Actor `json:"actor"`
	Total int64         `json:"total"`
	Count int64         `json:"count"`
}

// Kind labels
const (
	KindNote       = "note"
	KindArticle    = "article"
	KindProfile    = "profile"
	KindOther      = "other"
	KindUnresolved = "unresolved"
)

// ContentRef is the id a record is grouped under, "" for zaps with no target
func ContentRef(r receipt.Record) string {
	if r.Content != nil && r.Content.ID != "" {
		return r.Content.ID
	}
	if r.TargetEventID != "" {
		return r.TargetEventID
	}
	return r.TargetAddr
}

// ByContent ranks referenced content by total, descending
func ByContent(in []receipt.Record) []ContentStat {
	idx := map[string]int{}
	var out []ContentStat
	for _, r := range in {
		id := ContentRef(r)
		if id == "" {
			continue
		}
		i, ok := idx[id]
		if !ok {
			i = len(out)
			idx[id] = i
			out = append(out, ContentStat{ID: id})
		}
		if out[i].Content == nil && r.Content != nil {
			out[i].Content = r.Content
		}
		out[i].Total += r.Amount
		out[i].Count++
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Total != out[b].Total {
			return out[a].Total > out[b].Total
		}
		return out[a].ID < out[b].ID
	})
	return out
}

// KindOf labels the content type a record zapped
func KindOf(r receipt.Record) string {
	switch {
	case r.Content != nil:
		return kindLabel(r.Content.Kind)
	case r.TargetAddr != "":
		// a tags are kind:pubkey:d
		if k, err := strconv.Atoi(strings.SplitN(r.TargetAddr, ":", 2)[0]); err == nil {
			return kindLabel(k)
		}
		return KindOther
	case r.TargetEventID != "":
		return KindUnresolved
	default:
		return KindProfile
	}
}

func kindLabel(k int) string {
	switch k {
	case receipt.KindNote:
		return KindNote
	case receipt.KindLongForm:
		return KindArticle
	case receipt.KindProfile:
		return KindProfile
	default:
		return KindOther
	}
}

// ByKind totals per content type with each share of the grand total
func ByKind(in []receipt.Record) []KindStat {
	idx := map[string]int{}
	var (
		out   []KindStat
		grand int64
	)
	for _, r := range in {
		k := KindOf(r)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, KindStat{Kind: k})
		}
		out[i].Total += r.Amount
		out[i].Count++
		grand += r.Amount
	}
	for i := range out {
		out[i].Percent = percent(out[i].Total, grand)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Total != out[b].Total {
			return out[a].Total > out[b].Total
		}
		return out[a].Kind < out[b].Kind
	})
	return out
}

// ByActor ranks senders by total, descending
func ByActor(in []receipt.Record) []ActorStat {
	idx := map[string]int{}
	var out []ActorStat
	for _, r := range in {
		id := actorID(r)
		i, ok := idx[id]
		if !ok {
			i = len(out)
			idx[id] = i
			a := r.Actor
			a.ID = id
			out = append(out, ActorStat{Actor: a})
		}
		if out[i].Actor.Name == nil && r.Actor.Name != nil {
			a := r.Actor
			a.ID = id
			out[i].Actor = a
		}
		out[i].Total += r.Amount
		out[i].Count++
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Total != out[b].Total {
			return out[a].Total > out[b].Total
		}
		return out[a].Actor.ID < out[b].Actor.ID
	})
	return out
}
