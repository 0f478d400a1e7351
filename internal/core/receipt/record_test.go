package receipt

import "testing"

func TestProfileFromEvent(t *testing.T) {
	p := ProfileFromEvent(Event{Kind: KindProfile, Content: `{"name":"al","display_name":"Alice","nip05":"alice@example.com","picture":""}`})
	if p.Name == nil || *p.Name != "al" || p.DisplayName == nil || *p.DisplayName != "Alice" {
		t.Fatalf("names: %+v", p)
	}
	if p.Picture != nil {
		t.Fatalf("blank picture should stay nil")
	}

	if got := ProfileFromEvent(Event{Content: "not json"}); got != (Profile{}) {
		t.Fatalf("garbage content should yield empty profile, got %+v", got)
	}
}

func TestNewActor(t *testing.T) {
	name, display := "al", "Alice"
	a := NewActor("pk", &Profile{Name: &name, DisplayName: &display})
	if a.Name == nil || *a.Name != "Alice" {
		t.Fatalf("display_name should win, got %v", a.Name)
	}
	a = NewActor("pk", &Profile{Name: &name})
	if a.Name == nil || *a.Name != "al" {
		t.Fatalf("name fallback, got %v", a.Name)
	}
	a = NewActor("pk", nil)
	if a.ID != "pk" || a.Name != nil {
		t.Fatalf("bare actor %+v", a)
	}
	if ActorID(Receipt{}) != Anonymous {
		t.Fatalf("anonymous fallback")
	}
}
