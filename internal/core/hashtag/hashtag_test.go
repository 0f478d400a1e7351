package hashtag

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"none", "plain text", nil},
		{"simple", "stacking #sats on #Bitcoin", []string{"sats", "bitcoin"}},
		{"dedupe folded", "#Nostr #NOSTR #nostr", []string{"nostr"}},
		{"fullwidth", "hello ＃ｂｉｔｃｏｉｎ", []string{"bitcoin"}},
		{"punctuation ends tag", "(#zap), #v4v!", []string{"zap", "v4v"}},
		{"mid word ignored", "foo#bar and https://x.com/#anchor", nil},
		{"digits only ignored", "issue #42 #2024plan", []string{"2024plan"}},
		{"bare hash", "# heading", nil},
		{"underscore", "#plebs_lab", []string{"plebs_lab"}},
		{"case folded keeps accents", "#CAFÉ", []string{"café"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Extract(c.in); !reflect.DeepEqual(got, c.want) {
				t.Fatalf("Extract(%q) = %#v, want %#v", c.in, got, c.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("ＢｉｔＣｏｉｎ"); got != "bitcoin" {
		t.Fatalf("Normalize = %q", got)
	}
	if Normalize("") != "" {
		t.Fatalf("empty input")
	}
}
