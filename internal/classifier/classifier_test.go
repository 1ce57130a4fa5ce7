package classifier

import (
	"strings"
	"testing"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
)

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"plain text", "xin chào mọi người", 0},
		{"http url", "check https://example.com/page now", 1},
		{"bare domain", "visit discord-nitro.gift for stuff", 1},
		{"www domain", "www.example.com is here", 1},
		{"multiple", "https://a.com and https://b.net", 2},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractLinks(tt.text); len(got) != tt.want {
				t.Errorf("ExtractLinks(%q) = %v, want %d links", tt.text, got, tt.want)
			}
		})
	}
}

func TestContainsCredentialToken(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"classic token", "MTIzNDU2Nzg5MDEyMzQ1Njc4OTA.GabcDe.abcdefghijklmnopqrstuvwxyz1", true},
		{"token inside sentence", "grab this MTIzNDU2Nzg5MDEyMzQ1Njc4OTA.GabcDe.abcdefghijklmnopqrstuvwxyz1 fast", true},
		{"normal message", "hôm nay trời đẹp quá", false},
		{"url is not a token", "https://example.com/a.b.c", false},
		{"short segments", "Mabc.def.ghi", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsCredentialToken(tt.text); got != tt.want {
				t.Errorf("ContainsCredentialToken(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestContainsScamPhrase(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"FREE NITRO here!!!", true},
		{"free  nitro", true},
		{"claim your gift now", true},
		{"steam giveaway today", true},
		{"new token AIRDROP", true},
		{"crypto giveaway join fast", true},
		{"mình bán nitro chính hãng", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ContainsScamPhrase(tt.text); got != tt.want {
			t.Errorf("ContainsScamPhrase(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestMatchBlockRule(t *testing.T) {
	rules := []models.BlockRule{
		{Pattern: "badword", Action: models.ActionWarn},
		{Pattern: "verybad", Action: models.ActionMute, Duration: "10m"},
		{Pattern: "", Action: models.ActionBan},
	}

	t.Run("first hit wins", func(t *testing.T) {
		got := MatchBlockRule("this has badword and verybad", rules)
		if got == nil || got.Pattern != "badword" {
			t.Fatalf("want first rule, got %+v", got)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := MatchBlockRule("VERYBAD stuff", rules)
		if got == nil || got.Pattern != "verybad" {
			t.Fatalf("want verybad rule, got %+v", got)
		}
	})

	t.Run("empty pattern never matches", func(t *testing.T) {
		if got := MatchBlockRule("clean message", rules); got != nil {
			t.Fatalf("want nil, got %+v", got)
		}
	})

	t.Run("no rules", func(t *testing.T) {
		if got := MatchBlockRule("badword", nil); got != nil {
			t.Fatalf("want nil, got %+v", got)
		}
	})
}

func TestMatchSubstring(t *testing.T) {
	patterns := []string{"scam.gift", "evil.xyz", ""}

	if got := MatchSubstring("https://SCAM.GIFT/claim", patterns); got != "scam.gift" {
		t.Errorf("want scam.gift, got %q", got)
	}
	if got := MatchSubstring("https://example.com", patterns); got != "" {
		t.Errorf("want empty, got %q", got)
	}
}

func TestCountEmojis(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"no emoji", "hello world", 0},
		{"unicode emojis", "😀😀😀", 3},
		{"custom emoji", "<:pepe:123456789>", 1},
		{"animated custom emoji", "<a:party:987654321>", 1},
		{"mixed", "hi 😀 <:pepe:123456789> 🚀", 3},
		{"ten emojis", strings.Repeat("🎉", 10), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountEmojis(tt.text); got != tt.want {
				t.Errorf("CountEmojis(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}
