package moderation

import (
	"regexp"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"teamnotes/internal/domain/models/notes"
)

func TestViolatesContactPolicy(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"plain text", "Please review page 3", false},
		{"empty", "", false},
		{"short email", "reach me at a@b.com", true},
		{"uppercase email", "Mail JOHN.DOE@Example.ORG today", true},
		{"email with plus", "x+tag@mail.co.uk", true},
		{"at sign without domain", "meet @ noon", false},
		{"handle", "ping @translator", false},
		{"bare ten digits", "call 5551234567", true},
		{"bare nine digits", "order 555123456", false},
		{"dashed us number", "555-123-4567", true},
		{"dotted number", "555.123.4567", true},
		{"spaced number", "555 123 4567", true},
		{"plus prefix", "+1 555 123 4567", true},
		{"double zero prefix", "0044 20 7946 0958", true},
		{"too few grouped digits", "555-1234", false},
		{"page numbers", "pages 3, 4 and 12", false},
		{"double separator breaks run", "55512--34567", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ViolatesContactPolicy(tt.content); got != tt.want {
				t.Errorf("ViolatesContactPolicy(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestApplies(t *testing.T) {
	on := notes.SystemNotesSettings{ModerateContactInfo: true}
	off := notes.SystemNotesSettings{ModerateContactInfo: false}

	tests := []struct {
		name     string
		settings notes.SystemNotesSettings
		role     notes.Role
		want     bool
	}{
		{"client moderated", on, notes.RoleClient, true},
		{"translator moderated", on, notes.RoleTranslator, true},
		{"admin exempt", on, notes.RoleAdmin, false},
		{"super admin exempt", on, notes.RoleSuperAdmin, false},
		{"setting off", off, notes.RoleClient, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Applies(tt.settings, tt.role); got != tt.want {
				t.Errorf("Applies(%+v, %s) = %v, want %v", tt.settings, tt.role, got, tt.want)
			}
		})
	}
}

// Rules() must compile to the same matchers the server uses
func TestRulesRoundTrip(t *testing.T) {
	rules := Rules()
	email := regexp.MustCompile("(?" + rules.Flags + ")" + rules.Email)
	phone := regexp.MustCompile(rules.Phone)

	samples := []string{"a@b.com", "555-123-4567", "nothing here", "+44 20 7946 0958"}
	for _, s := range samples {
		got := email.MatchString(s) || phone.MatchString(s)
		if got != ViolatesContactPolicy(s) {
			t.Errorf("rules disagree for %q: got %v, want %v", s, got, ViolatesContactPolicy(s))
		}
	}
}

func TestViolatesContactPolicy_DigitRunsProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		digits := rapid.StringMatching(`[0-9]{10,20}`).Draw(t, "digits")
		prefix := rapid.StringMatching(`[A-Za-z ,!?]{0,30}`).Draw(t, "prefix")
		if !ViolatesContactPolicy(prefix + " " + digits) {
			t.Fatalf("digit run %q not detected", digits)
		}
	})
}

func TestViolatesContactPolicy_GroupedDigitsProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		groups := rapid.SliceOfN(rapid.StringMatching(`[0-9]{3,4}`), 4, 6).Draw(t, "groups")
		sep := rapid.SampledFrom([]string{"-", ".", " "}).Draw(t, "sep")
		content := strings.Join(groups, sep)
		if !ViolatesContactPolicy(content) {
			t.Fatalf("grouped number %q not detected", content)
		}
	})
}

func TestViolatesContactPolicy_EmailProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		local := rapid.StringMatching(`[A-Za-z0-9._]{1,20}`).Draw(t, "local")
		domain := rapid.StringMatching(`[A-Za-z0-9]{1,15}`).Draw(t, "domain")
		tld := rapid.StringMatching(`[A-Za-z]{2,6}`).Draw(t, "tld")
		if !ViolatesContactPolicy("write to " + local + "@" + domain + "." + tld) {
			t.Fatalf("email %s@%s.%s not detected", local, domain, tld)
		}
	})
}

func TestViolatesContactPolicy_LettersOnlyProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		content := rapid.StringMatching(`[A-Za-z ,.!?]{0,200}`).Draw(t, "content")
		if ViolatesContactPolicy(content) {
			t.Fatalf("false positive on %q", content)
		}
	})
}
