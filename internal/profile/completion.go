package profile

import (
	"fmt"
	"math"

	"github.com/comigor/dermachat-go/internal/session"
)

// SectionID names one optional profile section. The value doubles as the
// /profile/{section} path segment.
type SectionID string

const (
	SectionSkin      SectionID = "skin"
	SectionHair      SectionID = "hair"
	SectionLifestyle SectionID = "lifestyle"
	SectionHealth    SectionID = "health"
	SectionMakeup    SectionID = "makeup"
)

// AllSections lists the sections in dashboard order.
var AllSections = []SectionID{SectionSkin, SectionHair, SectionLifestyle, SectionHealth, SectionMakeup}

// ParseSection validates a user-supplied section name.
func ParseSection(s string) (SectionID, error) {
	for _, id := range AllSections {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown profile section %q", s)
}

// Section is one dashboard entry.
type Section struct {
	ID          SectionID `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Completed   bool      `json:"completed" yaml:"completed"`
}

var sectionText = map[SectionID][2]string{
	SectionSkin:      {"Skin Profile", "Your skin type, concerns, and skincare routine"},
	SectionHair:      {"Hair Profile", "Hair type, texture, and care preferences"},
	SectionLifestyle: {"Lifestyle & Environment", "Location, climate, diet, and daily habits"},
	SectionHealth:    {"Health & Medical", "Medical conditions, allergies, and medications"},
	SectionMakeup:    {"Makeup Preferences", "Makeup style, colors, and product preferences"},
}

func (p *Complete) filled(id SectionID) bool {
	if p == nil {
		return false
	}
	switch id {
	case SectionSkin:
		return p.Skin != nil
	case SectionHair:
		return p.Hair != nil
	case SectionLifestyle:
		return p.Lifestyle != nil
	case SectionHealth:
		return p.Health != nil
	case SectionMakeup:
		return p.Makeup != nil
	}
	return false
}

// Sections returns the dashboard list for p. A nil profile yields every section as
// incomplete.
func Sections(p *Complete) []Section {
	out := make([]Section, 0, len(AllSections))
	for _, id := range AllSections {
		text := sectionText[id]
		out = append(out, Section{ID: id, Title: text[0], Description: text[1], Completed: p.filled(id)})
	}
	return out
}

// Completion is the rounded percentage of filled sections (0 for a nil profile).
func Completion(p *Complete) int {
	if p == nil {
		return 0
	}
	done := 0
	for _, id := range AllSections {
		if p.filled(id) {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(AllSections)) * 100))
}

// IsComplete reports whether the account is flagged complete or every section is filled.
func IsComplete(user *session.User, completion int) bool {
	return (user != nil && user.ProfileCompleted) || completion == 100
}

// ShouldPrompt reports whether to nudge the user to sign in or finish the profile.
func ShouldPrompt(user *session.User, completion int) bool {
	return user == nil || !IsComplete(user, completion)
}

// PromptMessage is the nudge shown next to recommendations.
func PromptMessage(user *session.User) string {
	if user == nil {
		return "Sign in and complete your profile for the most accurate personalized skincare recommendations tailored to your unique needs!"
	}
	return "Complete your profile to get personalized recommendations based on your skin type, concerns, and lifestyle!"
}

// SearchPromptMessage is the shorter nudge shown next to search.
func SearchPromptMessage(user *session.User) string {
	if user == nil {
		return "For the most accurate results, please sign in and complete your profile first."
	}
	return "Complete your profile to get more accurate, personalized results."
}
