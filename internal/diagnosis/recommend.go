package diagnosis

import "strings"

var (
	healthyAdvice = []string{"No immediate action needed"}
	rustAdvice    = []string{"Consider fungicide", "Inspect adjacent plots"}
	blightAdvice  = []string{"Remove infected leaves", "Improve field sanitation"}
	genericAdvice = []string{"Inspect field conditions", "Monitor over next 48 hours"}
)

// Recommendations returns the advice for a diagnosis label. Rules are
// checked in order, case-insensitively: exactly "healthy", then labels
// containing "rust", then "blight"; anything else gets generic advice.
func Recommendations(label string) []string {
	l := strings.ToLower(label)

	var advice []string
	switch {
	case l == "healthy":
		advice = healthyAdvice
	case strings.Contains(l, "rust"):
		advice = rustAdvice
	case strings.Contains(l, "blight"):
		advice = blightAdvice
	default:
		advice = genericAdvice
	}
	return append([]string(nil), advice...)
}
