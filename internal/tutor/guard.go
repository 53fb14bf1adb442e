package tutor

import "strings"

// bannedTerms short-circuits the provider for a small set of topics the
// assistant never engages with. Substring match on the lowercased input.
var bannedTerms = []string{
	"build a bomb",
	"self harm",
	"suicide",
	"harm others",
}

const refusalMessage = "I can't help with that. If you're in immediate danger, " +
	"please contact local emergency services."

func isBanned(input string) bool {
	lowered := strings.ToLower(input)
	for _, term := range bannedTerms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
