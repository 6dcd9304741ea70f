package constants

import "strings"

type Badge string

const (
	Extensive     Badge = "Extensive"
	Comprehensive Badge = "Comprehensive"
	Focused       Badge = "Focused"
	Educational   Badge = "Educational"
	Motivational  Badge = "Motivational"
	Professional  Badge = "Professional"
)

// BadgeCount is the exact number of badges every voice carries.
const BadgeCount = 3

// Volume thresholds (template counts) for the first badge.
const (
	ExtensiveAbove     = 50
	ComprehensiveAbove = 20
)

// keyword lists for the content badges; matched as lowercase substrings.
var (
	educationalKeywords  = []string{"learn", "how to", "tip", "teach", "step"}
	motivationalKeywords = []string{"motivat", "success", "dream", "believe", "never give up"}
)

// VolumeBadge picks the first badge from the number of templates.
func VolumeBadge(templates int) Badge {
	switch {
	case templates > ExtensiveAbove:
		return Extensive
	case templates > ComprehensiveAbove:
		return Comprehensive
	default:
		return Focused
	}
}

// IsEducational reports whether the lowercase corpus mentions any teaching keyword.
func IsEducational(corpus string) bool {
	return containsAny(corpus, educationalKeywords)
}

// IsMotivational reports whether the lowercase corpus mentions any motivational keyword.
func IsMotivational(corpus string) bool {
	return containsAny(corpus, motivationalKeywords)
}

func containsAny(corpus string, words []string) bool {
	corpus = strings.ToLower(corpus)
	for _, w := range words {
		if strings.Contains(corpus, w) {
			return true
		}
	}
	return false
}

// AsStrings converts badges for storage.
func AsStrings(badges []Badge) []string {
	out := make([]string, len(badges))
	for i, b := range badges {
		out[i] = string(b)
	}
	return out
}
