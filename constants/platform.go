package constants

import "strings"

// Platform identifies the social network a creator profile lives on.
type Platform string

const (
	TikTok    Platform = "tiktok"
	Instagram Platform = "instagram"
)

// Platforms holds the supported platforms in display order.
var Platforms = []Platform{TikTok, Instagram}

// ParsePlatform lowercases and trims the input and reports whether it is supported.
func ParsePlatform(s string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Platforms {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// Title is the capitalized platform name used in descriptions and exports.
func (p Platform) Title() string {
	switch p {
	case TikTok:
		return "TikTok"
	case Instagram:
		return "Instagram"
	default:
		return string(p)
	}
}

// Video count bounds for a single voice creation job.
const (
	MinVideoCount     = 10
	MaxVideoCount     = 200
	DefaultVideoCount = 50
)
