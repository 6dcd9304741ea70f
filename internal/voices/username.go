package voices

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/common"
)

var (
	tiktokHandle    = regexp.MustCompile(`^[a-z0-9_.]{2,24}$`)
	instagramHandle = regexp.MustCompile(`^[a-z0-9_.]{1,30}$`)
)

// first path segments on instagram.com that are never usernames
var instagramReserved = map[string]bool{
	"p": true, "reel": true, "reels": true, "tv": true, "explore": true, "accounts": true, "direct": true,
}

// ExtractUsername returns the lowercase handle from a raw handle, an @handle
// or a profile URL on the given platform.
func ExtractUsername(platform constants.Platform, input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", common.InvalidInputError("profileUrl is required")
	}

	var handle string
	if looksLikeURL(s) {
		h, ok := handleFromURL(platform, s)
		if !ok {
			return "", common.InvalidInputErrorf("could not extract a %s username from %q", platform.Title(), input)
		}
		handle = h
	} else {
		handle = strings.TrimPrefix(s, "@")
	}

	handle = strings.ToLower(handle)
	pattern := tiktokHandle
	if platform == constants.Instagram {
		pattern = instagramHandle
	}
	if !pattern.MatchString(handle) {
		return "", common.InvalidInputErrorf("could not extract a %s username from %q", platform.Title(), input)
	}
	return handle, nil
}

func looksLikeURL(s string) bool {
	l := strings.ToLower(s)
	return strings.Contains(l, "://") || strings.Contains(l, "tiktok.com") || strings.Contains(l, "instagram.com")
}

func handleFromURL(platform constants.Platform, raw string) (string, bool) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var segs []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			segs = append(segs, p)
		}
	}
	if len(segs) == 0 {
		return "", false
	}

	switch platform {
	case constants.TikTok:
		if host != "tiktok.com" || !strings.HasPrefix(segs[0], "@") {
			return "", false
		}
		return strings.TrimPrefix(segs[0], "@"), true
	case constants.Instagram:
		if host != "instagram.com" {
			return "", false
		}
		first := strings.ToLower(segs[0])
		if first == "stories" && len(segs) > 1 {
			return segs[1], true
		}
		if instagramReserved[first] {
			return "", false
		}
		return strings.TrimPrefix(segs[0], "@"), true
	}
	return "", false
}
