package voices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/common"
)

func TestExtractUsername_FormsAgree(t *testing.T) {
	inputs := map[constants.Platform][]string{
		constants.TikTok: {
			"chef.mike",
			"@chef.mike",
			"  @Chef.Mike ",
			"https://www.tiktok.com/@chef.mike",
			"tiktok.com/@chef.mike?lang=en",
			"https://m.tiktok.com/@chef.mike/video/7301",
		},
		constants.Instagram: {
			"chef.mike",
			"@chef.mike",
			"https://www.instagram.com/chef.mike/",
			"instagram.com/chef.mike?igsh=abc",
			"https://instagram.com/stories/chef.mike/123",
		},
	}
	for platform, list := range inputs {
		for _, in := range list {
			got, err := ExtractUsername(platform, in)
			require.NoErrorf(t, err, "%s %q", platform, in)
			assert.Equalf(t, "chef.mike", got, "%s %q", platform, in)
		}
	}
}

func TestExtractUsername_Rejects(t *testing.T) {
	cases := []struct {
		platform constants.Platform
		input    string
	}{
		{constants.TikTok, ""},
		{constants.TikTok, "https://www.tiktok.com/"},
		{constants.TikTok, "https://www.tiktok.com/foryou"},
		{constants.TikTok, "https://example.com/@chef"},
		{constants.TikTok, "not a handle!"},
		{constants.Instagram, "https://www.instagram.com/p/Cx12/"},
		{constants.Instagram, "https://www.tiktok.com/@chef"},
	}
	for _, tc := range cases {
		_, err := ExtractUsername(tc.platform, tc.input)
		assert.ErrorIsf(t, err, common.ErrInvalidInput, "%s %q", tc.platform, tc.input)
	}
}
