// AngelaMos | 2026
// keys.go

package settings

const (
	KeyServerIP        = "server_ip"
	KeyDiscordServerID = "discord_server_id"
	KeyWebsiteLogo     = "website_logo"
)

// EditableKeys is every key the settings form saves in one go, in form
// order. website_logo is managed by the logo endpoints instead.
var EditableKeys = []string{
	"hero_greeting",
	"hero_title",
	"hero_subtitle",
	"hero_button_text",
	"cta_title",
	"cta_subtitle",
	"cta_button_text",
	"story_title",
	"story_text",
	"story_button_text",
	"story_button_url",
	KeyServerIP,
	"server_version",
	"active_players",
	"events_hosted",
	"uptime",
	"discord_url",
	KeyDiscordServerID,
	"youtube_url",
	"tiktok_url",
}

func editable(key string) bool {
	for _, k := range EditableKeys {
		if k == key {
			return true
		}
	}
	return false
}
