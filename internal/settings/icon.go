// AngelaMos | 2026
// icon.go

package settings

import "slices"

const DefaultIcon = "TrendingUp"

var icons = map[string]struct{}{
	"TrendingUp":    {},
	"Users":         {},
	"Calendar":      {},
	"Clock":         {},
	"Trophy":        {},
	"Star":          {},
	"Server":        {},
	"Gamepad2":      {},
	"Heart":         {},
	"Zap":           {},
	"Shield":        {},
	"Globe":         {},
	"Award":         {},
	"MessageCircle": {},
	"Swords":        {},
	"Crown":         {},
	"Activity":      {},
	"Sparkles":      {},
}

func ValidIcon(name string) bool {
	_, ok := icons[name]
	return ok
}

// ResolveIcon maps a stored icon name to one the site can render.
func ResolveIcon(name string) string {
	if ValidIcon(name) {
		return name
	}
	return DefaultIcon
}

func Icons() []string {
	out := make([]string, 0, len(icons))
	for name := range icons {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
