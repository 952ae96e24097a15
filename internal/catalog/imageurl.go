// AngelaMos | 2026
// imageurl.go

package catalog

import (
	"strings"
)

const InvalidImageURLMessage = "Please enter a valid image URL (png, jpg, jpeg, webp, gif, svg, avif, bmp)"

var imageExtensions = []string{
	".png", ".jpg", ".jpeg", ".webp", ".gif", ".svg", ".avif", ".bmp",
}

// LooksLikeImageURL accepts any URL mentioning an image extension anywhere,
// query strings included. An empty URL is not an image URL.
func LooksLikeImageURL(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
