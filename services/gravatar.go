package services

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
)

const gravatarBase = "https://www.gravatar.com/avatar/"

// GravatarURL returns a deterministic avatar URL for email: the sha256 of the
// lowercased address, with the retro fallback image at the given size.
func GravatarURL(email string, size int) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))

	query := url.Values{}
	query.Set("d", "retro")
	query.Set("s", strconv.Itoa(size))
	query.Set("r", "g")
	query.Set("f", "false")

	return gravatarBase + hex.EncodeToString(sum[:]) + "?" + query.Encode()
}
