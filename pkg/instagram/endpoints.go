package instagram

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// WebAppID is the X-IG-App-ID header value the web client sends
	WebAppID = "936619743392459"

	// LoginPageEndpoint serves the login form and the CSRF token
	LoginPageEndpoint = "/accounts/login/"

	// LoginEndpoint is the AJAX login handshake endpoint
	LoginEndpoint = "/accounts/login/ajax/"

	// LogoutEndpoint revokes the current session
	LogoutEndpoint = "/accounts/logout/ajax/"

	// CurrentUserEndpoint is a cheap authenticated call used to probe
	// session validity
	CurrentUserEndpoint = "/api/v1/accounts/current_user/"

	// TimelineEndpoint serves the authenticated timeline feed
	TimelineEndpoint = "/api/v1/feed/timeline/"

	// HashtagInfoEndpoint is the endpoint pattern for hashtag metadata
	HashtagInfoEndpoint = "/api/v1/tags/web_info/"

	// HashtagSectionsEndpoint is the endpoint pattern for paginated hashtag posts
	HashtagSectionsEndpoint = "/api/v1/tags/%s/sections/"
)

// Tabs of a hashtag result set
const (
	TabRecent = "recent"
	TabTop    = "top"
)

// GetHashtagInfoURL constructs the URL for fetching hashtag metadata
func GetHashtagInfoURL(tag string) string {
	params := url.Values{}
	params.Set("tag_name", NormalizeHashtag(tag))

	return fmt.Sprintf("%s?%s", HashtagInfoEndpoint, params.Encode())
}

// GetHashtagSectionsURL constructs the URL for fetching one page of hashtag posts
func GetHashtagSectionsURL(tag string) string {
	return fmt.Sprintf(HashtagSectionsEndpoint, url.PathEscape(NormalizeHashtag(tag)))
}

// NormalizeHashtag strips the leading # and lowercases the tag; Instagram
// hashtags are case-insensitive
func NormalizeHashtag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

// IsValidHashtag checks if a hashtag name is plausible
func IsValidHashtag(tag string) bool {
	tag = NormalizeHashtag(tag)
	if tag == "" || len(tag) > 150 {
		return false
	}

	for _, char := range tag {
		if char == '#' || char == ' ' || char == '/' {
			return false
		}
	}

	return true
}
