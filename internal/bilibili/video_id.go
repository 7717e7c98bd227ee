package bilibili

import (
	"net/url"
	"regexp"
	"strings"

	"bilidl/internal/services"
)

// VideoID is the opaque token following /video/ in a canonical URL.
type VideoID string

func (id VideoID) String() string { return string(id) }

var videoURLPattern = regexp.MustCompile(`^https?://[^/?#\s]+/video/([^/?#\s]+)/?(\?\S*)?$`)

// ParseVideoID extracts the video token from a canonical URL of the form
// scheme://host/video/<token>[/][?query].
func ParseVideoID(canonicalURL string) (VideoID, error) {
	raw := strings.TrimSpace(canonicalURL)
	m := videoURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", services.Wrap(services.ErrURLFormat, "resolve", "parse url", canonicalURL, nil)
	}
	return VideoID(m[1]), nil
}

// origin returns scheme://host of a URL that already passed ParseVideoID.
func origin(canonicalURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(canonicalURL))
	if err != nil {
		return "", services.Wrap(services.ErrURLFormat, "resolve", "parse url", canonicalURL, err)
	}
	return u.Scheme + "://" + u.Host, nil
}
