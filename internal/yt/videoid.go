package yt

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	videoIDRegex   = regexp.MustCompile(`https.+?\.?v=([^\s"'<>?&]+)`)
)

// ParseVideoID extracts a video id from a bare id or a watch, youtu.be,
// shorts, embed or live link.
func ParseVideoID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if videoIDPattern.MatchString(s) {
		return s, nil
	}

	u, err := url.Parse(s)
	if err == nil && u.Host != "" {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		host = strings.TrimPrefix(host, "m.")
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")

		switch {
		case host == "youtu.be" && len(segments) > 0:
			return checkVideoID(segments[0], s)
		case strings.HasSuffix(host, "youtube.com"):
			if v := u.Query().Get("v"); v != "" {
				return checkVideoID(v, s)
			}
			if len(segments) == 2 {
				switch segments[0] {
				case "shorts", "embed", "live", "v":
					return checkVideoID(segments[1], s)
				}
			}
		}
	}

	if m := videoIDRegex.FindStringSubmatch(s); m != nil {
		return checkVideoID(m[1], s)
	}

	return "", fmt.Errorf("no video id in %q", s)
}

func checkVideoID(id, from string) (string, error) {
	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid video id %q in %q", id, from)
	}
	return id, nil
}
