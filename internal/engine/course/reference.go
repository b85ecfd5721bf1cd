package course

import (
	"net/url"
	"regexp"
	"strings"
)

var referencePattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+$`)

const shortLinkHost = "youtu.be"

// ParseVideoReference extracts the video identifier from a youtube.com or
// youtu.be link. References without a scheme are read as https.
func ParseVideoReference(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", invalidInput(MsgReferenceRequired)
	}
	if !referencePattern.MatchString(ref) {
		return "", invalidInput(MsgInvalidReference)
	}

	// Scheme-less references are accepted by the pattern, so they parse as https.
	raw := ref
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", invalidInput(MsgMalformedReference)
	}

	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}
	if strings.EqualFold(u.Hostname(), shortLinkHost) {
		id, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if id != "" {
			return id, nil
		}
	}
	return "", invalidInput(MsgIdentifierNotFound)
}
