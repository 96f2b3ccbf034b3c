package validation

import (
	"strings"

	"github.com/praxislegal/praxis/internal/domain"
)

// NormalizeAddress trims surrounding whitespace and lowercases an email
// address. Empty input stays empty.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// NormalizeAddressList normalizes every address in place and returns the
// same slice for convenience.
func NormalizeAddressList(addrs []string) []string {
	for i, addr := range addrs {
		addrs[i] = NormalizeAddress(addr)
	}
	return addrs
}

// StripAngleBrackets removes < and > from free-text fields so user input
// cannot smuggle markup or extra addresses into headers.
func StripAngleBrackets(s string) string {
	s = strings.ReplaceAll(s, "<", "")
	return strings.ReplaceAll(s, ">", "")
}

// SanitizeSendRequest normalizes all address fields and strips angle
// brackets from the subject and tags. It modifies the request in place
// and never fails; the pipelines run it after validation and before any
// value reaches a template or the transport.
func SanitizeSendRequest(req *domain.EmailSendRequest) {
	req.To = NormalizeAddressList(req.To)
	req.Cc = NormalizeAddressList(req.Cc)
	req.Bcc = NormalizeAddressList(req.Bcc)
	req.ReplyTo = NormalizeAddress(req.ReplyTo)
	req.From = NormalizeAddress(req.From)

	req.Subject = StripAngleBrackets(req.Subject)
	for i, tag := range req.Tags {
		req.Tags[i] = StripAngleBrackets(tag)
	}
}
