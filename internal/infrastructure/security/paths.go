package security

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/doeshing/aish/internal/domain"
)

var traversalSeqRe = regexp.MustCompile(`(?i)(\.\./|\.\.\\|%2e%2e%2f|%2e%2e%5c|%2e%2e/|%2e%2e\\|\.\.%2f|\.\.%5c)`)

// SanitizePath strips every traversal sequence from path, repeatedly, so
// nested encodings cannot reassemble one. Leading separators are dropped as
// well: the result is always relative.
func SanitizePath(path string) string {
	path = stripControl(path)
	for {
		next := traversalSeqRe.ReplaceAllString(path, "")
		if next == path {
			break
		}
		path = next
	}
	return strings.TrimLeft(path, `/\`)
}

var reservedFileNames = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
	"com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
	"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

const invalidFileNameChars = `<>:"/\|?*`

// ValidateFileName rejects names that are empty, too long, reserved device
// names, or contain characters no filesystem target accepts.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name is empty")
	}
	if len(name) > domain.MaxFileNameLength {
		return fmt.Errorf("file name exceeds %d characters", domain.MaxFileNameLength)
	}
	stem := strings.ToLower(name)
	if i := strings.IndexByte(stem, '.'); i > 0 {
		stem = stem[:i]
	}
	if _, ok := reservedFileNames[stem]; ok {
		return fmt.Errorf("%q is a reserved device name", name)
	}
	if strings.ContainsAny(name, invalidFileNameChars) {
		return fmt.Errorf("file name contains invalid characters")
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("file name contains control characters")
		}
	}
	return nil
}

// ValidateURL accepts only http/https URLs whose host does not resolve to
// loopback, private or link-local ranges.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme %q is not allowed", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("url has no host")
	}
	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("url host resolves to a restricted address")
	}
	ips := []net.IP{}
	if ip := net.ParseIP(host); ip != nil {
		ips = append(ips, ip)
	} else if resolved, err := net.LookupIP(host); err == nil {
		ips = resolved
	}
	for _, ip := range ips {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return fmt.Errorf("url host resolves to a restricted address")
		}
	}
	return nil
}

var plainArgRe = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)

// EscapeShellArgument wraps arg in single quotes, escaping embedded single
// quotes with the standard '"'"' technique. Arguments made of only safe
// characters pass through unchanged.
func EscapeShellArgument(arg string) string {
	if arg == "" {
		return "''"
	}
	if plainArgRe.MatchString(arg) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}

func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == 0 || (r < 0x20 && r != '\t') || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
