package usecase

const (
	UnknownIP          = "unknown-ip"
	userAgentPrefixLen = 20
)

// Identity is the key a visitor is tracked by. When SetCookie is true the
// caller must persist CookieValue so the visitor is recognised next time.
type Identity struct {
	Key         string
	SetCookie   bool
	CookieValue string
}

// ResolveIdentity prefers a previously issued cookie and otherwise derives
// "<ip>-<first 20 chars of user agent>".
func ResolveIdentity(cookie, ip, userAgent string) Identity {
	if cookie != "" {
		return Identity{Key: cookie}
	}
	if ip == "" {
		ip = UnknownIP
	}

	ua := []rune(userAgent)
	if len(ua) > userAgentPrefixLen {
		ua = ua[:userAgentPrefixLen]
	}

	key := ip + "-" + string(ua)
	return Identity{
		Key:         key,
		SetCookie:   true,
		CookieValue: key,
	}
}
