package session

import (
	"regexp"
)

const (
	DefaultProvider = "rapidkl"
	DefaultRoute    = "300"
)

// Session identifies what a feed connection subscribes to.
type Session struct {
	SID      string
	Provider string
	Route    string
}

// Default returns the session used when nothing could be scraped.
func Default() Session {
	return Session{SID: "", Provider: DefaultProvider, Route: DefaultRoute}
}

var (
	sidPattern   = regexp.MustCompile(`var\s+sid\s*=\s*'([^']+)'`)
	prmPattern   = regexp.MustCompile(`var\s+prm\s*=\s*'([^']*)'`)
	routePattern = regexp.MustCompile(`var\s+no_route\s*=\s*'([^']*)'`)
)

// Extract pulls the session fields out of kiosk HTML. It also returns the
// names of the fields that fell back to their defaults.
func Extract(html string) (Session, []string) {
	s := Default()
	var missing []string

	if v, ok := capture(sidPattern, html); ok {
		s.SID = v
	} else {
		missing = append(missing, "sid")
	}
	if v, ok := capture(prmPattern, html); ok {
		s.Provider = v
	} else {
		missing = append(missing, "prm")
	}
	if v, ok := capture(routePattern, html); ok {
		s.Route = v
	} else {
		missing = append(missing, "no_route")
	}
	return s, missing
}

func capture(re *regexp.Regexp, html string) (string, bool) {
	m := re.FindStringSubmatch(html)
	if m == nil {
		return "", false
	}
	return m[1], true
}
