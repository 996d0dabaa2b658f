package audit

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent turns a raw User-Agent header into a short display name for
// the ledger's "from where" column, e.g. "Chrome on Mac OS X". The output is
// for human review only and never used for matching.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name
	if os == "" {
		os = ua.Platform()
	}

	switch {
	case browser == "" && os == "":
		return "Unknown Browser on Unknown Device"
	case browser == "":
		return "Unknown Browser on " + os
	case os == "":
		return browser + " on Unknown Device"
	}
	return browser + " on " + os
}
