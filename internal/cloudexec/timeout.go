package cloudexec

import (
	"strings"
	"time"
)

const (
	veryLongOpTimeout = 1200 * time.Second
	longOpTimeout     = 300 * time.Second
	defaultOpTimeout  = 60 * time.Second
)

var veryLongOpKeywords = []string{
	"cluster", "database", "db", "restore",
}

var longOpKeywords = []string{
	"delete", "create", "update", "deploy", "apply", "install",
}

// ResolveTimeout picks the execution timeout for a command: an
// explicit caller timeout always wins; otherwise very-long operations
// (cluster/DB create/delete/restore) get 1200s, long operations
// (delete/create/update/deploy/apply/install) get 300s, and everything
// else gets 60s.
func ResolveTimeout(argv []string, callerTimeout time.Duration) time.Duration {
	if callerTimeout > 0 {
		return callerTimeout
	}

	joined := strings.ToLower(strings.Join(argv, " "))

	hasVeryLongResource := false
	for _, kw := range veryLongOpKeywords {
		if strings.Contains(joined, kw) {
			hasVeryLongResource = true
			break
		}
	}
	hasLongVerb := false
	for _, kw := range longOpKeywords {
		if strings.Contains(joined, kw) {
			hasLongVerb = true
			break
		}
	}

	if hasVeryLongResource && hasLongVerb {
		return veryLongOpTimeout
	}
	if hasLongVerb {
		return longOpTimeout
	}
	return defaultOpTimeout
}
