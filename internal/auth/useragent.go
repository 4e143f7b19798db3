package auth

import (
	"math/rand/v2"
	"time"
)

// Pool of current desktop user agents for rotation. Stale entries get flagged
// by bot detection, so keep these roughly in step with shipping browsers.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36 Edg/133.0.2782.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0",
}

// UserAgentSource returns a UA supplier: a random pick per login when rotation
// is on, the fixed fallback otherwise.
func UserAgentSource(rotate bool, fallback string) func() string {
	if !rotate {
		return func() string { return fallback }
	}
	return func() string {
		return userAgents[rand.IntN(len(userAgents))]
	}
}

func randomDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}
