package stream

import (
	"errors"
	"sync"
)

// Admission failures. The reason label is used for the stream error metric.
var (
	errIPLimit    = &limitError{reason: "ip_limit", msg: "too many concurrent streams from this address"}
	errTotalLimit = &limitError{reason: "total_limit", msg: "server stream capacity reached"}
)

type limitError struct {
	reason string
	msg    string
}

func (e *limitError) Error() string { return e.msg }

// limitReason returns the metric label for an admission error.
func limitReason(err error) string {
	var le *limitError
	if errors.As(err, &le) {
		return le.reason
	}
	return "unknown"
}

// streamLimiter admits SSE streams against a per-address and a global cap.
type streamLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

func newStreamLimiter(maxPerIP, maxTotal int) *streamLimiter {
	if maxPerIP <= 0 {
		maxPerIP = 10
	}
	if maxTotal <= 0 {
		maxTotal = 1000
	}
	return &streamLimiter{
		perIP:    make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// acquire admits one stream from ip. The global cap is checked first so a
// saturated server reports capacity rather than blaming the client.
func (l *streamLimiter) acquire(ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.total >= l.maxTotal:
		return errTotalLimit
	case l.perIP[ip] >= l.maxPerIP:
		return errIPLimit
	}
	l.perIP[ip]++
	l.total++
	return nil
}

// release frees a stream admitted for ip. Unknown addresses are ignored.
func (l *streamLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.perIP[ip]
	if n == 0 {
		return
	}
	l.total--
	if n == 1 {
		delete(l.perIP, ip)
		return
	}
	l.perIP[ip] = n - 1
}

// count returns the streams currently held by ip.
func (l *streamLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}
