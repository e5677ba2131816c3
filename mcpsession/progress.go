package mcpsession

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// ProgressReporter serializes notifications/progress for a single inbound
// request through the session's writer, guaranteeing per-handler FIFO
// ordering (spec §4.3.4, §5) and rejecting non-monotonic progress values.
type ProgressReporter struct {
	session *Session
	token   json.RawMessage
	mu      sync.Mutex
	last    float64
	started bool
}

func newProgressReporter(s *Session, token json.RawMessage) *ProgressReporter {
	return &ProgressReporter{session: s, token: token}
}

// Send emits a notifications/progress notification. A progress value lower
// than the last one sent for this token is rejected (logged, not fatal) per
// spec §4.3.4.
func (p *ProgressReporter) Send(ctx context.Context, progress float64, total *float64, message string) error {
	p.mu.Lock()
	if p.started && progress < p.last {
		p.mu.Unlock()
		p.session.logf("progress token %s: ignoring non-monotonic value %v after %v", p.token, progress, p.last)
		return fmt.Errorf("mcpsession: progress must be non-decreasing, got %v after %v", progress, p.last)
	}
	p.last = progress
	p.started = true
	p.mu.Unlock()

	params := ProgressParams{ProgressToken: p.token, Progress: progress, Total: total, Message: message}
	return p.session.notify(ctx, "notifications/progress", params)
}

// progressTokenOf extracts params._meta.progressToken from a raw request
// params object, returning nil if absent.
func progressTokenOf(params json.RawMessage) json.RawMessage {
	if len(params) == 0 {
		return nil
	}
	var wm withMeta
	if err := json.Unmarshal(params, &wm); err != nil || wm.Meta == nil || wm.Meta.ProgressToken == nil {
		return nil
	}
	return json.RawMessage(*wm.Meta.ProgressToken)
}
