package audit

import "context"

// Column widths of the provenance fields in audit_events.
const (
	maxIPLen        = 64
	maxUserAgentLen = 255
	maxRequestIDLen = 64
)

// Provenance is the request origin attached to audit events.
type Provenance struct {
	IP        string
	UserAgent string
	RequestID string
}

// clamped returns p with every field cut to its column width.  The values
// come from client headers and an oversized one would fail the insert.
func (p Provenance) clamped() Provenance {
	return Provenance{
		IP:        truncate(p.IP, maxIPLen),
		UserAgent: truncate(p.UserAgent, maxUserAgentLen),
		RequestID: truncate(p.RequestID, maxRequestIDLen),
	}
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

type provenanceKey struct{}

// WithProvenance stores p in ctx.
func WithProvenance(ctx context.Context, p Provenance) context.Context {
	return context.WithValue(ctx, provenanceKey{}, p)
}

// ProvenanceFrom returns the provenance stored in ctx, or the zero value.
func ProvenanceFrom(ctx context.Context) Provenance {
	p, _ := ctx.Value(provenanceKey{}).(Provenance)
	return p
}
