package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/repository"
)

// Entry is what the engine hands to the recorder after a commit.
type Entry struct {
	ActorID    uint64 // 0 for system events
	Action     Action
	TargetType string
	TargetID   uint64
	Metadata   map[string]any
}

// Recorder persists audit entries on a best-effort basis: a failure is
// logged and counted but never surfaces to the caller, and the primary
// write it describes is already committed.
type Recorder struct {
	sink     repository.AuditSink
	logger   *slog.Logger
	timeout  time.Duration
	failures prometheus.Counter
	now      func() time.Time

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

// Option customises a Recorder.
type Option func(*Recorder)

// WithTimeout bounds each write.  Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(r *Recorder) { r.timeout = d } }

// WithFailureCounter sets the counter incremented on each failed write.
func WithFailureCounter(c prometheus.Counter) Option { return func(r *Recorder) { r.failures = c } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(r *Recorder) { r.now = now } }

// NewRecorder returns a recorder writing to sink.
func NewRecorder(sink repository.AuditSink, logger *slog.Logger, opts ...Option) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		sink:    sink,
		logger:  logger,
		timeout: 2 * time.Second,
		now:     time.Now,
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stamps and persists e.  It returns once the write attempt has
// finished.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	now := r.now().UTC()
	ev := &model.AuditEvent{
		EventID:    r.newID(now),
		Action:     string(e.Action),
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		CreatedAt:  now,
	}
	if e.ActorID != 0 {
		actor := e.ActorID
		ev.ActorID = &actor
	}
	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			r.fail(e, err)
			return
		}
		ev.Metadata = raw
	}
	p := ProvenanceFrom(ctx).clamped()
	ev.IPAddress, ev.UserAgent, ev.RequestID = p.IP, p.UserAgent, p.RequestID

	// A cancelled request must not drop the trail of a committed write.
	wctx := context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(wctx, r.timeout)
		defer cancel()
	}
	if err := r.sink.AppendAudit(wctx, ev); err != nil {
		r.fail(e, err)
	}
}

func (r *Recorder) fail(e Entry, err error) {
	if r.failures != nil {
		r.failures.Inc()
	}
	r.logger.Error("audit write failed",
		"action", string(e.Action),
		"target_type", e.TargetType,
		"target_id", e.TargetID,
		"actor_id", e.ActorID,
		"error", err)
}

func (r *Recorder) newID(t time.Time) string {
	r.entropyMu.Lock()
	defer r.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), r.entropy).String()
}
