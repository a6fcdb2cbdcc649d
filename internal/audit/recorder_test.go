package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suite-exchange/internal/model"
)

type sinkFunc func(ctx context.Context, e *model.AuditEvent) error

func (f sinkFunc) AppendAudit(ctx context.Context, e *model.AuditEvent) error { return f(ctx, e) }

func TestRecordStampsProvenanceAndID(t *testing.T) {
	var got *model.AuditEvent
	sink := sinkFunc(func(_ context.Context, e *model.AuditEvent) error {
		got = e
		return nil
	})
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRecorder(sink, slog.Default(), WithClock(func() time.Time { return fixed }))

	ctx := WithProvenance(context.Background(), Provenance{IP: "10.1.1.1", UserAgent: "ua", RequestID: "rid"})
	r.Record(ctx, Entry{ActorID: 4, Action: ActionListingCreated, TargetType: TargetListing, TargetID: 9,
		Metadata: map[string]any{"quantity": 3}})

	require.NotNil(t, got)
	_, err := ulid.ParseStrict(got.EventID)
	require.NoError(t, err)
	assert.Equal(t, "LISTING_CREATED", got.Action)
	require.NotNil(t, got.ActorID)
	assert.Equal(t, uint64(4), *got.ActorID)
	assert.JSONEq(t, `{"quantity":3}`, string(got.Metadata))
	assert.Equal(t, "10.1.1.1", got.IPAddress)
	assert.Equal(t, "rid", got.RequestID)
	assert.Equal(t, fixed, got.CreatedAt)
}

func TestRecordSystemEventHasNoActor(t *testing.T) {
	var got *model.AuditEvent
	r := NewRecorder(sinkFunc(func(_ context.Context, e *model.AuditEvent) error { got = e; return nil }), nil)
	r.Record(context.Background(), Entry{Action: ActionUserLocked, TargetType: TargetUser, TargetID: 1})
	require.NotNil(t, got)
	assert.Nil(t, got.ActorID)
	assert.Empty(t, got.Metadata)
}

func TestRecordFailureIsLoggedAndCounted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_audit_failures_total"})
	r := NewRecorder(sinkFunc(func(context.Context, *model.AuditEvent) error { return errors.New("disk full") }),
		logger, WithFailureCounter(counter))

	assert.NotPanics(t, func() {
		r.Record(context.Background(), Entry{Action: ActionMessageSent, TargetType: TargetMessage, TargetID: 2})
	})
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
	assert.Contains(t, buf.String(), "audit write failed")
	assert.Contains(t, buf.String(), "disk full")
}

func TestRecordSurvivesCancelledRequest(t *testing.T) {
	var sawErr error
	r := NewRecorder(sinkFunc(func(ctx context.Context, _ *model.AuditEvent) error {
		sawErr = ctx.Err()
		return nil
	}), nil, WithTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Record(ctx, Entry{Action: ActionListingWithdrawn, TargetType: TargetListing, TargetID: 1})
	assert.NoError(t, sawErr)
}

func TestEventIDsAreUniqueAndOrdered(t *testing.T) {
	var mu sync.Mutex
	var ids []string
	r := NewRecorder(sinkFunc(func(_ context.Context, e *model.AuditEvent) error {
		mu.Lock()
		ids = append(ids, e.EventID)
		mu.Unlock()
		return nil
	}), nil)

	for i := 0; i < 50; i++ {
		r.Record(context.Background(), Entry{Action: ActionMessageRead, TargetType: TargetMessage, TargetID: uint64(i)})
	}
	seen := map[string]bool{}
	for i, id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
		if i > 0 {
			assert.Less(t, ids[i-1], id)
		}
	}
}

func TestRecordClampsOversizedProvenance(t *testing.T) {
	var got *model.AuditEvent
	r := NewRecorder(sinkFunc(func(_ context.Context, e *model.AuditEvent) error { got = e; return nil }), nil)

	ctx := WithProvenance(context.Background(), Provenance{
		IP:        strings.Repeat("1", 80),
		UserAgent: strings.Repeat("a", 300),
		RequestID: strings.Repeat("é", 100),
	})
	r.Record(ctx, Entry{ActorID: 2, Action: ActionListingWithdrawn, TargetType: TargetListing, TargetID: 3})

	require.NotNil(t, got)
	assert.Len(t, got.IPAddress, 64)
	assert.Len(t, got.UserAgent, 255)
	assert.Equal(t, 64, utf8.RuneCountInString(got.RequestID))
	assert.True(t, utf8.ValidString(got.RequestID))
}

func TestTruncateKeepsShortValues(t *testing.T) {
	assert.Equal(t, "ua", truncate("ua", 255))
	assert.Equal(t, "ééé", truncate("ééé", 3))
	assert.Equal(t, "éé", truncate("ééé", 2))
	assert.Equal(t, "", truncate("abc", 0))
}
