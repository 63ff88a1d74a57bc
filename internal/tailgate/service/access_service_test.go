package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/service"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/types"
)

// ── Classification ───────────────────────────────────────────────────────────

func TestClassifyAccess(t *testing.T) {
	cases := []struct {
		desc         string
		unlock, lock bool
	}{
		{"Door Unlock", true, true},
		{"DOOR UNLOCKED BY CARD", true, true},
		{"Door Lock", false, true},
		{"Relocked", false, true},
		{"Door Forced Open", false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		unlock, lock := service.ClassifyAccess(tc.desc)
		assert.Equal(t, tc.unlock, unlock, "unlock for %q", tc.desc)
		assert.Equal(t, tc.lock, lock, "lock for %q", tc.desc)
	}
}

// ── Ingest ───────────────────────────────────────────────────────────────────

func TestAccessIngest_UnlockRecordsWindowAndHistory(t *testing.T) {
	h := newHarness()

	resp := h.access.Ingest(context.Background(), types.AccessRequest{Desc: "Door Unlock", Portal: "Front"})

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Test access event logged: Door Unlock", resp.Message)
	assert.Equal(t, 1, h.correlator.Window().Len())

	recs := h.history.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "access", recs[0].Source)
	assert.Equal(t, "Front", recs[0].Portal)
	assert.Equal(t, "Door Unlock", recs[0].Desc)
	assert.Empty(t, recs[0].Verdict)

	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.AccessEvents.WithLabelValues("unlock")))
}

func TestAccessIngest_Defaults(t *testing.T) {
	h := newHarness()

	h.access.Ingest(context.Background(), types.AccessRequest{})

	recs := h.history.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "Test Portal", recs[0].Portal)
	assert.Equal(t, "Door Unlock", recs[0].Desc)
	assert.Equal(t, 1, h.correlator.Window().Len())
}

func TestAccessIngest_LockResetsCounterWithoutUnlock(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.camera.Ingest(ctx, types.CameraRequest{EventType: "linecrossing"})
	h.camera.Ingest(ctx, types.CameraRequest{EventType: "linecrossing"})

	h.access.Ingest(ctx, types.AccessRequest{Desc: "Door Lock"})

	assert.Equal(t, 0, h.correlator.Counter().Snapshot())
	assert.Equal(t, 0, h.correlator.Window().Len())
}

func TestAccessIngest_OtherDescriptionOnlyLogged(t *testing.T) {
	h := newHarness()
	h.camera.Ingest(context.Background(), types.CameraRequest{EventType: "linecrossing"})

	h.access.Ingest(context.Background(), types.AccessRequest{Desc: "Door Held Open"})

	assert.Equal(t, 1, h.correlator.Counter().Snapshot())
	assert.Equal(t, 0, h.correlator.Window().Len())
	assert.Equal(t, 2, h.correlator.Log().Len())
}

func TestAccessIngest_TimestampHonoured(t *testing.T) {
	h := newHarness()
	ts := time.Now().UTC().Add(-2 * time.Second).Truncate(time.Millisecond)

	h.access.Ingest(context.Background(), types.AccessRequest{Desc: "Door Unlock", Timestamp: ts.Format(time.RFC3339Nano)})

	assert.Equal(t, []time.Time{ts}, h.correlator.Window().Snapshot())
}
