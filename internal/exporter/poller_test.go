package exporter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avojak/pihole-influxdb/internal/infrastructure/logging"
	"github.com/avojak/pihole-influxdb/internal/metrics"
	"github.com/avojak/pihole-influxdb/internal/pihole"
)

// captureSink records batches and can be told to reject writes.
type captureSink struct {
	mu      sync.Mutex
	batches [][]metrics.Point
	fail    bool
}

func (s *captureSink) WritePoints(_ context.Context, points []metrics.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("write rejected")
	}
	batch := make([]metrics.Point, len(points))
	copy(batch, points)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *captureSink) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func (s *captureSink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *captureSink) lastBatch() []metrics.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batches) == 0 {
		return nil
	}
	return s.batches[len(s.batches)-1]
}

// fullCyclePoints is the per-instance yield of the canned appliance data on
// a first cycle: summary, query_replies, query_statuses, query_types and
// blocking (1 each), 3 permitted and 3 blocked domains, 3 clients,
// 2 upstreams, 3 history buckets.
const fullCyclePoints = 1 + 1 + 1 + 1 + 1 + 3 + 3 + 3 + 2 + 3

// steadyCyclePoints is the yield of a later cycle over unchanged appliance
// data: the two history buckets behind the watermark drop out, the newest
// bucket is re-exported while it fills.
const steadyCyclePoints = fullCyclePoints - 2

func newTestPoller(instances []pihole.Instance, sink Sink, store WatermarkStore) *Poller {
	client := pihole.NewClient(5 * time.Second)
	return NewPoller(
		instances,
		pihole.NewSessionManager(client),
		NewFetcher(client, testTopItems, testClients),
		sink,
		store,
		time.Minute,
		logging.Default(),
	)
}

func TestPoller_Cycle(t *testing.T) {
	appliance := newFakeAppliance(t)
	inst := appliance.instance(t, "primary", testPassword)
	sink := &captureSink{}
	store := NewMemoryWatermarkStore()
	poller := newTestPoller([]pihole.Instance{inst}, sink, store)
	ctx := context.Background()

	poller.Cycle(ctx)

	if sink.batchCount() != 1 {
		t.Fatalf("batchCount = %d, want 1", sink.batchCount())
	}
	if got := len(sink.lastBatch()); got != fullCyclePoints {
		t.Errorf("len(batch) = %d, want %d", got, fullCyclePoints)
	}
	mark, _ := store.Get(ctx, "primary")
	if !mark.Equal(time.Unix(1800, 0)) {
		t.Errorf("watermark = %v, want newest bucket %v", mark, time.Unix(1800, 0))
	}

	// The second cycle keeps exporting the still-filling newest bucket
	// but drops the fully-written older ones.
	poller.Cycle(ctx)
	if sink.batchCount() != 2 {
		t.Fatalf("batchCount = %d, want 2", sink.batchCount())
	}
	second := sink.lastBatch()
	if len(second) != steadyCyclePoints {
		t.Errorf("len(second batch) = %d, want %d", len(second), steadyCyclePoints)
	}
	var historyStamps []time.Time
	for _, p := range second {
		if p.Measurement == "history" {
			historyStamps = append(historyStamps, p.Timestamp)
		}
	}
	if len(historyStamps) != 1 || !historyStamps[0].Equal(time.Unix(1800, 0)) {
		t.Errorf("history stamps = %v, want only the watermark bucket %v", historyStamps, time.Unix(1800, 0))
	}
}

func TestPoller_Cycle_WatermarkHoldsOnWriteFailure(t *testing.T) {
	appliance := newFakeAppliance(t)
	inst := appliance.instance(t, "primary", testPassword)
	sink := &captureSink{}
	sink.setFail(true)
	store := NewMemoryWatermarkStore()
	poller := newTestPoller([]pihole.Instance{inst}, sink, store)
	ctx := context.Background()

	poller.Cycle(ctx)

	mark, _ := store.Get(ctx, "primary")
	if !mark.IsZero() {
		t.Fatalf("watermark advanced to %v after failed write, want zero", mark)
	}

	// Once the sink recovers the full history window is exported again.
	sink.setFail(false)
	poller.Cycle(ctx)
	if sink.batchCount() != 1 {
		t.Fatalf("batchCount = %d, want 1", sink.batchCount())
	}
	if got := len(sink.lastBatch()); got != fullCyclePoints {
		t.Errorf("len(batch) = %d, want %d including re-exported history", got, fullCyclePoints)
	}
	mark, _ = store.Get(ctx, "primary")
	if !mark.Equal(time.Unix(1800, 0)) {
		t.Errorf("watermark = %v, want %v", mark, time.Unix(1800, 0))
	}
}

func TestPoller_Cycle_FailureIsolation(t *testing.T) {
	appliance := newFakeAppliance(t)
	healthy := appliance.instance(t, "healthy", testPassword)

	// Second instance points at a server that is already gone.
	dead := newFakeAppliance(t)
	unreachable := dead.instance(t, "unreachable", testPassword)
	dead.server.Close()

	sink := &captureSink{}
	poller := newTestPoller([]pihole.Instance{healthy, unreachable}, sink, NewMemoryWatermarkStore())

	poller.Cycle(context.Background())

	if sink.batchCount() != 1 {
		t.Fatalf("batchCount = %d, want 1", sink.batchCount())
	}
	batch := sink.lastBatch()
	if len(batch) != fullCyclePoints {
		t.Errorf("len(batch) = %d, want %d from the healthy instance alone", len(batch), fullCyclePoints)
	}
	for i, p := range batch {
		if p.Tags["alias"] != "healthy" {
			t.Errorf("batch[%d].Tags[alias] = %q, want healthy", i, p.Tags["alias"])
		}
	}
}

func TestPoller_Cycle_ReauthenticatesStaleSession(t *testing.T) {
	appliance := newFakeAppliance(t)
	inst := appliance.instance(t, "primary", testPassword)
	sink := &captureSink{}
	poller := newTestPoller([]pihole.Instance{inst}, sink, NewMemoryWatermarkStore())
	ctx := context.Background()

	poller.Cycle(ctx)
	if got := appliance.authCount(); got != 1 {
		t.Fatalf("authCount = %d after first cycle, want 1", got)
	}

	// Appliance drops the session server-side; the cached SID is now stale.
	appliance.rotateSID("sid-2")

	poller.Cycle(ctx)
	if got := appliance.authCount(); got != 2 {
		t.Errorf("authCount = %d, want 2 (exactly one re-authentication)", got)
	}
	if sink.batchCount() != 2 {
		t.Fatalf("batchCount = %d, want 2", sink.batchCount())
	}
	if got := len(sink.lastBatch()); got != steadyCyclePoints {
		t.Errorf("len(second batch) = %d, want %d after refetch", got, steadyCyclePoints)
	}
}

func TestPoller_Cycle_NoPassword(t *testing.T) {
	appliance := newFakeAppliance(t)
	inst := appliance.instance(t, "primary", "")
	sink := &captureSink{}
	poller := newTestPoller([]pihole.Instance{inst}, sink, NewMemoryWatermarkStore())

	poller.Cycle(context.Background())

	// Every category fails without a session, so there is nothing to write.
	if sink.batchCount() != 0 {
		t.Errorf("batchCount = %d, want 0 for an unauthenticated instance", sink.batchCount())
	}
	if got := appliance.authCount(); got != 0 {
		t.Errorf("authCount = %d, want 0", got)
	}
}

func TestPoller_Run_StopsOnCancel(t *testing.T) {
	appliance := newFakeAppliance(t)
	inst := appliance.instance(t, "primary", testPassword)
	sink := &captureSink{}
	poller := newTestPoller([]pihole.Instance{inst}, sink, NewMemoryWatermarkStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- poller.Run(ctx)
	}()

	// The first cycle runs immediately, before the first scheduler tick.
	deadline := time.After(5 * time.Second)
	for sink.batchCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the initial cycle")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}

	if sink.batchCount() != 1 {
		t.Errorf("batchCount = %d, want 1 before the first tick", sink.batchCount())
	}
}
