package netbox

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/tailgate/server/internal/config"
	"github.com/BrandonDHaskell/tailgate/server/internal/metrics"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/types"
)

// ── Fakes ────────────────────────────────────────────────────────────────────

// fakeNetBox answers Login with a fixed session and streams the configured
// event lines, then holds the connection open until the client leaves or
// hold is closed.
type fakeNetBox struct {
	session string
	lines   []string
	hold    chan struct{}

	mu      sync.Mutex
	logins  int
	streams int
	last    apiRequest
}

func (f *fakeNetBox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req apiRequest
	if err := xml.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.last = req
	f.mu.Unlock()

	switch req.Command.Name {
	case "Login":
		f.mu.Lock()
		f.logins++
		f.mu.Unlock()
		if f.session == "" {
			fmt.Fprint(w, `<NETBOX-API><RESPONSE>FAIL</RESPONSE></NETBOX-API>`)
			return
		}
		fmt.Fprintf(w, `<NETBOX-API sessionid=%q></NETBOX-API>`, f.session)

	case "StreamEvents":
		if req.SessionID != f.session {
			http.Error(w, "bad session", http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.streams++
		f.mu.Unlock()
		flusher := w.(http.Flusher)
		for _, line := range f.lines {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
		if f.hold != nil {
			select {
			case <-f.hold:
			case <-r.Context().Done():
			}
		}
	}
}

func (f *fakeNetBox) lastRequest() apiRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeNetBox) counts() (logins, streams int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins, f.streams
}

type recordingSink struct {
	mu   sync.Mutex
	reqs []types.AccessRequest
}

func (s *recordingSink) Ingest(_ context.Context, req types.AccessRequest) types.AccessResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return types.AccessResponse{Status: "ok"}
}

func (s *recordingSink) Requests() []types.AccessRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.AccessRequest(nil), s.reqs...)
}

type recordingStatus struct {
	mu      sync.Mutex
	history []bool
}

func (r *recordingStatus) SetServing(service string, serving bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if service == HealthService {
		r.history = append(r.history, serving)
	}
}

func (r *recordingStatus) History() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.history...)
}

func eventLine(portal, desc string) string {
	return fmt.Sprintf(`<NETBOX-API><EVENT><DESCNAME>%s</DESCNAME><PORTALNAME>%s</PORTALNAME></EVENT></NETBOX-API>--Boundary`, desc, portal)
}

func testConfig(url string) config.NetBox {
	return config.NetBox{Enabled: true, URL: url, Username: "admin", Password: "s3cret"}
}

// ── Client ───────────────────────────────────────────────────────────────────

func TestClient_LoginReturnsSession(t *testing.T) {
	fake := &fakeNetBox{session: "abc123"}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	session, err := NewClient(testConfig(srv.URL)).Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "abc123", session)
	assert.Equal(t, "admin", fake.lastRequest().Command.Params.Username)
	assert.Equal(t, "s3cret", fake.lastRequest().Command.Params.Password)
}

func TestClient_LoginWithoutSession(t *testing.T) {
	srv := httptest.NewServer(&fakeNetBox{})
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL)).Login(context.Background())

	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClient_LoginHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(testConfig(srv.URL)).Test(context.Background())

	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestClient_LoginEscapesCredentials(t *testing.T) {
	fake := &fakeNetBox{session: "s"}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Password = `p<&>"w`
	_, err := NewClient(cfg).Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, `p<&>"w`, fake.lastRequest().Command.Params.Password)
}

func TestClient_StreamDeliversEvents(t *testing.T) {
	fake := &fakeNetBox{
		session: "abc",
		lines: []string{
			"--Boundary",
			"Content-Type: text/xml",
			eventLine("Front Door", "Door Unlock"),
			eventLine("Back Door", "Door Lock"),
		},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var got []Event
	err := NewClient(testConfig(srv.URL)).Stream(context.Background(), "abc", func(ev Event) {
		got = append(got, ev)
	})

	assert.ErrorIs(t, err, ErrStreamEnded)
	require.Len(t, got, 2)
	assert.Equal(t, "Front Door", got[0].Portal)
	assert.Equal(t, "Door Unlock", got[0].Desc)
	assert.False(t, got[0].Received.IsZero())
	assert.Equal(t, "Door Lock", got[1].Desc)
}

func TestScanEvents_SkipsNoiseAndMalformed(t *testing.T) {
	stream := strings.Join([]string{
		"",
		"<NETBOX-API><HEARTBEAT/></NETBOX-API>",
		"<EVENT><DESCNAME>broken",
		"<EVENT><DESCNAME>Door Unlock</DESCNAME><PORTALNAME>Lobby</PORTALNAME></EVENT>--Boundary trailing",
	}, "\n")

	var got []Event
	err := scanEvents(strings.NewReader(stream), func(ev Event) { got = append(got, ev) })

	assert.ErrorIs(t, err, ErrStreamEnded)
	require.Len(t, got, 1)
	assert.Equal(t, "Lobby", got[0].Portal)
}

func TestParseEvent_MissingTagsAreEmpty(t *testing.T) {
	ev, ok := parseEvent("<EVENT><DESCNAME>Door Unlock</DESCNAME></EVENT>")

	require.True(t, ok)
	assert.Equal(t, "Door Unlock", ev.Desc)
	assert.Empty(t, ev.Portal)
}

// ── Listener ─────────────────────────────────────────────────────────────────

func TestListener_ForwardsEventsAndReportsHealth(t *testing.T) {
	fake := &fakeNetBox{
		session: "abc",
		lines:   []string{eventLine("Front", "Door Unlock"), eventLine("Front", "Door Lock")},
		hold:    make(chan struct{}),
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	defer close(fake.hold)

	sink := &recordingSink{}
	status := &recordingStatus{}
	l := NewListener(NewClient(testConfig(srv.URL)), sink, ListenerOptions{
		RetryInterval: time.Hour,
		Status:        status,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); l.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sink.Requests()) == 2 }, 2*time.Second, 10*time.Millisecond)
	reqs := sink.Requests()
	assert.Equal(t, "Door Unlock", reqs[0].Desc)
	assert.Equal(t, "Front", reqs[0].Portal)
	assert.NotEmpty(t, reqs[0].Timestamp)

	cancel()
	<-done

	hist := status.History()
	require.NotEmpty(t, hist)
	assert.True(t, hist[0])
	assert.False(t, hist[len(hist)-1])
}

func TestListener_RetriesAfterStreamEnds(t *testing.T) {
	fake := &fakeNetBox{session: "abc"}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	l := NewListener(NewClient(testConfig(srv.URL)), &recordingSink{}, ListenerOptions{
		RetryInterval: 10 * time.Millisecond,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); l.Run(ctx) }()

	require.Eventually(t, func() bool {
		logins, _ := fake.counts()
		return logins >= 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestListener_DropsWhenQueueFull(t *testing.T) {
	m := metrics.New()
	l := NewListener(nil, &recordingSink{}, ListenerOptions{QueueSize: 1, Metrics: m}, zap.NewNop())

	l.enqueue(Event{Desc: "first"})
	l.enqueue(Event{Desc: "second"})

	assert.Len(t, l.events, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Dropped.WithLabelValues("netbox")))
}

// ── Supervisor ───────────────────────────────────────────────────────────────

func TestSupervisor_ConfigMasksPassword(t *testing.T) {
	s := NewSupervisor(testConfig("http://netbox.invalid"), &recordingSink{}, ListenerOptions{}, zap.NewNop())

	cfg := s.Config()

	assert.Equal(t, "******", cfg.Password)
	assert.Equal(t, "s3cret", s.Current().Password)
	assert.Equal(t, "", Mask(""))
}

func TestSupervisor_UpdateWhileStoppedDoesNotStart(t *testing.T) {
	s := NewSupervisor(testConfig("http://a.invalid"), &recordingSink{}, ListenerOptions{}, zap.NewNop())

	s.Update(config.NetBox{URL: "http://b.invalid", Username: "u", Password: "p"})

	assert.False(t, s.Running())
	assert.Equal(t, "http://b.invalid", s.Current().URL)
	assert.True(t, s.Current().Enabled, "enabled flag is not operator-editable")
}

func TestSupervisor_StartUpdateStop(t *testing.T) {
	first := &fakeNetBox{session: "one", hold: make(chan struct{})}
	second := &fakeNetBox{session: "two", hold: make(chan struct{})}
	srv1 := httptest.NewServer(first)
	srv2 := httptest.NewServer(second)
	defer srv1.Close()
	defer srv2.Close()
	defer close(first.hold)
	defer close(second.hold)

	s := NewSupervisor(testConfig(srv1.URL), &recordingSink{}, ListenerOptions{RetryInterval: time.Hour}, zap.NewNop())
	s.Start(context.Background())
	s.Start(context.Background())
	require.True(t, s.Running())

	require.Eventually(t, func() bool { _, n := first.counts(); return n == 1 }, 2*time.Second, 10*time.Millisecond)

	s.Update(testConfig(srv2.URL))
	require.True(t, s.Running())
	require.Eventually(t, func() bool { _, n := second.counts(); return n == 1 }, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
	logins, _ := first.counts()
	assert.Equal(t, 1, logins)
}

func TestSupervisor_TestUsesGivenConfig(t *testing.T) {
	srv := httptest.NewServer(&fakeNetBox{session: "ok"})
	defer srv.Close()

	s := NewSupervisor(testConfig("http://unused.invalid"), &recordingSink{}, ListenerOptions{}, zap.NewNop())

	assert.NoError(t, s.Test(context.Background(), testConfig(srv.URL)))
	assert.Error(t, s.Test(context.Background(), testConfig("http://127.0.0.1:1")))
}
