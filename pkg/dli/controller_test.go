package dli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSwitch emulates the parts of the DLI REST API the controller uses.
type fakeSwitch struct {
	names  []string
	states []bool

	nameGets  int
	stateGets []string // route selectors seen on state GETs
	puts      []putRequest

	failStatus int // when non-zero, every request replies with this status
}

type putRequest struct {
	selector string
	body     string
	csrf     string
}

func (f *fakeSwitch) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if f.failStatus != 0 {
			w.WriteHeader(f.failStatus)
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/restapi/relay/outlets/")
		parts := strings.SplitN(strings.TrimSuffix(path, "/"), "/", 2)
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		sel, kind := parts[0], parts[1]

		switch {
		case r.Method == http.MethodGet && kind == "name":
			f.nameGets++
			_ = json.NewEncoder(w).Encode(f.names)
		case r.Method == http.MethodGet && kind == "state":
			f.stateGets = append(f.stateGets, sel)
			_ = json.NewEncoder(w).Encode(f.statesFor(sel))
		case r.Method == http.MethodPut && kind == "state":
			body, _ := io.ReadAll(r.Body)
			f.puts = append(f.puts, putRequest{
				selector: sel,
				body:     string(body),
				csrf:     r.Header.Get("X-CSRF"),
			})
			f.apply(sel, strings.Contains(string(body), "value=true"))
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}
}

func (f *fakeSwitch) statesFor(sel string) []bool {
	if sel == "all;" {
		return f.states
	}
	out := []bool{}
	for _, s := range strings.Split(strings.TrimPrefix(sel, "="), ",") {
		if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < len(f.states) {
			out = append(out, f.states[i])
		}
	}
	return out
}

func (f *fakeSwitch) apply(sel string, value bool) {
	if sel == "all;" {
		for i := range f.states {
			f.states[i] = value
		}
		return
	}
	for _, s := range strings.Split(strings.TrimPrefix(sel, "="), ",") {
		if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < len(f.states) {
			f.states[i] = value
		}
	}
}

func newTestController(t *testing.T, handler http.Handler) (*Controller, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	dc, err := NewController(Config{
		Name:     "test",
		Host:     u.Hostname(),
		Port:     port,
		User:     "admin",
		Password: "admin-password",
	})
	require.NoError(t, err)
	return dc, srv
}

func TestReloadAndOutlets(t *testing.T) {
	f := &fakeSwitch{names: []string{"Light", "Fan"}, states: []bool{false, false}}
	dc, _ := newTestController(t, f.handler())

	require.NoError(t, dc.Reload(context.Background()))

	assert.Equal(t, []Outlet{{0, "Light"}, {1, "Fan"}}, dc.Outlets())

	outlet, err := dc.GetOutletNumber("light", false)
	require.NoError(t, err)
	assert.Equal(t, 0, outlet)
}

func TestStateAll(t *testing.T) {
	f := &fakeSwitch{names: []string{"Light", "Fan"}, states: []bool{true, false}}
	dc, _ := newTestController(t, f.handler())

	// The registry is empty, so the first operation triggers one reload.
	states, err := dc.State(context.Background(), All)
	require.NoError(t, err)

	assert.Equal(t, 1, f.nameGets)
	assert.Equal(t, []string{"all;"}, f.stateGets)
	assert.Equal(t, []OutletState{
		{Outlet: 0, Name: "Light", On: true},
		{Outlet: 1, Name: "Fan", On: false},
	}, states)
}

func TestStateSubsetRequestOrder(t *testing.T) {
	f := &fakeSwitch{names: []string{"Light", "Fan"}, states: []bool{true, false}}
	dc, _ := newTestController(t, f.handler())

	states, err := dc.State(context.Background(), ByName("fan"), ByIndex(0))
	require.NoError(t, err)

	assert.Equal(t, []string{"=1,0"}, f.stateGets)
	assert.Equal(t, []OutletState{
		{Outlet: 1, Name: "Fan", On: false},
		{Outlet: 0, Name: "Light", On: true},
	}, states)
}

func TestStateNoOutletsSpecified(t *testing.T) {
	f := &fakeSwitch{names: []string{"Light"}, states: []bool{false}}
	dc, _ := newTestController(t, f.handler())

	_, err := dc.State(context.Background())
	assert.ErrorIs(t, err, ErrNoOutletsSpecified)
}

func TestStateEmptyDevice(t *testing.T) {
	f := &fakeSwitch{}
	dc, _ := newTestController(t, f.handler())

	_, err := dc.State(context.Background(), All)
	assert.ErrorIs(t, err, ErrNoOutlets)
	// Exactly one reload attempt, never a loop.
	assert.Equal(t, 1, f.nameGets)
}

func TestOnByIndex(t *testing.T) {
	f := &fakeSwitch{names: []string{"Light", "Fan"}, states: []bool{false, false}}
	dc, _ := newTestController(t, f.handler())

	require.NoError(t, dc.On(context.Background(), ByIndex(0)))

	require.Len(t, f.puts, 1)
	assert.Equal(t, "=0", f.puts[0].selector)
	assert.Equal(t, "value=true", f.puts[0].body)
	assert.Equal(t, "x", f.puts[0].csrf)
	assert.Equal(t, []bool{true, false}, f.states)
}

func TestOffByFuzzyName(t *testing.T) {
	f := &fakeSwitch{names: []string{"Light", "Fan"}, states: []bool{true, true}}
	dc, _ := newTestController(t, f.handler())

	require.NoError(t, dc.Off(context.Background(), ByName("fa")))

	require.Len(t, f.puts, 1)
	assert.Equal(t, "=1", f.puts[0].selector)
	assert.Equal(t, "value=false", f.puts[0].body)
}

func TestOffAllSkipsRegistry(t *testing.T) {
	// Switching "all" goes straight to the device: it must succeed with an
	// empty registry and without ever requesting the outlet names.
	f := &fakeSwitch{states: []bool{true, true}}
	dc, _ := newTestController(t, f.handler())

	require.NoError(t, dc.Off(context.Background(), All))

	assert.Equal(t, 0, f.nameGets)
	require.Len(t, f.puts, 1)
	assert.Equal(t, "all;", f.puts[0].selector)
	assert.Equal(t, "value=false", f.puts[0].body)
	assert.Equal(t, []bool{false, false}, f.states)
}

func TestOnAmbiguousName(t *testing.T) {
	f := &fakeSwitch{names: []string{"Light-1", "Light-2"}, states: []bool{false, false}}
	dc, _ := newTestController(t, f.handler())

	err := dc.On(context.Background(), ByName("Light"))
	assert.ErrorIs(t, err, ErrAmbiguousOutlet)
	assert.Empty(t, f.puts)
}

func TestPutStatusError(t *testing.T) {
	f := &fakeSwitch{failStatus: http.StatusInternalServerError}
	dc, _ := newTestController(t, f.handler())

	err := dc.On(context.Background(), All)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestIsConnected(t *testing.T) {
	f := &fakeSwitch{names: []string{"Light"}, states: []bool{false}}
	dc, srv := newTestController(t, f.handler())

	assert.True(t, dc.IsConnected(context.Background()))

	f.failStatus = http.StatusServiceUnavailable
	assert.False(t, dc.IsConnected(context.Background()))

	srv.Close()
	assert.False(t, dc.IsConnected(context.Background()))
}

func TestDigestChallenge(t *testing.T) {
	// The switch challenges every unauthenticated request; the client must
	// retry with a digest Authorization header.
	names := []string{"Light"}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate", `Digest realm="dli", nonce="f0e1d2c3", qop="auth"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !strings.Contains(auth, `username="admin"`) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(names)
	})

	dc, _ := newTestController(t, handler)
	require.NoError(t, dc.Reload(context.Background()))
	assert.Equal(t, []Outlet{{0, "Light"}}, dc.Outlets())
}

func TestParseOutletRef(t *testing.T) {
	assert.Equal(t, All, ParseOutletRef("all"))
	assert.Equal(t, ByIndex(3), ParseOutletRef("3"))
	assert.Equal(t, ByName("Light"), ParseOutletRef("Light"))
	// Negative numbers are not valid outlet numbers, treat them as names.
	assert.Equal(t, ByName("-1"), ParseOutletRef("-1"))
}
