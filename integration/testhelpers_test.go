package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

/* fakeGraph serves the slice of Microsoft Graph this service talks to
 */
type fakeGraph struct {
	*httptest.Server

	mu            sync.Mutex
	calls         []string
	orgStatus     int
	deleteStatus  int
	orgGate       chan struct{}
	subscriptions atomic.Int32
	messages      map[string]map[string]any
	subExpiry     time.Time
}

func newFakeGraph(t *testing.T) *fakeGraph {
	t.Helper()
	g := &fakeGraph{
		orgStatus:    http.StatusOK,
		deleteStatus: http.StatusNoContent,
		messages:     make(map[string]map[string]any),
		subExpiry:    time.Now().Add(70 * time.Hour).UTC().Truncate(time.Second),
	}
	g.Server = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.Close)
	return g
}

func (g *fakeGraph) serve(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	g.calls = append(g.calls, r.Method+" "+r.URL.Path)
	gate := g.orgGate
	g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/organization":
		if gate != nil {
			<-gate
		}
		w.WriteHeader(g.orgStatus)
		if g.orgStatus != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": "InvalidAuthenticationToken", "message": "Access token is empty."}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"value": []any{map[string]any{"id": "tenant"}}})

	case r.URL.Path == "/subscriptions" && r.Method == http.MethodPost:
		n := g.subscriptions.Add(1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = fmt.Sprintf("sub-%d", n)
		body["expirationDateTime"] = g.subExpiry.Format(time.RFC3339)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(body)

	case strings.HasPrefix(r.URL.Path, "/subscriptions/") && r.Method == http.MethodDelete:
		w.WriteHeader(g.deleteStatus)

	case strings.HasPrefix(r.URL.Path, "/subscriptions/") && r.Method == http.MethodPatch:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":                 strings.TrimPrefix(r.URL.Path, "/subscriptions/"),
			"expirationDateTime": g.subExpiry.Format(time.RFC3339),
		})

	default:
		g.mu.Lock()
		msg, ok := g.messages[r.URL.Path]
		g.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": "NotFound", "message": "message not found"}})
			return
		}
		_ = json.NewEncoder(w).Encode(msg)
	}
}

func (g *fakeGraph) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

func (g *fakeGraph) count(call string) int {
	n := 0
	for _, c := range g.Calls() {
		if c == call {
			n++
		}
	}
	return n
}
