package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/grove"
	"github.com/aretw0/grove/pkg/adapters/memory"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/observability"
	"github.com/aretw0/grove/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

func setupServer(t *testing.T, opts ...Option) (http.Handler, *memory.Document, *StreamManager) {
	t.Helper()
	ctx := context.Background()
	owner := domain.Node{ID: "script", Name: "FixParams", Role: domain.RoleComponent, Kind: domain.KindScript}
	doc, err := memory.NewFromNodes([]domain.Node{
		owner,
		{ID: "g1", Name: "Inputs", Role: domain.RoleGroup, Members: []domain.NodeID{"p1", "p2"}},
		{ID: "p1", Name: "Width", Role: domain.RoleParam, Display: domain.DisplayIcon},
		{ID: "p2", Name: "Height", Role: domain.RoleParam, Display: domain.DisplayIcon},
	})
	if err != nil {
		t.Fatal(err)
	}

	streams := NewStreamManager(nil)
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	engine, err := grove.New(doc, grove.WithLifecycleHooks(streams.Hooks(metrics.Hooks(domain.LifecycleHooks{}))))
	if err != nil {
		t.Fatal(err)
	}
	params, err := engine.FixParams(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if err := params.Run(ctx, grove.FixParamsSettings{Enable: true}); err != nil {
		t.Fatal(err)
	}

	opts = append([]Option{WithStreams(streams), WithGatherer(reg)}, opts...)
	return NewHandler(engine, opts...), doc, streams
}

func TestHealthAndInfo(t *testing.T) {
	handler, _, _ := setupServer(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("Unexpected health response: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/info", nil))
	var info map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info["app"] != "grove-http" || info["version"] != strings.TrimSpace(grove.Version) {
		t.Errorf("Unexpected info: %v", info)
	}
}

func TestGraph(t *testing.T) {
	handler, _, _ := setupServer(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/graph", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}
	var nodes []domain.Node
	if err := json.Unmarshal(w.Body.Bytes(), &nodes); err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 4 {
		t.Errorf("Expected 4 nodes, got %d", len(nodes))
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/graph/mermaid", nil))
	body := w.Body.String()
	if !strings.HasPrefix(body, "graph LR") {
		t.Errorf("Expected mermaid output, got %q", body)
	}
	if !strings.Contains(body, "subgraph") {
		t.Error("Expected the group to be rendered as a subgraph")
	}
}

func TestPolicies_SweepAndJournal(t *testing.T) {
	handler, doc, _ := setupServer(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/policies", nil))
	var list []PolicyInfo
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != grove.PolicyFixParams || !list[0].Active {
		t.Errorf("Unexpected policies: %+v", list)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/policies/fixparams/sweep", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Sweep failed: %d %s", w.Code, w.Body.String())
	}
	var res SweepResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Policy != "fixparams" || res.Processed != 2 {
		t.Errorf("Unexpected sweep result: %+v", res)
	}
	p1, _ := doc.Node("p1")
	if p1.Display != domain.DisplayName {
		t.Errorf("Expected p1 to show its name, got %q", p1.Display)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/policies/fixparams/journal", nil))
	if !strings.Contains(w.Body.String(), "Added the eventhandlers to OnObjectsAdded") {
		t.Errorf("Unexpected journal: %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/policies/nope/sweep", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown policy, got %d", w.Code)
	}
}

type recordingLocker struct {
	keys     []string
	unlocked int
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.keys = append(l.keys, key)
	return func(context.Context) error {
		l.unlocked++
		return nil
	}, nil
}

func TestSweep_UsesLocker(t *testing.T) {
	locker := &recordingLocker{}
	handler, _, _ := setupServer(t, WithLocker(locker, time.Second))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/policies/fixparams/sweep", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Sweep failed: %d", w.Code)
	}
	if len(locker.keys) != 1 || locker.keys[0] != "sweep:fixparams" || locker.unlocked != 1 {
		t.Errorf("Unexpected locker usage: %v unlocked=%d", locker.keys, locker.unlocked)
	}
}

func TestMetrics(t *testing.T) {
	handler, _, _ := setupServer(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(w.Body.String(), "grove_activations_total") {
		t.Error("Expected grove metrics in the exposition")
	}
}

func TestSubscribeEvents_Filtered(t *testing.T) {
	handler, doc, streams := setupServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/events?policy=fixparams", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(wSub, reqSub)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond) // Wait for subscription to register

	// A new parameter raises an annotation from the active policy.
	if err := doc.AddNodes(context.Background(), domain.Node{ID: "p3", Name: "Depth", Role: domain.RoleParam, Display: domain.DisplayIcon}); err != nil {
		t.Fatal(err)
	}
	streams.Broadcast("colorgroups", `{"policy":"colorgroups"}`)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	if !strings.Contains(output, "event: ping") {
		t.Error("Expected initial ping")
	}
	if !strings.Contains(output, `"node_id":"p3"`) {
		t.Errorf("Expected annotation for p3, got %q", output)
	}
	if strings.Contains(output, "colorgroups") {
		t.Error("Expected events of other policies to be filtered out")
	}
}

func TestOpenAPISpec(t *testing.T) {
	if _, err := LoadSpec(context.Background()); err != nil {
		t.Fatalf("Embedded spec does not validate: %v", err)
	}

	handler, _, _ := setupServer(t)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/openapi.yaml", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/policies/{name}/sweep") {
		t.Errorf("Unexpected spec response: %d", w.Code)
	}
}

func TestRequestValidation(t *testing.T) {
	handler, _, _ := setupServer(t)

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"Malformed Policy Name", "POST", "/policies/FixParams/sweep", http.StatusBadRequest},
		{"Malformed Journal Name", "GET", "/policies/fix-params/journal", http.StatusBadRequest},
		{"Malformed Event Filter", "GET", "/events?policy=Fix%20Params", http.StatusBadRequest},
		{"Unknown Policy Is Not Found", "GET", "/policies/nope/journal", http.StatusNotFound},
		{"Undocumented Route Passes", "GET", "/metrics", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))
			if w.Code != tt.want {
				t.Errorf("%s %s: expected %d, got %d (%s)", tt.method, tt.target, tt.want, w.Code, w.Body.String())
			}
		})
	}
}
