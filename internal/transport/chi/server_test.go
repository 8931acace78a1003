package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/spherenn/internal/db/memory"
	refsetrepo "github.com/kailas-cloud/spherenn/internal/repository/refset"
	reportrepo "github.com/kailas-cloud/spherenn/internal/repository/report"
	healthuc "github.com/kailas-cloud/spherenn/internal/usecase/health"
	refsetuc "github.com/kailas-cloud/spherenn/internal/usecase/refset"
	"github.com/kailas-cloud/spherenn/internal/usecase/validation"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func newTestRouter(t *testing.T, pinger healthuc.DBPinger) http.Handler {
	t.Helper()
	store := memory.New()
	if pinger == nil {
		pinger = store
	}
	refsets := refsetuc.New(
		refsetrepo.New(store, "test"),
		reportrepo.New(store, "test", 0),
		refsetuc.Config{DefaultQueries: 20},
		nil,
	)
	srv := NewServer(refsets, healthuc.New(pinger, refsets), nil).WithMaxBodyBytes(1 << 16)

	r := chi.NewRouter()
	srv.Register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

const scenarioBody = `{"description":"equator and pole","points":[
	{"azimuth":0,"elevation":0},{"azimuth":90,"elevation":0},{"azimuth":180,"elevation":0},
	{"azimuth":270,"elevation":0},{"azimuth":0,"elevation":90}]}`

func TestHealth(t *testing.T) {
	rr := do(t, newTestRouter(t, nil), "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body)
	}
	resp := decodeBody[HealthResponse](t, rr)
	if resp.Status != "ok" || resp.Checks["database"] != "ok" {
		t.Errorf("unexpected health %+v", resp)
	}

	rr = do(t, newTestRouter(t, failingPinger{}), "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded health: got %d", rr.Code)
	}
}

func TestDistance(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := do(t, h, "POST", "/v1/distance", `{"a":{"azimuth":0,"elevation":0},"b":{"azimuth":0,"elevation":90}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body)
	}
	resp := decodeBody[DistanceResponse](t, rr)
	if math.Abs(resp.Radians-math.Pi/2) > 1e-12 || math.Abs(resp.Degrees-90) > 1e-9 {
		t.Errorf("unexpected distance %+v", resp)
	}
	if resp.Metric != "great_circle" {
		t.Errorf("metric = %q", resp.Metric)
	}

	rr = do(t, h, "POST", "/v1/distance", `{"a":`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed body: got %d", rr.Code)
	}
	rr = do(t, h, "POST", "/v1/distance", `{"a":{},"b":{},"c":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown field: got %d", rr.Code)
	}
}

func TestSetLifecycle(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := do(t, h, "PUT", "/v1/sets/sky", scenarioBody)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", rr.Code, rr.Body)
	}
	if rr.Header().Get("Location") != "/v1/sets/sky" {
		t.Errorf("Location = %q", rr.Header().Get("Location"))
	}
	created := decodeBody[SetResponse](t, rr)
	if created.Count != 5 || created.Points != nil {
		t.Errorf("unexpected create response %+v", created)
	}

	rr = do(t, h, "PUT", "/v1/sets/sky", scenarioBody)
	if rr.Code != http.StatusOK {
		t.Errorf("replace: got %d", rr.Code)
	}

	rr = do(t, h, "GET", "/v1/sets/sky", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: got %d", rr.Code)
	}
	got := decodeBody[SetResponse](t, rr)
	if len(got.Points) != 5 || got.Points[4].ElevationDeg != 90 || got.Description != "equator and pole" {
		t.Errorf("unexpected set %+v", got)
	}

	rr = do(t, h, "GET", "/v1/sets", "")
	list := decodeBody[SetListResponse](t, rr)
	if list.Total != 1 || list.Items[0].Name != "sky" || list.Items[0].Count != 5 {
		t.Errorf("unexpected list %+v", list)
	}

	rr = do(t, h, "DELETE", "/v1/sets/sky", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete: got %d", rr.Code)
	}
	rr = do(t, h, "GET", "/v1/sets/sky", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d", rr.Code)
	}
	if decodeBody[ErrorResponse](t, rr).Code != ErrorCodeNotFound {
		t.Error("expected not_found code")
	}
	rr = do(t, h, "DELETE", "/v1/sets/sky", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d", rr.Code)
	}
}

func TestPutSet_Invalid(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := do(t, h, "PUT", "/v1/sets/bad.name", `{"points":[]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rr.Code)
	}
	if decodeBody[ErrorResponse](t, rr).Code != ErrorCodeInvalidReferenceSet {
		t.Error("expected invalid_reference_set code")
	}
}

func TestNearest(t *testing.T) {
	h := newTestRouter(t, nil)
	do(t, h, "PUT", "/v1/sets/sky", scenarioBody)

	tests := []struct {
		name    string
		query   string
		engine  string
		indices []int
	}{
		{"near first equator point", "azimuth=10&elevation=5", "balltree", []int{0}},
		{"near pole", "azimuth=95&elevation=80&k=2", "balltree", []int{4, 1}},
		{"brute mode", "azimuth=185&elevation=-10&mode=brute", "brute", []int{2}},
		{"k clamped to set size", "azimuth=10&elevation=5&k=50", "balltree", []int{0, 1, 4, 3, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, "GET", "/v1/sets/sky/nearest?"+tt.query, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("got %d: %s", rr.Code, rr.Body)
			}
			resp := decodeBody[NearestResponse](t, rr)
			if resp.Engine != tt.engine {
				t.Errorf("engine = %q, want %q", resp.Engine, tt.engine)
			}
			if len(resp.Items) != len(tt.indices) {
				t.Fatalf("got %d items, want %d", len(resp.Items), len(tt.indices))
			}
			for i, want := range tt.indices {
				if resp.Items[i].Index != want {
					t.Errorf("item %d: index %d, want %d", i, resp.Items[i].Index, want)
				}
			}
		})
	}
}

func TestNearest_Errors(t *testing.T) {
	h := newTestRouter(t, nil)
	do(t, h, "PUT", "/v1/sets/sky", scenarioBody)
	do(t, h, "PUT", "/v1/sets/empty", `{"points":[]}`)

	tests := []struct {
		name   string
		path   string
		status int
		code   ErrorCode
	}{
		{"missing azimuth", "/v1/sets/sky/nearest?elevation=1", http.StatusBadRequest, ErrorCodeBadRequest},
		{"non-numeric", "/v1/sets/sky/nearest?azimuth=x&elevation=1", http.StatusBadRequest, ErrorCodeBadRequest},
		{"NaN", "/v1/sets/sky/nearest?azimuth=NaN&elevation=1", http.StatusBadRequest, ErrorCodeInvalidQuery},
		{"zero k", "/v1/sets/sky/nearest?azimuth=1&elevation=1&k=0", http.StatusBadRequest, ErrorCodeInvalidQuery},
		{"bad mode", "/v1/sets/sky/nearest?azimuth=1&elevation=1&mode=fast", http.StatusBadRequest, ErrorCodeInvalidQuery},
		{"unknown set", "/v1/sets/nope/nearest?azimuth=1&elevation=1", http.StatusNotFound, ErrorCodeNotFound},
		{"empty set", "/v1/sets/empty/nearest?azimuth=1&elevation=1", http.StatusUnprocessableEntity, ErrorCodeEmptyReferenceSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, "GET", tt.path, "")
			if rr.Code != tt.status {
				t.Fatalf("got %d, want %d: %s", rr.Code, tt.status, rr.Body)
			}
			if got := decodeBody[ErrorResponse](t, rr).Code; got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestValidateAndReport(t *testing.T) {
	h := newTestRouter(t, nil)
	do(t, h, "PUT", "/v1/sets/sky", scenarioBody)

	rr := do(t, h, "POST", "/v1/sets/sky/validate", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("validate: got %d: %s", rr.Code, rr.Body)
	}
	rep := decodeBody[validation.Report](t, rr)
	if rep.Total != 20 || len(rep.Mismatches) != 0 || rep.ID == "" {
		t.Errorf("unexpected report %+v", rep)
	}

	rr = do(t, h, "GET", "/v1/reports/"+rep.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get report: got %d", rr.Code)
	}
	if decodeBody[validation.Report](t, rr).ID != rep.ID {
		t.Error("report id mismatch")
	}

	rr = do(t, h, "POST", "/v1/sets/sky/validate", `{"queries":[{"azimuth":44,"elevation":1}],"tolerance":0}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("explicit queries: got %d: %s", rr.Code, rr.Body)
	}
	if got := decodeBody[validation.Report](t, rr); got.Total != 1 || got.ExactMatches != 1 {
		t.Errorf("unexpected report %+v", got)
	}

	rr = do(t, h, "POST", "/v1/sets/sky/validate", `{"tolerance":-1}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("negative tolerance: got %d", rr.Code)
	}

	rr = do(t, h, "GET", "/v1/reports/01ARZ3NDEKTSV4RRFFQ69G5FAV", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown report: got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := do(t, newTestRouter(t, nil), "GET", "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Errorf("got %d", rr.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	h := newTestRouter(t, nil)
	big := `{"points":[` + strings.Repeat(`{"azimuth":1,"elevation":1},`, 5000) + `{"azimuth":1,"elevation":1}]}`
	rr := do(t, h, "PUT", "/v1/sets/big", big)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("oversized body: got %d", rr.Code)
	}
}
