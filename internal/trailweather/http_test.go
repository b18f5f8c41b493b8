package trailweather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const routeBody = `{
	"tracks": [{
		"name": "Alamkuh ascent",
		"segments": [[
			{"latitude": 36.3801, "longitude": 50.9612, "elevation": 2380.5, "time": "2024-06-01T05:10:00Z"},
			{"latitude": 36.3901, "longitude": 50.9712, "elevation": 2602.0, "time": "2024-06-01T06:40:00Z"}
		]]
	}]
}`

func writeRouteFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "route.json")
	if err := os.WriteFile(path, []byte(routeBody), 0o644); err != nil {
		t.Fatalf("writing route file: %v", err)
	}
	return path
}

func serve(t *testing.T, s *Service, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRouteHandler(t *testing.T) {
	om := newFakeOpenMeteo(t)
	s := newTestService(t, testConfig(om.URL))

	rec := serve(t, s, http.MethodPost, "/route?sample=0s", routeBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp RouteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.RunID == "" || resp.Route != "Alamkuh ascent" || len(resp.Rows) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	// 06:40 is nearest to the 07:00 forecast hour
	if got := resp.Rows[1].Time.Unix(); got != 1717225200 {
		t.Errorf("unexpected forecast hour %d", got)
	}
	if v := resp.Rows[1].WindSpeed; v == nil || *v != 15.0 {
		t.Errorf("unexpected wind speed %v", v)
	}
	if resp.Rows[0].Sunrise == nil || resp.Rows[0].Sunrise.Unix() != 1717204200 {
		t.Errorf("unexpected sunrise %v", resp.Rows[0].Sunrise)
	}
}

const denseRouteBody = `{
	"tracks": [{
		"segments": [[
			{"latitude": 36.3801, "longitude": 50.9612, "time": "2024-06-01T05:00:00Z"},
			{"latitude": 36.3811, "longitude": 50.9622, "time": "2024-06-01T05:05:00Z"},
			{"latitude": 36.3821, "longitude": 50.9632, "time": "2024-06-01T05:10:00Z"},
			{"latitude": 36.3831, "longitude": 50.9642, "time": "2024-06-01T05:15:00Z"}
		]]
	}]
}`

func TestRouteHandlerSampleOverridesConfig(t *testing.T) {
	om := newFakeOpenMeteo(t)
	cfg := testConfig(om.URL)
	cfg.SampleInterval = 15 * time.Minute
	s := newTestService(t, cfg)

	for target, want := range map[string]int{
		"/route":           2,
		"/route?sample=0":  4,
		"/route?sample=5m": 4,
	} {
		rec := serve(t, s, http.MethodPost, target, denseRouteBody)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d: %s", target, rec.Code, rec.Body.String())
		}
		var resp RouteResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decoding response: %v", target, err)
		}
		if resp.Segments != want || len(resp.Rows) != want {
			t.Errorf("%s: expected %d segments, got %d (%d rows)", target, want, resp.Segments, len(resp.Rows))
		}
	}
}

func TestRouteHandlerBadRequests(t *testing.T) {
	om := newFakeOpenMeteo(t)
	s := newTestService(t, testConfig(om.URL))

	cases := []struct {
		name   string
		target string
		body   string
	}{
		{"invalid json", "/route", "not json"},
		{"no tracks", "/route", `{"tracks":[]}`},
		{"bad sample", "/route?sample=soon", routeBody},
		{"negative sample", "/route?sample=-5m", routeBody},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := serve(t, s, http.MethodPost, c.target, c.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error == "" {
				t.Fatalf("expected an error body, got %q", rec.Body.String())
			}
		})
	}

	if rec := serve(t, s, http.MethodGet, "/route", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET /route, got %d", rec.Code)
	}
}

func TestPointHandler(t *testing.T) {
	om := newFakeOpenMeteo(t)
	s := newTestService(t, testConfig(om.URL))

	rec := serve(t, s, http.MethodGet, "/point?lat=36.6519&lon=50.749", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp PointResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Timezone != "Asia/Tehran" || resp.UtcOffsetSeconds != 12600 {
		t.Fatalf("unexpected metadata %+v", resp)
	}
	if resp.Hourly == nil || len(resp.Hourly.Time) != 3 || len(resp.Hourly.Values) != 43 {
		t.Fatalf("unexpected hourly block %+v", resp.Hourly)
	}

	for _, target := range []string{"/point", "/point?lat=36.6", "/point?lat=95&lon=50", "/point?lat=abc&lon=50"} {
		if rec := serve(t, s, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestLatestHandler(t *testing.T) {
	om := newFakeOpenMeteo(t)
	cfg := testConfig(om.URL)
	cfg.RouteFile = writeRouteFile(t)
	s := newTestService(t, cfg)

	if rec := serve(t, s, http.MethodGet, "/route/latest", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before a refresh, got %d", rec.Code)
	}
	if _, err := s.RefreshRoute(context.Background()); err != nil {
		t.Fatalf("RefreshRoute failed: %v", err)
	}
	rec := serve(t, s, http.MethodGet, "/route/latest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var resp RouteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp.Rows) != 2 {
		t.Fatalf("unexpected latest response %s", rec.Body.String())
	}
}

func TestHealthHandler(t *testing.T) {
	om := newFakeOpenMeteo(t)
	s := newTestService(t, testConfig(om.URL))

	rec := serve(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}
