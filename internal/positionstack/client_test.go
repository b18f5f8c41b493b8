package positionstack

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evanhutnik/trailweather/internal/types"
)

func TestGeoCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forward" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("access_key") != "key" || q.Get("query") != "Tochal" || q.Get("limit") != "1" {
			t.Errorf("unexpected query %v", q)
		}
		io.WriteString(w, `{"data":[{"latitude":35.887,"longitude":51.419,"label":"Tochal, Iran"}]}`)
	}))
	defer srv.Close()

	c := New(ApiKeyOption("key"), BaseUrlOption(srv.URL))
	coords, err := c.GeoCode(context.Background(), "Tochal")
	if err != nil {
		t.Fatalf("GeoCode failed: %v", err)
	}
	if coords == nil || coords.Latitude != 35.887 || coords.Longitude != 51.419 {
		t.Fatalf("unexpected coordinates %+v", coords)
	}
}

func TestReverseGeoCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "36.38,50.96" {
			t.Errorf("unexpected query %q", r.URL.Query().Get("query"))
		}
		io.WriteString(w, `{"data":[{"name":"Sarchal","locality":"Kelardasht","region":"Mazandaran","country":"Iran"}]}`)
	}))
	defer srv.Close()

	c := New(ApiKeyOption("key"), BaseUrlOption(srv.URL))
	loc, err := c.ReverseGeoCode(context.Background(), types.Coordinates{Latitude: 36.38, Longitude: 50.96})
	if err != nil {
		t.Fatalf("ReverseGeoCode failed: %v", err)
	}
	if loc == nil || loc.Label != "Sarchal" || loc.Region != "Mazandaran" {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestReverseGeoCodeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	c := New(ApiKeyOption("key"), BaseUrlOption(srv.URL))
	loc, err := c.ReverseGeoCode(context.Background(), types.Coordinates{})
	if err != nil || loc != nil {
		t.Fatalf("expected no match, got %+v %v", loc, err)
	}
}
