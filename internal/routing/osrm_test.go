package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const routeBody = `{
	"code": "Ok",
	"routes": [{
		"legs": [{
			"steps": [
				{"name": "Jl. Raya Sesetan", "distance": 420.5},
				{"name": "", "distance": 10},
				{"name": "Jl. Raya Sesetan", "distance": 80},
				{"name": "Jl. Diponegoro", "distance": 1200}
			]
		}]
	}]
}`

func TestStreetsDedupsInOrder(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(routeBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	streets, err := client.Streets(context.Background(), []Coordinate{
		{Latitude: -6.2, Longitude: 106.8},
		{Latitude: -6.1, Longitude: 106.9},
	})
	if err != nil {
		t.Fatalf("streets: %v", err)
	}
	if len(streets) != 2 {
		t.Fatalf("expected 2 streets, got %d", len(streets))
	}
	if streets[0].Name != "Jl. Raya Sesetan" || streets[1].Name != "Jl. Diponegoro" {
		t.Fatalf("unexpected street order: %+v", streets)
	}
	if streets[0].DistanceM != 420.5 {
		t.Fatalf("expected first occurrence distance, got %v", streets[0].DistanceM)
	}
	if gotPath != "/route/v1/driving/106.8,-6.2;106.9,-6.1" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotQuery != "overview=false&steps=true" {
		t.Fatalf("unexpected query: %s", gotQuery)
	}
}

func TestStreetsTooFewCoordinates(t *testing.T) {
	client := NewClient("http://localhost:1", time.Second)
	if _, err := client.Streets(context.Background(), []Coordinate{{Latitude: 1, Longitude: 2}}); err == nil {
		t.Fatalf("expected error for single coordinate")
	}
}

func TestStreetsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Streets(context.Background(), []Coordinate{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}})
	if err == nil {
		t.Fatalf("expected error for HTTP 502")
	}
}

func TestStreetsErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Streets(context.Background(), []Coordinate{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}})
	if err == nil {
		t.Fatalf("expected error for NoRoute code")
	}
}

func TestStreetsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(routeBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, 10*time.Millisecond)
	_, err := client.Streets(context.Background(), []Coordinate{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestStreetsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Streets(context.Background(), []Coordinate{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}})
	if err == nil {
		t.Fatalf("expected decode error")
	}
}
