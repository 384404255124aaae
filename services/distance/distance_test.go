package distance

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fadetogo/models"

	"github.com/go-redis/redis/v8"
)

func TestMetersToMiles(t *testing.T) {
	if got := MetersToMiles(32186.88); got != 20 {
		t.Fatalf("expected 20 miles, got %v", got)
	}
	if got := MetersToMiles(1000); got != 0.62 {
		t.Fatalf("expected 0.62 miles, got %v", got)
	}
}

func TestGoogleMatrixResolve(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"value":32186.88},"duration":{"value":901}}]}]}`))
	}))
	defer srv.Close()

	g := &GoogleMatrix{APIKey: "test-key", BaseURL: srv.URL, Client: srv.Client()}
	res, err := g.Resolve(context.Background(),
		models.Location{Latitude: 40.7128, Longitude: -74.006},
		models.Location{Latitude: 40.9, Longitude: -74.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Miles != 20 || res.TravelMinutes != 16 {
		t.Fatalf("unexpected result %+v", res)
	}
	if gotQuery == "" {
		t.Fatal("expected query parameters to be sent")
	}
}

func TestGoogleMatrixNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"ZERO_RESULTS"}]}]}`))
	}))
	defer srv.Close()

	g := &GoogleMatrix{APIKey: "k", BaseURL: srv.URL, Client: srv.Client()}
	_, err := g.Resolve(context.Background(), models.Location{}, models.Location{Latitude: 1})
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestGoogleMatrixRequestDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
	}))
	defer srv.Close()

	g := &GoogleMatrix{APIKey: "k", BaseURL: srv.URL, Client: srv.Client()}
	if _, err := g.Resolve(context.Background(), models.Location{}, models.Location{}); err == nil {
		t.Fatal("expected an error for REQUEST_DENIED")
	}
}

func TestHaversine(t *testing.T) {
	nyc := models.Location{Latitude: 40.7128, Longitude: -74.0060}
	la := models.Location{Latitude: 34.0522, Longitude: -118.2437}
	miles := GreatCircleMiles(nyc, la)
	if math.Abs(miles-2445) > 10 {
		t.Fatalf("expected roughly 2445 miles, got %v", miles)
	}

	res, err := Haversine{AverageSpeedMPH: 30}.Resolve(context.Background(), nyc, nyc)
	if err != nil || res.Miles != 0 || res.TravelMinutes != 0 {
		t.Fatalf("expected zero distance, got %+v (%v)", res, err)
	}
}

type countingProvider struct {
	calls int
}

func (p *countingProvider) Resolve(context.Context, models.Location, models.Location) (Result, error) {
	p.calls++
	return Result{Miles: 12.5, TravelMinutes: 20}, nil
}

func TestCachedFallsThroughWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	next := &countingProvider{}
	c := NewCached(next, client, time.Minute)
	res, err := c.Resolve(context.Background(), models.Location{Latitude: 1}, models.Location{Latitude: 2})
	if err != nil {
		t.Fatalf("cache outage must not fail resolution: %v", err)
	}
	if res.Miles != 12.5 || next.calls != 1 {
		t.Fatalf("expected wrapped provider result, got %+v after %d calls", res, next.calls)
	}
}
