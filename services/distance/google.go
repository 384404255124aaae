package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fadetogo/models"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// matrixResponse is the subset of the Distance Matrix response we read.
type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"` // meters
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// GoogleMatrix resolves driving distance with the Google Distance Matrix API.
type GoogleMatrix struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewGoogleMatrix(apiKey string) *GoogleMatrix {
	return &GoogleMatrix{
		APIKey:  apiKey,
		BaseURL: defaultMatrixURL,
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (g *GoogleMatrix) Resolve(ctx context.Context, origin, destination models.Location) (Result, error) {
	q := url.Values{}
	q.Set("origins", origin.String())
	q.Set("destinations", destination.String())
	q.Set("mode", "driving")
	q.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("building distance matrix request: %w", err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("distance matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("distance matrix returned HTTP %d", resp.StatusCode)
	}

	var body matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("decoding distance matrix response: %w", err)
	}
	if body.Status != "OK" {
		return Result{}, fmt.Errorf("distance matrix status %s: %s", body.Status, body.ErrorMessage)
	}
	if len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return Result{}, ErrNoRoute
	}
	el := body.Rows[0].Elements[0]
	if el.Status != "OK" {
		return Result{}, fmt.Errorf("%w: element status %s", ErrNoRoute, el.Status)
	}

	return Result{
		Miles:         MetersToMiles(el.Distance.Value),
		TravelMinutes: secondsToMinutes(el.Duration.Value),
	}, nil
}
