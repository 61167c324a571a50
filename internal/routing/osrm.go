package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Street is one named segment of an enriched route.
type Street struct {
	Name      string  `json:"name"`
	DistanceM float64 `json:"distance_m,omitempty"`
}

// Client resolves a point trail into an ordered list of street names
// via an OSRM routing server. The HTTP timeout bounds every call.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Streets requests a driving route through coords in order and returns
// the street names of its steps, first occurrence only, in route order.
func (c *Client) Streets(ctx context.Context, coords []Coordinate) ([]Street, error) {
	if len(coords) < 2 {
		return nil, fmt.Errorf("need at least 2 coordinates, got %d", len(coords))
	}

	url := c.baseURL + "/route/v1/driving/" + polyline(coords) + "?overview=false&steps=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing service returned HTTP %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Code != "Ok" {
		return nil, fmt.Errorf("routing service returned code %q", body.Code)
	}
	if len(body.Routes) == 0 {
		return nil, fmt.Errorf("routing service returned no routes")
	}

	var streets []Street
	seen := map[string]struct{}{}
	for _, leg := range body.Routes[0].Legs {
		for _, step := range leg.Steps {
			name := strings.TrimSpace(step.Name)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			streets = append(streets, Street{Name: name, DistanceM: step.Distance})
		}
	}
	return streets, nil
}

// polyline renders coords as the lon,lat;lon,lat path segment OSRM
// expects.
func polyline(coords []Coordinate) string {
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		parts = append(parts,
			strconv.FormatFloat(c.Longitude, 'f', -1, 64)+","+
				strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	}
	return strings.Join(parts, ";")
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Legs []struct {
			Steps []struct {
				Name     string  `json:"name"`
				Distance float64 `json:"distance"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}
