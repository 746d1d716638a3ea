// Package console is the remote operator's side of the presentation
// contract. It observes a running gridsim over HTTP, triages the grid's
// health and acts through the intent endpoints.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable is returned for endpoints the server has disabled.
var ErrUnavailable = errors.New("endpoint unavailable")

// GridSnapshot holds everything collected in one observation.
type GridSnapshot struct {
	Status    Status          `json:"status"`
	Plant     PlantInfo       `json:"plant"`
	Factories []FactoryInfo   `json:"factories"`
	Economy   EconomyInfo     `json:"economy"`
	History   []DailyStatsRow `json:"history"`
}

// Status mirrors GET /api/v1/status.
type Status struct {
	Tick     uint64 `json:"tick"`
	DateText string `json:"date_text"`
	Season   string `json:"season"`
	Misc     struct {
		Paused     bool   `json:"paused"`
		SpeedIndex int    `json:"speed_index"`
		Interval   string `json:"interval"`
	} `json:"misc"`
	Jobs struct {
		Minutely int `json:"minutely"`
		Hourly   int `json:"hourly"`
		Daily    int `json:"daily"`
	} `json:"jobs"`
	Seed      int64 `json:"seed"`
	Factories int   `json:"factories"`
	Bankrupt  int   `json:"bankrupt"`
}

// PlantInfo mirrors GET /api/v1/plant.
type PlantInfo struct {
	Fuel             int64   `json:"fuel"`
	FuelCapacity     int64   `json:"fuel_capacity"`
	Stored           int64   `json:"stored"`
	Balance          float64 `json:"balance"`
	AwaitingFuel     bool    `json:"awaiting_fuel"`
	AwaitingCapacity bool    `json:"awaiting_capacity"`
	Shortages        int     `json:"shortages"`
	PricePerUnit     float64 `json:"price_per_unit"`
}

// FactoryInfo mirrors items from GET /api/v1/factories.
type FactoryInfo struct {
	Name            string  `json:"name"`
	Industry        string  `json:"industry"`
	Balance         float64 `json:"balance"`
	AvailableEnergy int64   `json:"available_energy"`
	ReservedCost    float64 `json:"reserved_cost"`
	SolarPanels     int     `json:"solar_panels"`
	PendingRuns     int     `json:"pending_runs"`
	Bankrupt        bool    `json:"bankrupt"`
}

// EconomyInfo mirrors the parts of GET /api/v1/economy the console reads.
type EconomyInfo struct {
	Inflation float64           `json:"inflation"`
	Trend     string            `json:"trend"`
	FuelPrice float64           `json:"fuel_price"`
	Active    []json.RawMessage `json:"active"`
}

// DailyStatsRow mirrors items from GET /api/v1/stats/history.
type DailyStatsRow struct {
	Tick              uint64  `json:"tick"`
	Date              string  `json:"date"`
	Inflation         float64 `json:"inflation"`
	PlantStored       int64   `json:"plant_stored"`
	FactoriesSolvent  int     `json:"factories_solvent"`
	FactoriesBankrupt int     `json:"factories_bankrupt"`
	FactoryBalance    float64 `json:"factory_balance"`
}

// Observer fetches grid state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Observe fetches every endpoint the triage needs. A server without a
// journal simply yields no history.
func (o *Observer) Observe(ctx context.Context) (*GridSnapshot, error) {
	snap := &GridSnapshot{}

	if err := o.fetchJSON(ctx, "/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/plant", &snap.Plant); err != nil {
		return nil, fmt.Errorf("fetch plant: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/factories", &snap.Factories); err != nil {
		return nil, fmt.Errorf("fetch factories: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/economy", &snap.Economy); err != nil {
		return nil, fmt.Errorf("fetch economy: %w", err)
	}
	err := o.fetchJSON(ctx, "/api/v1/stats/history?limit=10", &snap.History)
	if err != nil && !errors.Is(err, ErrUnavailable) {
		return nil, fmt.Errorf("fetch stats history: %w", err)
	}

	return snap, nil
}

// Status fetches only the status endpoint.
func (o *Observer) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := o.fetchJSON(ctx, "/api/v1/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("GET %s: %w", path, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
