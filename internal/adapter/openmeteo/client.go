package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"

	currentFields = "temperature_2m,weather_code,wind_speed_10m"
	hourlyFields  = "temperature_2m,precipitation,weather_code,wind_speed_10m"
	dailyFields   = "temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code"
)

// Client talks to the Open-Meteo geocoding and forecast APIs. It implements
// domain.Geocoder and Forecaster.
type Client struct {
	httpClient   *http.Client
	geocodingURL string
	forecastURL  string
	forecastDays int
	logger       *slog.Logger
}

// NewClient creates an Open-Meteo client. Empty URLs fall back to the public
// endpoints.
func NewClient(geocodingURL, forecastURL string, forecastDays int, timeout time.Duration, logger *slog.Logger) *Client {
	if geocodingURL == "" {
		geocodingURL = DefaultGeocodingURL
	}
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		geocodingURL: geocodingURL,
		forecastURL:  forecastURL,
		forecastDays: forecastDays,
		logger:       logger,
	}
}

// Geocode resolves a place name to its best match.
func (c *Client) Geocode(ctx context.Context, name string) (domain.GeoLocation, error) {
	params := url.Values{
		"name":     {name},
		"count":    {"1"},
		"language": {"en"},
		"format":   {"json"},
	}

	var resp geocodingResponse
	if err := c.getJSON(ctx, c.geocodingURL+"?"+params.Encode(), "geocode", &resp); err != nil {
		return domain.GeoLocation{}, err
	}
	if len(resp.Results) == 0 {
		return domain.GeoLocation{}, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, name)
	}

	r := resp.Results[0]
	return domain.GeoLocation{
		Name:      r.Name,
		Country:   r.Country,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timezone:  r.Timezone,
	}, nil
}

// Forecast fetches current conditions plus hourly and daily arrays for geo,
// in the location's local timezone.
func (c *Client) Forecast(ctx context.Context, geo domain.GeoLocation) (domain.WeatherSnapshot, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(geo.Latitude, 'f', -1, 64)},
		"longitude":     {strconv.FormatFloat(geo.Longitude, 'f', -1, 64)},
		"current":       {currentFields},
		"hourly":        {hourlyFields},
		"daily":         {dailyFields},
		"forecast_days": {strconv.Itoa(c.forecastDays)},
		"timezone":      {"auto"},
	}

	var resp forecastResponse
	if err := c.getJSON(ctx, c.forecastURL+"?"+params.Encode(), "forecast", &resp); err != nil {
		return domain.WeatherSnapshot{}, err
	}
	return resp.snapshot(), nil
}

func (c *Client) getJSON(ctx context.Context, fullURL, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("open-meteo request", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("open-meteo %s error: status %d: %s", op, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// Open-Meteo API response types.

type geocodingResponse struct {
	Results []geocodingResult `json:"results"`
}

type geocodingResult struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

type forecastResponse struct {
	Current *struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature   []float64 `json:"temperature_2m"`
		Precipitation []float64 `json:"precipitation"`
		WeatherCode   []int     `json:"weather_code"`
		WindSpeed     []float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
	Daily struct {
		Time             []string  `json:"time"`
		TempMax          []float64 `json:"temperature_2m_max"`
		TempMin          []float64 `json:"temperature_2m_min"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		WeatherCode      []int     `json:"weather_code"`
	} `json:"daily"`
}

func (r forecastResponse) snapshot() domain.WeatherSnapshot {
	s := domain.WeatherSnapshot{
		Daily: domain.DailyForecast{
			Dates:            r.Daily.Time,
			TempMax:          r.Daily.TempMax,
			TempMin:          r.Daily.TempMin,
			PrecipitationSum: r.Daily.PrecipitationSum,
			WeatherCodes:     r.Daily.WeatherCode,
		},
		Hourly: domain.HourlyForecast{
			Times:         r.Hourly.Time,
			WeatherCodes:  r.Hourly.WeatherCode,
			Temperatures:  r.Hourly.Temperature,
			Precipitation: r.Hourly.Precipitation,
			WindSpeeds:    r.Hourly.WindSpeed,
		},
	}
	if r.Current != nil {
		s.Current = &domain.CurrentConditions{
			Temperature: r.Current.Temperature,
			WeatherCode: r.Current.WeatherCode,
			WindSpeed:   r.Current.WindSpeed,
		}
	}
	return s
}
