// Package gemini generates hiking safety narrative with the Gemini
// generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("gemini returned no text")

// Client implements notify.Enricher.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Gemini client for model.
func NewClient(apiKey, model string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// AnalyzeExtremeWeather asks for safety guidance proportionate to alerts.
func (c *Client) AnalyzeExtremeWeather(ctx context.Context, alerts []domain.Alert, location string) (string, error) {
	return c.generate(ctx, "extreme", extremePrompt(alerts, location))
}

// AnalyzeForecastDay asks for a hiking suitability summary for one day.
func (c *Client) AnalyzeForecastDay(ctx context.Context, day domain.ForecastDay, location string) (string, error) {
	return c.generate(ctx, "forecast", forecastPrompt(day, location))
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) generate(ctx context.Context, kind, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini %s request: %w", kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return "", fmt.Errorf("gemini API error: status %d: %s: %s", resp.StatusCode, out.Error.Status, out.Error.Message)
		}
		return "", fmt.Errorf("gemini API error: status %d: %s", resp.StatusCode, body)
	}

	var b strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("gemini analysis complete", "kind", kind, "model", c.model, "duration", time.Since(start))
	return text, nil
}

func extremePrompt(alerts []domain.Alert, location string) string {
	lines := make([]string, len(alerts))
	for i, a := range alerts {
		lines[i] = fmt.Sprintf("%s: %s", a.Type, a.Message)
	}

	return fmt.Sprintf(`Analyze the following extreme weather alerts for %s and provide appropriate safety recommendations:

EXTREME WEATHER ALERTS:
%s

Please provide:
1. Immediate safety actions to take
2. Specific risks to consider
3. What outdoor activities should be avoided or postponed
4. Practical preparedness recommendations
5. When conditions might improve

IMPORTANT: Match the urgency of your language to the actual severity of conditions. For moderate extreme weather (heavy rain, cold temperatures), use firm but calm guidance. Reserve emergency language only for truly life-threatening situations (violent storms, dangerous temperatures below -15°C or above 40°C, severe flooding risk). Focus on practical safety measures rather than dramatic descriptions.

Keep the response clear and focused on safety while maintaining proportionate tone.
`, location, strings.Join(lines, "\n"))
}

func forecastPrompt(day domain.ForecastDay, location string) string {
	return fmt.Sprintf(`Analyze the following weather data for hiking in %[1]s and provide balanced, practical recommendations:

Weather Details:
- Location: %[1]s
- Forecast: %[2]s (%[3]s)
- Temperature: Max %[4]g°C, Min %[5]g°C
- Precipitation: %[6]gmm
- Weather Condition: %[7]s

Please provide:
1. A hiking suitability rating (1-10, where 10 is perfect for hiking)
2. Specific recommendations for hiking gear and preparation
3. Best time of day for hiking (if suitable)
4. Any safety concerns or warnings
5. Alternative outdoor activities if hiking isn't recommended

IMPORTANT: Keep descriptions realistic and proportionate to actual risk. Use calm, practical language. Only express urgency for genuinely dangerous conditions (severe storms, extreme temperatures, etc.). For moderate weather like light-moderate rain or cool temperatures, focus on practical preparation rather than dramatic warnings.

Keep the response concise but informative, suitable for a weather notification message.
Note: This forecast is for %[8]s.
`, location, day.Label(), day.Date, day.TempMax, day.TempMin, day.Precipitation,
		domain.DescribeWeatherCode(day.WeatherCode), strings.ToLower(day.Label()))
}
