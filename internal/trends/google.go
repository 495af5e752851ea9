package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"trendshub/pkg/utils"
)

const (
	explorePath   = "/trends/api/explore"
	multilinePath = "/trends/api/widgetdata/multiline"

	timeseriesWidgetID = "TIMESERIES"
)

// GoogleTrends fetches interest-over-time series from the Google Trends
// web endpoints: an explore call hands out a widget token, which is then
// exchanged for the timeline data.
type GoogleTrends struct {
	Client *resty.Client
	Config utils.TrendsConfig

	cookieMu sync.Mutex
	primed   bool
}

func NewGoogleTrends(cfg utils.TrendsConfig) *GoogleTrends {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept-Language", cfg.HL)

	return &GoogleTrends{Client: client, Config: cfg}
}

func (g *GoogleTrends) Name() string { return "google_trends" }

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Time    string `json:"time"`
	Geo     string `json:"geo"`
}

type exploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Time      string    `json:"time"`
			Value     []float64 `json:"value"`
			HasData   []bool    `json:"hasData"`
			IsPartial bool      `json:"isPartial"`
		} `json:"timelineData"`
	} `json:"default"`
}

func (g *GoogleTrends) InterestOverTime(ctx context.Context, keyword, timeframe string) ([]Point, error) {
	if err := g.ensureCookies(ctx); err != nil {
		return nil, err
	}

	token, widgetReq, err := g.explore(ctx, keyword, timeframe)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	resp, err := g.Client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"hl":    g.Config.HL,
			"tz":    strconv.Itoa(g.Config.TZ),
			"req":   string(widgetReq),
			"token": token,
		}).
		Get(multilinePath)
	if err != nil {
		return nil, fmt.Errorf("google trends: multiline request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("google trends: multiline status %d: %s", resp.StatusCode(), resp.String())
	}

	var ml multilineResponse
	if err := decodeGuarded(resp.Body(), &ml); err != nil {
		return nil, fmt.Errorf("google trends: decode multiline: %w", err)
	}

	points := make([]Point, 0, len(ml.Default.TimelineData))
	for _, row := range ml.Default.TimelineData {
		if len(row.Value) == 0 {
			continue
		}
		secs, err := strconv.ParseInt(row.Time, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("google trends: parse time %q: %w", row.Time, err)
		}
		points = append(points, Point{
			Time:     time.Unix(secs, 0).UTC(),
			Interest: row.Value[0],
		})
	}
	return points, nil
}

// explore returns the TIMESERIES widget token and request payload. An empty
// token means the provider offered no timeline for the keyword.
func (g *GoogleTrends) explore(ctx context.Context, keyword, timeframe string) (string, json.RawMessage, error) {
	payload, err := json.Marshal(exploreRequest{
		ComparisonItem: []comparisonItem{{Keyword: keyword, Time: timeframe, Geo: g.Config.Geo}},
		Category:       g.Config.Category,
		Property:       g.Config.Property,
	})
	if err != nil {
		return "", nil, fmt.Errorf("google trends: encode explore request: %w", err)
	}

	resp, err := g.Client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"hl":  g.Config.HL,
			"tz":  strconv.Itoa(g.Config.TZ),
			"req": string(payload),
		}).
		Post(explorePath)
	if err != nil {
		return "", nil, fmt.Errorf("google trends: explore request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", nil, fmt.Errorf("google trends: explore status %d: %s", resp.StatusCode(), resp.String())
	}

	var ex exploreResponse
	if err := decodeGuarded(resp.Body(), &ex); err != nil {
		return "", nil, fmt.Errorf("google trends: decode explore: %w", err)
	}

	for _, w := range ex.Widgets {
		if w.ID == timeseriesWidgetID {
			return w.Token, w.Request, nil
		}
	}
	return "", nil, nil
}

// ensureCookies primes the cookie jar; the API endpoints reject sessionless
// requests. A failed attempt is retried on the next call.
func (g *GoogleTrends) ensureCookies(ctx context.Context) error {
	g.cookieMu.Lock()
	defer g.cookieMu.Unlock()
	if g.primed {
		return nil
	}

	resp, err := g.Client.R().
		SetContext(ctx).
		SetQueryParam("geo", g.Config.Geo).
		Get("/")
	if err != nil {
		return fmt.Errorf("google trends: session request: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("google trends: session status %d", resp.StatusCode())
	}
	g.primed = true
	return nil
}

var errNoJSON = errors.New("no JSON object in response")

// decodeGuarded skips the anti-XSSI prefix (")]}'" and friends) that the
// Trends API puts in front of its JSON bodies.
func decodeGuarded(body []byte, v any) error {
	i := bytes.IndexByte(body, '{')
	if i < 0 {
		return errNoJSON
	}
	return json.Unmarshal(body[i:], v)
}
