package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"trendshub/internal/trendcsv"
)

// mirrorPoint is one fixture sample; the fixture maps keyword -> points.
type mirrorPoint struct {
	Date     string  `json:"date"`
	Interest float64 `json:"interest"`
}

type timelineEntry struct {
	Time      string    `json:"time"`
	Value     []float64 `json:"value"`
	HasData   []bool    `json:"hasData"`
	IsPartial bool      `json:"isPartial,omitempty"`
}

// serves data/mirror.json on the Trends explore/multiline endpoints so the
// fetcher can run offline with TRENDS_BASE_URL=http://localhost:9000
func main() {
	var (
		addr     = flag.String("addr", ":9000", "listen address")
		dataPath = flag.String("data", "data/mirror.json", "fixture JSON: {\"keyword\": [{\"date\":\"2024-01-01\",\"interest\":50}]}")
	)
	flag.Parse()

	router := gin.Default()

	router.GET("/", func(c *gin.Context) {
		c.SetCookie("NID", "mirror", 3600, "/", "", false, true)
		c.String(http.StatusOK, "trends mirror")
	})

	router.POST("/trends/api/explore", func(c *gin.Context) {
		var req struct {
			ComparisonItem []struct {
				Keyword string `json:"keyword"`
				Time    string `json:"time"`
			} `json:"comparisonItem"`
		}
		if err := json.Unmarshal([]byte(c.Query("req")), &req); err != nil || len(req.ComparisonItem) == 0 {
			c.String(http.StatusBadRequest, "bad req parameter")
			return
		}
		item := req.ComparisonItem[0]

		widgetReq, _ := json.Marshal(map[string]string{"keyword": item.Keyword, "time": item.Time})
		body, _ := json.Marshal(gin.H{"widgets": []gin.H{{
			"id":      "TIMESERIES",
			"token":   "mirror-" + item.Keyword,
			"request": json.RawMessage(widgetReq),
		}}})
		c.Data(http.StatusOK, "application/json", append([]byte(")]}'\n"), body...))
	})

	router.GET("/trends/api/widgetdata/multiline", func(c *gin.Context) {
		var req struct {
			Keyword string `json:"keyword"`
		}
		if err := json.Unmarshal([]byte(c.Query("req")), &req); err != nil {
			c.String(http.StatusBadRequest, "bad req parameter")
			return
		}

		fixture, err := loadFixture(*dataPath)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}

		timeline := make([]timelineEntry, 0, len(fixture[req.Keyword]))
		for _, p := range fixture[req.Keyword] {
			t, err := trendcsv.ParseDate(p.Date)
			if err != nil {
				c.String(http.StatusInternalServerError, "mirror.json: "+err.Error())
				return
			}
			timeline = append(timeline, timelineEntry{
				Time:    fmt.Sprintf("%d", t.Unix()),
				Value:   []float64{p.Interest},
				HasData: []bool{true},
			})
		}

		body, _ := json.Marshal(gin.H{"default": gin.H{"timelineData": timeline, "averages": []int{}}})
		c.Data(http.StatusOK, "application/json", append([]byte(")]}',\n"), body...))
	})

	log.Printf("mirror-server listening on %s (fixture %s)", *addr, *dataPath)
	log.Fatal(router.Run(*addr))
}

// loadFixture re-reads the file on every request so edits show up live.
func loadFixture(path string) (map[string][]mirrorPoint, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var out map[string][]mirrorPoint
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%s invalid JSON: %w", path, err)
	}
	return out, nil
}
