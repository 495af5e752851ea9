package api

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trendshub/internal/events"
	"trendshub/internal/reshape"
	"trendshub/internal/trendcsv"
	"trendshub/internal/trends"
	"trendshub/pkg/models"
)

type Handler struct {
	Repo     *trends.Repo
	Provider trends.Provider
	Hub      *events.Hub

	fetchMu sync.Mutex
}

func NewHandler(repo *trends.Repo, provider trends.Provider, hub *events.Hub) *Handler {
	return &Handler{Repo: repo, Provider: provider, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.listRuns)                 // GET /runs
	rg.GET("/:id", h.getRun)               // GET /runs/:id
	rg.GET("/:id/records", h.runRecords)   // GET /runs/:id/records
	rg.GET("/:id/interest", h.runInterest) // GET /runs/:id/interest
	rg.GET("/:id/delta", h.runDelta)       // GET /runs/:id/delta
}

// RegisterFetch mounts POST /fetch; rg is expected to carry auth.
func (h *Handler) RegisterFetch(rg gin.IRoutes) {
	rg.POST("/fetch", h.fetch)
}

type fetchRequest struct {
	Keywords  []string `json:"keywords" binding:"required,min=1"`
	Timeframe string   `json:"timeframe"`
}

type recordJSON struct {
	Date     string   `json:"date"`
	Keyword  string   `json:"keyword"`
	Interest *float64 `json:"interest"`
}

type wideRowJSON struct {
	Date   string     `json:"date"`
	Values []*float64 `json:"values"`
}

type deltaJSON struct {
	Date          string   `json:"date"`
	Keyword       string   `json:"keyword"`
	InterestDelta *float64 `json:"interest_delta"`
}

func (h *Handler) listRuns(c *gin.Context) {
	q := trends.ListQuery{
		Limit:  parseInt(c.Query("limit"), 20),
		Offset: parseInt(c.Query("offset"), 0),
	}

	total, err := h.Repo.CountRuns(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.ListRuns(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getRun(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) runRecords(c *gin.Context) {
	run, records, ok := h.loadRecords(c)
	if !ok {
		return
	}
	out := make([]recordJSON, 0, len(records))
	for _, r := range records {
		item := recordJSON{Date: trendcsv.FormatDate(r.Date), Keyword: r.Keyword}
		if !math.IsNaN(r.Interest) {
			v := r.Interest
			item.Interest = &v
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"run_id": run.ID, "records": out})
}

func (h *Handler) runInterest(c *gin.Context) {
	run, res, ok := h.buildTables(c)
	if !ok {
		return
	}
	rows := make([]wideRowJSON, 0, len(res.Wide.Dates))
	for i, d := range res.Wide.Dates {
		values := make([]*float64, len(res.Wide.Keywords))
		for j, v := range res.Wide.Values[i] {
			if v.Valid {
				f := v.Float64
				values[j] = &f
			}
		}
		rows = append(rows, wideRowJSON{Date: trendcsv.FormatDate(d), Values: values})
	}
	c.JSON(http.StatusOK, gin.H{"run_id": run.ID, "keywords": res.Wide.Keywords, "rows": rows})
}

func (h *Handler) runDelta(c *gin.Context) {
	run, res, ok := h.buildTables(c)
	if !ok {
		return
	}
	out := make([]deltaJSON, 0, len(res.Deltas))
	for _, d := range res.Deltas {
		item := deltaJSON{Date: trendcsv.FormatDate(d.Date), Keyword: d.Keyword}
		if d.Delta.Valid {
			f := d.Delta.Float64
			item.InterestDelta = &f
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"run_id": run.ID, "records": out})
}

func (h *Handler) fetch(c *gin.Context) {
	var req fetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keywords required"})
		return
	}
	keywords := trends.NormalizeKeywords(req.Keywords)
	if len(keywords) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keywords required"})
		return
	}
	timeframe := strings.TrimSpace(req.Timeframe)
	if timeframe == "" {
		timeframe = trends.DefaultTimeframe
	}

	if !h.fetchMu.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "a fetch is already running"})
		return
	}
	defer h.fetchMu.Unlock()

	run, err := h.runFetch(c.Request.Context(), keywords, timeframe)
	switch {
	case errors.Is(err, trends.ErrNoData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no data"})
	case err != nil:
		log.Printf("[api] fetch failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, run)
	}
}

func (h *Handler) runFetch(ctx context.Context, keywords []string, timeframe string) (*models.FetchRun, error) {
	run := &models.FetchRun{ID: uuid.NewString(), Timeframe: timeframe, Keywords: keywords}

	f := trends.NewFetcher(h.Provider)
	if h.Hub != nil {
		f.OnProgress = h.Hub.Publish(run.ID)
	}

	records, err := f.Fetch(ctx, keywords, timeframe)
	if err != nil {
		return nil, err
	}
	if err := trends.SaveRun(ctx, h.Repo.DB, run, records); err != nil {
		return nil, err
	}
	log.Printf("[api] stored run %s with %d records", run.ID, len(records))
	return run, nil
}

func (h *Handler) loadRun(c *gin.Context) (*models.FetchRun, bool) {
	run, err := h.Repo.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return nil, false
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return run, true
}

func (h *Handler) loadRecords(c *gin.Context) (*models.FetchRun, []models.TrendRecord, bool) {
	run, ok := h.loadRun(c)
	if !ok {
		return nil, nil, false
	}
	records, err := h.Repo.Records(c.Request.Context(), run.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "records failed"})
		return nil, nil, false
	}
	return run, records, true
}

func (h *Handler) buildTables(c *gin.Context) (*models.FetchRun, *reshape.Result, bool) {
	run, records, ok := h.loadRecords(c)
	if !ok {
		return nil, nil, false
	}
	res, err := reshape.Build(records)
	if err != nil {
		var dup *reshape.DuplicateEntryError
		switch {
		case errors.Is(err, reshape.ErrNoData):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no data"})
		case errors.As(err, &dup):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": dup.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reshape failed"})
		}
		return nil, nil, false
	}
	return run, res, true
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
