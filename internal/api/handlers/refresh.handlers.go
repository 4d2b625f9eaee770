package routes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"velocirrus/internal/model"
	"velocirrus/internal/service/refresh"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"
)

// Refresher is the refresh pipeline as seen by the HTTP layer
type Refresher interface {
	Refresh(ctx context.Context, req refresh.Request) (refresh.Snapshot, error)
	Latest() (refresh.Snapshot, error)
	Snapshot(id string) (refresh.Snapshot, bool)
	HistoryEnabled() bool
	History(ctx context.Context, limit int) ([]model.RefreshSummaryPG, error)
}

// RefreshHandlers serves refresh cycles and their results
type RefreshHandlers struct {
	Refresher     Refresher
	Credential    string // zone service key, never echoed
	LivePositions bool
	Logger        *slog.Logger
}

const (
	modeDemo = "demo"
	modeLive = "live"
)

type cycleQuery struct {
	Time time.Time `form:"time" time_format:"2006-01-02T15:04:05Z07:00"`
	Mode string    `form:"mode" binding:"omitempty,oneof=demo live"`
}

type historyQuery struct {
	Limit int `form:"limit,default=20" binding:"min=1,max=500"`
}

type historyEntry struct {
	ID             string           `json:"id"`
	At             time.Time        `json:"at"`
	ZoneSource     model.DataSource `json:"zone_source"`
	PositionSource model.DataSource `json:"position_source"`
	Summary        model.Summary    `json:"summary"`
}

// SetupRefreshHandlers registers the refresh endpoints
func SetupRefreshHandlers(router *gin.RouterGroup, h *RefreshHandlers) {
	if h.Logger == nil {
		h.Logger = slog.Default()
	}

	router.GET("/refresh", h.RunRefresh)
	router.GET("/zones", h.GetZones)
	router.GET("/positions", h.GetPositions)
	router.GET("/snapshots/:id", h.GetSnapshot)
	router.GET("/history", h.GetHistory)
}

// RunRefresh runs a cycle and returns its snapshot
func (h *RefreshHandlers) RunRefresh(c *gin.Context) {
	var q cycleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	snap, err := h.Refresher.Refresh(c.Request.Context(), h.request(q))
	if err != nil {
		h.unavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetZones returns the zones of the requested cycle as GeoJSON
func (h *RefreshHandlers) GetZones(c *gin.Context) {
	snap, ok := h.snapshotFor(c)
	if !ok {
		return
	}
	renderGeoJSON(c, ZonesToFeatureCollection(snap.Zones))
}

// GetPositions returns the classified positions of the requested cycle as GeoJSON
func (h *RefreshHandlers) GetPositions(c *gin.Context) {
	snap, ok := h.snapshotFor(c)
	if !ok {
		return
	}
	renderGeoJSON(c, PositionsToFeatureCollection(snap.Positions))
}

// GetSnapshot returns a recent snapshot by cycle ID
func (h *RefreshHandlers) GetSnapshot(c *gin.Context) {
	snap, ok := h.Refresher.Snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetHistory returns stored cycle summaries, newest first
func (h *RefreshHandlers) GetHistory(c *gin.Context) {
	if !h.Refresher.HistoryEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}

	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	rows, err := h.Refresher.History(c.Request.Context(), q.Limit)
	if err != nil {
		h.unavailable(c, err)
		return
	}

	entries := make([]historyEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, historyEntry{
			ID:             r.ID,
			At:             r.At,
			ZoneSource:     r.ZoneSource,
			PositionSource: r.PositionSource,
			Summary:        r.Summary(),
		})
	}
	c.JSON(http.StatusOK, entries)
}

// snapshotFor runs a cycle when a time or mode is requested and otherwise
// serves the latest snapshot, running a first cycle if there is none
func (h *RefreshHandlers) snapshotFor(c *gin.Context) (refresh.Snapshot, bool) {
	var q cycleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return refresh.Snapshot{}, false
	}

	if q.Time.IsZero() && q.Mode == "" {
		if snap, err := h.Refresher.Latest(); err == nil {
			return snap, true
		} else if !errors.Is(err, refresh.ErrNoSnapshot) {
			h.unavailable(c, err)
			return refresh.Snapshot{}, false
		}
	}

	snap, err := h.Refresher.Refresh(c.Request.Context(), h.request(q))
	if err != nil {
		h.unavailable(c, err)
		return refresh.Snapshot{}, false
	}
	return snap, true
}

func (h *RefreshHandlers) request(q cycleQuery) refresh.Request {
	req := refresh.Request{
		At:            q.Time.UTC(),
		Credential:    h.Credential,
		LivePositions: h.LivePositions,
	}
	switch q.Mode {
	case modeDemo:
		req.Credential = ""
		req.LivePositions = false
	case modeLive:
		req.LivePositions = true
	}
	if q.Time.IsZero() {
		req.At = time.Time{}
	}
	return req
}

func (h *RefreshHandlers) unavailable(c *gin.Context, err error) {
	h.Logger.Error("refresh request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func renderGeoJSON(c *gin.Context, fc *geojson.FeatureCollection) {
	body, err := fc.MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}
