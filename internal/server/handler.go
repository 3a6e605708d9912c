package server

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"InsiderSentinel/internal/model"
	"InsiderSentinel/internal/store"
	"InsiderSentinel/internal/uploader"
)

// TradeHandler serves the trade store over HTTP.
type TradeHandler struct {
	Store           *store.Store
	APIKey          string
	DisplayMinValue float64
	Logger          *zap.Logger
}

func (h *TradeHandler) Register(r *gin.Engine) {
	group := r.Group("/api")
	group.POST("/upload_trades", h.uploadTrades)
	group.POST("/clean_data", h.cleanData)
	group.GET("/trades", h.listTrades)
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

func (h *TradeHandler) authorized(c *gin.Context) bool {
	got := c.GetHeader(uploader.APIKeyHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.APIKey)) == 1 {
		return true
	}
	h.Logger.Warn("rejected request with invalid api key",
		zap.String("path", c.FullPath()), zap.String("remote", c.ClientIP()))
	message(c, http.StatusForbidden, "Unauthorized: Invalid API Key")
	return false
}

func (h *TradeHandler) uploadTrades(c *gin.Context) {
	if c.ContentType() != "application/json" {
		message(c, http.StatusBadRequest, "Missing JSON in request")
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		message(c, http.StatusBadRequest, "Could not read request body")
		return
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		message(c, http.StatusBadRequest, "Malformed JSON in request")
		return
	}

	if !h.authorized(c) {
		return
	}

	trades, ok := decodeTrades(body["trades"])
	if !ok {
		message(c, http.StatusBadRequest, "Invalid data format: 'trades' must be a list")
		return
	}

	res, err := h.Store.Upload(trades)
	if err != nil {
		h.Logger.Error("upload merge failed", zap.Error(err))
		message(c, http.StatusInternalServerError, "Failed to store trades")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Successfully processed. Total unique trades saved: %d. Removed %d duplicates during merge.",
			res.Total, res.DuplicatesRemoved),
		"total":              res.Total,
		"added":              res.Added,
		"duplicates_removed": res.DuplicatesRemoved,
	})
}

// decodeTrades accepts a missing field as an empty list and rejects
// anything that is not a JSON array of trade objects.
func decodeTrades(raw json.RawMessage) ([]model.Trade, bool) {
	if raw == nil {
		return nil, true
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, false
	}
	var trades []model.Trade
	if err := json.Unmarshal(raw, &trades); err != nil {
		return nil, false
	}
	return trades, true
}

func (h *TradeHandler) cleanData(c *gin.Context) {
	if !h.authorized(c) {
		return
	}
	res, err := h.Store.Cleanup()
	if err != nil {
		h.Logger.Error("cleanup failed", zap.Error(err))
		message(c, http.StatusInternalServerError, "Failed to clean trade data")
		return
	}
	if res.Total == 0 {
		message(c, http.StatusOK, "Data file is already empty or unreadable.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":            fmt.Sprintf("Cleanup complete. Removed %d duplicates. %d unique trades remain.", res.DuplicatesRemoved, res.Total),
		"total":              res.Total,
		"duplicates_removed": res.DuplicatesRemoved,
	})
}

func (h *TradeHandler) listTrades(c *gin.Context) {
	opts := store.QueryOptions{
		MinValue:  floatQuery(c, "min_value", h.DisplayMinValue),
		Ticker:    c.Query("filter_ticker"),
		SortBy:    c.DefaultQuery("sort_by", store.SortByDate),
		Ascending: strings.EqualFold(c.Query("order"), "asc"),
	}
	trades, err := h.Store.Query(opts)
	if err != nil {
		h.Logger.Error("trade query failed", zap.Error(err))
		message(c, http.StatusInternalServerError, "Failed to read trade data")
		return
	}
	latest, err := h.Store.LatestDate()
	if err != nil {
		h.Logger.Error("latest date lookup failed", zap.Error(err))
		message(c, http.StatusInternalServerError, "Failed to read trade data")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trades":        trades,
		"latest_update": latest,
		"count":         len(trades),
	})
}

func floatQuery(c *gin.Context, key string, def float64) float64 {
	if val := c.Query(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil && f >= 0 {
			return f
		}
	}
	return def
}

// HealthHandler answers liveness probes.
type HealthHandler struct{}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
}

func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
