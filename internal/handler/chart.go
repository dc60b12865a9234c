package handler

import (
	"net/http"

	"github.com/sanye891/next-dashboard/internal/aggregate"
	"github.com/sanye891/next-dashboard/internal/store"
	"github.com/sanye891/next-dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// ChartHandler serves pre-aggregated series for the dashboard charts.
// bar and pie group by name; line groups by UTC calendar date.
type ChartHandler struct {
	Store *store.SaleStore
}

func NewChartHandler(s *store.SaleStore) *ChartHandler {
	return &ChartHandler{Store: s}
}

// GetSeries returns {type, labels, values} for the requested chart type.
func (h *ChartHandler) GetSeries(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	chartType := c.DefaultQuery("type", "bar")
	switch chartType {
	case "bar", "pie", "line":
	default:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "chart type must be bar, pie or line")
		return
	}

	sales, err := h.Store.List(c.Request.Context(), user.ID, "created_at", true)
	if err != nil {
		storeError(c, err, "sales not found")
		return
	}

	var buckets []aggregate.Bucket
	if chartType == "line" {
		buckets = aggregate.GroupByDate(sales)
	} else {
		buckets = aggregate.GroupByName(sales)
	}

	labels := make([]string, len(buckets))
	values := make([]float64, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Key
		values[i] = b.Total
	}

	util.Success(c, util.Response{
		"type":   chartType,
		"labels": labels,
		"values": values,
	})
}
