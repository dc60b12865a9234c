package handler

import (
	"io"
	"net/http"

	"github.com/sanye891/next-dashboard/internal/store"
	"github.com/sanye891/next-dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// EventsHandler bridges the in-process change feed to clients over SSE.
// Events carry no payload; consumers re-query on each signal.
type EventsHandler struct {
	Feed *store.Feed
}

func NewEventsHandler(f *store.Feed) *EventsHandler {
	return &EventsHandler{Feed: f}
}

// Stream subscribes the client to one table's change feed for the lifetime
// of the request. The subscription is released when the client disconnects.
func (h *EventsHandler) Stream(c *gin.Context) {
	if user := currentUser(c); user == nil {
		return
	}

	table := c.Param("table")
	switch table {
	case store.TableSales, store.TableFiles:
	default:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unknown table")
		return
	}

	sub := h.Feed.Subscribe(table)
	defer sub.Unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// initial marker so clients know the stream is live
	c.SSEvent("ready", table)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-sub.C:
			c.SSEvent("change", table)
			return true
		}
	})
}
