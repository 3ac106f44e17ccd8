package checkout

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/metrics"

	"github.com/gin-gonic/gin"
)

// ItemRequest is one cart entry. Older clients send the price under "id".
type ItemRequest struct {
	ItemID   string `json:"itemId"`
	ID       string `json:"id,omitempty"`
	Quantity int64  `json:"quantity"`
}

// Request is the body of POST /checkout.
type Request struct {
	Items []ItemRequest `json:"items"`
}

// Response is returned by POST /checkout.
type Response struct {
	URL string `json:"url"`
}

// Handler handles checkout HTTP requests
type Handler struct {
	processor Processor
	metrics   *metrics.Metrics
}

// NewHandler creates a new checkout handler. m may be nil.
func NewHandler(processor Processor, m *metrics.Metrics) *Handler {
	return &Handler{processor: processor, metrics: m}
}

// Checkout handles POST /checkout
func (h *Handler) Checkout(c *gin.Context) {
	start := time.Now()

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordCheckout(metrics.CheckoutInvalidInput, 0)
		apperr.Respond(c, apperr.InvalidInput("malformed request body", err))
		return
	}

	items, err := lineItems(req.Items)
	if err != nil {
		h.metrics.RecordCheckout(metrics.CheckoutInvalidInput, 0)
		apperr.Respond(c, err)
		return
	}

	url, err := h.processor.CreateSession(c.Request.Context(), items)
	if err != nil {
		h.metrics.RecordCheckout(metrics.CheckoutUpstreamError, time.Since(start))
		slog.Warn("Checkout session failed", "items", len(items), "error", err)
		apperr.Respond(c, apperr.UpstreamFailure("payment processor unavailable", err))
		return
	}

	h.metrics.RecordCheckout(metrics.CheckoutSuccess, time.Since(start))
	c.JSON(http.StatusOK, Response{URL: url})
}

func lineItems(reqs []ItemRequest) ([]LineItem, error) {
	if len(reqs) == 0 {
		return nil, apperr.InvalidInput("items must not be empty", nil)
	}

	items := make([]LineItem, 0, len(reqs))
	for i, r := range reqs {
		id := strings.TrimSpace(r.ItemID)
		if id == "" {
			id = strings.TrimSpace(r.ID)
		}
		if id == "" {
			return nil, apperr.InvalidInput(fmt.Sprintf("items[%d]: itemId is required", i), nil)
		}
		if r.Quantity < 1 {
			return nil, apperr.InvalidInput(fmt.Sprintf("items[%d]: quantity must be at least 1", i), nil)
		}
		items = append(items, LineItem{ItemID: id, Quantity: r.Quantity})
	}
	return items, nil
}
