package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ReplenishmentService is the subset of the service the handler calls
type ReplenishmentService interface {
	ComputeSuggestion(ctx context.Context, req domain.AllocationRequest) (*domain.AllocationResult, error)
	ComputeBatch(ctx context.Context, reqs []domain.AllocationRequest) (*domain.BatchResult, error)
	ListWarehouses(ctx context.Context) ([]domain.Warehouse, error)
}

type ReplenishmentHandler struct {
	service ReplenishmentService
}

func NewReplenishmentHandler(service ReplenishmentService) *ReplenishmentHandler {
	return &ReplenishmentHandler{service: service}
}

// looseInt accepts a JSON number, a numeric string or an empty string.
// Form inputs post their raw value, so "3" and "" both arrive here.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	if raw == "" {
		*n = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return errors.New("expected an integer")
	}
	*n = looseInt(f)
	return nil
}

type suggestionRequest struct {
	Strategy     string   `json:"strategy"`
	Warehouses   []string `json:"warehouses"`
	ReserveSlots looseInt `json:"reserve_slots"`
	OnlyAdd      bool     `json:"only_add"`
	MaxTotalQty  looseInt `json:"max_total_qty"`
}

type batchRequest struct {
	suggestionRequest
	Machines       []string `json:"machines"`
	WarehouseAware bool     `json:"warehouse_aware"`
}

// GetSuggestion handles POST /replenishment/:storeKey/suggestion
func (h *ReplenishmentHandler) GetSuggestion(c *gin.Context) {
	h.suggest(c, false)
}

// GetWarehouseSuggestion handles POST /replenishment/:storeKey/warehouse-suggestion
func (h *ReplenishmentHandler) GetWarehouseSuggestion(c *gin.Context) {
	h.suggest(c, true)
}

func (h *ReplenishmentHandler) suggest(c *gin.Context, warehouseAware bool) {
	var body suggestionRequest
	if !bindOptionalJSON(c, &body) {
		return
	}

	key, err := domain.ParseStoreKey(c.Param("storeKey"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	req, err := body.toDomain(key, warehouseAware)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.service.ComputeSuggestion(c.Request.Context(), req)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"suggestion": result.LineItems,
		"warning":    result.Warning,
		"message":    result.Message,
		"outcome":    result.Outcome,
		"totals":     result.Totals(),
	})
}

// GetBatchSuggestion handles POST /replenishment/batch
func (h *ReplenishmentHandler) GetBatchSuggestion(c *gin.Context) {
	var body batchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if len(body.Machines) == 0 {
		respondError(c, http.StatusBadRequest, errors.New("at least one machine must be selected"))
		return
	}

	reqs := make([]domain.AllocationRequest, 0, len(body.Machines))
	for _, raw := range body.Machines {
		key, err := domain.ParseStoreKey(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		req, err := body.toDomain(key, body.WarehouseAware)
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		reqs = append(reqs, req)
	}

	batch, err := h.service.ComputeBatch(c.Request.Context(), reqs)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"suggestions":   batch.Suggestions,
		"shipment":      batch.Shipment,
		"shipmentTotal": batch.ShipmentTotal,
	})
}

// ListWarehouses handles GET /warehouses
func (h *ReplenishmentHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.service.ListWarehouses(c.Request.Context())
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": warehouses})
}

func (r suggestionRequest) toDomain(key domain.StoreKey, warehouseAware bool) (domain.AllocationRequest, error) {
	strategy, ok := domain.ParseStrategy(r.Strategy)
	if !ok {
		return domain.AllocationRequest{}, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, r.Strategy)
	}

	req := domain.AllocationRequest{
		StoreKey:        key,
		Strategy:        strategy,
		MachineCapacity: int(r.MaxTotalQty),
		ReserveSlots:    int(r.ReserveSlots),
		OnlyAdd:         r.OnlyAdd,
		WarehouseAware:  warehouseAware,
	}
	if warehouseAware {
		req.SelectedWarehouses = cleanWarehouses(r.Warehouses)
		if len(req.SelectedWarehouses) == 0 {
			return domain.AllocationRequest{}, domain.ErrNoWarehouseSelected
		}
	}
	return req, nil
}

// bindOptionalJSON decodes the body when one was sent; an empty body keeps the defaults.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}

func cleanWarehouses(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidStoreKey),
		errors.Is(err, domain.ErrNoWarehouseSelected),
		errors.Is(err, domain.ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDataUpdating):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("replenishment request failed")
	} else {
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("replenishment request rejected")
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, gin.H{"success": false, "error": message})
}
