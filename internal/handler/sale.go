package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sanye891/next-dashboard/internal/aggregate"
	"github.com/sanye891/next-dashboard/internal/models"
	"github.com/sanye891/next-dashboard/internal/store"
	"github.com/sanye891/next-dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// SaleHandler serves the sales CRUD table.
type SaleHandler struct {
	Store *store.SaleStore
}

func NewSaleHandler(s *store.SaleStore) *SaleHandler {
	return &SaleHandler{Store: s}
}

type saleReq struct {
	Name  string  `json:"name" binding:"required"`
	Value float64 `json:"value"`
}

// ListSales returns the user's records plus recomputed summary statistics.
// An optional q parameter filters the returned items in memory; the summary
// always covers the full unfiltered list so it matches the store of record.
func (h *SaleHandler) ListSales(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	orderBy := c.DefaultQuery("order_by", "id")
	if err := util.ValidateOrderBy(orderBy); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	asc := c.Query("asc") == "true"

	sales, err := h.Store.List(c.Request.Context(), user.ID, orderBy, asc)
	if err != nil {
		storeError(c, err, "sales not found")
		return
	}

	summary := aggregate.Summarize(sales)

	items := sales
	if q := strings.ToLower(strings.TrimSpace(c.Query("q"))); q != "" {
		items = filterSales(sales, q)
	}

	util.Success(c, util.Response{
		"items":   items,
		"summary": summary,
	})
}

// filterSales does a case-insensitive substring match over name and the
// stringified value.
func filterSales(sales []models.Sale, q string) []models.Sale {
	filtered := make([]models.Sale, 0, len(sales))
	for _, s := range sales {
		valueStr := strconv.FormatFloat(s.Value, 'f', -1, 64)
		if strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(valueStr, q) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// CreateSale inserts one record; id and created_at come back server-assigned.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req saleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if err := util.ValidateSaleName(req.Name); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := util.ValidateSaleValue(req.Value); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	sale := models.Sale{
		UserID: user.ID,
		Name:   strings.TrimSpace(req.Name),
		Value:  req.Value,
	}
	if err := h.Store.Insert(c.Request.Context(), &sale); err != nil {
		storeError(c, err, "sale not found")
		return
	}

	util.Success(c, util.Response{"sale": sale})
}

// UpdateSale patches name/value of one record by id.
func (h *SaleHandler) UpdateSale(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var req saleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if err := util.ValidateSaleName(req.Name); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := util.ValidateSaleValue(req.Value); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	err = h.Store.Update(c.Request.Context(), user.ID, uint(id), strings.TrimSpace(req.Name), req.Value)
	if err != nil {
		storeError(c, err, "sale not found")
		return
	}

	util.Success(c, util.Response{"message": "updated"})
}

// DeleteSale removes one record. The caller must pass confirm=true; without
// it no store call is made.
func (h *SaleHandler) DeleteSale(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	if c.Query("confirm") != "true" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "confirmation required: re-send with confirm=true")
		return
	}

	if err := h.Store.Delete(c.Request.Context(), user.ID, uint(id)); err != nil {
		storeError(c, err, "sale not found")
		return
	}

	util.Success(c, util.Response{"message": "deleted"})
}
