package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sanye891/next-dashboard/internal/ingest"
	"github.com/sanye891/next-dashboard/internal/models"
	"github.com/sanye891/next-dashboard/internal/store"
	"github.com/sanye891/next-dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// ImportHandler runs the two-step spreadsheet import: parse for preview,
// then commit. Nothing is written during parse.
type ImportHandler struct {
	Store    *store.SaleStore
	MaxBytes int64
}

func NewImportHandler(s *store.SaleStore, maxBytes int64) *ImportHandler {
	return &ImportHandler{Store: s, MaxBytes: maxBytes}
}

// ParseFile decodes the uploaded spreadsheet and returns the batch preview.
func (h *ImportHandler) ParseFile(c *gin.Context) {
	if user := currentUser(c); user == nil {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing file field")
		return
	}
	defer file.Close()

	if h.MaxBytes > 0 && header.Size > h.MaxBytes {
		util.Error(c, http.StatusRequestEntityTooLarge, util.CodeTooLarge,
			fmt.Sprintf("file exceeds the %d MiB limit", h.MaxBytes/(1024*1024)))
		return
	}

	batch, err := ingest.Parse(file, filepath.Ext(header.Filename))
	if err != nil {
		h.parseError(c, err)
		return
	}

	util.Success(c, util.Response{
		"rows":  batch,
		"count": len(batch),
	})
}

func (h *ImportHandler) parseError(c *gin.Context, err error) {
	var rowErr *ingest.RowError
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please upload a .csv or .xlsx file")
	case errors.Is(err, ingest.ErrEmptyFile):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "the file contains no data")
	case errors.Is(err, ingest.ErrMissingColumns):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "data must include name and value columns")
	case errors.As(err, &rowErr):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam,
			fmt.Sprintf("row %d could not be imported: check its name and value", rowErr.Row))
	default:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "failed to parse file, check its format")
	}
}

type commitReq struct {
	Rows []ingest.ImportRow `json:"rows" binding:"required"`
}

// CommitBatch bulk-inserts a previously previewed batch in one statement.
func (h *ImportHandler) CommitBatch(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req commitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if len(req.Rows) == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "nothing to import")
		return
	}

	sales := make([]models.Sale, 0, len(req.Rows))
	for i, row := range req.Rows {
		if err := util.ValidateSaleName(row.Name); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam,
				fmt.Sprintf("row %d: %v", i+1, err))
			return
		}
		if err := util.ValidateSaleValue(row.Value); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam,
				fmt.Sprintf("row %d: %v", i+1, err))
			return
		}
		sales = append(sales, models.Sale{
			UserID: user.ID,
			Name:   strings.TrimSpace(row.Name),
			Value:  row.Value,
		})
	}

	if err := h.Store.InsertBatch(c.Request.Context(), sales); err != nil {
		storeError(c, err, "sales not found")
		return
	}

	util.Success(c, util.Response{
		"message":  "imported",
		"imported": len(sales),
	})
}
