package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sanye891/next-dashboard/internal/blob"
	"github.com/sanye891/next-dashboard/internal/config"
	"github.com/sanye891/next-dashboard/internal/models"
	"github.com/sanye891/next-dashboard/internal/store"
	"github.com/sanye891/next-dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FileHandler serves the file repository: blob plus metadata row, written as
// a two-phase saga with a compensating blob delete when phase two fails.
type FileHandler struct {
	Blob     BlobStore
	Store    *store.FileStore
	Log      *logrus.Logger
	Buckets  config.BucketConfig
	MaxBytes int64
}

func NewFileHandler(b BlobStore, s *store.FileStore, log *logrus.Logger, buckets config.BucketConfig, maxBytes int64) *FileHandler {
	return &FileHandler{Blob: b, Store: s, Log: log, Buckets: buckets, MaxBytes: maxBytes}
}

// Upload stores the blob, then the metadata row. The size cap is enforced
// here, before any remote call.
func (h *FileHandler) Upload(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing file field")
		return
	}
	defer file.Close()

	if header.Size > h.MaxBytes {
		util.Error(c, http.StatusRequestEntityTooLarge, util.CodeTooLarge,
			fmt.Sprintf("file exceeds the %d MiB limit (got %.2f MiB)",
				h.MaxBytes/(1024*1024), float64(header.Size)/1024/1024))
		return
	}

	category := strings.TrimSpace(c.PostForm("category"))
	if category == "" {
		category = models.CategoryOther
	}
	if err := util.ValidateCategory(category); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	contentType := header.Header.Get("Content-Type")
	key := blob.NewKey(header.Filename)

	// phase one: store the blob
	err = h.Blob.Upload(c.Request.Context(), h.Buckets.Uploads, key, file, blob.UploadOptions{
		ContentType:  contentType,
		CacheControl: "3600",
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "upload failed")
		return
	}

	rec := models.FileRecord{
		UserID:     user.ID,
		Name:       header.Filename,
		Size:       header.Size,
		Type:       contentType,
		URL:        h.Blob.PublicURL(h.Buckets.Uploads, key),
		StorageKey: key,
		Bucket:     h.Buckets.Uploads,
		Category:   category,
	}

	// phase two: commit metadata; compensate on failure so no orphaned blob
	// is left behind
	if err := h.Store.Insert(c.Request.Context(), &rec); err != nil {
		if delErr := h.Blob.Delete(c.Request.Context(), h.Buckets.Uploads, key); delErr != nil {
			h.Log.Warnf("compensating delete of %s/%s failed: %v", h.Buckets.Uploads, key, delErr)
		}
		storeError(c, err, "file not found")
		return
	}

	util.Success(c, util.Response{"file": rec})
}

// List returns the user's file records, optionally filtered by category and
// a case-insensitive name substring. Filtering happens in memory.
func (h *FileHandler) List(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	files, err := h.Store.List(c.Request.Context(), user.ID)
	if err != nil {
		storeError(c, err, "files not found")
		return
	}

	category := c.Query("category")
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))

	filtered := make([]models.FileRecord, 0, len(files))
	for _, f := range files {
		if category != "" && category != models.CategoryAll && f.Category != category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(f.Name), q) {
			continue
		}
		filtered = append(filtered, f)
	}

	util.Success(c, util.Response{
		"files":      filtered,
		"categories": append([]string{models.CategoryAll}, models.FileCategories...),
	})
}

// Download streams the blob behind a file record.
func (h *FileHandler) Download(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	rec, err := h.Store.Get(c.Request.Context(), user.ID, uint(id))
	if err != nil {
		storeError(c, err, "file not found")
		return
	}

	body, contentType, size, err := h.Blob.Download(c.Request.Context(), rec.Bucket, rec.StorageKey)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "download failed")
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = rec.Type
	}
	c.DataFromReader(http.StatusOK, size, contentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", rec.Name),
	})
}

type updateFileReq struct {
	Category string `json:"category" binding:"required"`
}

// UpdateCategory re-files a record under another category.
func (h *FileHandler) UpdateCategory(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var req updateFileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if err := util.ValidateCategory(req.Category); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	if err := h.Store.UpdateCategory(c.Request.Context(), user.ID, uint(id), req.Category); err != nil {
		storeError(c, err, "file not found")
		return
	}

	util.Success(c, util.Response{"message": "updated"})
}

// Delete removes the metadata row, then the blob (best effort). Requires
// confirm=true; without it nothing is touched.
func (h *FileHandler) Delete(c *gin.Context) {
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

	rec, err := h.Store.Get(c.Request.Context(), user.ID, uint(id))
	if err != nil {
		storeError(c, err, "file not found")
		return
	}

	// record first: an orphaned blob is acceptable for a moment, an orphaned
	// record never is
	if err := h.Store.Delete(c.Request.Context(), user.ID, rec.ID); err != nil {
		storeError(c, err, "file not found")
		return
	}
	if err := h.Blob.Delete(c.Request.Context(), rec.Bucket, rec.StorageKey); err != nil {
		h.Log.Warnf("delete blob %s/%s: %v", rec.Bucket, rec.StorageKey, err)
	}

	util.Success(c, util.Response{"message": "deleted"})
}

// ListObjects exposes the raw user-files bucket (the quick-upload panel).
func (h *FileHandler) ListObjects(c *gin.Context) {
	if user := currentUser(c); user == nil {
		return
	}

	objects, err := h.Blob.List(c.Request.Context(), h.Buckets.UserFiles, "")
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to list files")
		return
	}

	type objectResp struct {
		blob.ObjectInfo
		URL string `json:"url"`
	}
	items := make([]objectResp, 0, len(objects))
	for _, o := range objects {
		items = append(items, objectResp{ObjectInfo: o, URL: h.Blob.PublicURL(h.Buckets.UserFiles, o.Key)})
	}

	util.Success(c, util.Response{"objects": items})
}

// UploadObject stores a blob in the user-files bucket without a metadata row.
func (h *FileHandler) UploadObject(c *gin.Context) {
	if user := currentUser(c); user == nil {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing file field")
		return
	}
	defer file.Close()

	if header.Size > h.MaxBytes {
		util.Error(c, http.StatusRequestEntityTooLarge, util.CodeTooLarge,
			fmt.Sprintf("file exceeds the %d MiB limit", h.MaxBytes/(1024*1024)))
		return
	}

	// timestamp prefix avoids collisions while keeping the original name visible
	key := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), filepath.Base(header.Filename))
	err = h.Blob.Upload(c.Request.Context(), h.Buckets.UserFiles, key, file, blob.UploadOptions{
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "upload failed")
		return
	}

	util.Success(c, util.Response{
		"key": key,
		"url": h.Blob.PublicURL(h.Buckets.UserFiles, key),
	})
}
