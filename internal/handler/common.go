package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/sanye891/next-dashboard/internal/blob"
	"github.com/sanye891/next-dashboard/internal/models"
	"github.com/sanye891/next-dashboard/internal/store"
	"github.com/sanye891/next-dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// BlobStore is the object-storage surface the handlers depend on,
// satisfied by *blob.Client.
type BlobStore interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, opts blob.UploadOptions) error
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, string, int64, error)
	List(ctx context.Context, bucket, prefix string) ([]blob.ObjectInfo, error)
	Delete(ctx context.Context, bucket string, keys ...string) error
	PublicURL(bucket, key string) string
}

// rlsRemediation is shown alongside permission-denied store errors so the
// operator can fix the policy instead of guessing.
const rlsRemediation = "permission denied by the database. Check that the row-level-security " +
	"policies for this table grant the signed-in role select/insert/update/delete, then retry."

// currentUser pulls the authenticated user placed by the auth middleware.
// On failure it writes the 401 envelope and returns nil.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get("currentUser")
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return nil
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return nil
	}
	return user
}

// storeError maps tagged store errors onto the JSON envelope.
func storeError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, notFoundMsg)
	case errors.Is(err, store.ErrPermissionDenied):
		util.Error(c, http.StatusForbidden, util.CodePermission, rlsRemediation)
	case errors.Is(err, store.ErrConflict):
		util.Error(c, http.StatusConflict, util.CodeConflict, "record already exists")
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "storage request failed")
	}
}
