package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/gif"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/sanye891/next-dashboard/internal/blob"
	"github.com/sanye891/next-dashboard/internal/config"
	"github.com/sanye891/next-dashboard/internal/models"
	"github.com/sanye891/next-dashboard/internal/store"
	"github.com/sanye891/next-dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testDB(t *testing.T, migrations ...any) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrations) == 0 {
		migrations = []any{&models.User{}, &models.Sale{}, &models.FileRecord{}, &models.Profile{}}
	}
	if err := db.AutoMigrate(migrations...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := models.User{Username: "alice", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

// testRouter mounts routes behind a stub auth middleware that injects user.
func testRouter(user *models.User, register func(g *gin.RouterGroup)) *gin.Engine {
	r := gin.New()
	g := r.Group("/", func(c *gin.Context) {
		c.Set("currentUser", user)
	})
	register(g)
	return r
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return e
}

// fakeBlob records calls instead of talking to object storage.
type fakeBlob struct {
	uploads     []string
	uploadTypes []string
	deletes     []string
}

func (f *fakeBlob) Upload(_ context.Context, bucket, key string, _ io.Reader, opts blob.UploadOptions) error {
	f.uploads = append(f.uploads, bucket+"/"+key)
	f.uploadTypes = append(f.uploadTypes, opts.ContentType)
	return nil
}

func (f *fakeBlob) Download(_ context.Context, _, _ string) (io.ReadCloser, string, int64, error) {
	return io.NopCloser(strings.NewReader("data")), "application/octet-stream", 4, nil
}

func (f *fakeBlob) List(_ context.Context, _, _ string) ([]blob.ObjectInfo, error) {
	return nil, nil
}

func (f *fakeBlob) Delete(_ context.Context, bucket string, keys ...string) error {
	for _, k := range keys {
		f.deletes = append(f.deletes, bucket+"/"+k)
	}
	return nil
}

func (f *fakeBlob) PublicURL(bucket, key string) string {
	return "http://blob.test/" + bucket + "/" + key
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var testBuckets = config.BucketConfig{
	Uploads:   "uploads",
	UserFiles: "user-files",
	Profiles:  "profiles",
}

func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestDeleteSaleRequiresConfirm(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	sales := store.NewSaleStore(db, store.NewFeed(nil))

	sale := models.Sale{UserID: user.ID, Name: "Widget", Value: 10}
	if err := sales.Insert(context.Background(), &sale); err != nil {
		t.Fatalf("insert: %v", err)
	}

	h := NewSaleHandler(sales)
	r := testRouter(user, func(g *gin.RouterGroup) {
		g.DELETE("/sales/:id", h.DeleteSale)
	})

	// cancel path first: no confirm, nothing deleted
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/sales/1", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var count int64
	db.Model(&models.Sale{}).Count(&count)
	if count != 1 {
		t.Fatalf("record deleted without confirmation, count = %d", count)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/sales/1?confirm=true", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	db.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("record not deleted after confirmation, count = %d", count)
	}
}

func TestFileUploadRejectsOversizeBeforeBlobCall(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	fb := &fakeBlob{}
	h := NewFileHandler(fb, store.NewFileStore(db, store.NewFeed(nil)), discardLogger(), testBuckets, 16)

	r := testRouter(user, func(g *gin.RouterGroup) {
		g.POST("/files", h.Upload)
	})

	body, contentType := multipartBody(t, "file", "big.bin", "application/octet-stream", bytes.Repeat([]byte("a"), 64))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	if len(fb.uploads) != 0 {
		t.Fatalf("blob upload attempted for oversize file: %v", fb.uploads)
	}
}

func TestFileUploadCompensatesOnMetadataFailure(t *testing.T) {
	// no file_records table, so the metadata insert fails after the blob
	// is already stored
	db := testDB(t, &models.User{})
	user := testUser(t, db)
	fb := &fakeBlob{}
	h := NewFileHandler(fb, store.NewFileStore(db, store.NewFeed(nil)), discardLogger(), testBuckets, 1<<20)

	r := testRouter(user, func(g *gin.RouterGroup) {
		g.POST("/files", h.Upload)
	})

	body, contentType := multipartBody(t, "file", "report.csv", "text/csv", []byte("name,value\na,1\n"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500: %s", w.Code, w.Body.String())
	}
	if len(fb.uploads) != 1 {
		t.Fatalf("uploads = %v, want exactly one", fb.uploads)
	}
	if len(fb.deletes) != 1 || fb.deletes[0] != fb.uploads[0] {
		t.Fatalf("compensating delete = %v, want %v", fb.deletes, fb.uploads)
	}
}

func TestFileDeleteRequiresConfirm(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	files := store.NewFileStore(db, store.NewFeed(nil))
	fb := &fakeBlob{}
	h := NewFileHandler(fb, files, discardLogger(), testBuckets, 1<<20)

	rec := models.FileRecord{
		UserID: user.ID, Name: "report.pdf", Size: 4,
		Type: "application/pdf", Bucket: "uploads", StorageKey: "k1", Category: models.CategoryOther,
	}
	if err := files.Insert(context.Background(), &rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	r := testRouter(user, func(g *gin.RouterGroup) {
		g.DELETE("/files/:id", h.Delete)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/files/1", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var count int64
	db.Model(&models.FileRecord{}).Count(&count)
	if count != 1 {
		t.Fatalf("record deleted without confirmation")
	}
	if len(fb.deletes) != 0 {
		t.Fatalf("blob deleted without confirmation: %v", fb.deletes)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/files/1?confirm=true", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	db.Model(&models.FileRecord{}).Count(&count)
	if count != 0 {
		t.Fatalf("record still present after confirmed delete")
	}
	if len(fb.deletes) != 1 || fb.deletes[0] != "uploads/k1" {
		t.Fatalf("blob deletes = %v, want [uploads/k1]", fb.deletes)
	}
}

func TestUpdateFileCategory(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	files := store.NewFileStore(db, store.NewFeed(nil))
	h := NewFileHandler(&fakeBlob{}, files, discardLogger(), testBuckets, 1<<20)

	rec := models.FileRecord{
		UserID: user.ID, Name: "report.pdf", Size: 4,
		Type: "application/pdf", Bucket: "uploads", StorageKey: "k1", Category: models.CategoryOther,
	}
	if err := files.Insert(context.Background(), &rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	r := testRouter(user, func(g *gin.RouterGroup) {
		g.PUT("/files/:id", h.UpdateCategory)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/files/1", strings.NewReader(`{"category":"Customer Data"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	got, err := files.Get(context.Background(), user.ID, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Category != models.CategoryCustomer {
		t.Fatalf("category = %q, want %q", got.Category, models.CategoryCustomer)
	}

	// "All" is a filter value, never storable
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/files/1", strings.NewReader(`{"category":"All"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	got, _ = files.Get(context.Background(), user.ID, rec.ID)
	if got.Category != models.CategoryCustomer {
		t.Fatalf("category changed by rejected update: %q", got.Category)
	}
}

func TestUploadAvatarRejectsNonImage(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	fb := &fakeBlob{}
	h := NewProfileHandler(store.NewProfileStore(db), fb, discardLogger(), testBuckets, 1<<20)

	r := testRouter(user, func(g *gin.RouterGroup) {
		g.POST("/profile/avatar", h.UploadAvatar)
	})

	body, contentType := multipartBody(t, "avatar", "notes.txt", "text/plain", []byte("hello"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profile/avatar", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(fb.uploads) != 0 {
		t.Fatalf("blob upload attempted for non-image: %v", fb.uploads)
	}
}

func TestUploadAvatarStoresProcessedImage(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	fb := &fakeBlob{}
	profiles := store.NewProfileStore(db)
	h := NewProfileHandler(profiles, fb, discardLogger(), testBuckets, 1<<20)

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	r := testRouter(user, func(g *gin.RouterGroup) {
		g.POST("/profile/avatar", h.UploadAvatar)
	})

	body, contentType := multipartBody(t, "avatar", "me.png", "image/png", img.Bytes())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profile/avatar", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(fb.uploads) != 1 || !strings.HasPrefix(fb.uploads[0], "profiles/avatars/") {
		t.Fatalf("uploads = %v, want one key under profiles/avatars/", fb.uploads)
	}

	profile, err := profiles.GetOrCreate(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.AvatarURL == "" || !strings.Contains(profile.AvatarURL, "profiles/avatars/") {
		t.Fatalf("avatar_url = %q, want blob url", profile.AvatarURL)
	}
}

func TestUploadAvatarNormalizesStoredContentType(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	fb := &fakeBlob{}
	h := NewProfileHandler(store.NewProfileStore(db), fb, discardLogger(), testBuckets, 1<<20)

	// a GIF gets re-encoded as JPEG, and the stored MIME must say so
	var img bytes.Buffer
	if err := gif.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}

	r := testRouter(user, func(g *gin.RouterGroup) {
		g.POST("/profile/avatar", h.UploadAvatar)
	})

	body, contentType := multipartBody(t, "avatar", "me.gif", "image/gif", img.Bytes())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profile/avatar", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(fb.uploads) != 1 || !strings.HasSuffix(fb.uploads[0], ".jpg") {
		t.Fatalf("uploads = %v, want one .jpg key", fb.uploads)
	}
	if fb.uploadTypes[0] != "image/jpeg" {
		t.Fatalf("stored content type = %q, want image/jpeg", fb.uploadTypes[0])
	}
}

func TestCommitBatchRejectsEmpty(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	sales := store.NewSaleStore(db, store.NewFeed(nil))
	h := NewImportHandler(sales, 1<<20)

	r := testRouter(user, func(g *gin.RouterGroup) {
		g.POST("/import/commit", h.CommitBatch)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import/commit", strings.NewReader(`{"rows":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var count int64
	db.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("rows inserted from an empty batch, count = %d", count)
	}
}

func TestCommitBatchInsertsRows(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	sales := store.NewSaleStore(db, store.NewFeed(nil))
	h := NewImportHandler(sales, 1<<20)

	r := testRouter(user, func(g *gin.RouterGroup) {
		g.POST("/import/commit", h.CommitBatch)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import/commit",
		strings.NewReader(`{"rows":[{"name":"  A  ","value":10},{"name":"B","value":5.5}]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	list, err := sales.List(context.Background(), user.ID, "id", true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// names are stored trimmed, same as single creates
	if len(list) != 2 || list[0].Name != "A" || list[1].Value != 5.5 {
		t.Fatalf("unexpected rows after commit: %+v", list)
	}
}

func TestStoreErrorCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{store.ErrNotFound, http.StatusNotFound, util.CodeNotFound},
		{store.ErrPermissionDenied, http.StatusForbidden, util.CodePermission},
		{store.ErrConflict, http.StatusConflict, util.CodeConflict},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		storeError(c, tc.err, "missing")
		if w.Code != tc.status {
			t.Errorf("storeError(%v) status = %d, want %d", tc.err, w.Code, tc.status)
		}
		if e := decodeEnvelope(t, w); e.Code != tc.code {
			t.Errorf("storeError(%v) code = %d, want %d", tc.err, e.Code, tc.code)
		}
	}
}

func TestListSalesRejectsUnknownOrderColumn(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	h := NewSaleHandler(store.NewSaleStore(db, store.NewFeed(nil)))

	r := testRouter(user, func(g *gin.RouterGroup) {
		g.GET("/sales", h.ListSales)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sales?order_by=password", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	e := decodeEnvelope(t, w)
	if e.Code == 0 {
		t.Fatalf("expected a non-zero error code, got %+v", e)
	}
}
