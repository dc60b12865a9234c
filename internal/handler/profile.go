package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sanye891/next-dashboard/internal/blob"
	"github.com/sanye891/next-dashboard/internal/config"
	"github.com/sanye891/next-dashboard/internal/models"
	"github.com/sanye891/next-dashboard/internal/store"
	"github.com/sanye891/next-dashboard/internal/util"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// avatarSize is the square edge the stored avatar is normalized to.
const avatarSize = 256

// ProfileHandler serves the profile page: lazily created profile row,
// preference updates and the two-phase avatar upload.
type ProfileHandler struct {
	Profiles *store.ProfileStore
	Blob     BlobStore
	Log      *logrus.Logger
	Buckets  config.BucketConfig
	MaxBytes int64 // avatar cap
}

func NewProfileHandler(p *store.ProfileStore, b BlobStore, log *logrus.Logger, buckets config.BucketConfig, maxBytes int64) *ProfileHandler {
	return &ProfileHandler{Profiles: p, Blob: b, Log: log, Buckets: buckets, MaxBytes: maxBytes}
}

func profileResp(user *models.User, p *models.Profile) gin.H {
	return gin.H{
		"id":          p.ID,
		"username":    user.Username,
		"name":        p.Name,
		"avatar_url":  p.AvatarURL,
		"company":     p.Company,
		"role":        p.Role,
		"preferences": p.Preferences.Data(),
		"created_at":  p.CreatedAt,
	}
}

// GetProfile loads the profile, creating it with defaults on first access.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	profile, err := h.Profiles.GetOrCreate(c.Request.Context(), user.ID)
	if err != nil {
		storeError(c, err, "profile not found")
		return
	}

	util.Success(c, util.Response{"profile": profileResp(user, profile)})
}

type updateProfileReq struct {
	Name        string               `json:"name" binding:"max=64"`
	Company     string               `json:"company" binding:"max=128"`
	Preferences models.PreferenceSet `json:"preferences"`
}

// UpdateProfile patches name, company and preferences.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	// profile may not exist yet when the client skips the GET
	if _, err := h.Profiles.GetOrCreate(c.Request.Context(), user.ID); err != nil {
		storeError(c, err, "profile not found")
		return
	}

	err := h.Profiles.Update(c.Request.Context(), user.ID,
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Company), req.Preferences)
	if err != nil {
		storeError(c, err, "profile not found")
		return
	}

	profile, err := h.Profiles.GetOrCreate(c.Request.Context(), user.ID)
	if err != nil {
		storeError(c, err, "profile not found")
		return
	}

	util.Success(c, util.Response{"profile": profileResp(user, profile)})
}

// UploadAvatar is a two-phase saga: store the processed image, then patch
// avatar_url. A failed patch triggers a compensating blob delete so the
// bucket never accumulates unreferenced avatars.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing avatar field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "avatar must be an image")
		return
	}
	if header.Size > h.MaxBytes {
		util.Error(c, http.StatusRequestEntityTooLarge, util.CodeTooLarge,
			fmt.Sprintf("avatar exceeds the %d MiB limit", h.MaxBytes/(1024*1024)))
		return
	}

	img, err := imaging.Decode(file)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "could not decode image")
		return
	}
	thumb := imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)

	// everything but PNG is re-encoded as JPEG, so the stored content type
	// follows the encode format, not the upload's
	format := imaging.JPEG
	ext := ".jpg"
	storedType := "image/jpeg"
	if contentType == "image/png" {
		format = imaging.PNG
		ext = ".png"
		storedType = "image/png"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "could not process image")
		return
	}

	if _, err := h.Profiles.GetOrCreate(c.Request.Context(), user.ID); err != nil {
		storeError(c, err, "profile not found")
		return
	}

	key := fmt.Sprintf("avatars/%d-%d%s", user.ID, time.Now().UnixMilli(), ext)

	// phase one: store the blob
	err = h.Blob.Upload(c.Request.Context(), h.Buckets.Profiles, key, &buf, blob.UploadOptions{
		ContentType: storedType,
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "avatar upload failed")
		return
	}

	url := h.Blob.PublicURL(h.Buckets.Profiles, key)

	// phase two: patch avatar_url, compensating on failure
	if err := h.Profiles.UpdateAvatar(c.Request.Context(), user.ID, url); err != nil {
		if delErr := h.Blob.Delete(c.Request.Context(), h.Buckets.Profiles, key); delErr != nil {
			h.Log.Warnf("compensating delete of %s/%s failed: %v", h.Buckets.Profiles, key, delErr)
		}
		storeError(c, err, "profile not found")
		return
	}

	util.Success(c, util.Response{"avatar_url": url})
}

// ChangePasswordReq carries the old and new password.
type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=32"`
}

// ChangePassword updates the current user's password.
func ChangePassword(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			return
		}

		var req ChangePasswordReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "wrong current password")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to hash password")
			return
		}

		if err := db.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to update password")
			return
		}

		util.Success(c, util.Response{
			"message": "password changed, sign in again with the new password",
		})
	}
}
