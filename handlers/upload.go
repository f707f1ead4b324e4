// upload.go - Location metadata update with optional image upload

package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"envsense-backend/store"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var errNotImage = errors.New("uploaded file is not an image")

// LocationMetadataInput is the JSON form of a metadata update; images are
// only accepted as multipart uploads.
type LocationMetadataInput struct {
	Name        string  `json:"name" binding:"required"` // Location to update
	Description *string `json:"description"`             // Left untouched when absent
}

// UpdateLocation merges multipart form fields into the location called
// "name". An "image" file part is stored under the upload directory and
// referenced as /uploads/<file>. A JSON body updates the description only.
func (h *Handler) UpdateLocation(c *gin.Context) {
	if c.ContentType() == "application/json" {
		h.updateLocationJSON(c)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Cfg.MaxUploadBytes)
	if err := c.Request.ParseMultipartForm(h.Cfg.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Upload too large or malformed"})
		return
	}

	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Name is required"})
		return
	}
	ctx := c.Request.Context()

	// Resolve the location first so a bad name leaves no orphaned file behind
	if _, err := h.Locations.GetByName(ctx, name); err != nil {
		h.storeError(c, err, "Location not found")
		return
	}

	var upd store.MetadataUpdate
	if description, ok := c.GetPostForm("description"); ok {
		upd.Description = &description
	}

	var stored string // Disk path of a newly saved image
	file, err := c.FormFile("image")
	switch {
	case err == nil:
		path, diskPath, err := h.saveImage(file)
		if err != nil {
			if errors.Is(err, errNotImage) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Only image uploads are allowed"})
				return
			}
			h.serverError(c, "message", err)
			return
		}
		upd.Image = &path
		stored = diskPath
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Upload too large or malformed"})
		return
	}

	loc, err := h.Locations.UpdateMetadata(ctx, name, upd)
	if err != nil {
		if stored != "" {
			removeImage(stored) // Nothing references the file now
		}
		h.storeError(c, err, "Location not found")
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h *Handler) updateLocationJSON(c *gin.Context) {
	var input LocationMetadataInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	loc, err := h.Locations.UpdateMetadata(c.Request.Context(), input.Name, store.MetadataUpdate{Description: input.Description})
	if err != nil {
		h.storeError(c, err, "Location not found")
		return
	}
	c.JSON(http.StatusOK, loc)
}

// saveImage sniffs the part's content, then writes it as <uuid><ext>.
// It returns the public /uploads path and the path on disk.
func (h *Handler) saveImage(fh *multipart.FileHeader) (string, string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", "", err
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", "", errNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil { // Rewind after sniffing
		return "", "", err
	}

	if err := os.MkdirAll(h.Cfg.UploadDir, 0o755); err != nil {
		return "", "", err
	}
	filename := uuid.NewString() + mtype.Extension()
	diskPath := filepath.Join(h.Cfg.UploadDir, filename)
	dst, err := os.Create(diskPath)
	if err != nil {
		return "", "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		removeImage(diskPath)
		return "", "", err
	}
	if err := dst.Close(); err != nil { // A failed close can mean a truncated file
		removeImage(diskPath)
		return "", "", err
	}
	return "/uploads/" + filename, diskPath, nil
}

func removeImage(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("failed to remove uploaded image")
	}
}
