package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/staffdesk/ems/internal/filestore"
	"github.com/staffdesk/ems/internal/pkg/errcode"
	"github.com/staffdesk/ems/internal/pkg/response"
	"github.com/staffdesk/ems/internal/service"
)

type FileHandler struct {
	store filestore.Store
}

func NewFileHandler(store filestore.Store) *FileHandler {
	return &FileHandler{store: store}
}

// Get streams a stored object. Drivers with a public url never route here.
func (h *FileHandler) Get(c *gin.Context) {
	key := c.Param("key")
	if !filestore.ValidKey(key) {
		c.Status(http.StatusBadRequest)
		return
	}
	file, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, filestore.ErrNotExist) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	defer file.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(c.Writer, file)
}

// readPhoto pulls the "photo" form file, enforcing maxSize. It writes the
// error response itself and returns ok=false on failure.
func readPhoto(c *gin.Context, maxSize int64) (service.PhotoUpload, func(), bool) {
	if maxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+1024*1024)
	}
	header, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "photo is required")
		return service.PhotoUpload{}, nil, false
	}
	if maxSize > 0 && header.Size > maxSize {
		response.Error(c, errcode.ErrInvalidFile, "photo exceeds "+formatUploadLimit(maxSize))
		return service.PhotoUpload{}, nil, false
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open photo")
		return service.PhotoUpload{}, nil, false
	}
	contentType, err := sniffContentType(file)
	if err != nil {
		_ = file.Close()
		response.Error(c, errcode.ErrInvalidFile, "failed to read photo")
		return service.PhotoUpload{}, nil, false
	}
	return service.PhotoUpload{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Reader:      file,
	}, func() { _ = file.Close() }, true
}

func sniffContentType(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	read, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:read]), nil
}

func formatUploadLimit(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%dMB", size>>20)
	case size >= 1<<10:
		return fmt.Sprintf("%dKB", size>>10)
	default:
		return fmt.Sprintf("%dB", size)
	}
}
