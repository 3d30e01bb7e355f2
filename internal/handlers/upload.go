package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mercury-im/mercury/internal/filestore"
)

type UploadHandler struct {
	store       filestore.FileStore
	baseURL     string
	maxUploadMB int64
}

func NewUploadHandler(store filestore.FileStore, baseURL string, maxUploadMB int64) *UploadHandler {
	return &UploadHandler{store: store, baseURL: baseURL, maxUploadMB: maxUploadMB}
}

// Upload принимает multipart-файл и возвращает стабильную ссылку с
// метаданными. Содержимое сервер не интерпретирует.
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	if fileHeader.Size > h.maxUploadMB*1024*1024 {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer f.Close()

	stored, err := h.store.Save(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file_url":  h.baseURL + "/files/" + stored.Ref,
		"file_name": fileHeader.Filename,
		"file_type": stored.MIME,
		"file_size": stored.Size,
	})
}

// Download отдаёт сохранённый файл по ссылке
func (h *UploadHandler) Download(c *gin.Context) {
	ref := c.Param("ref")

	f, err := h.store.Open(ref)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	defer f.Close()

	c.Status(http.StatusOK)
	io.Copy(c.Writer, f)
}
