package handler

import (
	"io"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
)

// maxUploadSize caps image uploads at 5 MiB.
const maxUploadSize = 5 << 20

// ImageSaver stores uploaded images and serves them back by filename.
// Satisfied by *storage.ImageStore.
type ImageSaver interface {
	Save(r io.Reader, originalName string) (string, error)
	Open(filename string) (string, error)
}

// UploadHandler handles image upload and serving.
type UploadHandler struct {
	images ImageSaver
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(images ImageSaver) *UploadHandler {
	return &UploadHandler{images: images}
}

// RegisterPublicRoutes registers the image serving endpoint.
func (h *UploadHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/uploads/{filename}", h.Serve)
}

// RegisterAdminRoutes registers the upload endpoint.
func (h *UploadHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/uploads", h.Upload)
}

// Upload handles POST /admin/uploads with a multipart "image" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image field is required"})
		return
	}
	defer file.Close()

	url, err := h.images.Save(file, header.Filename)
	if err != nil {
		if os.IsPermission(err) {
			log.Printf("ERROR: save image: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// Serve handles GET /uploads/{filename}.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := h.images.Open(filename)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "image not found"})
		return
	}

	http.ServeFile(w, r, path)
}
