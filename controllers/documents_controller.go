package controllers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simplesign/simplesign/models"
	"github.com/simplesign/simplesign/services"
	"github.com/simplesign/simplesign/userctx"
)

// DocumentsController handles the owner-facing document API
type DocumentsController struct {
	services *services.Services
}

// NewDocumentsController creates a new documents controller
func NewDocumentsController(services *services.Services) *DocumentsController {
	return &DocumentsController{services: services}
}

// Upload handles POST /api/documents with a multipart PDF upload
func (dc *DocumentsController) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(12 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	doc, err := dc.services.Documents.Upload(r.Context(), ownerFromContext(r), title, data)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, doc)
}

// List handles GET /api/documents
func (dc *DocumentsController) List(w http.ResponseWriter, r *http.Request) {
	docs, err := dc.services.Documents.List(r.Context(), userctx.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if docs == nil {
		docs = []models.Document{}
	}
	respondJSON(w, http.StatusOK, docs)
}

// Get handles GET /api/documents/{id}
func (dc *DocumentsController) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := dc.services.Documents.Get(r.Context(), userctx.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// Send handles POST /api/documents/{id}/send
func (dc *DocumentsController) Send(w http.ResponseWriter, r *http.Request) {
	var form services.SendForm
	if err := decodeJSON(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := dc.services.Documents.Send(r.Context(), userctx.GetUserID(r.Context()), chi.URLParam(r, "id"), &form)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// File handles GET /api/documents/{id}/file
func (dc *DocumentsController) File(w http.ResponseWriter, r *http.Request) {
	data, err := dc.services.Documents.GetFile(r.Context(), userctx.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Write(data)
}

// UpdateField handles PUT /api/documents/{id}/fields/{fieldID}
func (dc *DocumentsController) UpdateField(w http.ResponseWriter, r *http.Request) {
	var form models.GeometryForm
	if err := decodeJSON(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := dc.services.Documents.UpdateFieldGeometry(
		r.Context(),
		userctx.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "fieldID"),
		&form,
	)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteField handles DELETE /api/documents/{id}/fields/{fieldID}
func (dc *DocumentsController) DeleteField(w http.ResponseWriter, r *http.Request) {
	err := dc.services.Documents.DeleteField(
		r.Context(),
		userctx.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "fieldID"),
	)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/documents/{id}
func (dc *DocumentsController) Delete(w http.ResponseWriter, r *http.Request) {
	err := dc.services.Documents.Delete(r.Context(), userctx.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownerFromContext builds the acting owner from the authenticated session
func ownerFromContext(r *http.Request) services.Owner {
	ctx := r.Context()
	return services.Owner{
		ID:    userctx.GetUserID(ctx),
		Email: userctx.GetUserEmail(ctx),
		Name:  userctx.GetUserName(ctx),
	}
}
