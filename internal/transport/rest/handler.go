// Package rest provides HTTP handlers for the product catalog.
package rest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	cerrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/abgdnv/gocatalog/internal/service"
	"github.com/abgdnv/gocatalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service   service.CatalogService
	validate  *validator.Validate
	logger    *slog.Logger
	maxUpload int64
}

// NewHandler creates a new instance of the catalog API with the provided service.
func NewHandler(service service.CatalogService, logger *slog.Logger, maxUpload int64) *Handler {
	return &Handler{
		service:   service,
		validate:  validator.New(),
		logger:    logger.With("component", "rest"),
		maxUpload: maxUpload,
	}
}

// RegisterRoutes registers the HTTP routes for the catalog service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", h.UploadImage)
		r.Post("/save-product", h.CreateProduct)
		r.Get("/products", h.FindAll)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/delete-product/{id}", h.DeleteProduct)
	})

	r.Get("/healthz", h.HealthCheck)
}

// UploadImage ingests a standalone image under the next free product number.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	raw, ok := h.imageFile(w, r, mLogger, "imagen")
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to upload image", "bytes", len(raw))
	uploaded, err := h.service.UploadImage(r.Context(), raw)
	if err != nil {
		if errors.Is(err, cerrors.ErrMissingImage) {
			mLogger.WarnContext(r.Context(), "Upload without image payload")
			web.RespondError(w, mLogger, http.StatusBadRequest, "No image file received")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error uploading image", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to upload image")
		return
	}
	mLogger.InfoContext(r.Context(), "Image uploaded successfully", "ID", uploaded.ID, "URL", uploaded.ImageURL)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{
		"success":  true,
		"imageUrl": uploaded.ImageURL,
		"id":       uploaded.ID,
	})
}

// CreateProduct handles the creation of a new product from a multipart form.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	raw, ok := h.imageFile(w, r, mLogger, "imagen")
	if !ok {
		return
	}

	dto, ok := h.createDtoFromForm(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to create product", "product", dto)

	if !h.validateStruct(w, r, mLogger, dto) {
		return
	}

	created, err := h.service.Create(r.Context(), *dto, raw)
	if err != nil {
		switch {
		case errors.Is(err, cerrors.ErrMissingImage):
			mLogger.WarnContext(r.Context(), "Create without image payload")
			web.RespondError(w, mLogger, http.StatusBadRequest, "An image file or a previously uploaded image reference is required")
		case errors.Is(err, cerrors.ErrDuplicateID):
			mLogger.WarnContext(r.Context(), "Duplicate product ID", "ID", dto.ID)
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Product with ID %d already exists", dto.ID))
		default:
			mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, map[string]any{
		"message": "Product created successfully",
		"product": created,
	})
}

// FindAll retrieves the product list sorted by id in descending order.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	mLogger.DebugContext(r.Context(), "Received request to find all products")
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{
		"success":  true,
		"products": list,
	})
}

// UpdateProduct merges submitted fields, and optionally a replacement image,
// into an existing product.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	raw, ok := h.imageFile(w, r, mLogger, "image")
	if !ok {
		return
	}

	dto, ok := h.updateDtoFromForm(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to update product", "ID", id)

	updated, err := h.service.Update(r.Context(), id, *dto, raw)
	if err != nil {
		if errors.Is(err, cerrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found for update", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to update product with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{
		"success": true,
		"product": updated,
	})
}

// DeleteProduct deletes a product by its ID.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, cerrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found for deletion", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete product with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{
		"success": true,
		"message": "Product deleted successfully",
	})
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// imageFile reads the uploaded file from the named multipart field.
// A missing file or a non-multipart body yields nil bytes, not an error;
// the boolean reports whether the request should proceed.
func (h *Handler) imageFile(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, field string) ([]byte, bool) {
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, true
		}
		mLogger.WarnContext(r.Context(), "Invalid multipart body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid multipart request body")
		return nil, false
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		mLogger.WarnContext(r.Context(), "Invalid file field", "field", field, "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid file field: %s", field))
		return nil, false
	}
	defer func() { _ = file.Close() }()
	raw, err := io.ReadAll(file)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error reading uploaded file", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Failed to read uploaded file")
		return nil, false
	}
	return raw, true
}

// createDtoFromForm coerces form values into a ProductCreateDto.
// String fields are trimmed, numeric fields parsed, isNew recognized by the
// literal token "true".
func (h *Handler) createDtoFromForm(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (*service.ProductCreateDto, bool) {
	dto := service.ProductCreateDto{
		Image:       formValue(r, "image"),
		Name:        formValue(r, "name"),
		Description: formValue(r, "description"),
		Category:    formValue(r, "category"),
		IsNew:       formValue(r, "isNew") == "true",
	}
	if v := formValue(r, "id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid id: %s", v))
			return nil, false
		}
		dto.ID = id
	}
	if v := formValue(r, "price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid price: %s", v))
			return nil, false
		}
		dto.Price = price
	}
	if v := formValue(r, "availability"); v != "" {
		availability, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid availability: %s", v))
			return nil, false
		}
		dto.Availability = int32(availability)
	}
	return &dto, true
}

// updateDtoFromForm coerces form values into a ProductUpdateDto, leaving
// absent or empty fields nil so the merge preserves stored values.
func (h *Handler) updateDtoFromForm(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (*service.ProductUpdateDto, bool) {
	dto := service.ProductUpdateDto{
		Name:        formValue(r, "name"),
		Description: formValue(r, "description"),
		Category:    formValue(r, "category"),
	}
	if v := formValue(r, "price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid price: %s", v))
			return nil, false
		}
		dto.Price = &price
	}
	if v := formValue(r, "availability"); v != "" {
		availability, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid availability: %s", v))
			return nil, false
		}
		a := int32(availability)
		dto.Availability = &a
	}
	if v := formValue(r, "isNew"); v != "" {
		isNew := v == "true"
		dto.IsNew = &isNew
	}
	return &dto, true
}

// validateStruct runs struct validation and writes a 400 response on failure.
func (h *Handler) validateStruct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, v any) bool {
	if err := h.validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			messages := make([]string, 0, len(validationErrors))
			for _, fieldErr := range validationErrors {
				messages = append(messages, fieldErr.Field()+" failed on rule: "+fieldErr.Tag())
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", messages)
			web.RespondError(w, mLogger, http.StatusBadRequest, strings.Join(messages, "; "))
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
