// Package service provides the implementation of product lifecycle business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cerrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/abgdnv/gocatalog/internal/imagestore"
	"github.com/abgdnv/gocatalog/internal/imaging"
	"github.com/abgdnv/gocatalog/internal/store"
	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/abgdnv/gocatalog/pkg/messaging/events"
)

// CatalogService defines the methods for managing the product catalog.
// It abstracts the underlying business logic, image storage and data access.
type CatalogService interface {
	// UploadImage assigns the next free product number, ingests the image
	// under it and returns the stored reference together with the number.
	// Returns ErrMissingImage if raw is empty.
	UploadImage(ctx context.Context, raw []byte) (*UploadDto, error)

	// Create persists a new product. When raw carries an image, a number is
	// allocated and the image ingested first; otherwise the DTO must carry
	// the id and image reference obtained from a prior UploadImage call.
	// Returns ErrDuplicateID if the id is already taken.
	Create(ctx context.Context, product ProductCreateDto, raw []byte) (*ProductDto, error)

	// FindAll returns all products sorted by id in descending order.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// Update merges the provided fields into an existing product. When raw
	// carries an image it is ingested under the product's existing number,
	// overwriting the previous image. Fields left empty are preserved.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int64, product ProductUpdateDto, raw []byte) (*ProductDto, error)

	// DeleteByID removes a product by its ID. The stored image is kept.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error
}

// Service implements CatalogService.
type Service struct {
	repository store.ProductStore
	images     imagestore.Store
	encoder    imaging.Encoder
	allocator  *imagestore.Allocator
	publisher  messaging.Publisher
	logger     *slog.Logger
}

// NewService creates a new instance of CatalogService. publisher may be nil,
// in which case no events are emitted.
func NewService(repo store.ProductStore, images imagestore.Store, encoder imaging.Encoder,
	allocator *imagestore.Allocator, publisher messaging.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repository: repo,
		images:     images,
		encoder:    encoder,
		allocator:  allocator,
		publisher:  publisher,
		logger:     logger.With("component", "service"),
	}
}

// UploadDto represents the result of an image upload.
type UploadDto struct {
	ImageURL string `json:"imageUrl"`
	ID       int64  `json:"id"`
}

// ProductCreateDto represents the data transfer object for creating a new product.
// ID and Image may be left zero when an image payload accompanies the request.
type ProductCreateDto struct {
	ID           int64   `json:"id"`
	Image        string  `json:"image"`
	Name         string  `json:"name"         validate:"required,max=200"`
	Description  string  `json:"description"  validate:"required"`
	Price        float64 `json:"price"        validate:"required,gte=0"`
	IsNew        bool    `json:"isNew"`
	Category     string  `json:"category"     validate:"required"`
	Availability int32   `json:"availability" validate:"gte=0"`
}

// ProductUpdateDto carries the fields of a partial update. Nil pointers and
// empty strings mean "leave unchanged".
type ProductUpdateDto struct {
	Name         string
	Description  string
	Price        *float64
	IsNew        *bool
	Category     string
	Availability *int32
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID           int64   `json:"id"`
	Image        string  `json:"image"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	IsNew        bool    `json:"isNew"`
	Category     string  `json:"category"`
	Availability int32   `json:"availability"`
}

// UploadImage allocates the next product number and ingests the image under it.
func (s *Service) UploadImage(ctx context.Context, raw []byte) (*UploadDto, error) {
	if len(raw) == 0 {
		return nil, cerrors.ErrMissingImage
	}
	id := s.allocator.NextNumber(ctx)
	ref, err := s.ingest(ctx, raw, id)
	if err != nil {
		return nil, err
	}
	return &UploadDto{ImageURL: ref, ID: id}, nil
}

// Create persists a new product, ingesting the image first when one is supplied.
// An image stored before a failing create is not rolled back.
func (s *Service) Create(ctx context.Context, product ProductCreateDto, raw []byte) (*ProductDto, error) {
	if len(raw) > 0 {
		product.ID = s.allocator.NextNumber(ctx)
		ref, err := s.ingest(ctx, raw, product.ID)
		if err != nil {
			return nil, err
		}
		product.Image = ref
	} else if product.ID <= 0 || product.Image == "" {
		return nil, cerrors.ErrMissingImage
	}

	created, err := s.repository.Create(ctx, store.Product{
		ID:           product.ID,
		Image:        product.Image,
		Name:         product.Name,
		Description:  product.Description,
		Price:        product.Price,
		IsNew:        product.IsNew,
		Category:     product.Category,
		Availability: product.Availability,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product with ID %d: %w", product.ID, err)
	}

	s.publish(ctx, events.ProductCreatedEvent{
		ProductID: created.ID,
		Name:      created.Name,
		Price:     created.Price,
		Category:  created.Category,
		CreatedAt: time.Now().UTC(),
	})
	return toDto(created), nil
}

// FindAll retrieves all products sorted by id in descending order.
func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))
	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}
	return productDTOs, nil
}

// Update merges the provided fields into an existing product record.
func (s *Service) Update(ctx context.Context, id int64, product ProductUpdateDto, raw []byte) (*ProductDto, error) {
	current, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product with ID %d: %w", id, err)
	}

	if len(raw) > 0 {
		// Image replacement reuses the existing number, overwriting in place.
		ref, err := s.ingest(ctx, raw, current.ID)
		if err != nil {
			return nil, err
		}
		current.Image = ref
	}

	if product.Name != "" {
		current.Name = product.Name
	}
	if product.Description != "" {
		current.Description = product.Description
	}
	if product.Price != nil {
		current.Price = *product.Price
	}
	if product.IsNew != nil {
		current.IsNew = *product.IsNew
	}
	if product.Category != "" {
		current.Category = product.Category
	}
	if product.Availability != nil {
		current.Availability = *product.Availability
	}

	updated, err := s.repository.Update(ctx, *current)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}
	return toDto(updated), nil
}

// DeleteByID deletes a product record. The stored image is deliberately
// left in place; storage is reconciled out of band.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "product deleted, stored image retained", "ID", id)
	s.publish(ctx, events.ProductDeletedEvent{
		ProductID: id,
		DeletedAt: time.Now().UTC(),
	})
	return nil
}

// ingest re-encodes the raw image and stores it under the given product number.
func (s *Service) ingest(ctx context.Context, raw []byte, id int64) (string, error) {
	encoded, err := s.encoder.Encode(raw)
	if err != nil {
		return "", fmt.Errorf("failed to encode image for product %d: %w", id, err)
	}
	ref, err := s.images.Save(ctx, encoded, id)
	if err != nil {
		return "", fmt.Errorf("failed to store image for product %d: %w", id, err)
	}
	return ref, nil
}

// publish emits an event if a publisher is configured. Publish failures are
// logged and never fail the request.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "subject", event.Subject(), "error", err)
	}
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:           product.ID,
		Image:        product.Image,
		Name:         product.Name,
		Description:  product.Description,
		Price:        product.Price,
		IsNew:        product.IsNew,
		Category:     product.Category,
		Availability: product.Availability,
	}
}
