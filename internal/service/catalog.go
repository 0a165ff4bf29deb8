package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/jsalmeida/ecommerce-api/internal/events"
	"github.com/jsalmeida/ecommerce-api/internal/logging"
	"github.com/jsalmeida/ecommerce-api/internal/models"
	"github.com/jsalmeida/ecommerce-api/internal/repo"
	"github.com/jsalmeida/ecommerce-api/internal/search"
	"github.com/jsalmeida/ecommerce-api/internal/transport"
)

type CatalogService struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
	Index    *search.Index
}

// Create requires name and price; description defaults to empty. Products
// have no owner, any authenticated caller may create one.
func (s *CatalogService) Create(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create")

	if req.Name == nil || req.Price == nil {
		return nil, fmt.Errorf("name and price required: %w", ErrValidation)
	}
	if *req.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	prod := &models.Product{
		Name:        *req.Name,
		Price:       *req.Price,
		Description: description,
	}
	if _, err := s.Repo.CreateProduct(ctx, prod); err != nil {
		l.Error("create_product_failed", "error", err)
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	}, prod.ID)
	s.reindex(ctx, prod)

	l.Info("create_product_success", "product_id", prod.ID)
	return prod, nil
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return prod, nil
}

func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

// Patch applies a partial update; fields absent from req stay as they are.
func (s *CatalogService) Patch(ctx context.Context, req transport.PatchProductRequest, id uint) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.patch", "product_id", id)

	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}

	prod, err := s.Repo.PatchProduct(ctx, req, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		l.Error("patch_product_failed", "error", err)
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	}, prod.ID)
	s.reindex(ctx, prod)

	l.Info("patch_product_success")
	return prod, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete", "product_id", id)

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		l.Error("delete_product_failed", "error", err)
		return err
	}

	s.publish(ctx, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	}, id)

	if s.Index.Enabled() {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Warn("product_index_delete_failed", "error", err)
		}
	}

	l.Info("delete_product_success")
	return nil
}

// Search queries the Elasticsearch index; it is only available when search
// is configured.
func (s *CatalogService) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	if !s.Index.Enabled() {
		return 0, nil, fmt.Errorf("search is not configured: %w", ErrUnavailable)
	}
	if query == "" {
		return 0, nil, fmt.Errorf("query required: %w", ErrValidation)
	}
	return s.Index.Search(ctx, query, from, size)
}

func (s *CatalogService) publish(ctx context.Context, event map[string]any, productID uint) {
	key := strconv.FormatUint(uint64(productID), 10)
	if err := s.Producer.Publish(ctx, events.TopicProductEvents, key, event); err != nil {
		logging.FromContext(ctx).Warn("product_event_publish_failed", "error", err)
	}
}

func (s *CatalogService) reindex(ctx context.Context, prod *models.Product) {
	if !s.Index.Enabled() {
		return
	}
	if err := s.Index.IndexProduct(ctx, prod); err != nil {
		logging.FromContext(ctx).Warn("product_index_failed", "product_id", prod.ID, "error", err)
	}
}
