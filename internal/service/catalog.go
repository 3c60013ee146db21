package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultStock = 1

// ProductSearcher is the full-text index kept next to the product table.
type ProductSearcher interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductSearcher
	Events EventPublisher
}

func (s *CatalogService) Create(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	prod := &models.Product{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Brand:       strings.TrimSpace(req.Brand),
		Category:    strings.TrimSpace(req.Category),
		Stock:       defaultStock,
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}
	if err := validateProduct(prod); err != nil {
		return nil, err
	}

	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "product_created", prod)
	return prod, nil
}

func (s *CatalogService) Patch(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	prod, err := s.Repo.UpdateProduct(ctx, id, func(p *models.Product) error {
		if req.Title != nil {
			p.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			p.Description = strings.TrimSpace(*req.Description)
		}
		if req.Price != nil {
			p.Price = *req.Price
		}
		if req.Brand != nil {
			p.Brand = strings.TrimSpace(*req.Brand)
		}
		if req.Category != nil {
			p.Category = strings.TrimSpace(*req.Category)
		}
		if req.Stock != nil {
			p.Stock = *req.Stock
		}
		return validateProduct(p)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}

	s.afterWrite(ctx, "product_updated", prod)
	return prod, nil
}

func validateProduct(p *models.Product) error {
	if p.Title == "" || p.Description == "" || p.Brand == "" || p.Category == "" {
		return fmt.Errorf("title, description, brand and category are required: %w", ErrValidation)
	}
	if p.Price.LessThan(decimal.Zero) {
		return fmt.Errorf("price must be >= 0: %w", ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock must be >= 0: %w", ErrValidation)
	}
	return nil
}

// afterWrite pushes the stored product to the search index and the event
// stream. Neither failure undoes the write.
func (s *CatalogService) afterWrite(ctx context.Context, typ string, p *models.Product) {
	l := logging.FromContext(ctx).With("svc", "catalog")
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, p); err != nil {
			l.Warn("index_product_failed", "product_id", p.ID, "error", err)
		}
	}
	publish(ctx, s.Events, TopicProductEvents, p.ID.String(), ProductEvent{
		Type:       typ,
		ProductID:  p.ID,
		Title:      p.Title,
		Price:      p.Price,
		Stock:      p.Stock,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) List(ctx context.Context, category string, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, strings.TrimSpace(category), offset, limit)
}

// Search asks the index first and falls back to a database substring match
// when no index is configured or it fails.
func (s *CatalogService) Search(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("query required: %w", ErrValidation)
	}

	if s.Index != nil {
		total, items, err := s.searchIndex(ctx, query, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "svc", "catalog.search", "error", err)
	}
	return s.Repo.SearchProducts(ctx, query, offset, limit)
}

func (s *CatalogService) searchIndex(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	total, ids, err := s.Index.Search(ctx, query, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	found, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return 0, nil, err
	}
	items := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			items = append(items, p)
		}
	}
	return total, items, nil
}
