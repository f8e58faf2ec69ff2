package product

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"onlineShop/domain"
	"onlineShop/pkg/logger"
)

const DefaultListLimit = 10

// ProductRepository contract interface
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uint) (domain.Product, error)
	FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uint) error
}

// OrderReferences reports how many order lines point at a product.
type OrderReferences interface {
	CountByProduct(ctx context.Context, productID uint) (int64, error)
}

// ProductCache contract interface. Get never fails: any problem is a miss.
type ProductCache interface {
	Get(ctx context.Context, key string) ([]domain.ProductSummary, bool)
	Set(ctx context.Context, key string, products []domain.ProductSummary, ttl time.Duration) error
	InvalidateListings(ctx context.Context) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type productService struct {
	productRepo ProductRepository
	orderRefs   OrderReferences
	cache       ProductCache
	tx          Transactor
	listTTL     time.Duration
}

func NewProductService(productRepo ProductRepository, orderRefs OrderReferences, cache ProductCache, tx Transactor, listTTL time.Duration) *productService {
	return &productService{
		productRepo: productRepo,
		orderRefs:   orderRefs,
		cache:       cache,
		tx:          tx,
		listTTL:     listTTL,
	}
}

// ListingCacheKey serializes the filter so identical requests share an entry.
// Unset bounds are written as "none", which no integer renders to.
func ListingCacheKey(filter domain.ProductFilter) string {
	var b strings.Builder
	b.WriteString("products:limit=")
	b.WriteString(strconv.Itoa(filter.Limit))
	b.WriteString(":from=")
	b.WriteString(formatBound(filter.FromPrice))
	b.WriteString(":to=")
	b.WriteString(formatBound(filter.ToPrice))
	return b.String()
}

func formatBound(v *int64) string {
	if v == nil {
		return "none"
	}
	return strconv.FormatInt(*v, 10)
}

func normalizeFilter(filter domain.ProductFilter) domain.ProductFilter {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	return filter
}

func (s *productService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductSummary, error) {
	filter = normalizeFilter(filter)
	key := ListingCacheKey(filter)

	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		logger.Error("Failed to find products", "error", err)
		return nil, fmt.Errorf("error retrieving products: %w", err)
	}

	summaries := make([]domain.ProductSummary, 0, len(products))
	for _, p := range products {
		summaries = append(summaries, p.Summary())
	}

	if err := s.cache.Set(ctx, key, summaries, s.listTTL); err != nil {
		logger.Warn("Failed to cache product listing", "key", key, "error", err)
	}

	return summaries, nil
}

func (s *productService) CreateProduct(ctx context.Context, name string, price int64) (domain.Product, error) {
	if err := validateProduct(name, price); err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{Name: name, Price: price}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.productRepo.Create(ctx, &product)
	})
	if err != nil {
		logger.Error("Failed to create product", "error", err)
		return domain.Product{}, domain.Transient(fmt.Errorf("error creating product: %w", err))
	}

	logger.Info("Product created", "product_id", product.ID)
	s.invalidate(ctx)

	return product, nil
}

// UpdateProduct replaces both name and price.
func (s *productService) UpdateProduct(ctx context.Context, id uint, name string, price int64) error {
	if err := validateProduct(name, price); err != nil {
		return err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.findProduct(ctx, id); err != nil {
			return err
		}

		return s.productRepo.Update(ctx, &domain.Product{ID: id, Name: name, Price: price})
	})
	if err != nil {
		logger.Error("Failed to update product", "product_id", id, "error", err)
		return domain.Transient(err)
	}

	logger.Info("Product updated", "product_id", id)
	s.invalidate(ctx)

	return nil
}

// DeleteProduct refuses to remove a product that order lines still reference.
func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.findProduct(ctx, id); err != nil {
			return err
		}

		refs, err := s.orderRefs.CountByProduct(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return domain.Validation(fmt.Sprintf("Product %d is referenced by %d order line(s) and cannot be deleted", id, refs))
		}

		return s.productRepo.Delete(ctx, id)
	})
	if err != nil {
		logger.Error("Failed to delete product", "product_id", id, "error", err)
		return domain.Transient(err)
	}

	logger.Info("Product deleted", "product_id", id)
	s.invalidate(ctx)

	return nil
}

func (s *productService) findProduct(ctx context.Context, id uint) (domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, domain.NotFound(fmt.Sprintf("Product with id %d not found", id))
		}
		return domain.Product{}, err
	}

	return product, nil
}

func (s *productService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateListings(ctx); err != nil {
		logger.Warn("Failed to invalidate product listings", "error", err)
	}
}

func validateProduct(name string, price int64) error {
	if strings.TrimSpace(name) == "" {
		return domain.Validation("product name is required")
	}

	if price < 0 {
		return domain.Validation("price cannot be negative")
	}

	return nil
}
