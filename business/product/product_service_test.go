package product

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"onlineShop/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductRepo struct {
	products     map[uint]domain.Product
	nextID       uint
	findAllCalls int
	lastFilter   domain.ProductFilter
	err          error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uint]domain.Product{}}
}

func (r *fakeProductRepo) Create(_ context.Context, p *domain.Product) error {
	if r.err != nil {
		return r.err
	}
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uint) (domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.NotFound("product not found")
	}
	return p, nil
}

func (r *fakeProductRepo) FindAll(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	r.findAllCalls++
	r.lastFilter = filter
	if r.err != nil {
		return nil, r.err
	}

	ids := make([]int, 0, len(r.products))
	for id := range r.products {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	var out []domain.Product
	for _, id := range ids {
		p := r.products[uint(id)]
		if filter.HasPriceRange() && (p.Price < *filter.FromPrice || p.Price > *filter.ToPrice) {
			continue
		}
		if len(out) == filter.Limit {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *domain.Product) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.products[p.ID]; !ok {
		return domain.NotFound("product not found")
	}
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.products[id]; !ok {
		return domain.NotFound("product not found")
	}
	delete(r.products, id)
	return nil
}

type fakeOrderRefs map[uint]int64

func (f fakeOrderRefs) CountByProduct(_ context.Context, id uint) (int64, error) {
	return f[id], nil
}

type fakeCache struct {
	entries       map[string][]domain.ProductSummary
	ttls          map[string]time.Duration
	unavailable   bool
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]domain.ProductSummary{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]domain.ProductSummary, bool) {
	if c.unavailable {
		return nil, false
	}
	v, ok := c.entries[key]
	return v, ok
}

func (c *fakeCache) Set(_ context.Context, key string, products []domain.ProductSummary, ttl time.Duration) error {
	if c.unavailable {
		return errors.New("connection refused")
	}
	c.entries[key] = products
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) InvalidateListings(_ context.Context) error {
	c.invalidations++
	if c.unavailable {
		return errors.New("connection refused")
	}
	c.entries = map[string][]domain.ProductSummary{}
	return nil
}

type fakeTx struct{ calls int }

func (t *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type fixture struct {
	svc   *productService
	repo  *fakeProductRepo
	refs  fakeOrderRefs
	cache *fakeCache
	tx    *fakeTx
}

func newFixture() fixture {
	f := fixture{
		repo:  newFakeProductRepo(),
		refs:  fakeOrderRefs{},
		cache: newFakeCache(),
		tx:    &fakeTx{},
	}
	f.svc = NewProductService(f.repo, f.refs, f.cache, f.tx, 120*time.Second)
	return f
}

func int64p(v int64) *int64 { return &v }

func TestListingCacheKey(t *testing.T) {
	assert.Equal(t, "products:limit=10:from=none:to=none", ListingCacheKey(domain.ProductFilter{Limit: 10}))
	assert.Equal(t, "products:limit=5:from=1:to=9", ListingCacheKey(domain.ProductFilter{Limit: 5, FromPrice: int64p(1), ToPrice: int64p(9)}))

	keys := map[string]bool{}
	for _, f := range []domain.ProductFilter{
		{Limit: 10},
		{Limit: 10, FromPrice: int64p(5)},
		{Limit: 10, ToPrice: int64p(5)},
		{Limit: 10, FromPrice: int64p(5), ToPrice: int64p(5)},
		{Limit: 1, FromPrice: int64p(0), ToPrice: int64p(5)},
		{Limit: 10, FromPrice: int64p(-1), ToPrice: int64p(5)},
	} {
		keys[ListingCacheKey(f)] = true
	}
	assert.Len(t, keys, 6)
}

func TestListProducts_SecondCallServedFromCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CreateProduct(ctx, "Widget", 100)
	require.NoError(t, err)
	_, err = f.svc.CreateProduct(ctx, "Gadget", 250)
	require.NoError(t, err)

	first, err := f.svc.ListProducts(ctx, domain.ProductFilter{Limit: 10})
	require.NoError(t, err)
	second, err := f.svc.ListProducts(ctx, domain.ProductFilter{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.repo.findAllCalls)
	assert.Equal(t, []domain.ProductSummary{{ID: 1, Name: "Widget", Price: 100}, {ID: 2, Name: "Gadget", Price: 250}}, first)
	assert.Equal(t, 120*time.Second, f.cache.ttls["products:limit=10:from=none:to=none"])
}

func TestListProducts_DefaultLimit(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ListProducts(context.Background(), domain.ProductFilter{Limit: 0})
	require.NoError(t, err)

	assert.Equal(t, DefaultListLimit, f.repo.lastFilter.Limit)
	assert.Contains(t, f.cache.entries, "products:limit=10:from=none:to=none")
}

func TestListProducts_PriceRange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, p := range []int64{5, 15, 25} {
		_, err := f.svc.CreateProduct(ctx, "p", p)
		require.NoError(t, err)
	}

	got, err := f.svc.ListProducts(ctx, domain.ProductFilter{FromPrice: int64p(10), ToPrice: int64p(25)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(15), got[0].Price)
	assert.Equal(t, int64(25), got[1].Price)
}

func TestListProducts_CacheUnavailableFallsBackToStore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CreateProduct(ctx, "Widget", 100)
	require.NoError(t, err)
	f.cache.unavailable = true

	for i := 0; i < 2; i++ {
		got, err := f.svc.ListProducts(ctx, domain.ProductFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []domain.ProductSummary{{ID: 1, Name: "Widget", Price: 100}}, got)
	}
	assert.Equal(t, 2, f.repo.findAllCalls)
}

func TestListProducts_StoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.err = errors.New("db down")

	_, err := f.svc.ListProducts(context.Background(), domain.ProductFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Empty(t, f.cache.entries)
}

func TestCreateProduct(t *testing.T) {
	f := newFixture()
	f.cache.entries["products:limit=10:from=none:to=none"] = nil

	p, err := f.svc.CreateProduct(context.Background(), "Widget", 100)
	require.NoError(t, err)

	assert.Equal(t, uint(1), p.ID)
	assert.Equal(t, 1, f.tx.calls)
	assert.Equal(t, 1, f.cache.invalidations)
	assert.Empty(t, f.cache.entries)
}

func TestCreateProduct_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateProduct(context.Background(), " ", 100)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreateProduct(context.Background(), "Widget", -1)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.tx.calls)
}

func TestCreateProduct_PersistenceFailureIsTransient(t *testing.T) {
	f := newFixture()
	f.repo.err = errors.New("insert failed")

	_, err := f.svc.CreateProduct(context.Background(), "Widget", 100)
	require.ErrorIs(t, err, domain.ErrTransient)
	assert.Contains(t, err.Error(), "insert failed")
	assert.Zero(t, f.cache.invalidations)
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, err := f.svc.CreateProduct(ctx, "Widget", 100)
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateProduct(ctx, p.ID, "Widget v2", 150))
	assert.Equal(t, "Widget v2", f.repo.products[p.ID].Name)
	assert.Equal(t, int64(150), f.repo.products[p.ID].Price)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	f := newFixture()

	err := f.svc.UpdateProduct(context.Background(), 9, "x", 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "Product with id 9 not found")
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, err := f.svc.CreateProduct(ctx, "Widget", 100)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteProduct(ctx, p.ID))
	assert.Empty(t, f.repo.products)

	err = f.svc.DeleteProduct(ctx, p.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProduct_ReferencedByOrders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, err := f.svc.CreateProduct(ctx, "Widget", 100)
	require.NoError(t, err)
	f.refs[p.ID] = 2

	err = f.svc.DeleteProduct(ctx, p.ID)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, f.repo.products, p.ID)
}

func TestMutation_InvalidationFailureIsNotSurfaced(t *testing.T) {
	f := newFixture()
	f.cache.unavailable = true

	_, err := f.svc.CreateProduct(context.Background(), "Widget", 100)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.invalidations)
}
