package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shop-service/internal/domain"
	"shop-service/internal/infra/cache"
	"shop-service/internal/mocks"
)

const testCacheTTL = 30 * time.Second

var testCategories = []domain.Category{
	{Name: "books", Description: "Paper and ink"},
	{Name: "games", Description: "Board games"},
}

func testProduct() *domain.Product {
	return &domain.Product{
		ID:          42,
		Name:        "Chess set",
		Price:       decimal.RequireFromString("19.90"),
		UnitsStored: 5,
		Category:    "games",
	}
}

func TestCatalogService_ListCategories(t *testing.T) {
	encoded, err := json.Marshal(testCategories)
	require.NoError(t, err)

	tests := []struct {
		name          string
		withCache     bool
		setupMocks    func(*mocks.MockCatalogRepository, *mocks.MockCache)
		expected      []domain.Category
		expectedError error
	}{
		{
			name: "without cache reads the store",
			setupMocks: func(repo *mocks.MockCatalogRepository, _ *mocks.MockCache) {
				repo.On("ListCategories", mock.Anything).Return(testCategories, nil)
			},
			expected: testCategories,
		},
		{
			name:      "cache hit skips the store",
			withCache: true,
			setupMocks: func(_ *mocks.MockCatalogRepository, c *mocks.MockCache) {
				c.On("Get", mock.Anything, cache.KeyCategories).Return(encoded, nil)
			},
			expected: testCategories,
		},
		{
			name:      "cache miss loads and stores the entry",
			withCache: true,
			setupMocks: func(repo *mocks.MockCatalogRepository, c *mocks.MockCache) {
				c.On("Get", mock.Anything, cache.KeyCategories).Return(nil, cache.ErrMiss)
				repo.On("ListCategories", mock.Anything).Return(testCategories, nil)
				c.On("Set", mock.Anything, cache.KeyCategories, encoded, testCacheTTL).Return(nil)
			},
			expected: testCategories,
		},
		{
			name:      "cache failure falls back to the store",
			withCache: true,
			setupMocks: func(repo *mocks.MockCatalogRepository, c *mocks.MockCache) {
				c.On("Get", mock.Anything, cache.KeyCategories).Return(nil, errors.New("connection refused"))
				repo.On("ListCategories", mock.Anything).Return(testCategories, nil)
				c.On("Set", mock.Anything, cache.KeyCategories, encoded, testCacheTTL).Return(errors.New("connection refused"))
			},
			expected: testCategories,
		},
		{
			name:      "undecodable entry is reloaded",
			withCache: true,
			setupMocks: func(repo *mocks.MockCatalogRepository, c *mocks.MockCache) {
				c.On("Get", mock.Anything, cache.KeyCategories).Return([]byte("{"), nil)
				repo.On("ListCategories", mock.Anything).Return(testCategories, nil)
				c.On("Set", mock.Anything, cache.KeyCategories, encoded, testCacheTTL).Return(nil)
			},
			expected: testCategories,
		},
		{
			name:      "store failure is not cached",
			withCache: true,
			setupMocks: func(repo *mocks.MockCatalogRepository, c *mocks.MockCache) {
				c.On("Get", mock.Anything, cache.KeyCategories).Return(nil, cache.ErrMiss)
				repo.On("ListCategories", mock.Anything).Return(nil, domain.StoreError("list categories", errors.New("database error")))
			},
			expectedError: domain.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.MockCatalogRepository)
			mockCache := new(mocks.MockCache)
			tt.setupMocks(mockRepo, mockCache)

			service := NewCatalogService(mockRepo, time.Second)
			if tt.withCache {
				service.SetCache(mockCache, testCacheTTL)
			}

			categories, err := service.ListCategories(context.Background())
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, categories)
				mockCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, categories)
			}

			mockRepo.AssertExpectations(t)
			mockCache.AssertExpectations(t)
		})
	}
}

func TestCatalogService_GetProduct(t *testing.T) {
	product := testProduct()
	cachedCopy := *product
	cachedCopy.UnitsStored = 0
	encoded, err := json.Marshal(&cachedCopy)
	require.NoError(t, err)
	key := cache.ProductKey(product.ID)

	t.Run("miss then hit", func(t *testing.T) {
		mockRepo := new(mocks.MockCatalogRepository)
		mockCache := new(mocks.MockCache)
		mockCache.On("Get", mock.Anything, key).Return(nil, cache.ErrMiss).Once()
		mockRepo.On("FindProduct", mock.Anything, product.ID).Return(product, nil).Once()
		mockCache.On("Set", mock.Anything, key, encoded, testCacheTTL).Return(nil).Once()
		mockCache.On("Get", mock.Anything, key).Return(encoded, nil).Once()
		mockRepo.On("UnitsStored", mock.Anything, product.ID).Return(int64(5), nil).Once()
		mockRepo.On("UnitsStored", mock.Anything, product.ID).Return(int64(2), nil).Once()

		service := NewCatalogService(mockRepo, time.Second)
		service.SetCache(mockCache, testCacheTTL)

		first, err := service.GetProduct(context.Background(), product.ID)
		require.NoError(t, err)
		second, err := service.GetProduct(context.Background(), product.ID)
		require.NoError(t, err)

		assert.Equal(t, product.Name, first.Name)
		assert.Equal(t, int64(5), first.UnitsStored)
		assert.Equal(t, product.Name, second.Name)
		assert.True(t, product.Price.Equal(second.Price))
		assert.Equal(t, int64(2), second.UnitsStored)
		assert.Equal(t, int64(5), product.UnitsStored)
		mockRepo.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("without cache reads the row once", func(t *testing.T) {
		mockRepo := new(mocks.MockCatalogRepository)
		mockRepo.On("FindProduct", mock.Anything, product.ID).Return(product, nil)

		service := NewCatalogService(mockRepo, time.Second)
		got, err := service.GetProduct(context.Background(), product.ID)

		require.NoError(t, err)
		assert.Equal(t, product.UnitsStored, got.UnitsStored)
		mockRepo.AssertNotCalled(t, "UnitsStored", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(mocks.MockCatalogRepository)
		mockRepo.On("FindProduct", mock.Anything, uint64(999)).Return(nil, domain.ErrProductNotFound)

		service := NewCatalogService(mockRepo, time.Second)
		got, err := service.GetProduct(context.Background(), 999)

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, got)
		mockRepo.AssertExpectations(t)
	})

	t.Run("not found is not cached", func(t *testing.T) {
		mockRepo := new(mocks.MockCatalogRepository)
		mockCache := new(mocks.MockCache)
		mockCache.On("Get", mock.Anything, cache.ProductKey(999)).Return(nil, cache.ErrMiss)
		mockRepo.On("FindProduct", mock.Anything, uint64(999)).Return(nil, domain.ErrProductNotFound)

		service := NewCatalogService(mockRepo, time.Second)
		service.SetCache(mockCache, testCacheTTL)
		got, err := service.GetProduct(context.Background(), 999)

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, got)
		mockCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "UnitsStored", mock.Anything, mock.Anything)
	})
}

// mapCache is an in-process cache.Cache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return b, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

// slowCatalogRepo holds a single product whose first FindProduct call blocks
// after reading the row until release is closed.
type slowCatalogRepo struct {
	mu      sync.Mutex
	product domain.Product
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *slowCatalogRepo) setUnits(units int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.product.UnitsStored = units
}

func (r *slowCatalogRepo) FindProduct(_ context.Context, id uint64) (*domain.Product, error) {
	r.mu.Lock()
	if id != r.product.ID {
		r.mu.Unlock()
		return nil, domain.ErrProductNotFound
	}
	p := r.product
	r.mu.Unlock()

	r.once.Do(func() { close(r.read) })
	<-r.release
	return &p, nil
}

func (r *slowCatalogRepo) UnitsStored(_ context.Context, id uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != r.product.ID {
		return 0, domain.ErrProductNotFound
	}
	return r.product.UnitsStored, nil
}

func (r *slowCatalogRepo) ListCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{}, nil
}

func (r *slowCatalogRepo) ListProducts(context.Context, string) ([]domain.Product, error) {
	return []domain.Product{}, nil
}

func (r *slowCatalogRepo) CreateCategories(context.Context, []domain.Category) error { return nil }

func (r *slowCatalogRepo) CreateProducts(context.Context, []domain.Product) error { return nil }

func TestCatalogService_GetProduct_FillRacingAnOrder(t *testing.T) {
	repo := &slowCatalogRepo{
		product: *testProduct(),
		read:    make(chan struct{}),
		release: make(chan struct{}),
	}
	productCache := newMapCache()
	service := NewCatalogService(repo, time.Second)
	service.SetCache(productCache, testCacheTTL)

	var (
		first    *domain.Product
		firstErr error
		done     = make(chan struct{})
	)
	go func() {
		defer close(done)
		first, firstErr = service.GetProduct(context.Background(), 42)
	}()

	// The fill has read the row with 5 units; an order for 3 commits and
	// drops the key before the fill writes it.
	<-repo.read
	repo.setUnits(2)
	require.NoError(t, productCache.Del(context.Background(), cache.ProductKey(42)))
	close(repo.release)
	<-done

	require.NoError(t, firstErr)
	assert.Equal(t, int64(2), first.UnitsStored)

	again, err := service.GetProduct(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.UnitsStored)
	assert.Equal(t, "Chess set", again.Name)
}

func TestCatalogService_GetProduct_SharesConcurrentLoads(t *testing.T) {
	product := testProduct()
	release := make(chan struct{})

	mockRepo := new(mocks.MockCatalogRepository)
	mockRepo.On("FindProduct", mock.Anything, product.ID).Return(product, nil).Run(func(mock.Arguments) {
		<-release
	})
	mockRepo.On("UnitsStored", mock.Anything, product.ID).Return(product.UnitsStored, nil)
	mockCache := new(mocks.MockCache)
	mockCache.On("Get", mock.Anything, mock.Anything).Return(nil, cache.ErrMiss)
	mockCache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	service := NewCatalogService(mockRepo, time.Second)
	service.SetCache(mockCache, testCacheTTL)

	const callers = 5
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := service.GetProduct(context.Background(), product.ID)
			assert.NoError(t, err)
			assert.Equal(t, product.ID, got.ID)
			assert.Equal(t, product.UnitsStored, got.UnitsStored)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	calls := 0
	for _, c := range mockRepo.Calls {
		if c.Method == "FindProduct" {
			calls++
		}
	}
	assert.GreaterOrEqual(t, calls, 1)
	assert.Less(t, calls, callers)
}

func TestCatalogService_ListProducts(t *testing.T) {
	products := []domain.Product{*testProduct()}

	mockRepo := new(mocks.MockCatalogRepository)
	mockCache := new(mocks.MockCache)
	mockRepo.On("ListProducts", mock.Anything, "games").Return(products, nil)

	service := NewCatalogService(mockRepo, time.Second)
	service.SetCache(mockCache, testCacheTTL)

	got, err := service.ListProducts(context.Background(), "games")
	require.NoError(t, err)
	assert.Equal(t, products, got)
	mockCache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestCatalogService_UnitsStored(t *testing.T) {
	tests := []struct {
		name          string
		id            uint64
		units         int64
		repoErr       error
		expectedError error
	}{
		{name: "in stock", id: 42, units: 5},
		{name: "sold out", id: 43, units: 0},
		{name: "unknown product", id: 999, repoErr: domain.ErrProductNotFound, expectedError: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.MockCatalogRepository)
			mockCache := new(mocks.MockCache)
			mockRepo.On("UnitsStored", mock.Anything, tt.id).Return(tt.units, tt.repoErr)

			service := NewCatalogService(mockRepo, time.Second)
			service.SetCache(mockCache, testCacheTTL)

			units, err := service.UnitsStored(context.Background(), tt.id)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.units, units)
			}
			mockCache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		})
	}
}

func TestCatalogService_WarmupCategories(t *testing.T) {
	encoded, err := json.Marshal(testCategories)
	require.NoError(t, err)

	t.Run("fills the cache", func(t *testing.T) {
		mockRepo := new(mocks.MockCatalogRepository)
		mockCache := new(mocks.MockCache)
		mockRepo.On("ListCategories", mock.Anything).Return(testCategories, nil)
		mockCache.On("Set", mock.Anything, cache.KeyCategories, encoded, testCacheTTL).Return(nil)

		service := NewCatalogService(mockRepo, time.Second)
		service.SetCache(mockCache, testCacheTTL)

		assert.NoError(t, service.WarmupCategories(context.Background()))
		mockRepo.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("no cache is a no-op", func(t *testing.T) {
		mockRepo := new(mocks.MockCatalogRepository)

		service := NewCatalogService(mockRepo, time.Second)

		assert.NoError(t, service.WarmupCategories(context.Background()))
		mockRepo.AssertNotCalled(t, "ListCategories", mock.Anything)
	})
}
