package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"shop-service/internal/domain"
	"shop-service/internal/infra/cache"
	"shop-service/internal/repository"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

// RegistryService writes users, categories and products.
type RegistryService struct {
	catalog repository.CatalogRepository
	users   repository.UserRepository
	hasher  PasswordHasher
	cache   cache.Cache
	timeout time.Duration
}

func NewRegistryService(c repository.CatalogRepository, u repository.UserRepository, h PasswordHasher, timeout time.Duration) *RegistryService {
	return &RegistryService{catalog: c, users: u, hasher: h, timeout: timeout}
}

func (s *RegistryService) SetCache(c cache.Cache) {
	s.cache = c
}

func (s *RegistryService) RegisterUser(ctx context.Context, reg domain.Registration) error {
	if blank(reg.FirstName) || blank(reg.LastName) || blank(reg.Username) || reg.Password == "" {
		return domain.InvalidInputf("fname, lname, username and pw are required")
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()

	user := &domain.User{
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		Username:     strings.TrimSpace(reg.Username),
		PasswordHash: hash,
		Permissions:  domain.PermissionCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}
	log.Printf("User %d registered", user.ID)
	return nil
}

// AddCategories validates every category, then inserts all of them or none.
func (s *RegistryService) AddCategories(ctx context.Context, categories []domain.Category) error {
	seen := make(map[string]bool, len(categories))
	for i := range categories {
		categories[i].Name = strings.TrimSpace(categories[i].Name)
		name := categories[i].Name
		if name == "" {
			return domain.InvalidInputf("category %d: categoryName is required", i+1)
		}
		if seen[name] {
			return domain.InvalidInputf("category %q listed twice", name)
		}
		seen[name] = true
	}
	if len(categories) == 0 {
		return nil
	}

	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()

	if err := s.catalog.CreateCategories(ctx, categories); err != nil {
		return err
	}
	log.Printf("Added %d categories", len(categories))

	if s.cache != nil {
		dctx, dcancel := invalidationContext()
		defer dcancel()
		if err := s.cache.Del(dctx, cache.KeyCategories); err != nil {
			log.Printf("Failed to invalidate category cache: %v", err)
		}
	}
	return nil
}

// AddProducts validates every product, then inserts all of them or none.
func (s *RegistryService) AddProducts(ctx context.Context, products []domain.Product) error {
	for i := range products {
		p := &products[i]
		p.ID = 0
		p.Name = strings.TrimSpace(p.Name)
		p.Category = strings.TrimSpace(p.Category)
		switch {
		case p.Name == "":
			return domain.InvalidInputf("product %d: productName is required", i+1)
		case p.Category == "":
			return domain.InvalidInputf("product %d: category is required", i+1)
		case p.Price.IsNegative():
			return domain.InvalidInputf("product %d: price must not be negative", i+1)
		case p.UnitsStored < 0:
			return domain.InvalidInputf("product %d: unitsStored must not be negative", i+1)
		}
	}
	if len(products) == 0 {
		return nil
	}

	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()

	if err := s.catalog.CreateProducts(ctx, products); err != nil {
		return err
	}
	log.Printf("Added %d products", len(products))
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
