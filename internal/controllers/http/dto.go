package http

import (
	"github.com/shopspring/decimal"

	"shop-service/internal/domain"
)

type UnitsStoredRequest struct {
	ProductID *uint64 `json:"productId" form:"productId" binding:"required"`
}

type UnitsStoredResponse struct {
	UnitsStored int64 `json:"units_stored"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"pw" form:"pw" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"jwtToken"`
}

type RegisterRequest struct {
	FirstName string `json:"fname" form:"fname" binding:"required"`
	LastName  string `json:"lname" form:"lname" binding:"required"`
	Username  string `json:"username" form:"username" binding:"required"`
	Password  string `json:"pw" form:"pw" binding:"required"`
}

func (r RegisterRequest) toDomain() domain.Registration {
	return domain.Registration{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Username:  r.Username,
		Password:  r.Password,
	}
}

type PersonalResponse struct {
	FirstName   string `json:"fname"`
	LastName    string `json:"lname"`
	Username    string `json:"username"`
	Permissions int    `json:"user_permissions"`
}

// OrderRequest carries the lines of a new order. The customer comes from the
// bearer token; a customerId in the body is not read.
type OrderRequest struct {
	Products []OrderLineRequest `json:"products" binding:"required"`
}

type OrderLineRequest struct {
	ID       uint64 `json:"id"`
	Quantity int64  `json:"quantity"`
}

func (r OrderRequest) items() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(r.Products))
	for _, p := range r.Products {
		items = append(items, domain.OrderItem{ProductID: p.ID, Quantity: p.Quantity})
	}
	return items
}

type OrderResponse struct {
	OrderID uint64 `json:"orderId"`
}

type CategoryRequest struct {
	Name        string `json:"categoryName" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// ProductRequest accepts price as a JSON string or number.
type ProductRequest struct {
	Name        string           `json:"productName" binding:"required"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	UnitsStored int64            `json:"unitsStored"`
	Description string           `json:"productDescription"`
	ImageURL    string           `json:"imageUrl"`
	Category    string           `json:"category" binding:"required"`
}

func categoriesFromRequest(reqs []CategoryRequest) []domain.Category {
	out := make([]domain.Category, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, domain.Category{Name: r.Name, Description: r.Description, ImageURL: r.ImageURL})
	}
	return out
}

func productsFromRequest(reqs []ProductRequest) []domain.Product {
	out := make([]domain.Product, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, domain.Product{
			Name:        r.Name,
			Price:       *r.Price,
			UnitsStored: r.UnitsStored,
			Description: r.Description,
			ImageURL:    r.ImageURL,
			Category:    r.Category,
		})
	}
	return out
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	ProductID uint64 `json:"productId,omitempty"`
}
