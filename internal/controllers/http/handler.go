package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shop-service/internal/auth"
	"shop-service/internal/domain"
)

type Catalog interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id uint64) (*domain.Product, error)
	UnitsStored(ctx context.Context, id uint64) (int64, error)
}

type Orders interface {
	PlaceOrder(ctx context.Context, customerID uint64, items []domain.OrderItem) (uint64, error)
	MyOrders(ctx context.Context, customerID uint64) ([]domain.OrderHistoryLine, error)
}

type Accounts interface {
	Login(ctx context.Context, username, password string) (string, error)
	Profile(ctx context.Context, username string) (*domain.User, error)
}

type Registry interface {
	RegisterUser(ctx context.Context, reg domain.Registration) error
	AddCategories(ctx context.Context, categories []domain.Category) error
	AddProducts(ctx context.Context, products []domain.Product) error
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

const claimsKey = "claims"

type Handler struct {
	catalog  Catalog
	orders   Orders
	accounts Accounts
	registry Registry
	tokens   TokenVerifier
}

func NewHandler(c Catalog, o Orders, a Accounts, r Registry, t TokenVerifier) *Handler {
	return &Handler{catalog: c, orders: o, accounts: a, registry: r, tokens: t}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/categories", h.ListCategories)
	r.POST("/categories", h.AddCategories)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.POST("/products", h.AddProducts)
	r.POST("/units_stored", h.UnitsStored)
	r.POST("/login", h.Login)
	r.POST("/personal", h.Register)

	authed := r.Group("/", h.RequireBearer)
	authed.GET("/personal", h.Personal)
	authed.POST("/order", h.PlaceOrder)
	authed.GET("/myorders", h.MyOrders)
}

// RequireBearer verifies the bearer token and stores its claims on the
// context. The token itself is never logged.
func (h *Handler) RequireBearer(c *gin.Context) {
	token, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err == nil {
		var claims *auth.Claims
		if claims, err = h.tokens.Verify(token); err == nil {
			c.Set(claimsKey, claims)
			c.Next()
			return
		}
	}
	c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "access forbidden"})
}

func claimsOf(c *gin.Context) *auth.Claims {
	return c.MustGet(claimsKey).(*auth.Claims)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, domain.ErrProductNotFound)
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) UnitsStored(c *gin.Context) {
	var req UnitsStoredRequest
	if err := c.ShouldBind(&req); err != nil {
		writeBindError(c, err)
		return
	}

	units, err := h.catalog.UnitsStored(c.Request.Context(), *req.ProductID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, UnitsStoredResponse{UnitsStored: units})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		writeBindError(c, err)
		return
	}

	token, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.registry.RegisterUser(c.Request.Context(), req.toDomain()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) Personal(c *gin.Context) {
	user, err := h.accounts.Profile(c.Request.Context(), claimsOf(c).Username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PersonalResponse{
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Username:    user.Username,
		Permissions: user.Permissions,
	})
}

// PlaceOrder answers every failure after authentication with 500 and a kind
// the client can branch on.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeOrderError(c, domain.InvalidInputf("%v", err))
		return
	}

	orderID, err := h.orders.PlaceOrder(c.Request.Context(), claimsOf(c).UserID, req.items())
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderResponse{OrderID: orderID})
}

func (h *Handler) MyOrders(c *gin.Context) {
	lines, err := h.orders.MyOrders(c.Request.Context(), claimsOf(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

func (h *Handler) AddCategories(c *gin.Context) {
	var req []CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.registry.AddCategories(c.Request.Context(), categoriesFromRequest(req)); err != nil {
		writeError(c, err)
		return
	}
	c.String(http.StatusOK, "Categories added!")
}

func (h *Handler) AddProducts(c *gin.Context) {
	var req []ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.registry.AddProducts(c.Request.Context(), productsFromRequest(req)); err != nil {
		writeError(c, err)
		return
	}
	c.String(http.StatusOK, "Products added!")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// message hides store details from clients.
func message(c *gin.Context, err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		return "internal server error"
	}
	return err.Error()
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), ErrorResponse{Error: message(c, err)})
}

func writeBindError(c *gin.Context, err error) {
	writeError(c, domain.InvalidInputf("%v", err))
}

func writeOrderError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: message(c, err), Kind: domain.Kind(err)}
	var stockErr *domain.StockError
	if errors.As(err, &stockErr) {
		resp.ProductID = stockErr.ProductID
	}
	c.JSON(http.StatusInternalServerError, resp)
}
