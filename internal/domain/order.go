package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the header row of a placed order. It is written exactly once, in
// the same transaction as its lines.
type Order struct {
	ID         uint64      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderDate  time.Time   `json:"orderDate" gorm:"column:order_date;not null"`
	CustomerID uint64      `json:"customerId" gorm:"column:customer_id;not null;index"`
	Customer   *User       `json:"-" gorm:"foreignKey:CustomerID;references:ID"`
	Lines      []OrderLine `json:"-" gorm:"foreignKey:OrderID;references:ID"`
}

func (o *Order) TableName() string {
	return "customer_order"
}

type OrderLine struct {
	ID        uint64   `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uint64   `json:"orderId" gorm:"column:order_id;not null;index"`
	ProductID uint64   `json:"productId" gorm:"column:product_id;not null;index"`
	Quantity  int64    `json:"quantity" gorm:"not null;check:chk_order_line_quantity,quantity > 0"`
	Product   *Product `json:"-" gorm:"foreignKey:ProductID;references:ID"`
}

func (l *OrderLine) TableName() string {
	return "order_line"
}

// OrderItem is one requested (product, quantity) pair of an order request.
type OrderItem struct {
	ProductID uint64
	Quantity  int64
}

// OrderHistoryLine is an order line joined with its order header and product.
type OrderHistoryLine struct {
	OrderID     uint64          `json:"orderId" gorm:"column:order_id"`
	ProductID   uint64          `json:"productId" gorm:"column:product_id"`
	OrderDate   time.Time       `json:"orderDate" gorm:"column:order_date"`
	ProductName string          `json:"productName" gorm:"column:product_name"`
	Price       decimal.Decimal `json:"price" gorm:"column:price"`
	ImageURL    string          `json:"imageUrl" gorm:"column:image_url"`
	Category    string          `json:"category" gorm:"column:category"`
	Quantity    int64           `json:"quantity" gorm:"column:quantity"`
}
