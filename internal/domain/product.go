package domain

import "github.com/shopspring/decimal"

// Product is a sellable catalog item. UnitsStored never drops below zero;
// the column carries a CHECK constraint and every decrement is conditional.
type Product struct {
	ID          uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string          `json:"productName" gorm:"column:product_name;size:255;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	UnitsStored int64           `json:"unitsStored" gorm:"column:units_stored;not null;default:0;check:chk_product_units_stored,units_stored >= 0"`
	Description string          `json:"productDescription" gorm:"column:product_description;type:text"`
	ImageURL    string          `json:"imageUrl" gorm:"column:image_url;size:255"`
	Category    string          `json:"category" gorm:"column:category;size:255;not null;index"`
	CategoryRef *Category       `json:"-" gorm:"foreignKey:Category;references:Name"`
}

func (p *Product) TableName() string {
	return "product"
}

// Category groups products. It is identified by its name.
type Category struct {
	Name        string `json:"categoryName" gorm:"column:category_name;primaryKey;size:255"`
	Description string `json:"categoryDescription" gorm:"column:category_description;type:text"`
	ImageURL    string `json:"imageUrl" gorm:"column:image_url;size:255"`
}

func (c *Category) TableName() string {
	return "product_category"
}
