package types

import (
	"time"

	"gorm.io/datatypes"
)

// Edition is a variant sub-record of a product (pack size, weight option).
type Edition struct {
	UID      string `json:"uid"`
	Price    string `json:"price"`
	PriceOld string `json:"priceold"`
	SKU      string `json:"sku"`
	Text     string `json:"text"`
	Quantity string `json:"quantity"`
}

// Characteristic is a free-form {title, value} attribute pair.
type Characteristic struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Product is the canonical catalog record. All display fields stay opaque
// strings because the upstream store mixes numeric and string payloads
// (thousands separators, ints where strings are expected); numeric
// interpretation is left to consumers.
//
// Quantity semantics: "0" means out of stock, "" or "-1" means
// unlimited/unspecified, anything else is a positive count.
type Product struct {
	UID      string `gorm:"column:uid;primaryKey" json:"uid"`
	Title    string `gorm:"column:title;not null;default:''" json:"title"`
	SKU      string `gorm:"column:sku;not null;default:''" json:"sku"`
	Text     string `gorm:"column:text;not null;default:''" json:"text"`
	Descr    string `gorm:"column:descr;not null;default:''" json:"descr"`
	Price    string `gorm:"column:price;not null;default:''" json:"price"`
	PriceOld string `gorm:"column:priceold;not null;default:''" json:"priceold"`
	Quantity string `gorm:"column:quantity;not null;default:''" json:"quantity"`
	Portion  string `gorm:"column:portion;not null;default:''" json:"portion"`
	Unit     string `gorm:"column:unit;not null;default:''" json:"unit"`
	Mark     string `gorm:"column:mark;not null;default:''" json:"mark"`
	URL      string `gorm:"column:url;not null;default:''" json:"url"`

	Editions        datatypes.JSONSlice[Edition]        `gorm:"column:editions;type:jsonb" json:"editions"`
	Characteristics datatypes.JSONSlice[Characteristic] `gorm:"column:characteristics;type:jsonb" json:"characteristics"`

	Category string `gorm:"column:category;not null;default:'';index" json:"category"`

	// The fts tsvector column is maintained by a DB trigger and deliberately
	// not mapped here; see db.PostgresService and ProductRepo.SearchFTS.

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// PriceUpdate is a partial price/stock patch applied by UID. Empty fields
// are left untouched.
type PriceUpdate struct {
	UID      string
	Price    string
	PriceOld string
	Quantity string
}
