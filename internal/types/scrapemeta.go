package types

// ScrapeMeta is a single-row table (id = 1 enforced by a CHECK constraint)
// holding catalog staleness timestamps as Unix seconds.
type ScrapeMeta struct {
	ID               int     `gorm:"column:id;primaryKey;default:1;check:scrape_meta_single_row,id = 1" json:"id"`
	LastFullScrape   float64 `gorm:"column:last_full_scrape;not null;default:0" json:"last_full_scrape"`
	LastPriceRefresh float64 `gorm:"column:last_price_refresh;not null;default:0" json:"last_price_refresh"`
}

func (ScrapeMeta) TableName() string { return "scrape_meta" }
