package repos

import (
  "context"

  "gorm.io/gorm"

  "github.com/nylinary/openlines-tg/internal/logger"
  "github.com/nylinary/openlines-tg/internal/types"
)

type ScrapeMetaRepo interface {
  Get(ctx context.Context, tx *gorm.DB) (types.ScrapeMeta, error)
  Set(ctx context.Context, tx *gorm.DB, lastFullScrape, lastPriceRefresh *float64) error
}

type scrapeMetaRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewScrapeMetaRepo(db *gorm.DB, baseLog *logger.Logger) ScrapeMetaRepo {
  repoLog := baseLog.With("repo", "ScrapeMetaRepo")
  return &scrapeMetaRepo{db: db, log: repoLog}
}

func (r *scrapeMetaRepo) Get(ctx context.Context, tx *gorm.DB) (types.ScrapeMeta, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  meta := types.ScrapeMeta{ID: 1}
  if err := transaction.WithContext(ctx).
    Where(`id = 1`).
    FirstOrCreate(&meta).Error; err != nil {
    return types.ScrapeMeta{ID: 1}, err
  }
  return meta, nil
}

// Set updates whichever timestamps are non-nil on the singleton row.
func (r *scrapeMetaRepo) Set(ctx context.Context, tx *gorm.DB, lastFullScrape, lastPriceRefresh *float64) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  values := map[string]interface{}{}
  if lastFullScrape != nil {
    values["last_full_scrape"] = *lastFullScrape
  }
  if lastPriceRefresh != nil {
    values["last_price_refresh"] = *lastPriceRefresh
  }
  if len(values) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Model(&types.ScrapeMeta{}).
    Where(`id = 1`).
    Updates(values).Error
}
