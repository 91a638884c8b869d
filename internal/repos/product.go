package repos

import (
  "context"
  "strings"

  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/nylinary/openlines-tg/internal/logger"
  "github.com/nylinary/openlines-tg/internal/types"
)

// Insert batch size for ReplaceAll/Upsert. Keeps individual statements small
// and surfaces per-batch errors instead of one giant multi-row insert.
const productBatchSize = 50

type ProductRepo interface {
  ReplaceAll(ctx context.Context, tx *gorm.DB, products []types.Product) (int, error)
  Upsert(ctx context.Context, tx *gorm.DB, products []types.Product) (int, error)
  LoadAll(ctx context.Context, tx *gorm.DB) ([]types.Product, error)
  UpdatePrices(ctx context.Context, tx *gorm.DB, updates []types.PriceUpdate) (int, error)
  SearchFTS(ctx context.Context, tx *gorm.DB, query string, limit int) ([]types.Product, error)
}

type productRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
  repoLog := baseLog.With("repo", "ProductRepo")
  return &productRepo{db: db, log: repoLog}
}

// ReplaceAll swaps the whole products table: delete everything, then
// bulk-insert in batches inside one transaction.
func (r *productRepo) ReplaceAll(ctx context.Context, tx *gorm.DB, products []types.Product) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(products) == 0 {
    return 0, nil
  }

  err := transaction.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
    if err := txn.Exec(`DELETE FROM products`).Error; err != nil {
      return err
    }
    return txn.CreateInBatches(&products, productBatchSize).Error
  })
  if err != nil {
    return 0, err
  }

  r.log.Info("Products replaced", "count", len(products))
  return len(products), nil
}

// Upsert inserts or updates products by uid.
func (r *productRepo) Upsert(ctx context.Context, tx *gorm.DB, products []types.Product) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(products) == 0 {
    return 0, nil
  }

  err := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns: []clause.Column{{Name: "uid"}},
      DoUpdates: clause.AssignmentColumns([]string{
        "title", "sku", "text", "descr", "price", "priceold", "quantity",
        "portion", "unit", "mark", "url", "editions", "characteristics",
        "category", "updated_at",
      }),
    }).
    CreateInBatches(&products, productBatchSize).Error
  if err != nil {
    return 0, err
  }

  r.log.Info("Products upserted", "count", len(products))
  return len(products), nil
}

func (r *productRepo) LoadAll(ctx context.Context, tx *gorm.DB) ([]types.Product, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []types.Product
  if err := transaction.WithContext(ctx).
    Order("category, title").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// UpdatePrices patches price/priceold/quantity per uid. Empty fields in an
// update are left as-is.
func (r *productRepo) UpdatePrices(ctx context.Context, tx *gorm.DB, updates []types.PriceUpdate) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(updates) == 0 {
    return 0, nil
  }

  count := 0
  err := transaction.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
    for _, u := range updates {
      if u.UID == "" {
        continue
      }
      values := map[string]interface{}{}
      if u.Price != "" {
        values["price"] = u.Price
      }
      if u.PriceOld != "" {
        values["priceold"] = u.PriceOld
      }
      if u.Quantity != "" {
        values["quantity"] = u.Quantity
      }
      if len(values) == 0 {
        continue
      }
      if err := txn.Model(&types.Product{}).
        Where("uid = ?", u.UID).
        Updates(values).Error; err != nil {
        return err
      }
      count++
    }
    return nil
  })
  if err != nil {
    return 0, err
  }

  r.log.Info("Prices updated", "count", count)
  return count, nil
}

// SearchFTS queries the trigger-maintained tsvector column with a Russian
// prefix tsquery. This is the database-side search path; the in-process
// stemmed scorer in internal/search is the one serving chat traffic.
func (r *productRepo) SearchFTS(ctx context.Context, tx *gorm.DB, query string, limit int) ([]types.Product, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  terms := ftsTerms(query)
  if terms == "" {
    return []types.Product{}, nil
  }

  var results []types.Product
  if err := transaction.WithContext(ctx).
    Raw(`SELECT * FROM products
         WHERE fts @@ to_tsquery('russian', ?)
         ORDER BY ts_rank_cd(fts, to_tsquery('russian', ?), 32) DESC
         LIMIT ?`, terms, terms, limit).
    Scan(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// ftsTerms turns free text into a prefix-matching tsquery: every word gets a
// :* suffix and words are AND-ed together.
func ftsTerms(query string) string {
  normalized := strings.ReplaceAll(strings.ToLower(query), "ё", "е")
  words := strings.Fields(normalized)
  terms := make([]string, 0, len(words))
  for _, w := range words {
    terms = append(terms, w+":*")
  }
  return strings.Join(terms, " & ")
}
