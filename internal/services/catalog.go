package services

import (
  "context"
  "fmt"
  "sort"
  "strconv"
  "strings"
  "sync"
  "time"

  "github.com/google/uuid"

  "github.com/nylinary/openlines-tg/internal/logger"
  "github.com/nylinary/openlines-tg/internal/repos"
  "github.com/nylinary/openlines-tg/internal/search"
  "github.com/nylinary/openlines-tg/internal/tilda"
  "github.com/nylinary/openlines-tg/internal/types"
)

// SyncResult reports a lifecycle run. Persisted=false means the new state is
// live in memory but the database write failed — the catalog keeps serving
// rather than rolling back (availability over consistency, never silent:
// callers can alert on it).
type SyncResult struct {
  Count     int
  Persisted bool
}

type CatalogService interface {
  // LoadFromDB cold-starts the catalog from persistence. Returns true when
  // at least one product was loaded (and the index rebuilt).
  LoadFromDB(ctx context.Context) bool

  // FullScrape replaces the whole catalog from the upstream store.
  FullScrape(ctx context.Context) (SyncResult, error)

  // RefreshPrices re-fetches the store and patches price/priceold/quantity
  // on known products; unknown products are appended. Degrades to a full
  // scrape when the catalog is empty.
  RefreshPrices(ctx context.Context) (SyncResult, error)

  Search(query string, limit int) []types.Product
  GetByCategory(category string, limit int) []types.Product
  GetAvailable(limit int) []types.Product
  BuildCatalogSummary() string
  FormatProductShort(p types.Product) string

  Products() []types.Product
  LastFullScrape() time.Time
  LastPriceRefresh() time.Time
}

type CatalogOptions struct {
  // BaseURL makes relative product URLs absolute in chat formatting.
  BaseURL       string
  CategoryDelay time.Duration
  CallDelay     time.Duration
}

// indexedProduct keeps the product and its stemmed index entry in one record
// so list and index cannot diverge.
type indexedProduct struct {
  product types.Product
  entry   search.Entry
}

// catalogSnapshot is the immutable unit readers see. Lifecycle operations
// build a complete replacement and swap it in as one reference update, so a
// query observes either the full before or the full after state.
type catalogSnapshot struct {
  items            []indexedProduct
  lastFullScrape   float64
  lastPriceRefresh float64
}

type catalogService struct {
  log *logger.Logger

  productRepo repos.ProductRepo
  metaRepo    repos.ScrapeMetaRepo
  source      tilda.Source

  baseURL       string
  categoryDelay time.Duration
  callDelay     time.Duration

  mu   sync.RWMutex
  snap *catalogSnapshot
}

func NewCatalogService(
  baseLog *logger.Logger,
  productRepo repos.ProductRepo,
  metaRepo repos.ScrapeMetaRepo,
  source tilda.Source,
  opts CatalogOptions,
) CatalogService {
  if opts.CategoryDelay <= 0 {
    opts.CategoryDelay = 2 * time.Second
  }
  if opts.CallDelay <= 0 {
    opts.CallDelay = 1 * time.Second
  }
  if opts.BaseURL == "" {
    opts.BaseURL = "https://myryba.ru"
  }
  return &catalogService{
    log:           baseLog.With("service", "CatalogService"),
    productRepo:   productRepo,
    metaRepo:      metaRepo,
    source:        source,
    baseURL:       opts.BaseURL,
    categoryDelay: opts.CategoryDelay,
    callDelay:     opts.CallDelay,
    snap:          &catalogSnapshot{},
  }
}

func (s *catalogService) snapshot() *catalogSnapshot {
  s.mu.RLock()
  defer s.mu.RUnlock()
  return s.snap
}

func (s *catalogService) install(snap *catalogSnapshot) {
  s.mu.Lock()
  s.snap = snap
  s.mu.Unlock()
}

func buildItems(products []types.Product) []indexedProduct {
  items := make([]indexedProduct, 0, len(products))
  for _, p := range products {
    items = append(items, indexedProduct{product: p, entry: search.BuildEntry(p)})
  }
  return items
}

// --- Lifecycle ---

func (s *catalogService) LoadFromDB(ctx context.Context) bool {
  products, err := s.productRepo.LoadAll(ctx, nil)
  if err != nil {
    s.log.Warn("Catalog load from DB failed", "error", err)
    return false
  }
  meta, err := s.metaRepo.Get(ctx, nil)
  if err != nil {
    s.log.Warn("Scrape meta load failed", "error", err)
  }
  if len(products) == 0 {
    s.log.Info("Catalog DB is empty")
    return false
  }

  s.install(&catalogSnapshot{
    items:            buildItems(products),
    lastFullScrape:   meta.LastFullScrape,
    lastPriceRefresh: meta.LastPriceRefresh,
  })
  s.log.Info("Catalog loaded from DB", "count", len(products))
  return true
}

func (s *catalogService) FullScrape(ctx context.Context) (SyncResult, error) {
  runLog := s.log.With("run_id", uuid.NewString(), "op", "full_scrape")

  var all []types.Product
  seen := map[string]bool{}

  for _, slug := range tilda.CategorySlugs {
    if err := ctx.Err(); err != nil {
      return SyncResult{}, err
    }
    runLog.Info("Scraping category", "slug", slug)

    pairs, err := s.source.DiscoverPairs(ctx, slug)
    if err != nil {
      runLog.Warn("Category discovery failed", "slug", slug, "error", err)
      s.sleep(ctx, s.categoryDelay)
      continue
    }
    if len(pairs) == 0 {
      runLog.Warn("No store ids found on category page", "slug", slug)
      s.sleep(ctx, s.categoryDelay)
      continue
    }

    categoryCount := 0
    for _, pair := range pairs {
      if err := ctx.Err(); err != nil {
        return SyncResult{}, err
      }
      raws, err := s.source.FetchProducts(ctx, pair)
      if err != nil {
        runLog.Warn("Products fetch failed", "slug", slug, "storepart", pair.StorePartUID, "error", err)
      }
      for _, raw := range raws {
        p := tilda.Normalize(raw, slug)
        // First occurrence wins across all pairs and categories.
        if p.UID != "" {
          if seen[p.UID] {
            continue
          }
          seen[p.UID] = true
        }
        all = append(all, p)
        categoryCount++
      }
      s.sleep(ctx, s.callDelay)
    }

    runLog.Info("Category scraped", "slug", slug, "count", categoryCount)
    s.sleep(ctx, s.categoryDelay)
  }

  now := unixSeconds(time.Now())
  s.install(&catalogSnapshot{
    items:            buildItems(all),
    lastFullScrape:   now,
    lastPriceRefresh: now,
  })

  persisted := s.persistFull(ctx, all, now)
  runLog.Info("Full scrape complete", "total_products", len(all), "persisted", persisted)
  return SyncResult{Count: len(all), Persisted: persisted}, nil
}

func (s *catalogService) RefreshPrices(ctx context.Context) (SyncResult, error) {
  prev := s.snapshot()
  if len(prev.items) == 0 {
    return s.FullScrape(ctx)
  }

  runLog := s.log.With("run_id", uuid.NewString(), "op", "refresh_prices")

  products := make([]types.Product, len(prev.items))
  for i, it := range prev.items {
    products[i] = it.product
  }
  byUID := map[string]int{}
  for i, p := range products {
    if p.UID != "" {
      byUID[p.UID] = i
    }
  }

  updated := 0
  for _, slug := range tilda.CategorySlugs {
    if err := ctx.Err(); err != nil {
      return SyncResult{}, err
    }
    pairs, err := s.source.DiscoverPairs(ctx, slug)
    if err != nil {
      runLog.Warn("Category discovery failed", "slug", slug, "error", err)
      s.sleep(ctx, s.categoryDelay)
      continue
    }
    for _, pair := range pairs {
      if err := ctx.Err(); err != nil {
        return SyncResult{}, err
      }
      raws, err := s.source.FetchProducts(ctx, pair)
      if err != nil {
        runLog.Warn("Products fetch failed", "slug", slug, "storepart", pair.StorePartUID, "error", err)
      }
      for _, raw := range raws {
        uid := tilda.AsString(raw["uid"])
        if i, ok := byUID[uid]; ok {
          if v, ok := raw["price"]; ok {
            products[i].Price = tilda.AsString(v)
          }
          if v, ok := raw["priceold"]; ok {
            products[i].PriceOld = tilda.AsString(v)
          }
          if v, ok := raw["quantity"]; ok {
            products[i].Quantity = tilda.AsString(v)
          }
          updated++
        } else {
          // New product appeared between full scrapes — append it.
          products = append(products, tilda.Normalize(raw, slug))
          byUID[uid] = len(products) - 1
          updated++
        }
      }
      s.sleep(ctx, s.callDelay)
    }
    s.sleep(ctx, s.categoryDelay)
  }

  now := unixSeconds(time.Now())
  s.install(&catalogSnapshot{
    items:            buildItems(products),
    lastFullScrape:   prev.lastFullScrape,
    lastPriceRefresh: now,
  })

  persisted := s.persistPrices(ctx, products, now)
  runLog.Info("Price refresh complete", "updated", updated, "persisted", persisted)
  return SyncResult{Count: updated, Persisted: persisted}, nil
}

// persistFull mirrors the catalog to Postgres after a full scrape. A failure
// leaves the in-memory state live and unpersisted; no retry, no rollback.
func (s *catalogService) persistFull(ctx context.Context, products []types.Product, now float64) bool {
  if _, err := s.productRepo.ReplaceAll(ctx, nil, products); err != nil {
    s.log.Warn("Catalog DB save failed, serving unpersisted state", "error", err)
    return false
  }
  if err := s.metaRepo.Set(ctx, nil, &now, &now); err != nil {
    s.log.Warn("Scrape meta save failed", "error", err)
    return false
  }
  return true
}

func (s *catalogService) persistPrices(ctx context.Context, products []types.Product, now float64) bool {
  if _, err := s.productRepo.Upsert(ctx, nil, products); err != nil {
    s.log.Warn("Catalog price save failed, serving unpersisted state", "error", err)
    return false
  }
  if err := s.metaRepo.Set(ctx, nil, nil, &now); err != nil {
    s.log.Warn("Scrape meta save failed", "error", err)
    return false
  }
  return true
}

func (s *catalogService) sleep(ctx context.Context, d time.Duration) {
  if d <= 0 {
    return
  }
  timer := time.NewTimer(d)
  defer timer.Stop()
  select {
  case <-ctx.Done():
  case <-timer.C:
  }
}

func unixSeconds(t time.Time) float64 {
  return float64(t.UnixNano()) / 1e9
}

func timeFromUnixSeconds(ts float64) time.Time {
  if ts <= 0 {
    return time.Time{}
  }
  sec := int64(ts)
  nsec := int64((ts - float64(sec)) * 1e9)
  return time.Unix(sec, nsec)
}

// --- Queries ---

// Search runs the two-stage scoring pipeline: stemmed matching against the
// index (title hit 3 pts, other fields 1 pt), then a substring fallback on
// the raw normalized text for products the stems missed (SKU fragments,
// words the stemmer mishandles). Ties keep catalog order.
func (s *catalogService) Search(query string, limit int) []types.Product {
  if strings.TrimSpace(query) == "" {
    return []types.Product{}
  }

  snap := s.snapshot()
  queryTerms := strings.Fields(search.Normalize(query))
  stemTerms := search.StemText(query)

  type scored struct {
    score int
    index int
  }
  var results []scored

  for i, it := range snap.items {
    score := 0

    for _, st := range stemTerms {
      if search.StemMatch(st, it.entry.TitleStems) {
        score += 3
      } else if search.StemMatch(st, it.entry.OtherStems) {
        score += 1
      }
    }

    if score == 0 {
      title := search.Normalize(it.product.Title)
      other := search.Normalize(search.OtherText(it.product))
      for _, t := range queryTerms {
        if strings.Contains(title, t) {
          score += 3
        } else if strings.Contains(other, t) {
          score += 1
        }
      }
    }

    if score > 0 {
      results = append(results, scored{score: score, index: i})
    }
  }

  // Stable: equal scores keep the order products occupy in the catalog.
  sort.SliceStable(results, func(a, b int) bool {
    return results[a].score > results[b].score
  })

  if limit > 0 && len(results) > limit {
    results = results[:limit]
  }
  out := make([]types.Product, 0, len(results))
  for _, r := range results {
    out = append(out, snap.items[r.index].product)
  }
  return out
}

func (s *catalogService) GetByCategory(category string, limit int) []types.Product {
  snap := s.snapshot()
  var out []types.Product
  for _, it := range snap.items {
    if it.product.Category != category {
      continue
    }
    out = append(out, it.product)
    if limit > 0 && len(out) >= limit {
      break
    }
  }
  return out
}

func (s *catalogService) GetAvailable(limit int) []types.Product {
  snap := s.snapshot()
  var out []types.Product
  for _, it := range snap.items {
    if it.product.Quantity == "0" {
      continue
    }
    out = append(out, it.product)
    if limit > 0 && len(out) >= limit {
      break
    }
  }
  return out
}

func (s *catalogService) Products() []types.Product {
  snap := s.snapshot()
  out := make([]types.Product, len(snap.items))
  for i, it := range snap.items {
    out[i] = it.product
  }
  return out
}

func (s *catalogService) LastFullScrape() time.Time {
  return timeFromUnixSeconds(s.snapshot().lastFullScrape)
}

func (s *catalogService) LastPriceRefresh() time.Time {
  return timeFromUnixSeconds(s.snapshot().lastPriceRefresh)
}

// --- Presentation ---

// FormatProductShort renders one product for a plain-text chat reply.
func (s *catalogService) FormatProductShort(p types.Product) string {
  parts := []string{"**" + orDefault(p.Title, "Без названия") + "**"}
  if p.Price != "" {
    priceStr := p.Price + " ₽"
    if p.PriceOld != "" {
      priceStr = "~~" + p.PriceOld + "~~ " + p.Price + " ₽"
    }
    parts = append(parts, priceStr)
  }
  if p.Portion != "" {
    parts = append(parts, p.Portion)
  }
  switch {
  case p.Quantity == "0":
    parts = append(parts, "❌ Нет в наличии")
  case p.Quantity != "" && p.Quantity != "-1":
    parts = append(parts, "В наличии: "+p.Quantity)
  }
  if p.URL != "" {
    u := p.URL
    if !strings.HasPrefix(u, "http") {
      u = s.baseURL + u
    }
    parts = append(parts, u)
  }
  return strings.Join(parts, "\n")
}

// BuildCatalogSummary produces the per-category aggregate (count, in-stock
// count, price range) injected into the LLM system prompt. Per-product
// detail is intentionally excluded to bound prompt size.
func (s *catalogService) BuildCatalogSummary() string {
  snap := s.snapshot()
  if len(snap.items) == 0 {
    return "Каталог товаров пуст."
  }

  var categoryOrder []string
  byCategory := map[string][]types.Product{}
  totalInStock := 0
  for _, it := range snap.items {
    cat := it.product.Category
    if cat == "" {
      cat = "other"
    }
    if _, ok := byCategory[cat]; !ok {
      categoryOrder = append(categoryOrder, cat)
    }
    byCategory[cat] = append(byCategory[cat], it.product)
    if it.product.Quantity != "0" {
      totalInStock++
    }
  }

  lines := []string{fmt.Sprintf(
    "Всего %d товаров (%d в наличии), %d категорий:",
    len(snap.items), totalInStock, len(byCategory),
  )}

  for _, cat := range categoryOrder {
    prods := byCategory[cat]
    inStock := 0
    var prices []float64
    for _, p := range prods {
      if p.Quantity != "0" {
        inStock++
      }
      if v, err := strconv.ParseFloat(strings.ReplaceAll(p.Price, ",", "."), 64); err == nil {
        prices = append(prices, v)
      }
    }

    priceRange := ""
    if len(prices) > 0 {
      lo, hi := prices[0], prices[0]
      for _, v := range prices[1:] {
        if v < lo {
          lo = v
        }
        if v > hi {
          hi = v
        }
      }
      if lo != hi {
        priceRange = fmt.Sprintf(", %.0f–%.0f₽", lo, hi)
      } else {
        priceRange = fmt.Sprintf(", %.0f₽", lo)
      }
    }

    lines = append(lines, fmt.Sprintf("- %s: %d шт (%d в наличии%s)", cat, len(prods), inStock, priceRange))
  }

  return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
  if s == "" {
    return def
  }
  return s
}
