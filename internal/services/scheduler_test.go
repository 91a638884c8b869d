package services

import (
  "context"
  "testing"
  "time"

  "github.com/nylinary/openlines-tg/internal/types"
)

type fakeCatalog struct {
  products    []types.Product
  fullScrapes chan struct{}
}

func (f *fakeCatalog) LoadFromDB(context.Context) bool { return len(f.products) > 0 }

func (f *fakeCatalog) FullScrape(context.Context) (SyncResult, error) {
  f.fullScrapes <- struct{}{}
  return SyncResult{Count: len(f.products), Persisted: true}, nil
}

func (f *fakeCatalog) RefreshPrices(context.Context) (SyncResult, error) {
  return SyncResult{Persisted: true}, nil
}

func (f *fakeCatalog) Search(string, int) []types.Product          { return nil }
func (f *fakeCatalog) GetByCategory(string, int) []types.Product   { return nil }
func (f *fakeCatalog) GetAvailable(int) []types.Product            { return nil }
func (f *fakeCatalog) BuildCatalogSummary() string                 { return "" }
func (f *fakeCatalog) FormatProductShort(types.Product) string     { return "" }
func (f *fakeCatalog) Products() []types.Product                   { return f.products }
func (f *fakeCatalog) LastFullScrape() time.Time                   { return time.Now() }
func (f *fakeCatalog) LastPriceRefresh() time.Time                 { return time.Now() }

func TestSchedulerBootstrapsEmptyCatalog(t *testing.T) {
  catalog := &fakeCatalog{fullScrapes: make(chan struct{}, 1)}
  s := NewSchedulerService(newTestLogger(t), catalog, SchedulerOptions{})

  ctx, cancel := context.WithCancel(context.Background())
  defer cancel()
  s.Start(ctx)

  select {
  case <-catalog.fullScrapes:
  case <-time.After(2 * time.Second):
    t.Fatalf("scheduler did not run the bootstrap full scrape")
  }
}

func TestSchedulerSkipsBootstrapWhenLoaded(t *testing.T) {
  catalog := &fakeCatalog{
    products:    []types.Product{{UID: "1"}},
    fullScrapes: make(chan struct{}, 1),
  }
  s := NewSchedulerService(newTestLogger(t), catalog, SchedulerOptions{})

  ctx, cancel := context.WithCancel(context.Background())
  defer cancel()
  s.Start(ctx)

  select {
  case <-catalog.fullScrapes:
    t.Fatalf("scheduler must not scrape a freshly loaded catalog")
  case <-time.After(200 * time.Millisecond):
  }
}
