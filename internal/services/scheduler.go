package services

import (
  "context"
  "time"

  "github.com/nylinary/openlines-tg/internal/logger"
)

// SchedulerService drives the catalog lifecycle periodically. It is the
// single writer: one goroutine, so scrape and refresh runs can never
// overlap.
type SchedulerService interface {
  Start(ctx context.Context)
}

type SchedulerOptions struct {
  FullScrapeInterval   time.Duration
  PriceRefreshInterval time.Duration
}

type schedulerService struct {
  log     *logger.Logger
  catalog CatalogService

  fullInterval  time.Duration
  priceInterval time.Duration
}

func NewSchedulerService(baseLog *logger.Logger, catalog CatalogService, opts SchedulerOptions) SchedulerService {
  if opts.FullScrapeInterval <= 0 {
    opts.FullScrapeInterval = 24 * time.Hour
  }
  if opts.PriceRefreshInterval <= 0 {
    opts.PriceRefreshInterval = time.Hour
  }
  return &schedulerService{
    log:           baseLog.With("service", "SchedulerService"),
    catalog:       catalog,
    fullInterval:  opts.FullScrapeInterval,
    priceInterval: opts.PriceRefreshInterval,
  }
}

func (s *schedulerService) Start(ctx context.Context) {
  go func() {
    // Bootstrap: an empty catalog (no DB state, first run) is scraped
    // immediately instead of waiting out the first interval.
    if len(s.catalog.Products()) == 0 {
      s.log.Info("Catalog empty, running initial full scrape")
      if res, err := s.catalog.FullScrape(ctx); err != nil {
        s.log.Warn("Initial full scrape aborted", "error", err)
      } else {
        s.log.Info("Initial full scrape done", "count", res.Count, "persisted", res.Persisted)
      }
    }

    ticker := time.NewTicker(time.Minute)
    defer ticker.Stop()

    for {
      select {
      case <-ctx.Done():
        s.log.Info("Scheduler stopped")
        return
      case <-ticker.C:
        s.tick(ctx)
      }
    }
  }()
}

func (s *schedulerService) tick(ctx context.Context) {
  now := time.Now()
  switch {
  case now.Sub(s.catalog.LastFullScrape()) >= s.fullInterval:
    s.log.Info("Full scrape due")
    if res, err := s.catalog.FullScrape(ctx); err != nil {
      s.log.Warn("Full scrape aborted", "error", err)
    } else {
      s.log.Info("Full scrape done", "count", res.Count, "persisted", res.Persisted)
    }
  case now.Sub(s.catalog.LastPriceRefresh()) >= s.priceInterval:
    s.log.Info("Price refresh due")
    if res, err := s.catalog.RefreshPrices(ctx); err != nil {
      s.log.Warn("Price refresh aborted", "error", err)
    } else {
      s.log.Info("Price refresh done", "updated", res.Count, "persisted", res.Persisted)
    }
  }
}
