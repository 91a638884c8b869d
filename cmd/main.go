package main

import (
  "context"
  "fmt"
  "os"
  "os/signal"
  "syscall"

  "github.com/joho/godotenv"

  "github.com/nylinary/openlines-tg/internal/app"
  "github.com/nylinary/openlines-tg/internal/db"
  "github.com/nylinary/openlines-tg/internal/logger"
  "github.com/nylinary/openlines-tg/internal/repos"
  "github.com/nylinary/openlines-tg/internal/services"
  "github.com/nylinary/openlines-tg/internal/tilda"
)

func main() {
  // .env is optional; containers set real env vars.
  _ = godotenv.Load()

  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  cfg := app.LoadConfig(log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  productRepo := repos.NewProductRepo(thePG, log)
  scrapeMetaRepo := repos.NewScrapeMetaRepo(thePG, log)

  // Upstream source adapter
  source := tilda.NewClient(log, tilda.ClientOptions{
    BaseURL:      cfg.CatalogBaseURL,
    StoreAPIURL:  cfg.TildaStoreAPI,
    Timeout:      cfg.HTTPTimeout,
    Retries:      cfg.HTTPRetries,
    RetryBackoff: cfg.RetryBackoff,
  })

  // Services
  log.Info("Setting up Services from main...")
  catalogService := services.NewCatalogService(log, productRepo, scrapeMetaRepo, source, services.CatalogOptions{
    BaseURL:       cfg.CatalogBaseURL,
    CategoryDelay: cfg.CategoryDelay,
    CallDelay:     cfg.CallDelay,
  })
  schedulerService := services.NewSchedulerService(log, catalogService, services.SchedulerOptions{
    FullScrapeInterval:   cfg.FullScrapeInterval,
    PriceRefreshInterval: cfg.PriceRefreshInterval,
  })

  ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
  defer stop()

  // Cold start from persistence, then hand the catalog to the scheduler —
  // the single writer for the whole process lifetime.
  if catalogService.LoadFromDB(ctx) {
    log.Info("Catalog ready", "products", len(catalogService.Products()))
  } else {
    log.Info("Catalog starts empty, scheduler will run the first scrape")
  }
  schedulerService.Start(ctx)

  <-ctx.Done()
  log.Info("Shutdown signal received")
}
