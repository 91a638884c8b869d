package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/nylinary/openlines-tg/internal/logger"
	"github.com/nylinary/openlines-tg/internal/types"
	"github.com/nylinary/openlines-tg/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(logg *logger.Logger) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	dsn := utils.GetEnv("DATABASE_URL", "", logg)
	if dsn == "" {
		postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", logg)
		postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", logg)
		postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", logg)
		postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", logg)
		postgresName := utils.GetEnv("POSTGRES_NAME", "openlines", logg)
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			postgresUser,
			postgresPassword,
			postgresHost,
			postgresPort,
			postgresName,
		)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

// AutoMigrateAll creates the catalog schema: the product and scrape_meta
// tables, the Russian full-text-search column with its maintaining trigger,
// and the seed row for the singleton scrape_meta record.
func (s *PostgresService) AutoMigrateAll() error {
	if err := s.db.AutoMigrate(&types.Product{}, &types.ScrapeMeta{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	statements := []string{
		`ALTER TABLE products ADD COLUMN IF NOT EXISTS fts tsvector;`,
		`CREATE INDEX IF NOT EXISTS idx_products_fts ON products USING gin (fts);`,
		`CREATE OR REPLACE FUNCTION products_fts_update() RETURNS trigger AS $$
		BEGIN
			NEW.fts :=
				setweight(to_tsvector('russian', coalesce(NEW.title, '')), 'A') ||
				setweight(to_tsvector('russian', coalesce(NEW.descr, '')), 'B') ||
				setweight(to_tsvector('russian', coalesce(NEW.text, '')), 'C') ||
				setweight(to_tsvector('russian', coalesce(NEW.category, '')), 'D');
			RETURN NEW;
		END
		$$ LANGUAGE plpgsql;`,
		`DROP TRIGGER IF EXISTS trg_products_fts ON products;`,
		`CREATE TRIGGER trg_products_fts
			BEFORE INSERT OR UPDATE ON products
			FOR EACH ROW EXECUTE FUNCTION products_fts_update();`,
		`INSERT INTO scrape_meta (id) VALUES (1) ON CONFLICT DO NOTHING;`,
	}
	for _, stmt := range statements {
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("schema setup: %w", err)
		}
	}

	s.log.Info("Postgres schema migrated")
	return nil
}
