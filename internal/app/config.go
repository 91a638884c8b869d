package app

import (
	"time"

	"github.com/nylinary/openlines-tg/internal/logger"
	"github.com/nylinary/openlines-tg/internal/utils"
)

type Config struct {
	CatalogBaseURL string
	TildaStoreAPI  string

	HTTPTimeout  time.Duration
	HTTPRetries  int
	RetryBackoff time.Duration

	FullScrapeInterval   time.Duration
	PriceRefreshInterval time.Duration
	CategoryDelay        time.Duration
	CallDelay            time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	baseURL := utils.GetEnv("CATALOG_BASE_URL", "https://myryba.ru", log)
	storeAPI := utils.GetEnv("TILDA_STORE_API", "https://store.tildacdn.com/api/getproductslist/", log)
	httpTimeoutS := utils.GetEnvAsFloat("HTTP_TIMEOUT_S", 30, log)
	httpRetries := utils.GetEnvAsInt("HTTP_RETRIES", 3, log)
	retryBackoffS := utils.GetEnvAsFloat("HTTP_RETRY_BACKOFF_S", 3, log)
	fullIntervalS := utils.GetEnvAsInt("SCRAPER_FULL_INTERVAL_S", 86400, log)
	priceIntervalS := utils.GetEnvAsInt("SCRAPER_PRICE_INTERVAL_S", 3600, log)
	categoryDelayS := utils.GetEnvAsFloat("SCRAPER_CATEGORY_DELAY_S", 2, log)
	callDelayS := utils.GetEnvAsFloat("SCRAPER_CALL_DELAY_S", 1, log)

	return Config{
		CatalogBaseURL:       baseURL,
		TildaStoreAPI:        storeAPI,
		HTTPTimeout:          secondsToDuration(httpTimeoutS),
		HTTPRetries:          httpRetries,
		RetryBackoff:         secondsToDuration(retryBackoffS),
		FullScrapeInterval:   time.Duration(fullIntervalS) * time.Second,
		PriceRefreshInterval: time.Duration(priceIntervalS) * time.Second,
		CategoryDelay:        secondsToDuration(categoryDelayS),
		CallDelay:            secondsToDuration(callDelayS),
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
