package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	MongoURI string
	MongoDB  string

	JWTSecret string

	// Payment gateway webhook secrets. Signatures are computed over the
	// raw request body with HMAC-SHA512.
	MonnifySecret  string
	PaystackSecret string

	RedisURL          string
	RealtimeChannel   string
	KafkaBrokers      []string
	KafkaTopic        string
	CatalogServiceURL string

	// Naira value of a single loyalty point when a loyalty-points reward
	// is applied as a discount.
	PointsToNairaRate float64

	PreventOrdersWhenOutOfStock bool
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:              getEnv("PORT", "8090"),
		Env:               getEnv("APP_ENV", "development"),
		MongoURI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:           getEnv("MONGODB_DB", "wawagardenbar"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		MonnifySecret:     os.Getenv("MONNIFY_CLIENT_SECRET"),
		PaystackSecret:    os.Getenv("PAYSTACK_SECRET_KEY"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379"),
		RealtimeChannel:   getEnv("REALTIME_CHANNEL", "realtime:orders"),
		KafkaBrokers:      strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:        getEnv("ORDER_EVENTS_TOPIC", "order.events"),
		CatalogServiceURL: getEnv("CATALOG_SERVICE_URL", "http://localhost:8082"),
		PointsToNairaRate: getEnvFloat("POINTS_TO_NAIRA_RATE", 1.0),

		PreventOrdersWhenOutOfStock: getEnvBool("PREVENT_ORDERS_WHEN_OUT_OF_STOCK", false),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
