package config

import (
	"log"
	"os"
	"time"

	"github.com/awokou/ecommerce-microservices/pkg/utils"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string  `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTP    `yaml:"http"`
	Postgres PG      `yaml:"postgres"`
	Redis    Redis   `yaml:"redis"`
	Kafka    Kafka   `yaml:"kafka"`
	Catalog  Catalog `yaml:"catalog"`
	Cart     Cart    `yaml:"cart"`
	Breaker  Breaker `yaml:"breaker"`
	Retry    Retry   `yaml:"retry"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3004"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
}

type Catalog struct {
	BaseURL     string        `yaml:"base_url" env:"CATALOG_URL" env-default:"http://localhost:3002"`
	CallTimeout time.Duration `yaml:"call_timeout" env:"CATALOG_CALL_TIMEOUT" env-default:"2s"`
}

type Cart struct {
	MaxItems int           `yaml:"max_items" env:"CART_MAX_ITEMS" env-default:"50"`
	TTLDays  int           `yaml:"ttl_days" env:"CART_TTL_DAYS" env-default:"30"`
	CacheTTL time.Duration `yaml:"cache_ttl" env-default:"10m"`
}

type Breaker struct {
	FailureThreshold float64       `yaml:"failure_threshold" env-default:"0.6"`
	MinRequests      uint32        `yaml:"min_requests" env-default:"5"`
	OpenDuration     time.Duration `yaml:"open_duration" env-default:"10s"`
	HalfOpenTrials   uint32        `yaml:"half_open_trials" env-default:"3"`
	Window           time.Duration `yaml:"window" env-default:"5s"`
}

type Retry struct {
	MaxAttempts int           `yaml:"max_attempts" env-default:"3"`
	Backoff     time.Duration `yaml:"backoff" env-default:"200ms"`
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exists: %v\n", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
