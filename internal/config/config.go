// backend-go/internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Engine    EngineConfig
	Storage   StorageConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	WarehouseTTLSeconds int
}

// EngineConfig holds the replenishment thresholds
type EngineConfig struct {
	TopN             int
	TopShare         float64
	SalesShare       float64
	LookbackDays     int
	DefaultCapacity  int
	MaxCapacity      int
	TrialQty         int
	BatchConcurrency int
}

// StorageConfig describes the S3-compatible bucket holding snapshot exports
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type SchedulerConfig struct {
	Enabled             bool
	CacheInvalidateSpec string
	StaleRunSpec        string
	StaleRunMinutes     int
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "restock")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_WAREHOUSE_TTL_SECONDS", 300)
		viper.SetDefault("ENGINE_TOP_N", 3)
		viper.SetDefault("ENGINE_TOP_SHARE", 0.8)
		viper.SetDefault("ENGINE_SALES_SHARE", 0.8)
		viper.SetDefault("ENGINE_LOOKBACK_DAYS", 30)
		viper.SetDefault("ENGINE_DEFAULT_CAPACITY", 50)
		viper.SetDefault("ENGINE_MAX_CAPACITY", 50)
		viper.SetDefault("ENGINE_TRIAL_QTY", 2)
		viper.SetDefault("ENGINE_BATCH_CONCURRENCY", 4)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "restock-snapshots")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("SCHEDULER_ENABLED", true)
		// hourly at :10, after the scrapers finish
		viper.SetDefault("SCHEDULER_CACHE_INVALIDATE_SPEC", "0 10 * * * *")
		viper.SetDefault("SCHEDULER_STALE_RUN_SPEC", "0 */5 * * * *")
		viper.SetDefault("SCHEDULER_STALE_RUN_MINUTES", 30)
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("LOG_FORMAT", "console")

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:             viper.GetBool("CACHE_ENABLED"),
				RedisURL:            viper.GetString("REDIS_URL"),
				RedisHost:           viper.GetString("REDIS_HOST"),
				RedisPort:           viper.GetString("REDIS_PORT"),
				RedisPassword:       viper.GetString("REDIS_PASSWORD"),
				RedisDB:             viper.GetInt("REDIS_DB"),
				WarehouseTTLSeconds: viper.GetInt("CACHE_WAREHOUSE_TTL_SECONDS"),
			},
			Engine: EngineConfig{
				TopN:             viper.GetInt("ENGINE_TOP_N"),
				TopShare:         viper.GetFloat64("ENGINE_TOP_SHARE"),
				SalesShare:       viper.GetFloat64("ENGINE_SALES_SHARE"),
				LookbackDays:     viper.GetInt("ENGINE_LOOKBACK_DAYS"),
				DefaultCapacity:  viper.GetInt("ENGINE_DEFAULT_CAPACITY"),
				MaxCapacity:      viper.GetInt("ENGINE_MAX_CAPACITY"),
				TrialQty:         viper.GetInt("ENGINE_TRIAL_QTY"),
				BatchConcurrency: viper.GetInt("ENGINE_BATCH_CONCURRENCY"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Scheduler: SchedulerConfig{
				Enabled:             viper.GetBool("SCHEDULER_ENABLED"),
				CacheInvalidateSpec: viper.GetString("SCHEDULER_CACHE_INVALIDATE_SPEC"),
				StaleRunSpec:        viper.GetString("SCHEDULER_STALE_RUN_SPEC"),
				StaleRunMinutes:     viper.GetInt("SCHEDULER_STALE_RUN_MINUTES"),
			},
			Log: LogConfig{
				Level:  viper.GetString("LOG_LEVEL"),
				Format: viper.GetString("LOG_FORMAT"),
			},
		}
	})

	return instance
}

// DSN returns the lib/pq connection string
func (c DatabaseConfig) DSN() string {
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.User +
		" password=" + c.Password + " dbname=" + c.DBName + " sslmode=" + c.SSLMode
}
