package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Settings is the full runtime configuration.
type Settings struct {
	AppEnv  string `yaml:"app_env"`
	AppPort string `yaml:"app_port"`

	StoreDriver string `yaml:"store_driver"`
	DBDSN       string `yaml:"db_dsn"`
	MongoURI    string `yaml:"mongo_uri"`
	MongoDB     string `yaml:"mongo_db"`

	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`

	JWTSecret    string `yaml:"jwt_secret"`
	CORSOrigin   string `yaml:"cors_origin"`
	MediaDir     string `yaml:"media_dir"`
	MediaBaseURL string `yaml:"media_base_url"`

	BatchSize         int           `yaml:"batch_size"`
	RepairEnabled     bool          `yaml:"repair_enabled"`
	RepairInterval    time.Duration `yaml:"repair_interval"`
	RepairMaxAttempts int           `yaml:"repair_max_attempts"`
}

func Defaults() *Settings {
	return &Settings{
		AppEnv:            "development",
		AppPort:           "8080",
		StoreDriver:       DriverMySQL,
		MongoDB:           "gramly",
		CacheTTL:          10 * time.Minute,
		CORSOrigin:        "http://localhost:5173",
		MediaDir:          "./uploads",
		MediaBaseURL:      "/media",
		BatchSize:         100,
		RepairInterval:    30 * time.Second,
		RepairMaxAttempts: 5,
	}
}

// Load layers defaults, the optional YAML file named by CONFIG_FILE, .env and the process environment.
func Load() (*Settings, error) {
	s := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Missing .env is fine; the environment may already carry everything.
	if err := godotenv.Load(); err != nil {
		Logger.Debug("no .env file found, using system environment variables")
	}

	if err := s.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("APP_ENV", &s.AppEnv)
	str("APP_PORT", &s.AppPort)
	str("STORE_DRIVER", &s.StoreDriver)
	str("DB_DSN", &s.DBDSN)
	str("MONGO_URI", &s.MongoURI)
	str("MONGO_DB", &s.MongoDB)
	str("REDIS_ADDR", &s.RedisAddr)
	str("REDIS_PASSWORD", &s.RedisPassword)
	num("REDIS_DB", &s.RedisDB)
	dur("CACHE_TTL", &s.CacheTTL)
	str("JWT_SECRET", &s.JWTSecret)
	str("CORS_ORIGIN", &s.CORSOrigin)
	str("MEDIA_DIR", &s.MediaDir)
	str("MEDIA_BASE_URL", &s.MediaBaseURL)
	num("BATCH_SIZE", &s.BatchSize)
	flag("REPAIR_ENABLED", &s.RepairEnabled)
	dur("REPAIR_INTERVAL", &s.RepairInterval)
	num("REPAIR_MAX_ATTEMPTS", &s.RepairMaxAttempts)

	s.StoreDriver = strings.ToLower(s.StoreDriver)
	return errors.Join(errs...)
}

// Validate reports every missing or inconsistent setting at once.
func (s *Settings) Validate() error {
	var errs []error
	if s.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	switch s.StoreDriver {
	case DriverMySQL:
		if s.DBDSN == "" {
			errs = append(errs, errors.New("DB_DSN is not set"))
		}
	case DriverMongo:
		if s.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is not set"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of mysql, mongo, memory", s.StoreDriver))
	}
	if s.BatchSize <= 0 {
		errs = append(errs, errors.New("BATCH_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

func (s *Settings) Production() bool {
	return s.AppEnv == "production"
}
