package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Flag names double as viper keys; the matching env var is the upper-cased,
// underscore form (db-driver -> DB_DRIVER).
const (
	FlagPort        = "port"
	FlagDBDriver    = "db-driver"
	FlagDatabaseURL = "database-url"
	FlagUploadDir   = "upload-dir"
)

type Config struct {
	Port        string
	GinMode     string
	DBDriver    string
	DatabaseURL string

	JWTSecret string
	TokenTTL  time.Duration

	// StoreTimeout bounds every single storage operation.
	StoreTimeout time.Duration

	UploadDir     string
	MaxUploadSize int64
	S3            S3Config

	CORSOrigins []string

	VoteRetryAttempts uint
	VoteRetryDelay    time.Duration
	StatsCacheTTL     time.Duration
}

// S3Config selects the S3-compatible object store for uploads. Empty Bucket
// means uploads go to UploadDir on local disk.
type S3Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(FlagPort, "8080")
	v.SetDefault("gin-mode", "debug")
	v.SetDefault(FlagDBDriver, DriverPostgres)
	v.SetDefault(FlagDatabaseURL, "host=localhost user=postgres password=postgres dbname=agora port=5432 sslmode=disable TimeZone=UTC")
	v.SetDefault("jwt-secret", "")
	v.SetDefault("token-ttl", 30*24*time.Hour)
	v.SetDefault("store-timeout", 5*time.Second)
	v.SetDefault(FlagUploadDir, "./uploads")
	v.SetDefault("max-upload-size", int64(10<<20))
	v.SetDefault("s3-region", "auto")
	v.SetDefault("cors-origins", "*")
	v.SetDefault("vote-retry-attempts", 10)
	v.SetDefault("vote-retry-delay", 5*time.Millisecond)
	v.SetDefault("stats-cache-ttl", 10*time.Second)
}

// Load reads .env (if present), command line flags and the environment, in
// increasing order of precedence: defaults < .env/env < flags.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading config from environment")
	}

	fs := pflag.NewFlagSet("agora", pflag.ContinueOnError)
	fs.String(FlagPort, "", "HTTP listen port")
	fs.String(FlagDBDriver, "", "database driver: postgres or sqlite")
	fs.String(FlagDatabaseURL, "", "database DSN")
	fs.String(FlagUploadDir, "", "directory for uploaded files when S3 is not configured")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Only flags that were actually given override env and defaults.
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			v.Set(f.Name, f.Value.String())
		}
	})

	cfg := &Config{
		Port:          v.GetString(FlagPort),
		GinMode:       v.GetString("gin-mode"),
		DBDriver:      strings.ToLower(v.GetString(FlagDBDriver)),
		DatabaseURL:   v.GetString(FlagDatabaseURL),
		JWTSecret:     v.GetString("jwt-secret"),
		TokenTTL:      v.GetDuration("token-ttl"),
		StoreTimeout:  v.GetDuration("store-timeout"),
		UploadDir:     v.GetString(FlagUploadDir),
		MaxUploadSize: v.GetInt64("max-upload-size"),
		S3: S3Config{
			Bucket:          v.GetString("s3-bucket"),
			Endpoint:        v.GetString("s3-endpoint"),
			Region:          v.GetString("s3-region"),
			AccessKeyID:     v.GetString("s3-access-key-id"),
			SecretAccessKey: v.GetString("s3-secret-access-key"),
			PublicURL:       v.GetString("s3-public-url"),
		},
		CORSOrigins:       splitList(v.GetString("cors-origins")),
		VoteRetryAttempts: v.GetUint("vote-retry-attempts"),
		VoteRetryDelay:    v.GetDuration("vote-retry-delay"),
		StatsCacheTTL:     v.GetDuration("stats-cache-ttl"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		return fmt.Errorf("only %s and %s supported, got %q", DriverPostgres, DriverSQLite, cfg.DBDriver)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database url is empty")
	}
	if cfg.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return fmt.Errorf("JWT_SECRET must be set in release mode")
		}
		log.Println("JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = "secret_key_change_me"
	}
	if cfg.StoreTimeout <= 0 {
		return fmt.Errorf("store timeout must be positive")
	}
	if cfg.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if cfg.VoteRetryAttempts == 0 {
		cfg.VoteRetryAttempts = 1
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
