// Package config loads the process configuration from the environment,
// optionally seeded from a .env file. It is read once at startup; a missing
// required key is a startup failure.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyDBHost            = "DB_HOST"
	KeyDBPort            = "DB_PORT"
	KeyDBUser            = "DB_USERNAME"
	KeyDBPassword        = "DB_PASSWORD"
	KeyDBName            = "DB_DATABASE"
	KeyDBTimeout         = "DB_TIMEOUT"
	KeyDBMaxOpenConns    = "DB_MAX_OPEN_CONNS"
	KeyDBMaxIdleConns    = "DB_MAX_IDLE_CONNS"
	KeyDBConnMaxLifetime = "DB_CONN_MAX_LIFETIME"
	KeyPort              = "PORT"
	KeyJWTKey            = "JWT_KEY"
	KeyTokenTTL          = "TOKEN_TTL"
	KeyBcryptCost        = "BCRYPT_COST"
	KeyRedisAddr         = "REDIS_ADDR"
	KeyRedisDB           = "REDIS_DB"
	KeyCacheTTL          = "CACHE_TTL"
	KeyStaticDir         = "STATIC_DIR"
	KeyAutoMigrate       = "AUTO_MIGRATE"
	KeyGinMode           = "GIN_MODE"
)

// required keys must be present in the environment. DB_PASSWORD may be
// empty but must be set.
var required = []string{KeyDBHost, KeyDBUser, KeyDBPassword, KeyDBName, KeyPort, KeyJWTKey}

var ErrMissingConfig = errors.New("missing required configuration")

type Database struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	Timeout         time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Redis struct {
	Addr string
	DB   int
	TTL  time.Duration
}

type Config struct {
	Database    Database
	Redis       Redis
	Port        string
	JWTKey      []byte
	TokenTTL    time.Duration
	BcryptCost  int
	StaticDir   string
	AutoMigrate bool
	GinMode     string
}

// Load reads envFile (if it exists) into the process environment and builds
// a Config from it. Variables already set in the environment win over the
// file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AllowEmptyEnv(true)
	for _, key := range []string{
		KeyDBHost, KeyDBPort, KeyDBUser, KeyDBPassword, KeyDBName, KeyDBTimeout,
		KeyDBMaxOpenConns, KeyDBMaxIdleConns, KeyDBConnMaxLifetime,
		KeyPort, KeyJWTKey, KeyTokenTTL, KeyBcryptCost,
		KeyRedisAddr, KeyRedisDB, KeyCacheTTL,
		KeyStaticDir, KeyAutoMigrate, KeyGinMode,
	} {
		_ = v.BindEnv(key)
	}

	v.SetDefault(KeyDBPort, 3306)
	v.SetDefault(KeyDBTimeout, 5*time.Second)
	v.SetDefault(KeyDBMaxOpenConns, 25)
	v.SetDefault(KeyDBMaxIdleConns, 10)
	v.SetDefault(KeyDBConnMaxLifetime, 5*time.Minute)
	v.SetDefault(KeyTokenTTL, 24*time.Hour)
	v.SetDefault(KeyBcryptCost, 10)
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyCacheTTL, 30*time.Second)
	v.SetDefault(KeyStaticDir, "assets/public")
	v.SetDefault(KeyAutoMigrate, false)
	v.SetDefault(KeyGinMode, "release")
	return v
}

// FromViper validates and converts the values held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var missing []string
	for _, key := range required {
		if !v.IsSet(key) {
			missing = append(missing, key)
			continue
		}
		if key != KeyDBPassword && strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	cfg := &Config{
		Database: Database{
			Host:            v.GetString(KeyDBHost),
			Port:            v.GetInt(KeyDBPort),
			User:            v.GetString(KeyDBUser),
			Password:        v.GetString(KeyDBPassword),
			Name:            v.GetString(KeyDBName),
			Timeout:         v.GetDuration(KeyDBTimeout),
			MaxOpenConns:    v.GetInt(KeyDBMaxOpenConns),
			MaxIdleConns:    v.GetInt(KeyDBMaxIdleConns),
			ConnMaxLifetime: v.GetDuration(KeyDBConnMaxLifetime),
		},
		Redis: Redis{
			Addr: v.GetString(KeyRedisAddr),
			DB:   v.GetInt(KeyRedisDB),
			TTL:  v.GetDuration(KeyCacheTTL),
		},
		Port:        v.GetString(KeyPort),
		JWTKey:      []byte(v.GetString(KeyJWTKey)),
		TokenTTL:    v.GetDuration(KeyTokenTTL),
		BcryptCost:  v.GetInt(KeyBcryptCost),
		StaticDir:   v.GetString(KeyStaticDir),
		AutoMigrate: v.GetBool(KeyAutoMigrate),
		GinMode:     strings.TrimSpace(v.GetString(KeyGinMode)),
	}

	if cfg.Database.Timeout <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %q", KeyDBTimeout, v.GetString(KeyDBTimeout))
	}
	if cfg.TokenTTL < 0 {
		return nil, fmt.Errorf("%s must not be negative", KeyTokenTTL)
	}
	switch cfg.GinMode {
	case "":
		cfg.GinMode = gin.ReleaseMode
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return nil, fmt.Errorf("%s must be one of %s, %s or %s, got %q",
			KeyGinMode, gin.DebugMode, gin.ReleaseMode, gin.TestMode, cfg.GinMode)
	}
	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// String renders the configuration with secrets redacted.
func (c *Config) String() string {
	return fmt.Sprintf("db=%s@%s:%d/%s timeout=%s port=%s redis=%q token_ttl=%s static=%s auto_migrate=%t",
		c.Database.User, c.Database.Host, c.Database.Port, c.Database.Name, c.Database.Timeout,
		c.Port, c.Redis.Addr, c.TokenTTL, c.StaticDir, c.AutoMigrate)
}
