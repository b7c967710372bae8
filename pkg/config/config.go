package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	Sweep   SweepConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COURIERDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"COURIERDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COURIERDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COURIERDESK_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"COURIERDESK_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"COURIERDESK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"COURIERDESK_DB_DSN"`
	Driver string `envconfig:"COURIERDESK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"COURIERDESK_DB_HOST"`
	Port     int    `envconfig:"COURIERDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"COURIERDESK_DB_USER"`
	Password string `envconfig:"COURIERDESK_DB_PASSWORD"`
	Name     string `envconfig:"COURIERDESK_DB_NAME"`
	SSLMode  string `envconfig:"COURIERDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COURIERDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COURIERDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COURIERDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COURIERDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"COURIERDESK_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COURIERDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COURIERDESK_REDIS_ADDR"`
	Password     string        `envconfig:"COURIERDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"COURIERDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COURIERDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COURIERDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COURIERDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COURIERDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COURIERDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SweepConfig tunes the scheduled-assignment sweep worker. The interval is a
// policy knob: correctness only requires that due entries are eventually seen.
type SweepConfig struct {
	Interval  time.Duration `envconfig:"COURIERDESK_SWEEP_INTERVAL" default:"5s"`
	LockTTL   time.Duration `envconfig:"COURIERDESK_SWEEP_LOCK_TTL" default:"30s"`
	BatchSize int           `envconfig:"COURIERDESK_SWEEP_BATCH_SIZE" default:"100"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
