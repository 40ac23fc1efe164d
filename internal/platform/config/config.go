package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"proptoken/pkg/domain"
)

// Server captures process-level configuration.
type Server struct {
	Addr string `env:"PROPTOKEN_ADDR" envDefault:":8080"`

	// Admin is the single identity allowed to verify properties. It is fixed
	// for the lifetime of the process; there is no rotation.
	Admin domain.Identity `env:"PROPTOKEN_ADMIN,required"`

	Auth     Auth
	Log      Log
	Registry Registry
	Redis    RedisConfig
	Audit    Audit

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Auth configures caller tokens.
type Auth struct {
	JWTSigningKey string        `env:"JWT_SIGNING_KEY,required"`
	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"proptoken"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
}

type Log struct {
	Format string `env:"LOG_FORMAT" envDefault:"json"`
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Registry configures bootstrap data.
type Registry struct {
	SeedFile string `env:"REGISTRY_SEED_FILE"`
}

// RedisConfig enables the shared token revocation list. Empty URL keeps the
// revocation list in process.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Audit selects audit sinks. Events always go to memory unless DatabaseURL
// is set; Kafka forwarding is additive.
type Audit struct {
	DatabaseURL      string   `env:"DATABASE_URL"`
	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic            string   `env:"AUDIT_TOPIC" envDefault:"proptoken.audit"`
	TopicPartitions  int32    `env:"AUDIT_TOPIC_PARTITIONS" envDefault:"1"`
	TopicReplication int16    `env:"AUDIT_TOPIC_REPLICATION" envDefault:"1"`
	AsyncBuffer      int      `env:"AUDIT_ASYNC_BUFFER" envDefault:"256"`
	// MemoryRetention caps events kept per subject by the in-memory store.
	MemoryRetention int `env:"AUDIT_MEMORY_RETENTION" envDefault:"1000"`
}

// FromEnv builds a Server config from the process environment.
func FromEnv() (Server, error) {
	cfg, err := env.ParseAs[Server]()
	if err != nil {
		return Server{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

// FromMap builds a Server config from an explicit environment, for tests and
// tooling that must not read the process environment.
func FromMap(environ map[string]string) (Server, error) {
	var cfg Server
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Server{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

// normalize trims broker addresses and drops blanks and repeats, so
// "a:9092, a:9092," means one broker.
func (s *Server) normalize() {
	if len(s.Audit.KafkaBrokers) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(s.Audit.KafkaBrokers))
	brokers := s.Audit.KafkaBrokers[:0]
	for _, b := range s.Audit.KafkaBrokers {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		brokers = append(brokers, b)
	}
	s.Audit.KafkaBrokers = brokers
}

// Validate fails fast on settings the server cannot run without.
func (s Server) Validate() error {
	var errs []error
	if s.Admin.IsZero() {
		errs = append(errs, errors.New("PROPTOKEN_ADMIN must be a non-zero identity"))
	}
	if len(s.Auth.JWTSigningKey) < 32 {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be at least 32 bytes"))
	}
	if s.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	switch s.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not one of json, text", s.Log.Format))
	}
	return errors.Join(errs...)
}
