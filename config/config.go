package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del scanner.
// Se lee una sola vez al arrancar y no se modifica después.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Log     LogConfig     `yaml:"log"`
}

// ScannerConfig controla el comportamiento del scanner.
type ScannerConfig struct {
	IntervalSeconds int       `yaml:"interval_seconds"`
	TargetSizes     []float64 `yaml:"target_sizes"` // USDC por pata
	// nil = no configurado; un 0 explícito es un fee de cero.
	FeeRateYes *float64 `yaml:"fee_rate_yes"` // aproximación plana del fee taker
	FeeRateNo  *float64 `yaml:"fee_rate_no"`
	// EdgeThresholds solo se usan en el reporte; no afectan a la detección.
	EdgeThresholds []float64 `yaml:"edge_thresholds"`
	MaxMarkets     int       `yaml:"max_markets"`
	Workers        int       `yaml:"workers"`
}

// APIConfig contiene los base URLs de las APIs y la política de red.
type APIConfig struct {
	CLOBBase              string `yaml:"clob_base"`
	GammaBase             string `yaml:"gamma_base"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	MaxRetries            *int   `yaml:"max_retries"` // nil = default; 0 = sin reintentos
	RetryBaseMillis       int    `yaml:"retry_base_millis"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// RedisConfig activa el espejo opcional en Redis streams. Addr vacío = desactivado.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
	File   string `yaml:"file"`   // opcional: duplica la salida a este archivo
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Si el archivo YAML no existe se usan los defaults. El resultado ya viene validado.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// sin archivo: defaults + env
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Default devuelve la configuración por defecto, ya validada.
func Default() Config {
	var cfg Config
	setDefaults(&cfg)
	return cfg
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// RequestTimeout devuelve el timeout HTTP por request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSeconds) * time.Second
}

// RetryBase devuelve la espera base del backoff exponencial.
func (c *Config) RetryBase() time.Duration {
	return time.Duration(c.API.RetryBaseMillis) * time.Millisecond
}

// FeeYes devuelve el fee rate de la pata YES.
func (c *Config) FeeYes() float64 { return deref(c.Scanner.FeeRateYes) }

// FeeNo devuelve el fee rate de la pata NO.
func (c *Config) FeeNo() float64 { return deref(c.Scanner.FeeRateNo) }

// Retries devuelve cuántas veces se reintenta un request fallido.
func (c *Config) Retries() int { return deref(c.API.MaxRetries) }

// Validate comprueba los valores que harían imposible una medición correcta.
// Devuelve todos los problemas juntos.
func (c *Config) Validate() error {
	var errs []error
	if c.Scanner.IntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("scanner.interval_seconds must be > 0, got %d", c.Scanner.IntervalSeconds))
	}
	if len(c.Scanner.TargetSizes) == 0 {
		errs = append(errs, errors.New("scanner.target_sizes must not be empty"))
	}
	seen := make(map[float64]bool, len(c.Scanner.TargetSizes))
	for _, s := range c.Scanner.TargetSizes {
		if s <= 0 {
			errs = append(errs, fmt.Errorf("scanner.target_sizes: %v is not a positive amount", s))
		}
		if seen[s] {
			errs = append(errs, fmt.Errorf("scanner.target_sizes: duplicate size %v", s))
		}
		seen[s] = true
	}
	if f := c.FeeYes(); f < 0 || f >= 1 {
		errs = append(errs, fmt.Errorf("scanner.fee_rate_yes must be in [0, 1), got %v", f))
	}
	if f := c.FeeNo(); f < 0 || f >= 1 {
		errs = append(errs, fmt.Errorf("scanner.fee_rate_no must be in [0, 1), got %v", f))
	}
	for _, t := range c.Scanner.EdgeThresholds {
		if t <= 0 {
			errs = append(errs, fmt.Errorf("scanner.edge_thresholds: %v must be > 0", t))
		}
	}
	if n := c.Retries(); n < 0 {
		errs = append(errs, fmt.Errorf("api.max_retries must be >= 0, got %d", n))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLYARB_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("POLYARB_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("POLYARB_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
}

// setDefaults rellena los campos vacíos. Los valores explícitamente inválidos
// (p.ej. interval negativo) se dejan para que Validate los rechace.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds == 0 {
		cfg.Scanner.IntervalSeconds = 10
	}
	if cfg.Scanner.TargetSizes == nil {
		cfg.Scanner.TargetSizes = []float64{50, 200}
	}
	if cfg.Scanner.FeeRateYes == nil {
		cfg.Scanner.FeeRateYes = ptr(0.015)
	}
	if cfg.Scanner.FeeRateNo == nil {
		cfg.Scanner.FeeRateNo = ptr(0.015)
	}
	if cfg.Scanner.EdgeThresholds == nil {
		cfg.Scanner.EdgeThresholds = []float64{0.005, 0.010, 0.020}
	}
	if cfg.Scanner.MaxMarkets <= 0 {
		cfg.Scanner.MaxMarkets = 1000
	}
	if cfg.Scanner.Workers <= 0 {
		cfg.Scanner.Workers = 8
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.RequestTimeoutSeconds <= 0 {
		cfg.API.RequestTimeoutSeconds = 10
	}
	if cfg.API.MaxRetries == nil {
		cfg.API.MaxRetries = ptr(3)
	}
	if cfg.API.RetryBaseMillis <= 0 {
		cfg.API.RetryBaseMillis = 500
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyarb.db"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "polyarb"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func ptr[T any](v T) *T { return &v }

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
