package configs

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/lifetravel/endpoint/internal/infrastructure/contracts"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	RabbitMQ    RabbitMQConfig    `koanf:"rabbitmq"`
	WebSocket   WebSocketConfig   `koanf:"websocket"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Logger      LoggerConfig      `koanf:"logger"`
	Tracing     TracingConfig     `koanf:"tracing"`
}

type HTTPConfig struct {
	Host            string        `koanf:"host"`
	Port            uint16        `koanf:"port"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

type RabbitMQConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	User           string        `koanf:"user"`
	Password       string        `koanf:"password"`
	Exchange       string        `koanf:"exchange"`
	RoutingKey     string        `koanf:"routing_key"`
	DialTimeout    time.Duration `koanf:"dial_timeout"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`
}

// URL composes the AMQP connection URL from the broker settings.
func (c RabbitMQConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port))),
		Path:   "/",
	}
	return u.String()
}

type WebSocketConfig struct {
	MaxMessageBytes int64         `koanf:"max_message_bytes"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	Strategy          string        `koanf:"strategy"`
	RequestsPerSecond float64       `koanf:"requestsPerSecond"`
	Burst             int           `koanf:"burst"`
	Window            time.Duration `koanf:"window"`
	TTL               time.Duration `koanf:"ttl"`
	SourceHeaderKey   string        `koanf:"sourceHeaderKey"`
}

type LoggerConfig struct {
	FilePath string `koanf:"file_path"`
	Encoding string `koanf:"encoding"`
	Level    string `koanf:"level"`
	Logger   string `koanf:"logger"`
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	Environment string `koanf:"environment"`
}

// Load reads the optional YAML file at path, then applies defaults and
// environment overrides. The returned config is not mutated afterwards.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	if err := applyEnvOverrides(k); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RabbitMQ.Exchange == "" {
		return fmt.Errorf("invalid config: rabbitmq.exchange must not be empty")
	}
	if c.RabbitMQ.Port == 0 {
		return fmt.Errorf("invalid config: rabbitmq.port must not be zero")
	}
	if c.WebSocket.MaxMessageBytes <= 0 {
		return fmt.Errorf("invalid config: websocket.max_message_bytes must be positive")
	}
	return nil
}

func applyDefaults(k *koanf.Koanf) {
	// HTTP defaults
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 3000)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.shutdown_timeout", 5*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})

	// Broker defaults
	setDefault(k, "rabbitmq.host", "localhost")
	setDefault(k, "rabbitmq.port", 5672)
	setDefault(k, "rabbitmq.user", "guest")
	setDefault(k, "rabbitmq.password", "guest")
	setDefault(k, "rabbitmq.exchange", "lifetravel_agent")
	setDefault(k, "rabbitmq.routing_key", contracts.CommandItineraryUserRequest)
	setDefault(k, "rabbitmq.dial_timeout", 5*time.Second)
	setDefault(k, "rabbitmq.publish_timeout", 10*time.Second)

	// WebSocket defaults
	setDefault(k, "websocket.max_message_bytes", 64*1024)
	setDefault(k, "websocket.write_timeout", 10*time.Second)

	// Rate limiter defaults
	setDefault(k, "rateLimiter.strategy", "token_bucket")
	setDefault(k, "rateLimiter.requestsPerSecond", 5.0)
	setDefault(k, "rateLimiter.burst", 10)
	setDefault(k, "rateLimiter.window", time.Second)
	setDefault(k, "rateLimiter.ttl", 5*time.Minute)
	setDefault(k, "rateLimiter.sourceHeaderKey", "X-Forwarded-For")

	// Logger defaults
	setDefault(k, "logger.file_path", "")
	setDefault(k, "logger.encoding", "json")
	setDefault(k, "logger.level", "info")
	setDefault(k, "logger.logger", "zap")

	// Tracing defaults
	setDefault(k, "tracing.enabled", false)
	setDefault(k, "tracing.endpoint", "http://localhost:4318")
	setDefault(k, "tracing.environment", "development")
}

// envOverride maps one environment variable onto a config key. parse returns
// false to leave the key untouched.
type envOverride struct {
	key   string
	parse func(string) (any, bool)
}

var envOverrides = map[string]envOverride{
	// HTTP
	"HTTP_HOST":                     {"http.host", asString},
	"PORT":                          {"http.port", asPositiveInt},
	"HTTP_PORT":                     {"http.port", asPositiveInt},
	"HTTP_READ_TIMEOUT_SECONDS":     {"http.read_timeout", asDuration(time.Second)},
	"HTTP_WRITE_TIMEOUT_SECONDS":    {"http.write_timeout", asDuration(time.Second)},
	"HTTP_SHUTDOWN_TIMEOUT_SECONDS": {"http.shutdown_timeout", asDuration(time.Second)},

	// Broker
	"AMQP_HOST":                              {"rabbitmq.host", asString},
	"AMQP_PORT":                              {"rabbitmq.port", asPositiveInt},
	"AMQP_USER":                              {"rabbitmq.user", asString},
	"AMQP_PASSWORD":                          {"rabbitmq.password", asString},
	"RABBITMQ_EXCHANGE":                      {"rabbitmq.exchange", asString},
	"RABBITMQ_ITINERARY_REQUEST_ROUTING_KEY": {"rabbitmq.routing_key", asString},
	"AMQP_DIAL_TIMEOUT_SECONDS":              {"rabbitmq.dial_timeout", asDuration(time.Second)},
	"AMQP_PUBLISH_TIMEOUT_SECONDS":           {"rabbitmq.publish_timeout", asDuration(time.Second)},

	// WebSocket
	"WS_MAX_MESSAGE_BYTES":     {"websocket.max_message_bytes", asPositiveInt},
	"WS_WRITE_TIMEOUT_SECONDS": {"websocket.write_timeout", asDuration(time.Second)},

	// Rate limiter
	"RATE_LIMIT_STRATEGY":            {"rateLimiter.strategy", asString},
	"RATE_LIMIT_REQUESTS_PER_SECOND": {"rateLimiter.requestsPerSecond", asPositiveFloat},
	"RATE_LIMIT_BURST":               {"rateLimiter.burst", asPositiveInt},
	"RATE_LIMIT_WINDOW_SECONDS":      {"rateLimiter.window", asDuration(time.Second)},
	"RATE_LIMIT_TTL_MINUTES":         {"rateLimiter.ttl", asDuration(time.Minute)},
	"RATE_LIMIT_SOURCE_HEADER_KEY":   {"rateLimiter.sourceHeaderKey", asString},

	// Logger
	"LOGGER_FILE_PATH": {"logger.file_path", asString},
	"LOGGER_ENCODING":  {"logger.encoding", asString},
	"LOGGER_LEVEL":     {"logger.level", asString},
	"LOGGER_LOGGER":    {"logger.logger", asString},

	// Tracing
	"TRACING_ENABLED":             {"tracing.enabled", asBool},
	"OTEL_EXPORTER_OTLP_ENDPOINT": {"tracing.endpoint", asString},
	"ENVIRONMENT":                 {"tracing.environment", asString},
}

// applyEnvOverrides loads the variables in envOverrides on top of the file and
// defaults. A variable that is set overrides its key even when empty.
func applyEnvOverrides(k *koanf.Koanf) error {
	return k.Load(env.ProviderWithValue("", ".", mapEnv), nil)
}

func mapEnv(name, value string) (string, any) {
	o, ok := envOverrides[name]
	if !ok {
		return "", nil
	}
	// HTTP_PORT wins over the platform-provided PORT.
	if name == "PORT" {
		if _, set := os.LookupEnv("HTTP_PORT"); set {
			return "", nil
		}
	}

	v, ok := o.parse(value)
	if !ok {
		return "", nil
	}
	return o.key, v
}

func asString(v string) (any, bool) {
	return v, true
}

func asPositiveInt(v string) (any, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return nil, false
	}
	return n, true
}

func asPositiveFloat(v string) (any, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f <= 0 {
		return nil, false
	}
	return f, true
}

func asBool(v string) (any, bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return nil, false
	}
	return b, true
}

func asDuration(unit time.Duration) func(string) (any, bool) {
	return func(v string) (any, bool) {
		n, ok := asPositiveInt(v)
		if !ok {
			return nil, false
		}
		return time.Duration(n.(int)) * unit, true
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
