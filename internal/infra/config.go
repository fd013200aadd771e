package infra

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Unset: метка обязательного поля, для которого нет ни дефолта, ни значения из окружения.
// Потребитель обязан трактовать её как "фича недоступна" и деградировать, а не падать.
const Unset = "<unset>"

// IsSet сообщает, что значение реально задано.
func IsSet(s string) bool {
	return s != "" && s != Unset
}

// Config: корневая структура конфигурации Mission Control.
// Собирается один раз при старте и дальше только читается.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Stream      StreamConfig      `mapstructure:"stream"`
	Backend     BackendConfig     `mapstructure:"backend"`
	Realtime    RealtimeConfig    `mapstructure:"realtime"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Intervals   IntervalsConfig   `mapstructure:"intervals"`
	Thresholds  ThresholdsConfig  `mapstructure:"thresholds"`
	Endpoints   EndpointsConfig   `mapstructure:"endpoints"`
	Features    map[string]bool   `mapstructure:"features"`
	Reliability ReliabilityConfig `mapstructure:"reliability"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Logger      LoggerConfig      `mapstructure:"logger"`
}

// AppConfig: метаданные приложения.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig описывает настройки HTTP-сервера консоли.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StreamConfig: тайминги WebSocket-потока состояния.
type StreamConfig struct {
	WriteWait    time.Duration `mapstructure:"write_wait"`
	PongWait     time.Duration `mapstructure:"pong_wait"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

// Addr возвращает адрес для http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BackendConfig описывает подключение к хостинговому backend-as-a-service.
// Driver: "rest" (REST API сервиса) или "postgres" (прямое подключение к его БД).
type BackendConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	APIKey          string        `mapstructure:"api_key"`
	DatabaseURL     string        `mapstructure:"database_url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	ThrottleDelay   time.Duration `mapstructure:"throttle_delay"` // если 429 пришел без Retry-After
}

// Available сообщает, хватает ли параметров для выбранного драйвера.
func (c BackendConfig) Available() bool {
	switch c.Driver {
	case "postgres":
		return IsSet(c.DatabaseURL)
	default:
		return IsSet(c.URL) && IsSet(c.APIKey)
	}
}

// RealtimeConfig описывает канал push-обновлений (Redis Pub/Sub).
type RealtimeConfig struct {
	Addr           string        `mapstructure:"addr"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

func (c RealtimeConfig) Available() bool {
	return IsSet(c.Addr)
}

// LLMConfig описывает OpenAI-совместимого провайдера.
type LLMConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func (c LLMConfig) Available() bool {
	return IsSet(c.APIKey)
}

// StorageConfig: локальное долговременное хранилище снапшота Store.
type StorageConfig struct {
	Path string `mapstructure:"path"`
	Key  string `mapstructure:"key"`
}

// IntervalsConfig: периоды опроса по каждому concern.
type IntervalsConfig struct {
	SystemStatus time.Duration `mapstructure:"system_status"`
	Agents       time.Duration `mapstructure:"agents"`
	Metrics      time.Duration `mapstructure:"metrics"`
	Health       time.Duration `mapstructure:"health"`
	Alerts       time.Duration `mapstructure:"alerts"`
	JournalFlush time.Duration `mapstructure:"journal_flush"`
}

// ThresholdsConfig: числовые пороги и лимиты.
type ThresholdsConfig struct {
	AgentCount     int     `mapstructure:"agent_count"`
	MaxLogEntries  int     `mapstructure:"max_log_entries"`
	AgentRowLimit  int     `mapstructure:"agent_row_limit"`
	AlertRowLimit  int     `mapstructure:"alert_row_limit"`
	CPUWarning     float64 `mapstructure:"cpu_warning"`
	MemoryWarning  float64 `mapstructure:"memory_warning"`
	DiskWarning    float64 `mapstructure:"disk_warning"`
	HealthDegraded float64 `mapstructure:"health_degraded"`
	JournalBuffer  int     `mapstructure:"journal_buffer"`
	JournalBatch   int     `mapstructure:"journal_batch"`
}

// EndpointsConfig: таблица путей ресурсов backend-сервиса.
type EndpointsConfig struct {
	SystemState   string `mapstructure:"system_state"`
	Agents        string `mapstructure:"agents"`
	Metrics       string `mapstructure:"metrics"`
	Health        string `mapstructure:"health"`
	Alerts        string `mapstructure:"alerts"`
	Handoff       string `mapstructure:"handoff"`
	StatusReports string `mapstructure:"status_reports"`
}

// ReliabilityConfig: настройки Circuit Breaker, лимитера и ретраев для вызовов backend.
type ReliabilityConfig struct {
	CBMaxRequests         uint32        `mapstructure:"cb_max_requests"`
	CBInterval            time.Duration `mapstructure:"cb_interval"`
	CBTimeout             time.Duration `mapstructure:"cb_timeout"`
	CBConsecutiveFailures uint32        `mapstructure:"cb_consecutive_failures"`
	RateLimit             float64       `mapstructure:"rate_limit"`
	RateBurst             int           `mapstructure:"rate_burst"`
	RetryAttempts         uint          `mapstructure:"retry_attempts"`
}

// AuthConfig содержит ключевой материал RS256 и учетку оператора.
type AuthConfig struct {
	PublicKeyData        string        `mapstructure:"public_key_data"`
	PrivateKeyData       string        `mapstructure:"private_key_data"`
	TokenTTL             time.Duration `mapstructure:"token_ttl"`
	OperatorUsername     string        `mapstructure:"operator_username"`
	OperatorPasswordHash string        `mapstructure:"operator_password_hash"`
	BcryptCost           int           `mapstructure:"bcrypt_cost"`
	SessionTouchInterval time.Duration `mapstructure:"session_touch_interval"`
}

func (c AuthConfig) Available() bool {
	return IsSet(c.PublicKeyData) && IsSet(c.PrivateKeyData) && IsSet(c.OperatorPasswordHash)
}

// Configured сообщает, что задан хотя бы один параметр auth. Configured без
// Available означает неполную настройку: консоль должна закрыться, а не открыться.
func (c AuthConfig) Configured() bool {
	return IsSet(c.PublicKeyData) || IsSet(c.PrivateKeyData) || IsSet(c.OperatorPasswordHash)
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`     // debug, info, warn, error
	Format   string `mapstructure:"format"`    // json, console
	FilePath string `mapstructure:"file_path"` // пусто: только консоль
	Output   string `mapstructure:"output"`    // stdout, stderr
}

// Concern: категория состояния, которая опрашивается и хранится независимо.
type Concern string

const (
	ConcernSystemStatus Concern = "system_status"
	ConcernAgents       Concern = "agents"
	ConcernMetrics      Concern = "metrics"
	ConcernHealth       Concern = "health"
	ConcernAlerts       Concern = "alerts"
	ConcernHandoff      Concern = "handoff"
	ConcernReports      Concern = "status_reports"
)

// Feature flags
const (
	FeatureRealtime    = "realtime"
	FeaturePersistence = "persistence"
	FeatureJournal     = "journal"
	FeatureLLMChat     = "llm_chat"
)

// Interval возвращает период опроса concern. Неизвестный concern: самый медленный период.
func (c *Config) Interval(concern Concern) time.Duration {
	switch concern {
	case ConcernSystemStatus:
		return c.Intervals.SystemStatus
	case ConcernAgents:
		return c.Intervals.Agents
	case ConcernMetrics:
		return c.Intervals.Metrics
	case ConcernHealth:
		return c.Intervals.Health
	case ConcernAlerts:
		return c.Intervals.Alerts
	default:
		return c.Intervals.SystemStatus
	}
}

// Endpoint возвращает путь ресурса backend для concern.
func (c *Config) Endpoint(concern Concern) string {
	switch concern {
	case ConcernSystemStatus:
		return c.Endpoints.SystemState
	case ConcernAgents:
		return c.Endpoints.Agents
	case ConcernMetrics:
		return c.Endpoints.Metrics
	case ConcernHealth:
		return c.Endpoints.Health
	case ConcernAlerts:
		return c.Endpoints.Alerts
	case ConcernHandoff:
		return c.Endpoints.Handoff
	case ConcernReports:
		return c.Endpoints.StatusReports
	default:
		return ""
	}
}

// Feature сообщает, включен ли флаг. Отсутствующий флаг считается выключенным.
func (c *Config) Feature(name string) bool {
	return c.Features[name]
}

// envBindings: единственные поля, которые разрешено перекрывать из окружения.
var envBindings = map[string]string{
	"app.environment":             "APP_ENV",
	"backend.url":                 "BACKEND_URL",
	"backend.api_key":             "BACKEND_API_KEY",
	"backend.database_url":        "DATABASE_URL",
	"realtime.addr":               "REDIS_ADDR",
	"realtime.password":           "REDIS_PASSWORD",
	"llm.api_key":                 "OPENAI_API_KEY",
	"llm.base_url":                "OPENAI_BASE_URL",
	"auth.public_key_data":        "AUTH_PUBLIC_KEY_DATA",
	"auth.private_key_data":       "AUTH_PRIVATE_KEY_DATA",
	"auth.operator_password_hash": "OPERATOR_PASSWORD_HASH",
}

// LoadConfig собирает конфигурацию: дефолты схемы -> разрешенные ENV-переопределения.
// Файлов конфигурации и динамических переопределений нет: источник правды один.
func LoadConfig() (*Config, error) {
	return load(true)
}

func load(withEnv bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if withEnv {
		for key, env := range envBindings {
			if err := v.BindEnv(key, env); err != nil {
				return nil, fmt.Errorf("bind env %s: %w", env, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	markUnset(&cfg)
	return &cfg, nil
}

// markUnset проставляет метку Unset обязательным полям без значения.
func markUnset(cfg *Config) {
	for _, field := range []*string{
		&cfg.Backend.URL,
		&cfg.Backend.APIKey,
		&cfg.Backend.DatabaseURL,
		&cfg.Realtime.Addr,
		&cfg.LLM.APIKey,
		&cfg.Auth.PublicKeyData,
		&cfg.Auth.PrivateKeyData,
		&cfg.Auth.OperatorPasswordHash,
	} {
		if *field == "" {
			*field = Unset
		}
	}
}

var (
	resolveOnce sync.Once
	resolved    *Config
)

// ResolveConfig: резолвер на весь процесс: вызывается сколько угодно раз,
// но собирает конфигурацию ровно один раз и всегда возвращает тот же указатель.
// Никогда не паникует: при битом ENV откатывается на чистые дефолты.
func ResolveConfig() *Config {
	resolveOnce.Do(func() {
		// .env опционален: его отсутствие не ошибка
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "config: failed to read .env: %v\n", err)
		}

		cfg, err := LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v, falling back to defaults\n", err)
			cfg, _ = load(false)
		}
		resolved = cfg
	})
	return resolved
}
