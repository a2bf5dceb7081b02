package config

import (
	"fmt"
	"time"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Aligner    AlignerConfig    `mapstructure:"aligner"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Reconciler ReconcilerConfig `mapstructure:"reconciler"`
	Sweep      SweepConfig      `mapstructure:"sweep"`
	Models     []ModelConfig    `mapstructure:"models"`
	API        APIConfig        `mapstructure:"api"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Events     EventsConfig     `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Name             string        `mapstructure:"name"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	MaxConnections   int           `mapstructure:"max_connections"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout      time.Duration `mapstructure:"ping_timeout"`
	MigrationTimeout time.Duration `mapstructure:"migration_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

type EngineConfig struct {
	Workers      int           `mapstructure:"workers"`
	BucketSize   time.Duration `mapstructure:"bucket_size"`
	WindowLength time.Duration `mapstructure:"window_length"`
	Source       string        `mapstructure:"source"`
}

type AlignerConfig struct {
	Tolerance time.Duration `mapstructure:"tolerance"`
}

type ClassifierConfig struct {
	MinEpisodeLength int           `mapstructure:"min_episode_length"`
	MaxGap           time.Duration `mapstructure:"max_gap"`
	WasteFactor      float64       `mapstructure:"waste_factor"`
}

type ReconcilerConfig struct {
	MinOverlapFraction float64 `mapstructure:"min_overlap_fraction"`
}

type SweepConfig struct {
	GridFrom float64   `mapstructure:"grid_from"`
	GridTo   float64   `mapstructure:"grid_to"`
	GridStep float64   `mapstructure:"grid_step"`
	Grid     []float64 `mapstructure:"grid"`
}

// ModelConfig declares one detection model: its rule parameters and
// the scope its episodes are grouped under.
type ModelConfig struct {
	Name              string  `mapstructure:"name"`
	Kind              string  `mapstructure:"kind"`
	SpeedThresholdMPH float64 `mapstructure:"speed_threshold_mph"`
	LoadThresholdPct  float64 `mapstructure:"load_threshold_pct"`
	ZoneGridDeg       float64 `mapstructure:"zone_grid_deg"`
}

const (
	ModelKindGhostCycle = "ghost_cycle"
	ModelKindChokePoint = "choke_point"
)

type APIConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTDuration    time.Duration `mapstructure:"jwt_duration"`
	JWTIssuer      string        `mapstructure:"jwt_issuer"`
	CookieName     string        `mapstructure:"cookie_name"`
	CookieMaxAge   int           `mapstructure:"cookie_max_age"`
	CookiePath     string        `mapstructure:"cookie_path"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	CookieHTTPOnly bool          `mapstructure:"cookie_http_only"`
	DefaultLimit   int           `mapstructure:"default_limit"`
	MaxLimit       int           `mapstructure:"max_limit"`
	CORS           CORSConfig    `mapstructure:"cors"`
}

type WebSocketConfig struct {
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
