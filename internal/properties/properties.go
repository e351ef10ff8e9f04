package properties

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	CollectionL1C = "sentinel-2-l1c"
	CollectionL2A = "sentinel-2-l2a"
)

var instanceIDs = map[string]string{
	CollectionL1C: "792138b2-7347-4b22-b90b-ae2089b83cf2",
	CollectionL2A: "9712c39b-d56b-4133-bee7-573295d0e478",
}

var defaultBandNames = []string{"B02", "B03", "B04", "B08", "B8A", "B11", "B12"}

// Thresholds used by the water mask and the region time series.
type Thresholds struct {
	Water      float64
	NDWI       float64
	CannySigma float64
	GaussSigma float64
}

// Config is built once at start up and passed by pointer. Nothing mutates it afterwards.
type Config struct {
	RootPath    string
	Environment string
	LogLevel    zerolog.Level

	ClientID       string
	ClientSecret   string
	TokenURL       string
	BaseURL        string
	InstanceID     string
	DataCollection string
	BandNames      []string
	Resolution     float64
	CloudTolerance float64
	TimeDifference time.Duration
	CacheFolder    string
	MaxThreads     int

	Thresholds Thresholds

	DiscordErrorNotificationURL   string
	DiscordSuccessNotificationURL string
}

type Option func(*Config)

func WithRootPath(path string) Option {
	return func(c *Config) {
		c.RootPath = path
	}
}

func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel falls back to info on unknown levels
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

func WithCredentials(clientID, clientSecret string) Option {
	return func(c *Config) {
		c.ClientID = clientID
		c.ClientSecret = clientSecret
	}
}

func WithEndpoints(baseURL, tokenURL string) Option {
	return func(c *Config) {
		c.BaseURL = strings.TrimSuffix(baseURL, "/")
		c.TokenURL = tokenURL
	}
}

func WithInstanceID(id string) Option {
	return func(c *Config) {
		c.InstanceID = id
	}
}

// WithDataCollection selects the product level. New picks the matching instance id
// unless one was set explicitly.
func WithDataCollection(collection string) Option {
	return func(c *Config) {
		c.DataCollection = collection
	}
}

func WithBandNames(bands []string) Option {
	return func(c *Config) {
		c.BandNames = slices.Clone(bands)
	}
}

func WithResolution(resolution float64) Option {
	return func(c *Config) {
		c.Resolution = resolution
	}
}

func WithCloudTolerance(tolerance float64) Option {
	return func(c *Config) {
		c.CloudTolerance = tolerance
	}
}

func WithTimeDifference(d time.Duration) Option {
	return func(c *Config) {
		c.TimeDifference = d
	}
}

func WithCacheFolder(folder string) Option {
	return func(c *Config) {
		c.CacheFolder = folder
	}
}

func WithMaxThreads(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxThreads = n
		}
	}
}

func WithThresholds(t Thresholds) Option {
	return func(c *Config) {
		c.Thresholds = t
	}
}

func WithDiscordURLs(errorURL, successURL string) Option {
	return func(c *Config) {
		c.DiscordErrorNotificationURL = errorURL
		c.DiscordSuccessNotificationURL = successURL
	}
}

// New creates a configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		RootPath:       ".",
		Environment:    "production",
		LogLevel:       zerolog.InfoLevel,
		TokenURL:       "https://services.sentinel-hub.com/auth/realms/main/protocol/openid-connect/token",
		BaseURL:        "https://services.sentinel-hub.com",
		DataCollection: CollectionL2A,
		BandNames:      slices.Clone(defaultBandNames),
		Resolution:     10,
		CloudTolerance: 0.1,
		TimeDifference: 24 * time.Hour,
		CacheFolder:    "./.cache",
		MaxThreads:     1,
		Thresholds: Thresholds{
			Water:      0.4,
			NDWI:       0.2,
			CannySigma: 5,
			GaussSigma: 1,
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = instanceIDs[cfg.DataCollection]
	}
	// B10 is not part of the L2A product
	if cfg.DataCollection == CollectionL2A {
		cfg.BandNames = slices.DeleteFunc(cfg.BandNames, func(b string) bool { return b == "B10" })
	}

	return cfg
}

// LoadFromEnv reads the process environment. godotenv should have run before.
func LoadFromEnv() *Config {
	d := New()
	opts := []Option{
		WithRootPath(getEnvOrDefault("ROOT_PATH", d.RootPath)),
		WithEnvironment(getEnvOrDefault("ENV", d.Environment)),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithCredentials(os.Getenv("SH_CLIENT_ID"), os.Getenv("SH_CLIENT_SECRET")),
		WithEndpoints(getEnvOrDefault("SH_BASE_URL", d.BaseURL), getEnvOrDefault("SH_TOKEN_URL", d.TokenURL)),
		WithInstanceID(os.Getenv("SH_INSTANCE_ID")),
		WithDataCollection(getEnvOrDefault("SH_DATA_COLLECTION", d.DataCollection)),
		WithResolution(getFloatEnvOrDefault("SH_RESOLUTION", d.Resolution)),
		WithCloudTolerance(getFloatEnvOrDefault("SH_CLOUD_TOLERANCE", d.CloudTolerance)),
		WithTimeDifference(getDurationEnvOrDefault("SH_TIME_DIFFERENCE", d.TimeDifference)),
		WithCacheFolder(getEnvOrDefault("SH_CACHE_FOLDER", d.CacheFolder)),
		WithMaxThreads(getIntEnvOrDefault("SH_MAX_THREADS", d.MaxThreads)),
		WithThresholds(Thresholds{
			Water:      getFloatEnvOrDefault("WATER_THRESHOLD", d.Thresholds.Water),
			NDWI:       getFloatEnvOrDefault("NDWI_THRESHOLD", d.Thresholds.NDWI),
			CannySigma: getFloatEnvOrDefault("CANNY_SIGMA", d.Thresholds.CannySigma),
			GaussSigma: getFloatEnvOrDefault("GAUSS_SIGMA", d.Thresholds.GaussSigma),
		}),
		WithDiscordURLs(os.Getenv("DISCORD_ERROR_NOTIFICATION_URL"), os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")),
	}
	if bands := os.Getenv("SH_BANDS"); bands != "" {
		opts = append(opts, WithBandNames(splitList(bands)))
	}
	return New(opts...)
}

// InitializeLogging sets up the global zerolog logger
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(c.LogLevel)

	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func (c *Config) BandIndex(name string) int {
	return slices.Index(c.BandNames, name)
}

func (c *Config) DataPath(elem ...string) string {
	return filepath.Join(append([]string{c.RootPath, "data"}, elem...)...)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
