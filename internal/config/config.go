package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT" validate:"required"`

	ZoneServiceURL  string        `mapstructure:"ZONE_SERVICE_URL" validate:"omitempty,url"`
	ZoneAPIKey      string        `mapstructure:"ZONE_API_KEY"`
	ZoneTimeout     time.Duration `mapstructure:"ZONE_TIMEOUT" validate:"min=1s,max=9s"`
	ZoneCacheWindow time.Duration `mapstructure:"ZONE_CACHE_WINDOW" validate:"min=1s"`

	LivePositions   bool          `mapstructure:"LIVE_POSITIONS"`
	OpenSkyURL      string        `mapstructure:"OPENSKY_URL" validate:"required,url"`
	OpenSkyUser     string        `mapstructure:"OPENSKY_USER"`
	OpenSkyPass     string        `mapstructure:"OPENSKY_PASS"`
	PositionTimeout time.Duration `mapstructure:"POSITION_TIMEOUT" validate:"min=1s,max=9s"`
	MinAltitude     float64       `mapstructure:"MIN_ALTITUDE" validate:"gte=0"`
	BBoxMinLat      float64       `mapstructure:"BBOX_MIN_LAT" validate:"gte=-90,lte=90"`
	BBoxMaxLat      float64       `mapstructure:"BBOX_MAX_LAT" validate:"gte=-90,lte=90,gtfield=BBoxMinLat"`
	BBoxMinLon      float64       `mapstructure:"BBOX_MIN_LON" validate:"gte=-180,lte=180"`
	BBoxMaxLon      float64       `mapstructure:"BBOX_MAX_LON" validate:"gte=-180,lte=180,gtfield=BBoxMinLon"`

	RedisUrl        string        `mapstructure:"REDIS_URL"`
	DBUrl           string        `mapstructure:"DB_URL"`
	RefreshInterval time.Duration `mapstructure:"REFRESH_INTERVAL" validate:"gte=0"`
	HistoryInterval time.Duration `mapstructure:"HISTORY_INTERVAL" validate:"gte=0"`

	LogLevel       string `mapstructure:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat      string `mapstructure:"LOG_FORMAT" validate:"omitempty,oneof=text json"`
	LogFile        string `mapstructure:"LOG_FILE"`
	TracingEnabled bool   `mapstructure:"TRACING_ENABLED"`
}

var keys = []string{
	"PORT", "ZONE_SERVICE_URL", "ZONE_API_KEY", "ZONE_TIMEOUT", "ZONE_CACHE_WINDOW",
	"LIVE_POSITIONS", "OPENSKY_URL", "OPENSKY_USER", "OPENSKY_PASS", "POSITION_TIMEOUT",
	"MIN_ALTITUDE", "BBOX_MIN_LAT", "BBOX_MAX_LAT", "BBOX_MIN_LON", "BBOX_MAX_LON",
	"REDIS_URL", "DB_URL", "REFRESH_INTERVAL", "HISTORY_INTERVAL", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	"TRACING_ENABLED",
}

// SetDefaults registers default values on a viper instance
func SetDefaults(v *viper.Viper) {
	v.SetDefault("PORT", ":8080")
	v.SetDefault("ZONE_SERVICE_URL", "https://contrails.googleapis.com/v1/regions")
	v.SetDefault("ZONE_TIMEOUT", DefaultRemoteTimeout)
	v.SetDefault("ZONE_CACHE_WINDOW", DefaultZoneCacheWindow)
	v.SetDefault("LIVE_POSITIONS", false)
	v.SetDefault("OPENSKY_URL", "https://opensky-network.org/api")
	v.SetDefault("POSITION_TIMEOUT", DefaultRemoteTimeout)
	v.SetDefault("MIN_ALTITUDE", DefaultMinAltitude)
	// North Atlantic
	v.SetDefault("BBOX_MIN_LAT", 40.0)
	v.SetDefault("BBOX_MAX_LAT", 60.0)
	v.SetDefault("BBOX_MIN_LON", -60.0)
	v.SetDefault("BBOX_MAX_LON", -10.0)
	v.SetDefault("REFRESH_INTERVAL", time.Duration(0))
	v.SetDefault("HISTORY_INTERVAL", DefaultHistoryInterval)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

func LoadConfig() (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	SetDefaults(v)

	// Load environment file
	v.SetConfigName(fmt.Sprintf(".env.%s", env))
	v.SetConfigType("env")
	v.AddConfigPath(".") // Look in the project root directory

	// Environment variables take precedence over config file
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return c, err
		}
	}

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	return FromViper(v)
}

// FromViper maps and validates the values held by a viper instance
func FromViper(v *viper.Viper) (c Config, err error) {
	if err = v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unmarshal config: %w", err)
	}
	if err = validator.New().Struct(c); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// HasZoneCredential reports whether live zones can be requested
func (c Config) HasZoneCredential() bool {
	return c.ZoneAPIKey != ""
}
