package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lintang-b-s/Segmentx/pkg/util"
	"github.com/spf13/viper"
)

type Config struct {
	Input   InputConfig   `mapstructure:"input"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Segment SegmentConfig `mapstructure:"segment"`
	Geocode GeocodeConfig `mapstructure:"geocode"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

type InputConfig struct {
	TimestampColumn string   `mapstructure:"timestamp_column" validate:"required"`
	LatitudeColumn  string   `mapstructure:"latitude_column" validate:"required"`
	LongitudeColumn []string `mapstructure:"longitude_column" validate:"required,min=1"`
	PassengerColumn string   `mapstructure:"passenger_column" validate:"required"`
	Gate1Column     string   `mapstructure:"gate1_column" validate:"required"`
	Gate3Column     string   `mapstructure:"gate3_column" validate:"required"`
	TimeLayouts     []string `mapstructure:"time_layouts" validate:"required,min=1"`
	Timezone        string   `mapstructure:"timezone"`
	GroupBy         string   `mapstructure:"group_by" validate:"oneof=day file"`
}

type FilterConfig struct {
	Scenario          string `mapstructure:"scenario" validate:"oneof=both-gates exclude-off-on exclude-off-off all"`
	DedupeCoordinates bool   `mapstructure:"dedupe_coordinates"`
	WindowStart       string `mapstructure:"window_start"`
	WindowEnd         string `mapstructure:"window_end"`
}

type SegmentConfig struct {
	Unit     string `mapstructure:"unit" validate:"oneof=seconds minutes"`
	Identity string `mapstructure:"identity" validate:"oneof=osm coordinate"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

type GeocodeConfig struct {
	Provider  string        `mapstructure:"provider" validate:"oneof=nominatim osm"`
	URL       string        `mapstructure:"url" validate:"required_if=Provider nominatim"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Rate      float64       `mapstructure:"rate" validate:"gt=0"`
	Burst     int           `mapstructure:"burst" validate:"min=1"`
	Workers   int           `mapstructure:"workers" validate:"min=1,max=64"`
	CacheSize int           `mapstructure:"cache_size" validate:"min=0"`
	Fields    []string      `mapstructure:"fields" validate:"required,min=1"`
	Retry     RetryConfig   `mapstructure:"retry"`
	OSMIndex  string        `mapstructure:"osm_index" validate:"required_if=Provider osm"`
	OSMRadius float64       `mapstructure:"osm_radius" validate:"gt=0"`
}

type OutputConfig struct {
	FileName  string `mapstructure:"file_name" validate:"required"`
	Append    bool   `mapstructure:"append"`
	Bonus     int    `mapstructure:"bonus"`
	Roads     bool   `mapstructure:"roads"`
	RoadsFile string `mapstructure:"roads_file"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
	FilePath    string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	Compress    bool   `mapstructure:"compress"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" validate:"min=1"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("input.timestamp_column", "DeviceDateTime")
	v.SetDefault("input.latitude_column", "Latitude")
	v.SetDefault("input.longitude_column", []string{"Longitute", "Longitude"})
	v.SetDefault("input.passenger_column", "Di2")
	v.SetDefault("input.gate1_column", "Di1")
	v.SetDefault("input.gate3_column", "Di3")
	v.SetDefault("input.time_layouts", []string{"2006-01-02 15:04:05.999999999", time.RFC3339Nano})
	v.SetDefault("input.timezone", "UTC")
	v.SetDefault("input.group_by", "day")

	v.SetDefault("filter.scenario", "both-gates")
	v.SetDefault("filter.dedupe_coordinates", true)
	v.SetDefault("filter.window_start", "")
	v.SetDefault("filter.window_end", "")

	v.SetDefault("segment.unit", "seconds")
	v.SetDefault("segment.identity", "osm")

	v.SetDefault("geocode.provider", "nominatim")
	v.SetDefault("geocode.url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "Segmentx/1.0")
	v.SetDefault("geocode.timeout", "20s")
	v.SetDefault("geocode.rate", 1.0)
	v.SetDefault("geocode.burst", 1)
	v.SetDefault("geocode.workers", 10)
	v.SetDefault("geocode.cache_size", 1<<16)
	v.SetDefault("geocode.fields", []string{"road", "street"})
	v.SetDefault("geocode.retry.max_attempts", 5)
	v.SetDefault("geocode.retry.base_delay", "1s")
	v.SetDefault("geocode.retry.max_delay", "32s")
	v.SetDefault("geocode.osm_index", "")
	v.SetDefault("geocode.osm_radius", 0.05)

	v.SetDefault("output.file_name", "output.txt")
	v.SetDefault("output.append", false)
	v.SetDefault("output.bonus", 100)
	v.SetDefault("output.roads", false)
	v.SetDefault("output.roads_file", "roads.txt")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("http.port", 6060)
	v.SetDefault("http.read_timeout", "30s")
	v.SetDefault("http.write_timeout", "1000s")
	v.SetDefault("http.idle_timeout", "120s")
	v.SetDefault("http.max_body_bytes", 64<<20)
	v.SetDefault("http.rate_limit", 5.0)
	v.SetDefault("http.rate_burst", 10)
}

// Load. read defaults, then configFile (optional), then SEGMENTX_* environment overrides.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	if err := util.ReadConfig(v, configFile); err != nil {
		return nil, err
	}
	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return util.WrapErrorf(err, util.ErrBadParamInput, "invalid config")
	}
	if (c.Filter.WindowStart == "") != (c.Filter.WindowEnd == "") {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "filter.window_start and filter.window_end must be set together")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.Input.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Input.Timezone)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid input.timezone %q", c.Input.Timezone)
	}
	return loc, nil
}

// Default. configuration with every default applied and no file or environment lookups.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}
