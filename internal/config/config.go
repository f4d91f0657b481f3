package config

import (
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Analysis       AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Transportation TransportConfig `yaml:"transportation" mapstructure:"transportation"`
	Weights        WeightsConfig   `yaml:"weights" mapstructure:"weights"`
	Safety         SafetyConfig    `yaml:"safety" mapstructure:"safety"`
	Cache          CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Routing        RoutingConfig   `yaml:"routing" mapstructure:"routing"`
	Incidents      IncidentsConfig `yaml:"incidents" mapstructure:"incidents"`
	Geocode        GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Server         ServerConfig    `yaml:"server" mapstructure:"server"`
	Log            LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnalysisConfig configures the grid and the reference year.
type AnalysisConfig struct {
	CenterLat        float64 `yaml:"center_lat" mapstructure:"center_lat" validate:"gte=-90,lte=90"`
	CenterLon        float64 `yaml:"center_lon" mapstructure:"center_lon" validate:"gte=-180,lte=180"`
	GridSizeMiles    float64 `yaml:"grid_size" mapstructure:"grid_size" validate:"gte=0.1,lte=2.0"`
	MaxRadiusMiles   float64 `yaml:"max_radius" mapstructure:"max_radius" validate:"gte=5,lte=50"`
	Year             int     `yaml:"year" mapstructure:"year" validate:"gte=1970,lte=2200"`
	Workers          int     `yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=256"`
	DestinationsFile string  `yaml:"destinations_file" mapstructure:"destinations_file" validate:"required"`
}

// TransportConfig configures travel modes and cost rates.
type TransportConfig struct {
	Modes          []string `yaml:"modes" mapstructure:"modes" validate:"min=1,dive,oneof=driving walking cycling transit"`
	CostPerMileUSD float64  `yaml:"cost_per_mile" mapstructure:"cost_per_mile" validate:"gte=0"`
	TransitFareUSD float64  `yaml:"transit_fare" mapstructure:"transit_fare" validate:"gte=0"`
}

// WeightsConfig holds the composite score weights. The three weights must
// sum to 1.0.
type WeightsConfig struct {
	TravelTime float64 `yaml:"travel_time" mapstructure:"travel_time" validate:"gte=0,lte=1"`
	TravelCost float64 `yaml:"travel_cost" mapstructure:"travel_cost" validate:"gte=0,lte=1"`
	Safety     float64 `yaml:"safety" mapstructure:"safety" validate:"gte=0,lte=1"`
}

// Density normalization strategies for safety scoring. Population uses the
// raw incident count as a proxy for local population density; area divides
// by the sampled disc's square mileage.
const (
	DensityStrategyPopulation = "population"
	DensityStrategyArea       = "area"
)

// SafetyConfig configures incident scoring.
type SafetyConfig struct {
	RadiusMiles     float64 `yaml:"radius_miles" mapstructure:"radius_miles" validate:"gt=0,lte=5"`
	HalfLifeDays    float64 `yaml:"half_life_days" mapstructure:"half_life_days" validate:"gt=0"`
	ViolentWeight   float64 `yaml:"violent_weight" mapstructure:"violent_weight" validate:"gt=0"`
	PropertyWeight  float64 `yaml:"property_weight" mapstructure:"property_weight" validate:"gt=0"`
	OtherWeight     float64 `yaml:"other_weight" mapstructure:"other_weight" validate:"gt=0"`
	DensityStrategy string  `yaml:"density_strategy" mapstructure:"density_strategy" validate:"oneof=population area"`
	DensityScale    float64 `yaml:"density_scale" mapstructure:"density_scale" validate:"gt=0"`
	ScoreScale      float64 `yaml:"score_scale" mapstructure:"score_scale" validate:"gt=0"`
}

// CacheConfig configures the disk-backed route and geocode caches.
type CacheConfig struct {
	Path           string `yaml:"path" mapstructure:"path" validate:"required"`
	RouteTTLDays   int    `yaml:"route_ttl_days" mapstructure:"route_ttl_days" validate:"gte=1"`
	GeocodeTTLDays int    `yaml:"geocode_ttl_days" mapstructure:"geocode_ttl_days" validate:"gte=1"`
}

// RoutingConfig configures the routing gateway.
type RoutingConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"gt=0"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=1,lte=10"`
	FallbackEstimate  bool    `yaml:"fallback_estimate" mapstructure:"fallback_estimate"`
}

// IncidentsConfig configures the incident data source.
type IncidentsConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"gt=0"`
	StartYear   int    `yaml:"start_year" mapstructure:"start_year" validate:"gte=1990"`
}

// GeocodeConfig configures destination geocoding.
type GeocodeConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"gt=0"`
}

// ServerConfig configures the results server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port" validate:"gte=1,lte=65535"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from the given file (or ./config.yaml when path
// is empty) and the LOCEVAL_* environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LOCEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.grid_size", 0.5)
	v.SetDefault("analysis.max_radius", 10)
	v.SetDefault("analysis.workers", 8)
	v.SetDefault("analysis.year", time.Now().Year())
	v.SetDefault("analysis.destinations_file", "destinations.yaml")
	v.SetDefault("transportation.modes", []string{"driving"})
	v.SetDefault("transportation.cost_per_mile", 0.65)
	v.SetDefault("transportation.transit_fare", 2.75)
	v.SetDefault("weights.travel_time", 0.4)
	v.SetDefault("weights.travel_cost", 0.3)
	v.SetDefault("weights.safety", 0.3)
	v.SetDefault("safety.radius_miles", 0.5)
	v.SetDefault("safety.half_life_days", 365)
	v.SetDefault("safety.violent_weight", 2.0)
	v.SetDefault("safety.property_weight", 1.0)
	v.SetDefault("safety.other_weight", 0.5)
	v.SetDefault("safety.density_strategy", DensityStrategyPopulation)
	v.SetDefault("safety.density_scale", 1000)
	v.SetDefault("safety.score_scale", 10)
	v.SetDefault("cache.path", "data/routes.db")
	v.SetDefault("cache.route_ttl_days", 7)
	v.SetDefault("cache.geocode_ttl_days", 30)
	v.SetDefault("routing.base_url", "https://router.project-osrm.org")
	v.SetDefault("routing.timeout_secs", 30)
	v.SetDefault("routing.requests_per_second", 10)
	v.SetDefault("routing.max_retries", 3)
	v.SetDefault("routing.fallback_estimate", false)
	v.SetDefault("incidents.base_url", "https://api.usa.gov/crime/fbi/cde")
	v.SetDefault("incidents.timeout_secs", 15)
	v.SetDefault("incidents.start_year", 2015)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "location-evaluator")
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks structural bounds and cross-field rules. All violations
// are ValidationErrors and abort the run before any engine work begins.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if eris.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return NewValidationError("config: field %s fails %q (value %v)",
				f.Namespace(), f.Tag(), f.Value())
		}
		return eris.Wrap(err, "config: validate")
	}

	sum := c.Weights.TravelTime + c.Weights.TravelCost + c.Weights.Safety
	if math.Abs(sum-1.0) > weightTolerance {
		return NewValidationError("config: score weights must sum to 1.0, got %.3f", sum)
	}

	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
