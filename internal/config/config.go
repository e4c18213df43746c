package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

type Config struct {
	HTTPAddr            string         `mapstructure:"http_addr"`
	KafkaBrokersCSV     string         `mapstructure:"kafka_brokers"`
	KafkaBrokers        []string       `mapstructure:"-"`
	KafkaTopicEvents    string         `mapstructure:"kafka_topic_events"`
	KafkaTopicBlacklist string         `mapstructure:"kafka_topic_blacklist"`
	ConsumerGroupPrefix string         `mapstructure:"consumer_group_prefix"`
	DatabaseURL         string         `mapstructure:"database_url"`
	RedisAddr           string         `mapstructure:"redis_addr"`
	RedisPassword       string         `mapstructure:"redis_password"`
	RedisDB             int            `mapstructure:"redis_db"`
	RedisKeyPrefix      string         `mapstructure:"redis_key_prefix"`
	LogLevel            string         `mapstructure:"log_level"`
	LogFormat           string         `mapstructure:"log_format"`
	Tracker             tracker.Config `mapstructure:"tracker"`
}

// Load reads defaults, then the optional file named by TRACKER_CONFIG, then the
// environment. Tracker keys map to env as TRACKER_<KEY>, e.g. TRACKER_CRITICAL_SCORE.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("TRACKER_CONFIG")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.KafkaBrokers = splitBrokers(cfg.KafkaBrokersCSV)
	if len(cfg.KafkaBrokers) == 0 {
		cfg.KafkaBrokers = []string{"localhost:19092"}
	}

	if err := cfg.Tracker.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid tracker config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("kafka_brokers", "localhost:19092")
	v.SetDefault("kafka_topic_events", "supplier.events")
	v.SetDefault("kafka_topic_blacklist", "supplier.blacklist")
	v.SetDefault("consumer_group_prefix", "supplier-tracker")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_key_prefix", "supplier")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	d := tracker.DefaultConfig()
	v.SetDefault("tracker.weights.quality", d.Weights.Quality)
	v.SetDefault("tracker.weights.on_time", d.Weights.OnTime)
	v.SetDefault("tracker.weights.success_rate", d.Weights.SuccessRate)
	v.SetDefault("tracker.weights.satisfaction", d.Weights.Satisfaction)
	v.SetDefault("tracker.severity_penalties.low", d.SeverityPenalties.Low)
	v.SetDefault("tracker.severity_penalties.medium", d.SeverityPenalties.Medium)
	v.SetDefault("tracker.severity_penalties.high", d.SeverityPenalties.High)
	v.SetDefault("tracker.severity_penalties.critical", d.SeverityPenalties.Critical)
	v.SetDefault("tracker.critical_score", d.CriticalScore)
	v.SetDefault("tracker.watch_score", d.WatchScore)
	v.SetDefault("tracker.impact_threshold", d.ImpactThreshold)
	v.SetDefault("tracker.permanent_after", d.PermanentAfter)
	v.SetDefault("tracker.suspension_duration", d.SuspensionDuration)
	v.SetDefault("tracker.shipping_window", d.ShippingWindow)
	v.SetDefault("tracker.on_time_target_days", d.OnTimeTargetDays)
	v.SetDefault("tracker.scoring_window", d.ScoringWindow)
	v.SetDefault("tracker.incident_retention", d.IncidentRetention)
}

func splitBrokers(csv string) []string {
	parts := strings.Split(csv, ",")
	brokers := make([]string, 0, len(parts))
	for _, b := range parts {
		if v := strings.TrimSpace(b); v != "" {
			brokers = append(brokers, v)
		}
	}
	return brokers
}
