package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConf struct {
	Name            string `mapstructure:"name"`
	Env             string `mapstructure:"env"`
	Port            int    `mapstructure:"port"`
	ShutdownSeconds int    `mapstructure:"shutdown_seconds"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_seconds"`
}

func (a AppConf) Addr() string { return fmt.Sprintf(":%d", a.Port) }

type StorageConf struct {
	Driver   string `mapstructure:"driver"` // mongo | memory
	SeedFile string `mapstructure:"seed_file"`
}

type MongoConf struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	// PollSeconds is used by listeners when change streams are unavailable
	// (standalone server without a replica set).
	PollSeconds int `mapstructure:"poll_seconds"`
}

type RedisConf struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type AWSConf struct {
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`
	Endpoint string `mapstructure:"endpoint"`
}

type S3Conf struct {
	PublicRead        bool `mapstructure:"public_read"`
	PresignTTLSeconds int  `mapstructure:"presign_ttl_seconds"`
	AsyncDelete       bool `mapstructure:"async_delete"`
}

type KafkaConf struct {
	Brokers       []string `mapstructure:"brokers"`
	ActivityTopic string   `mapstructure:"activity_topic"`
	MediaTopic    string   `mapstructure:"media_topic"`
	MediaDLQTopic string   `mapstructure:"media_dlq_topic"`
	GroupID       string   `mapstructure:"group_id"`
	MaxRetries    int      `mapstructure:"max_retries"`
}

type NATSConf struct {
	URL string `mapstructure:"url"`
}

type JWTConf struct {
	Secret        string `mapstructure:"secret"`
	Issuer        string `mapstructure:"issuer"`
	AccessMinutes int    `mapstructure:"access_minutes"`
}

type RateLimitConf struct {
	PerIPPerMinute     int `mapstructure:"per_ip_per_minute"`
	WritesPerMinute    int `mapstructure:"writes_per_minute"`
	WriteWindowSeconds int `mapstructure:"write_window_seconds"`
}

type WSConf struct {
	PingIntervalSeconds  int   `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int   `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64 `mapstructure:"max_message_size_bytes"`
}

type ConsulConf struct {
	Addr      string `mapstructure:"addr"`
	ServiceID string `mapstructure:"service_id"`
	Address   string `mapstructure:"address"`
}

type Config struct {
	App       AppConf       `mapstructure:"app"`
	Storage   StorageConf   `mapstructure:"storage"`
	Mongo     MongoConf     `mapstructure:"mongodb"`
	Redis     RedisConf     `mapstructure:"redis"`
	AWS       AWSConf       `mapstructure:"aws"`
	S3        S3Conf        `mapstructure:"s3"`
	Kafka     KafkaConf     `mapstructure:"kafka"`
	NATS      NATSConf      `mapstructure:"nats"`
	JWT       JWTConf       `mapstructure:"jwt"`
	RateLimit RateLimitConf `mapstructure:"ratelimit"`
	WS        WSConf        `mapstructure:"ws"`
	Consul    ConsulConf    `mapstructure:"consul"`

	// derived
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MongoTimeout    time.Duration
	MongoPoll       time.Duration
	PresignTTL      time.Duration
	AccessTTL       time.Duration
	WriteWindow     time.Duration
	PingInterval    time.Duration
	WriteDeadline   time.Duration
}

func (c *Config) Development() bool { return c.App.Env == "development" }

// Load reads the YAML file at path, then applies APP_* environment overrides,
// e.g. APP_MONGODB_URI or APP_JWT_SECRET. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "vietshare"
	}
	if cfg.App.Port == 0 {
		cfg.App.Port = 8080
	}
	if cfg.App.ShutdownSeconds == 0 {
		cfg.App.ShutdownSeconds = 15
	}
	if cfg.App.ReadTimeoutSec == 0 {
		cfg.App.ReadTimeoutSec = 15
	}
	if cfg.App.WriteTimeoutSec == 0 {
		cfg.App.WriteTimeoutSec = 15
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "mongo"
	}
	if cfg.Mongo.TimeoutSeconds == 0 {
		cfg.Mongo.TimeoutSeconds = 10
	}
	if cfg.Mongo.PollSeconds == 0 {
		cfg.Mongo.PollSeconds = 2
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "vs"
	}
	if cfg.S3.PresignTTLSeconds == 0 {
		cfg.S3.PresignTTLSeconds = 600
	}
	if cfg.Kafka.ActivityTopic == "" {
		cfg.Kafka.ActivityTopic = "vietshare.activity"
	}
	if cfg.Kafka.MediaTopic == "" {
		cfg.Kafka.MediaTopic = "vietshare.media.delete"
	}
	if cfg.Kafka.MediaDLQTopic == "" {
		cfg.Kafka.MediaDLQTopic = cfg.Kafka.MediaTopic + ".dlq"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "media-janitor"
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 5
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = cfg.App.Name
	}
	if cfg.JWT.AccessMinutes == 0 {
		cfg.JWT.AccessMinutes = 60 * 24
	}
	if cfg.RateLimit.PerIPPerMinute == 0 {
		cfg.RateLimit.PerIPPerMinute = 600
	}
	if cfg.RateLimit.WritesPerMinute == 0 {
		cfg.RateLimit.WritesPerMinute = 120
	}
	if cfg.RateLimit.WriteWindowSeconds == 0 {
		cfg.RateLimit.WriteWindowSeconds = 60
	}
	if cfg.WS.PingIntervalSeconds == 0 {
		cfg.WS.PingIntervalSeconds = 25
	}
	if cfg.WS.WriteDeadlineSeconds == 0 {
		cfg.WS.WriteDeadlineSeconds = 10
	}
	if cfg.WS.MaxMessageSizeBytes == 0 {
		cfg.WS.MaxMessageSizeBytes = 65536
	}

	cfg.ShutdownTimeout = time.Duration(cfg.App.ShutdownSeconds) * time.Second
	cfg.ReadTimeout = time.Duration(cfg.App.ReadTimeoutSec) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.App.WriteTimeoutSec) * time.Second
	cfg.MongoTimeout = time.Duration(cfg.Mongo.TimeoutSeconds) * time.Second
	cfg.MongoPoll = time.Duration(cfg.Mongo.PollSeconds) * time.Second
	cfg.PresignTTL = time.Duration(cfg.S3.PresignTTLSeconds) * time.Second
	cfg.AccessTTL = time.Duration(cfg.JWT.AccessMinutes) * time.Minute
	cfg.WriteWindow = time.Duration(cfg.RateLimit.WriteWindowSeconds) * time.Second
	cfg.PingInterval = time.Duration(cfg.WS.PingIntervalSeconds) * time.Second
	cfg.WriteDeadline = time.Duration(cfg.WS.WriteDeadlineSeconds) * time.Second
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "mongo":
		if cfg.Mongo.URI == "" {
			return errors.New("mongodb.uri missing")
		}
		if cfg.Mongo.Database == "" {
			return errors.New("mongodb.database missing")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid storage.driver %q (use mongo or memory)", cfg.Storage.Driver)
	}
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret missing")
	}
	return nil
}
