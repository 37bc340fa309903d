package config

import (
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds everything the service needs at startup. Values come from a yaml
// file, with environment variables taking precedence so deployments can override
// single fields without shipping a new file.
type Config struct {
	App struct {
		ServiceName string `yaml:"service_name"`
		Port        int    `yaml:"port"`
		Environment string `yaml:"environment"`
	} `yaml:"app"`

	Infra struct {
		MySQL struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`
		Redis struct {
			Addrs string `yaml:"addrs"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers           string `yaml:"brokers"`
			AuditTopic        string `yaml:"audit_topic"`
			NotificationTopic string `yaml:"notification_topic"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Zookeeper struct {
			Addrs string `yaml:"addrs"`
		} `yaml:"zookeeper"`
		Nacos struct {
			ServerAddrs string `yaml:"server_addrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`

	Stock struct {
		// AlertRule is a CEL expression over on_hand/reserved/available/
		// low_stock_threshold/reorder_level. Empty disables alerting.
		AlertRule       string `yaml:"alert_rule"`
		AlertWebhookURL string `yaml:"alert_webhook_url"`
	} `yaml:"stock"`
}

var (
	current Config
	once    sync.Once
)

// Load reads the config file at path (CONFIG_PATH wins over the argument),
// applies env overrides and caches the result for GetCurrent.
func Load(path string) (*Config, error) {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		path = p
	}

	var cfg Config
	applyDefaults(&cfg)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(&cfg)

	once.Do(func() { current = cfg })
	return &cfg, nil
}

// GetCurrent returns the config loaded at startup.
func GetCurrent() *Config {
	return &current
}

func applyDefaults(cfg *Config) {
	cfg.App.ServiceName = "order-backend"
	cfg.App.Port = 8080
	cfg.App.Environment = "development"
	cfg.Infra.MySQL.Host = "localhost"
	cfg.Infra.MySQL.Port = 3306
	cfg.Infra.MySQL.User = "root"
	cfg.Infra.MySQL.Database = "ecommerce"
	cfg.Infra.Redis.Addrs = "localhost:6379"
	cfg.Infra.Kafka.Brokers = "localhost:9092"
	cfg.Infra.Kafka.AuditTopic = "order-audit"
	cfg.Infra.Kafka.NotificationTopic = "notifications"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Zookeeper.Addrs = "localhost:2181"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	cfg.Stock.AlertRule = "available <= low_stock_threshold"
}

func applyEnvOverrides(cfg *Config) {
	set := func(target *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*target = v
		}
	}
	set(&cfg.Infra.MySQL.Host, "MYSQL_HOST")
	set(&cfg.Infra.MySQL.User, "MYSQL_USER")
	set(&cfg.Infra.MySQL.Password, "MYSQL_PASSWORD")
	set(&cfg.Infra.MySQL.Database, "MYSQL_DATABASE")
	set(&cfg.Infra.Redis.Addrs, "REDIS_ADDRS")
	set(&cfg.Infra.Kafka.Brokers, "KAFKA_BROKERS")
	set(&cfg.Infra.Jaeger.Endpoint, "JAEGER_ENDPOINT")
	set(&cfg.Infra.Zookeeper.Addrs, "ZOOKEEPER_ADDRS")
	set(&cfg.Infra.Nacos.ServerAddrs, "NACOS_SERVER_ADDRS")
	set(&cfg.Infra.Nacos.Namespace, "NACOS_NAMESPACE")
	set(&cfg.Infra.Nacos.Group, "NACOS_GROUP")
	set(&cfg.Stock.AlertRule, "STOCK_ALERT_RULE")
	set(&cfg.Stock.AlertWebhookURL, "STOCK_ALERT_WEBHOOK_URL")
}

// KafkaBrokers splits the comma separated broker list.
func (c *Config) KafkaBrokers() []string {
	return strings.Split(c.Infra.Kafka.Brokers, ",")
}
