package config

import "time"

type AuthConfig struct {
	Secret string `mapstructure:"secret" validate:"required"`
}

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RabbitMQConfig struct {
	BrokerLink            string `mapstructure:"broker_link" validate:"required"`
	ExchangeName          string `mapstructure:"exchange_name"`
	ExchangeType          string `mapstructure:"exchange_type"`
	EscalationQueue       string `mapstructure:"escalation_queue"`
	EscalationRoutingKey  string `mapstructure:"escalation_routing_key"`
	RemediationQueue      string `mapstructure:"remediation_queue"`
	RemediationRoutingKey string `mapstructure:"remediation_routing_key"`
}

type EscalationConfig struct {
	// DebounceWindow suppresses repeat escalations for the same monitor.
	// Zero escalates on every failing check.
	DebounceWindow time.Duration `mapstructure:"debounce_window"`
}

type WorkerConfig struct {
	Concurrency       int           `mapstructure:"concurrency" validate:"gte=1"`
	JobTimeout        time.Duration `mapstructure:"job_timeout"`
	DiagnosisScript   string        `mapstructure:"diagnosis_script"`
	RemediationScript string        `mapstructure:"remediation_script"`
	LogEndpoint       string        `mapstructure:"log_endpoint"`
	AlertEndpoint     string        `mapstructure:"alert_endpoint"`
}

type Config struct {
	Env         string            `mapstructure:"env"`
	ServiceName string            `mapstructure:"service_name"`
	Port        int               `mapstructure:"port"`
	DB          *DBConfig         `mapstructure:"db" validate:"required"`
	Redis       *RedisConfig      `mapstructure:"redis" validate:"required"`
	RabbitMQ    *RabbitMQConfig   `mapstructure:"rabbitmq" validate:"required"`
	Auth        *AuthConfig       `mapstructure:"auth" validate:"required"`
	Escalation  *EscalationConfig `mapstructure:"escalation"`
	Worker      *WorkerConfig     `mapstructure:"worker"`
}
