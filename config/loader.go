package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// defaults first
	setDefaults(v)

	// File config
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Env config
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("service_name", "epitrace-backend")
	v.SetDefault("port", 8080)

	v.SetDefault("db.max_open_conns", 50)
	v.SetDefault("db.min_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "1h")
	v.SetDefault("db.conn_max_idle_time", "30m")
	v.SetDefault("db.health_timeout", "5s")

	v.SetDefault("rabbitmq.exchange_name", "epitrace.jobs")
	v.SetDefault("rabbitmq.exchange_type", "direct")
	v.SetDefault("rabbitmq.escalation_queue", "down-monitors")
	v.SetDefault("rabbitmq.escalation_routing_key", "monitor.down")
	v.SetDefault("rabbitmq.remediation_queue", "code-jobs")
	v.SetDefault("rabbitmq.remediation_routing_key", "remediation.requested")

	v.SetDefault("escalation.debounce_window", "10m")

	v.SetDefault("worker.concurrency", 5)
	v.SetDefault("worker.job_timeout", "15m")
	v.SetDefault("worker.diagnosis_script", "run-diagnosis-job.sh")
	v.SetDefault("worker.remediation_script", "run-remediation-job.sh")
	v.SetDefault("worker.alert_endpoint", "http://localhost:8080/api/v1/alerts/send")
	v.SetDefault("worker.log_endpoint", "http://localhost:8080/api/v1/logs/worker")
}

func validateConfig(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return formatValidationErrors(ve)
		}
		return err
	}
	return nil
}

func formatValidationErrors(ve validator.ValidationErrors) error {
	var sb strings.Builder
	sb.WriteString("config validation failed:\n")

	for _, fe := range ve {
		fmt.Fprintf(&sb, "- field '%s' failed on '%s'\n", fe.Namespace(), fe.Tag())
	}
	return errors.New(sb.String())
}
