package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"visitorpass/pkg/logger"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Config struct {
	Port          string
	PublicBaseURL string

	PassTTL       time.Duration
	PassKeyPolicy string

	SweepInterval  time.Duration
	SweepBasis     string
	SweepRetention time.Duration

	QRWidth           int
	// QRMargin is effectively a switch: 0 drops the quiet zone, any
	// positive value keeps the encoder's fixed 4-module border.
	QRMargin          int
	QRDarkColor       string
	QRLightColor      string
	QRErrorCorrection string

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	KafkaBrokers     []string
	KafkaPassTopic   string
	KafkaAsync       bool
	KafkaCompression string

	Log *logger.Logger
}

func Load(serviceName string) *Config {
	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
		Format:    getEnvStr(EnvLogFormat, logger.JSON),
		AddSource: true,
		Service:   serviceName,
	})

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv reads the configuration without building a logger or validating.
func FromEnv() *Config {
	basis := strings.ToLower(getEnvStr(EnvSweepBasis, DefaultSweepBasis))
	retentionDefault := DefaultValidToRetention
	if basis == SweepBasisCreatedAt {
		retentionDefault = DefaultCreatedAtRetention
	}

	return &Config{
		Port:          getEnvStr(EnvPort, DefaultPort),
		PublicBaseURL: strings.TrimRight(getEnvStr(EnvPublicBaseURL, ""), "/"),

		PassTTL:       getEnvDuration(EnvPassTTL, DefaultPassTTL),
		PassKeyPolicy: strings.ToLower(getEnvStr(EnvPassKeyPolicy, DefaultPassKeyPolicy)),

		SweepInterval:  getEnvDuration(EnvSweepInterval, DefaultSweepInterval),
		SweepBasis:     basis,
		SweepRetention: getEnvDuration(EnvSweepRetention, retentionDefault),

		QRWidth:           getEnvNum(EnvQRWidth, DefaultQRWidth),
		QRMargin:          getEnvNum(EnvQRMargin, DefaultQRMargin),
		QRDarkColor:       getEnvStr(EnvQRDarkColor, DefaultQRDarkColor),
		QRLightColor:      getEnvStr(EnvQRLightColor, DefaultQRLightColor),
		QRErrorCorrection: strings.ToUpper(getEnvStr(EnvQRErrorCorrection, DefaultQRErrorCorrection)),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		KafkaBrokers:     splitCSV(os.Getenv(EnvKafkaBrokers)),
		KafkaPassTopic:   getEnvStr(EnvKafkaPassTopic, DefaultKafkaPassTopic),
		KafkaAsync:       getEnvBool(EnvKafkaAsync, DefaultKafkaAsync),
		KafkaCompression: strings.ToLower(getEnvStr(EnvKafkaCompress, DefaultKafkaCompression)),
	}
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.PublicBaseURL != "" {
		u, err := url.Parse(cfg.PublicBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("PublicBaseURL must be an absolute URL, got: %s", cfg.PublicBaseURL))
		}
	}

	if cfg.PassTTL <= 0 {
		errors = append(errors, fmt.Sprintf("PassTTL must be positive, got: %s", cfg.PassTTL))
	}
	if cfg.PassKeyPolicy != KeyPolicyRequestID && cfg.PassKeyPolicy != KeyPolicyToken {
		errors = append(errors, fmt.Sprintf("PassKeyPolicy must be %q or %q, got: %s", KeyPolicyRequestID, KeyPolicyToken, cfg.PassKeyPolicy))
	}

	if cfg.SweepInterval <= 0 {
		errors = append(errors, fmt.Sprintf("SweepInterval must be positive, got: %s", cfg.SweepInterval))
	}
	if cfg.SweepBasis != SweepBasisValidTo && cfg.SweepBasis != SweepBasisCreatedAt {
		errors = append(errors, fmt.Sprintf("SweepBasis must be %q or %q, got: %s", SweepBasisValidTo, SweepBasisCreatedAt, cfg.SweepBasis))
	}
	if cfg.SweepRetention < 0 {
		errors = append(errors, fmt.Sprintf("SweepRetention cannot be negative, got: %s", cfg.SweepRetention))
	}

	if cfg.QRWidth < 21 || cfg.QRWidth > 4096 {
		errors = append(errors, fmt.Sprintf("QRWidth must be between 21 and 4096, got: %d", cfg.QRWidth))
	}
	if cfg.QRMargin < 0 {
		errors = append(errors, fmt.Sprintf("QRMargin cannot be negative, got: %d", cfg.QRMargin))
	}
	if !hexColorRegex.MatchString(cfg.QRDarkColor) {
		errors = append(errors, fmt.Sprintf("QRDarkColor must be #RRGGBB, got: %s", cfg.QRDarkColor))
	}
	if !hexColorRegex.MatchString(cfg.QRLightColor) {
		errors = append(errors, fmt.Sprintf("QRLightColor must be #RRGGBB, got: %s", cfg.QRLightColor))
	}
	switch cfg.QRErrorCorrection {
	case "L", "M", "Q", "H":
	default:
		errors = append(errors, fmt.Sprintf("QRErrorCorrection must be one of L, M, Q, H, got: %s", cfg.QRErrorCorrection))
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaPassTopic == "" {
		errors = append(errors, "KafkaPassTopic cannot be empty when KafkaBrokers is set")
	}
	switch cfg.KafkaCompression {
	case "", "gzip", "snappy", "lz4", "zstd":
	default:
		errors = append(errors, fmt.Sprintf("KafkaCompression must be one of gzip, snappy, lz4, zstd, got: %s", cfg.KafkaCompression))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) KafkaEnabled() bool {
	return len(cfg.KafkaBrokers) > 0
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"public_base_url", cfg.PublicBaseURL,
		"pass_ttl", cfg.PassTTL,
		"pass_key_policy", cfg.PassKeyPolicy,
		"sweep_interval", cfg.SweepInterval,
		"sweep_basis", cfg.SweepBasis,
		"sweep_retention", cfg.SweepRetention,
		"qr_width", cfg.QRWidth,
		"qr_margin", cfg.QRMargin,
		"qr_error_correction", cfg.QRErrorCorrection,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"kafka_enabled", cfg.KafkaEnabled(),
		"kafka_pass_topic", cfg.KafkaPassTopic,
		"kafka_async", cfg.KafkaAsync,
		"kafka_compression", cfg.KafkaCompression,
	)
}

func getEnvStr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
