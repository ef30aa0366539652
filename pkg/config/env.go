package config

const (
	EnvPort          = "PORT"
	EnvPublicBaseURL = "PUBLIC_BASE_URL"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFormat     = "LOG_FORMAT"

	EnvPassTTL       = "PASS_TTL"
	EnvPassKeyPolicy = "PASS_KEY_POLICY"

	EnvSweepInterval  = "SWEEP_INTERVAL"
	EnvSweepBasis     = "SWEEP_BASIS"
	EnvSweepRetention = "SWEEP_RETENTION"

	EnvQRWidth           = "QR_WIDTH"
	EnvQRMargin          = "QR_MARGIN"
	EnvQRDarkColor       = "QR_DARK_COLOR"
	EnvQRLightColor      = "QR_LIGHT_COLOR"
	EnvQRErrorCorrection = "QR_ERROR_CORRECTION"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvKafkaBrokers   = "KAFKA_BROKERS"
	EnvKafkaPassTopic = "KAFKA_PASS_TOPIC"
	EnvKafkaAsync     = "KAFKA_ASYNC"
	EnvKafkaCompress  = "KAFKA_COMPRESSION"
)
