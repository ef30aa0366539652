package config

import "time"

const (
	KeyPolicyRequestID = "request_id"
	KeyPolicyToken     = "token"

	SweepBasisValidTo   = "valid_to"
	SweepBasisCreatedAt = "created_at"
)

const (
	DefaultPort     = "3000"
	DefaultLogLevel = "info"

	DefaultPassTTL       = 24 * time.Hour
	DefaultPassKeyPolicy = KeyPolicyRequestID

	DefaultSweepInterval = 1 * time.Hour
	DefaultSweepBasis    = SweepBasisValidTo
	// Retention depends on the basis: one hour past validTo, or a full day
	// past createdAt.
	DefaultValidToRetention   = 1 * time.Hour
	DefaultCreatedAtRetention = 24 * time.Hour

	DefaultQRWidth           = 350
	DefaultQRMargin          = 2
	DefaultQRDarkColor       = "#000000"
	DefaultQRLightColor      = "#FFFFFF"
	DefaultQRErrorCorrection = "M"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 64 * 1024 // 64KB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultKafkaPassTopic   = "visitor-passes"
	DefaultKafkaAsync       = true
	DefaultKafkaCompression = "snappy"
)
