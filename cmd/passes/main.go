package main

import (
	"fmt"
	"time"

	"visitorpass/internal/passes/events"
	"visitorpass/internal/passes/handler"
	"visitorpass/internal/passes/repository"
	"visitorpass/internal/passes/service"
	"visitorpass/internal/passes/validator"
	"visitorpass/pkg/app"
	"visitorpass/pkg/config"
	"visitorpass/pkg/kafka"
	"visitorpass/pkg/qrcode"
)

const ServiceName = "visitor-pass"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Visitor Pass service")

	serverApp := app.NewApplication(cfg)

	publisher, checks := initPublisher(cfg)
	serverApp.AddCloser(publisher)

	repo, passService := initServices(cfg, publisher)

	serverApp.AddWorker(service.NewSweeper(repo, service.SweeperConfig{
		Interval:  cfg.SweepInterval,
		Retention: cfg.SweepRetention,
		Publisher: publisher,
	}, cfg.Log))

	qr, err := qrcode.NewGenerator(qrcode.Options{
		Width:           cfg.QRWidth,
		Margin:          cfg.QRMargin,
		DarkColor:       cfg.QRDarkColor,
		LightColor:      cfg.QRLightColor,
		ErrorCorrection: cfg.QRErrorCorrection,
	})
	if err != nil {
		cfg.Log.Fatal("Invalid QR code options", "error", err)
	}

	pages, err := handler.LoadPages()
	if err != nil {
		cfg.Log.Fatal("Failed to parse page templates", "error", err)
	}

	serverApp.SetApp(
		handler.NewPassHandler(passService, qr, pages, cfg.PublicBaseURL, cfg.Log),
		handler.NewHealthHandler(passService.Count, checks, cfg.Log),
	)
	serverApp.Run()
}

func initPublisher(cfg *config.Config) (events.Publisher, map[string]handler.ReadinessCheck) {
	if !cfg.KafkaEnabled() {
		cfg.Log.Info("Kafka brokers not configured, pass events disabled")
		return events.NewNoopPublisher(), nil
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaPassTopic,
		Compression: cfg.KafkaCompression,
		Async:       cfg.KafkaAsync,
		ErrorLogger: func(msg string, args ...any) {
			cfg.Log.Warn("Kafka writer error", "detail", fmt.Sprintf(msg, args...))
		},
	})
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	cfg.Log.Info("Kafka pass events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaPassTopic)
	return events.NewKafkaPublisher(producer, 5*time.Second, cfg.Log),
		map[string]handler.ReadinessCheck{"kafka": producer.Ping}
}

func initServices(cfg *config.Config, publisher events.Publisher) (repository.PassRepository, service.PassService) {
	basis, err := repository.ParseStalenessBasis(cfg.SweepBasis)
	if err != nil {
		cfg.Log.Fatal("Invalid sweep basis", "error", err)
	}
	repo := repository.NewMemoryPassRepository(basis)

	keys, err := service.NewKeyGenerator(cfg.PassKeyPolicy)
	if err != nil {
		cfg.Log.Fatal("Invalid pass key policy", "error", err)
	}

	passService := service.NewPassService(
		repo,
		validator.NewPassValidator(cfg.Log),
		cfg.Log,
		service.WithPassTTL(cfg.PassTTL),
		service.WithKeyGenerator(keys),
		service.WithPublisher(publisher),
	)

	cfg.Log.Info("Pass service initialized",
		"key_policy", cfg.PassKeyPolicy,
		"sweep_basis", basis,
	)
	return repo, passService
}
