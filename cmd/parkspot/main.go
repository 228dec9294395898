package main

import (
	placeshandler "parkspot/internal/places/handler"
	placesrepo "parkspot/internal/places/repository"
	placesservice "parkspot/internal/places/service"
	placesvalidator "parkspot/internal/places/validator"
	reservationshandler "parkspot/internal/reservations/handler"
	reservationsrepo "parkspot/internal/reservations/repository"
	reservationsservice "parkspot/internal/reservations/service"
	reservationsvalidator "parkspot/internal/reservations/validator"
	usershandler "parkspot/internal/users/handler"
	usersrepo "parkspot/internal/users/repository"
	usersservice "parkspot/internal/users/service"
	usersvalidator "parkspot/internal/users/validator"
	vehicleshandler "parkspot/internal/vehicles/handler"
	vehiclesrepo "parkspot/internal/vehicles/repository"
	vehiclesservice "parkspot/internal/vehicles/service"
	vehiclesvalidator "parkspot/internal/vehicles/validator"
	"parkspot/pkg/app"
	"parkspot/pkg/config"
	"parkspot/pkg/contracts"
	"parkspot/pkg/kafka"
	"parkspot/pkg/notify"
	"parkspot/pkg/token"
)

const ServiceName = "parkspot"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting parkspot service")

	tokens := token.NewService(cfg.JWTSecret, cfg.TokenTTL)

	hub := notify.NewHub(cfg.Log)
	broadcaster := notify.Fanout{hub}

	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		var err error
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
		}
		broadcaster = append(broadcaster, notify.NewKafkaSink(producer, cfg.Log))
		cfg.Log.Info("Kafka sink enabled", "topic", cfg.KafkaTopic)
	}

	scheduler := notify.NewScheduler(broadcaster, cfg.Log)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(initHandlers(cfg, tokens, broadcaster, scheduler)...)

	serverApp.OnShutdown(func() {
		scheduler.Stop()
		hub.Close()
		if producer != nil {
			if err := producer.Close(); err != nil {
				cfg.Log.Warn("Failed to close Kafka producer", "error", err)
			}
		}
	})

	serverApp.Run()
}

func initHandlers(cfg *config.Config, tokens *token.Service, broadcaster notify.Broadcaster, scheduler *notify.Scheduler) []contracts.Handler {
	userRepo := usersrepo.NewMongoUserRepository(cfg)
	vehicleRepo := vehiclesrepo.NewMongoVehicleRepository(cfg)
	placeRepo := placesrepo.NewMongoPlaceRepository(cfg)
	reservationRepo := reservationsrepo.NewMongoReservationRepository(cfg)
	lockRepo := reservationsrepo.NewReservationLockRepository(cfg)

	userService := usersservice.NewUserService(userRepo, usersvalidator.NewUserValidator(cfg.Log), cfg)
	vehicleService := vehiclesservice.NewVehicleService(vehicleRepo, userRepo, vehiclesvalidator.NewVehicleValidator(cfg.Log), cfg)
	placeService := placesservice.NewPlaceService(placeRepo, userRepo, reservationRepo, placesvalidator.NewPlaceValidator(cfg.Log), broadcaster, cfg)
	reservationService := reservationsservice.NewReservationService(
		reservationRepo,
		lockRepo,
		placeRepo,
		vehicleRepo,
		userRepo,
		reservationsvalidator.NewReservationValidator(cfg.Log),
		broadcaster,
		scheduler,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		usershandler.NewUserHandler(userService, tokens, cfg.Log),
		vehicleshandler.NewVehicleHandler(vehicleService, tokens, cfg.Log),
		placeshandler.NewPlaceHandler(placeService, tokens, cfg.Log),
		reservationshandler.NewReservationHandler(reservationService, tokens, cfg.Log),
	}
}
