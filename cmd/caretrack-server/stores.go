package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/config"
	"github.com/caretrack/caretrack/internal/domain/appointment"
	"github.com/caretrack/caretrack/internal/domain/medicalrecord"
	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/domain/reference"
	"github.com/caretrack/caretrack/internal/platform/auth"
	"github.com/caretrack/caretrack/internal/platform/db"
	"github.com/caretrack/caretrack/internal/platform/store"
	"github.com/caretrack/caretrack/internal/platform/store/mongostore"
)

// stores holds one repository per record type for the configured driver.
type stores struct {
	driver       string
	patients     patient.Repository
	providers    store.Repository[*reference.Provider]
	types        store.Repository[*reference.Label]
	statuses     store.Repository[*reference.Label]
	appointments appointment.Repository
	records      medicalrecord.Repository
	users        auth.UserRepository

	// pool is set for the postgres driver only.
	pool  *pgxpool.Pool
	check db.Check
	close func()
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to database")
		return &stores{
			driver:       cfg.StoreDriver,
			patients:     patient.NewRepoPG(pool),
			providers:    reference.NewProviderRepoPG(pool),
			types:        reference.NewLabelRepoPG(pool, reference.TypeTable),
			statuses:     reference.NewLabelRepoPG(pool, reference.StatusTable),
			appointments: appointment.NewRepoPG(pool),
			records:      medicalrecord.NewRepoPG(pool),
			users:        auth.NewUserRepoPG(pool),
			pool:         pool,
			check:        pool.Ping,
			close:        pool.Close,
		}, nil

	case config.DriverMongo:
		mdb, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongodb")
		byName := store.SortKey{Field: "name", Direction: store.Asc}
		client := mdb.Client()
		return &stores{
			driver: cfg.StoreDriver,
			patients: mongostore.New[*patient.Patient](mdb, "patients",
				store.SortKey{Field: "last_name", Direction: store.Asc},
				store.SortKey{Field: "first_name", Direction: store.Asc}),
			providers:    mongostore.New[*reference.Provider](mdb, "providers", byName),
			types:        mongostore.New[*reference.Label](mdb, "appointment_types", byName),
			statuses:     mongostore.New[*reference.Label](mdb, "appointment_statuses", byName),
			appointments: mongostore.New[*appointment.Appointment](mdb, "appointments", store.SortKey{Field: "start", Direction: store.Asc}),
			records:      mongostore.New[*medicalrecord.MedicalRecord](mdb, "medical_records", store.SortKey{Field: "date", Direction: store.Desc}),
			users:        mongostore.New[*auth.User](mdb, "users", store.SortKey{Field: "email", Direction: store.Asc}),
			check:        func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Warn().Err(err).Msg("mongodb disconnect failed")
				}
			},
		}, nil

	case config.DriverMemory:
		logger.Warn().Msg("using the in-memory store; data is lost on restart")
		return &stores{
			driver:       cfg.StoreDriver,
			patients:     patient.NewMemoryRepo(),
			providers:    reference.NewProviderMemoryRepo(),
			types:        reference.NewLabelMemoryRepo(),
			statuses:     reference.NewLabelMemoryRepo(),
			appointments: appointment.NewMemoryRepo(),
			records:      medicalrecord.NewMemoryRepo(),
			users:        auth.NewUserMemoryRepo(),
			close:        func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
