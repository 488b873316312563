package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/domain/reference"
	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/store"
)

var seedStatuses = []form.Values{
	{"name": "Scheduled", "color": "#3b82f6"},
	{"name": "Confirmed", "color": "#22c55e"},
	{"name": "Checked In", "color": "#a855f7"},
	{"name": "In Progress", "color": "#eab308"},
	{"name": "Completed", "color": "#16a34a"},
	{"name": "Cancelled", "color": "#ef4444"},
	{"name": "No-show", "color": "#dc2626"},
	{"name": "Rescheduled", "color": "#9333ea"},
}

var seedTypes = []form.Values{
	{"name": "Check-up", "color": "#0ea5e9"},
	{"name": "Follow-up", "color": "#14b8a6"},
	{"name": "Consultation", "color": "#6366f1"},
	{"name": "Procedure", "color": "#f97316"},
}

var seedProviders = []form.Values{
	{"name": "Dr. Sarah Chen", "specialty": "Family Medicine", "color": "#4f46e5", "available": true},
	{"name": "Dr. Marcus Webb", "specialty": "Cardiology", "color": "#db2777", "available": true},
	{"name": "Dr. Priya Nair", "specialty": "Pediatrics", "color": "#059669", "available": false},
}

var seedPatients = []form.Values{
	{"first_name": "Jane", "last_name": "Doe", "dob": "1985-04-12", "gender": "Female", "phone": "555-0101", "email": "jane.doe@example.com", "allergies": "Penicillin"},
	{"first_name": "John", "last_name": "Roe", "dob": "1972-11-30", "gender": "Male", "phone": "555-0102", "medical_conditions": "Hypertension"},
	{"first_name": "Ann", "last_name": "Lee", "dob": "2012-06-08", "gender": "Female", "phone": "555-0103", "insurance_provider": "Acme Health"},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo reference data and patients into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(os.Getenv("ENV"))
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}
			ctx := context.Background()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()
			return seed(ctx, a.refs, a.patients, logger)
		},
	}
}

// seed fills each empty catalog. Catalogs that already hold rows are left
// alone so the command can be rerun.
func seed(ctx context.Context, refs *reference.Service, patients *patient.Service, logger zerolog.Logger) error {
	if err := seedCatalog(ctx, refs.Statuses, seedStatuses, logger); err != nil {
		return err
	}
	if err := seedCatalog(ctx, refs.Types, seedTypes, logger); err != nil {
		return err
	}
	if err := seedCatalog(ctx, refs.Providers, seedProviders, logger); err != nil {
		return err
	}

	existing, err := patients.All(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info().Int("count", len(existing)).Msg("patients already present, skipping")
		return nil
	}
	for _, v := range seedPatients {
		if _, err := patients.Create(ctx, v); err != nil {
			return fmt.Errorf("seed patient %s %s: %w", v["first_name"], v["last_name"], err)
		}
	}
	logger.Info().Int("count", len(seedPatients)).Msg("seeded patients")
	return nil
}

func seedCatalog[T store.Entity](ctx context.Context, c *reference.Catalog[T], rows []form.Values, logger zerolog.Logger) error {
	existing, err := c.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info().Str("catalog", c.Name()).Int("count", len(existing)).Msg("already seeded, skipping")
		return nil
	}
	for _, v := range rows {
		if _, err := c.Create(ctx, v); err != nil {
			return fmt.Errorf("seed %s %v: %w", c.Name(), v["name"], err)
		}
	}
	logger.Info().Str("catalog", c.Name()).Int("count", len(rows)).Msg("seeded")
	return nil
}
