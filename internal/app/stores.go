package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"formflow/internal/appointments"
	"formflow/internal/forms"
	"formflow/internal/platform/lock"
	"formflow/internal/platform/postgres"
	"formflow/internal/platform/ratelimit"
	"formflow/internal/platform/redis"
	"formflow/internal/registrations"
	"formflow/internal/submissions/models"
	substore "formflow/internal/submissions/store"
	"formflow/internal/variables"
	"formflow/pkg/platform/audit"
	auditmemory "formflow/pkg/platform/audit/store/memory"
	auditpostgres "formflow/pkg/platform/audit/store/postgres"
)

// submissionStore is what both the step flow and the registration stages need.
type submissionStore interface {
	registrations.Store
	Create(ctx context.Context, sub *models.Submission) error
}

type stores struct {
	submissions  submissionStore
	forms        forms.Store
	values       variables.Store
	appointments appointments.Store
	audit        audit.Store
}

// openStores selects Postgres when a database URL is configured and in-memory stores
// otherwise.
func (a *App) openStores(ctx context.Context) (stores, error) {
	if a.cfg.Database.URL == "" {
		a.logger.Warn("no database configured, using in-memory stores")
		return stores{
			submissions:  substore.NewInMemoryStore(),
			forms:        forms.NewInMemoryStore(),
			values:       variables.NewInMemoryStore(),
			appointments: appointments.NewInMemoryStore(),
			audit:        auditmemory.NewInMemoryStore(),
		}, nil
	}

	db, err := postgres.Open(ctx, a.cfg.Database)
	if err != nil {
		return stores{}, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	a.health["database"] = db.PingContext
	if a.cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return stores{}, err
		}
		a.logger.Info("database schema applied")
	}
	return stores{
		submissions:  substore.NewPostgresStore(db),
		forms:        forms.NewPostgresStore(db),
		values:       variables.NewPostgresStore(db),
		appointments: appointments.NewPostgresStore(db),
		audit:        auditpostgres.New(db),
	}, nil
}

// shared holds the coordination primitives that span server instances when Redis
// is configured.
type shared struct {
	locker  lock.Locker
	limiter ratelimit.Store
}

// openShared selects Redis backed locks and rate limits when Redis is configured.
func (a *App) openShared(ctx context.Context) (shared, error) {
	client, err := redis.New(ctx, a.cfg.Redis)
	if err != nil {
		return shared{}, err
	}
	if client == nil {
		a.logger.Warn("no redis configured, registration locks and rate limits are process local")
		return shared{locker: lock.NewMemory(), limiter: ratelimit.NewMemory()}, nil
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.health["redis"] = client.Health
	return shared{locker: lock.NewRedis(client.Client), limiter: ratelimit.NewRedis(client.Client)}, nil
}

// seedForms loads every *.json form document from the configured directory.
func (a *App) seedForms(ctx context.Context, store forms.Store) error {
	if a.cfg.Forms.Dir == "" {
		return nil
	}
	paths, err := filepath.Glob(filepath.Join(a.cfg.Forms.Dir, "*.json"))
	if err != nil {
		return fmt.Errorf("list form documents: %w", err)
	}
	sort.Strings(paths)
	for _, path := range paths {
		form, err := LoadForm(path)
		if err != nil {
			return err
		}
		if err := store.Save(ctx, form); err != nil {
			return fmt.Errorf("save form %s: %w", path, err)
		}
		a.logger.Info("form loaded", "form_id", form.ID.String(), "name", form.Name)
	}
	return nil
}

// LoadForm reads and validates one form document.
func LoadForm(path string) (*forms.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form %s: %w", path, err)
	}
	form, err := forms.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode form %s: %w", path, err)
	}
	return form, nil
}
