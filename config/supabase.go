package config

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"

	"github.com/geotsn/aggeliesergasias/internal/store"
)

// NewSupabaseClient connects to the project with the service key. The anon
// key cannot see pending listings, so it is never used here.
func NewSupabaseClient(cfg SupabaseConfig) (*supa.Client, error) {
	client, err := supa.NewClient(cfg.URL, cfg.ServiceKey, nil)
	if err != nil {
		return nil, errors.Wrap(err, "initializing supabase client")
	}
	return client, nil
}

// OpenStore builds the configured store backend. The returned close func
// releases its resources and is never nil.
func OpenStore(ctx context.Context, cfg *Config, log logrus.FieldLogger) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case DriverSupabase:
		client, err := NewSupabaseClient(cfg.Supabase)
		if err != nil {
			return nil, noop, err
		}
		log.WithFields(logrus.Fields{
			"table":   cfg.Store.Table,
			"timeout": cfg.Store.Timeout.String(),
		}).Info("Using Supabase store")
		return store.NewSupabaseStore(client, cfg.Store.Table, log).WithTimeout(cfg.Store.Timeout), noop, nil

	case DriverPostgres:
		db, err := store.OpenPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, noop, err
		}
		log.WithField("table", cfg.Store.Table).Info("Using Postgres store")
		return store.NewPostgresStore(db, cfg.Store.Table), db.Close, nil

	case DriverMemory:
		log.Warn("Using in-memory store; listings are lost on restart")
		return store.NewMemoryStore(), noop, nil

	default:
		return nil, noop, errors.Newf("unknown store.driver %q", cfg.Store.Driver)
	}
}
