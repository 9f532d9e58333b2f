package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/tmplledger/internal/config"
	"github.com/roach88/tmplledger/internal/ledger"
	"github.com/roach88/tmplledger/internal/logger"
	"github.com/roach88/tmplledger/internal/metrics"
	"github.com/roach88/tmplledger/internal/store/cache"
	"github.com/roach88/tmplledger/internal/store/memstore"
	"github.com/roach88/tmplledger/internal/store/observe"
	"github.com/roach88/tmplledger/internal/store/pg"
	"github.com/roach88/tmplledger/internal/store/sqlite"
)

const (
	envDB     = config.EnvDB
	envDriver = config.EnvDriver
)

var errConfig = errors.New("configuration error")

// session is one opened ledger plus the ambient services around it.
type session struct {
	ledger  *ledger.Ledger
	log     *logger.Logger
	metrics *metrics.Metrics

	dumpMetrics io.Writer
	closeStore  func() error
}

// resolveConfig layers defaults, the config file, the environment and
// finally any flags the user set.
func (opts *RootOptions) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return cfg, fmt.Errorf("%w: %v", errConfig, err)
		}
	}

	lookup := opts.lookupEnv
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	cfg, err := cfg.FromEnv(lookup)
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", errConfig, err)
	}

	if opts.Database != "" {
		cfg.Driver = config.DriverSQLite
		cfg.DSN = opts.Database
	}
	if opts.Driver != "" {
		cfg.Driver = opts.Driver
	}
	if opts.DSN != "" {
		cfg.DSN = opts.DSN
	}
	if cmd.Flags().Changed("cache-size") {
		cfg.CacheSize = opts.CacheSize
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %v", errConfig, err)
	}
	return cfg, nil
}

// openSession opens the configured store and wraps it with the cache and
// the observing decorator.
func openSession(ctx context.Context, cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, err := opts.resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
	})
	m := metrics.New(prometheus.NewRegistry())

	var (
		st         ledger.Store
		closeStore = func() error { return nil }
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		st, closeStore = s, s.Close
	case config.DriverPG:
		s, err := pg.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		st, closeStore = s, s.Close
	case config.DriverMemory:
		st = memstore.New()
	}

	if cfg.CacheSize > 0 {
		c, err := cache.New(st, cfg.CacheSize)
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("%w: %v", errConfig, err)
		}
		st = c
	}
	st = observe.New(st, log, m)

	log.Debug().
		Str("driver", cfg.Driver).
		Int("cache_size", cfg.CacheSize).
		Msg("store opened")

	var ledgerOpts []ledger.Option
	if opts.clock != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithClock(opts.clock))
	}
	if opts.ids != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithIDGenerator(opts.ids))
	}

	s := &session{
		ledger:     ledger.New(st, ledgerOpts...),
		log:        log,
		metrics:    m,
		closeStore: closeStore,
	}
	if opts.Metrics {
		s.dumpMetrics = cmd.ErrOrStderr()
	}
	return s, nil
}

// recordWrite logs and counts a Create or Update result.
func (s *session) recordWrite(op string, rec ledger.Record, outcome ledger.Outcome) {
	s.log.LogWrite(op, rec.DocumentID, rec.Version, outcome.String())
	s.metrics.RecordWrite(op, outcome.String())
}

// Close dumps metrics when requested and closes the store.
func (s *session) Close() error {
	if s.dumpMetrics != nil {
		if err := s.metrics.Dump(s.dumpMetrics); err != nil {
			s.log.Warn().Err(err).Msg("failed to dump metrics")
		}
	}
	return s.closeStore()
}
