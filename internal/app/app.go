// Package app wires configuration to concrete repositories, the session
// store and the event publisher. Shared by the server and the batch CLIs.
package app

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"ctam-data/common/database"
	"ctam-data/common/mqtt"
	rediscommon "ctam-data/common/redis"
	"ctam-data/internal/backend"
	"ctam-data/internal/config"
	"ctam-data/internal/events"
	"ctam-data/internal/repository"
	"ctam-data/internal/resilience"
	"ctam-data/internal/store"
)

// Repositories one implementation per table, chosen by StoreMode.
type Repositories struct {
	Assessments   repository.AssessmentsRepository
	History       repository.HistoryRepository
	Qualitative   repository.QualitativeRepository
	Profiles      repository.ProfilesRepository
	Credentials   repository.CredentialsRepository
	Organizations repository.OrganizationsRepository
	Policies      repository.ReportPoliciesRepository

	closers []io.Closer
}

// Close releases connections opened by OpenRepositories.
func (r *Repositories) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenRepositories memory: everything in process; postgres: all tables in
// the database; remote: assessment data on the hosted backend, credentials
// in postgres when configured, else in memory.
func OpenRepositories(cfg *config.Config, logger *zap.Logger) (*Repositories, error) {
	switch cfg.StoreMode {
	case config.StoreMemory:
		history := repository.NewMemoryHistoryRepo()
		return &Repositories{
			Assessments:   repository.NewMemoryAssessmentsRepo(history),
			History:       history,
			Qualitative:   repository.NewMemoryQualitativeRepo(),
			Profiles:      repository.NewMemoryProfilesRepo(),
			Credentials:   repository.NewMemoryCredentialsRepo(),
			Organizations: repository.NewMemoryOrganizationsRepo(),
			Policies:      repository.NewMemoryReportPoliciesRepo(),
		}, nil

	case config.StorePostgres:
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		logger.Info("Using PostgreSQL store", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Database))
		return &Repositories{
			Assessments:   repository.NewPostgresAssessmentsRepository(db),
			History:       repository.NewPostgresHistoryRepository(db),
			Qualitative:   repository.NewPostgresQualitativeRepository(db),
			Profiles:      repository.NewPostgresProfilesRepository(db),
			Credentials:   repository.NewPostgresCredentialsRepository(db),
			Organizations: repository.NewPostgresOrganizationsRepository(db),
			Policies:      repository.NewPostgresReportPoliciesRepository(db),
			closers:       []io.Closer{db},
		}, nil

	case config.StoreRemote:
		if cfg.Backend.BaseURL == "" {
			return nil, fmt.Errorf("BACKEND_URL is required for store mode %q", cfg.StoreMode)
		}
		c := NewBackendClient(cfg, logger)
		repos := &Repositories{
			Assessments:   backend.NewAssessmentsRepo(c),
			History:       backend.NewHistoryRepo(c),
			Qualitative:   backend.NewQualitativeRepo(c),
			Profiles:      backend.NewProfilesRepo(c),
			Organizations: backend.NewOrganizationsRepo(c),
			Policies:      backend.NewReportPoliciesRepo(c),
		}
		if db, err := database.NewPostgresDB(&cfg.Database); err == nil {
			repos.Credentials = repository.NewPostgresCredentialsRepository(db)
			repos.closers = append(repos.closers, db)
		} else {
			logger.Warn("Credential database unavailable, keeping credentials in memory", zap.Error(err))
			repos.Credentials = repository.NewMemoryCredentialsRepo()
		}
		logger.Info("Using hosted backend store", zap.String("base_url", cfg.Backend.BaseURL))
		return repos, nil
	}
	return nil, fmt.Errorf("unknown store mode %q", cfg.StoreMode)
}

// NewBackendClient hosted backend client with retries and a circuit breaker.
func NewBackendClient(cfg *config.Config, logger *zap.Logger) *backend.Client {
	breaker := resilience.NewCircuitBreaker(cfg.Resilience.BreakerCooldown, cfg.Resilience.BreakerMaxDelay)
	retrier := resilience.NewRetrier(resilience.Policy{
		MaxAttempts: cfg.Resilience.MaxAttempts,
		BaseDelay:   cfg.Resilience.BaseDelay,
		MaxDelay:    cfg.Resilience.MaxDelay,
	}, breaker, logger)
	return backend.NewClient(backend.Config{
		BaseURL:       cfg.Backend.BaseURL,
		AnonKey:       cfg.Backend.AnonKey,
		Email:         cfg.Backend.ServiceEmail,
		Password:      cfg.Backend.ServicePassword,
		Timeout:       cfg.Backend.Timeout,
		RefreshBefore: cfg.Backend.RefreshBefore,
	}, retrier, logger)
}

// OpenSessionStore refresh-session KV: redis, leveldb or memory.
func OpenSessionStore(cfg *config.Config, logger *zap.Logger) (store.KV, io.Closer, error) {
	switch cfg.Session.Store {
	case "redis":
		c := rediscommon.NewRedisClient(&cfg.Redis)
		logger.Info("Using Redis session store", zap.String("addr", cfg.Redis.Addr))
		return store.NewRedisKV(c), c, nil
	case "leveldb":
		kv, err := store.OpenLevelDBKV(cfg.Session.LevelDBDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using LevelDB session store", zap.String("dir", cfg.Session.LevelDBDir))
		return kv, kv, nil
	case "memory", "":
		return store.NewMemoryKV(), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
}

// OpenPublisher status-event sink wrapped so failures are only logged.
func OpenPublisher(cfg *config.Config, logger *zap.Logger) (events.Publisher, func(), error) {
	switch cfg.Events.Kind {
	case "mqtt":
		c, err := mqtt.NewClient(&cfg.Events.MQTT)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}
		logger.Info("Publishing status events to MQTT", zap.String("broker", cfg.Events.MQTT.Broker))
		return events.NewLogged(events.NewMQTTPublisher(c, cfg.Events.TopicPrefix), logger), c.Disconnect, nil
	case "redis":
		c := rediscommon.NewRedisClient(&cfg.Redis)
		logger.Info("Publishing status events to Redis stream", zap.String("stream", cfg.Events.Stream))
		return events.NewLogged(events.NewStreamPublisher(c, cfg.Events.Stream, cfg.Events.StreamMaxLen), logger), func() { _ = c.Close() }, nil
	case "none", "":
		return events.Nop{}, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown events kind %q", cfg.Events.Kind)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
