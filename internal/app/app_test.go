package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ctam-data/internal/config"
	"ctam-data/internal/domain"
	"ctam-data/internal/events"
	"ctam-data/internal/store"
)

func TestOpenRepositories_MemoryAndUnknown(t *testing.T) {
	cfg := &config.Config{StoreMode: config.StoreMemory}
	repos, err := OpenRepositories(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, repos.Close())

	cfg.StoreMode = "sqlite"
	_, err = OpenRepositories(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg.StoreMode = config.StoreRemote
	_, err = OpenRepositories(cfg, zap.NewNop())
	assert.Error(t, err, "remote needs a backend URL")
}

func TestOpenSessionStoreAndPublisher(t *testing.T) {
	cfg := &config.Config{}
	kv, closer, err := OpenSessionStore(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryKV{}, kv)
	assert.NoError(t, closer.Close())

	cfg.Session.Store = "leveldb"
	cfg.Session.LevelDBDir = t.TempDir()
	kv, closer, err = OpenSessionStore(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &store.LevelDBKV{}, kv)
	assert.NoError(t, closer.Close())

	cfg.Session.Store = "etcd"
	_, _, err = OpenSessionStore(cfg, zap.NewNop())
	assert.Error(t, err)

	pub, stop, err := OpenPublisher(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, events.Nop{}, pub)
	stop()
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	ctx := context.Background()
	repos, err := OpenRepositories(&config.Config{StoreMode: config.StoreMemory}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, SeedAdmin(ctx, repos, "admin@moph.go.th", "ChangeMe123!", zap.NewNop()))
	require.NoError(t, SeedAdmin(ctx, repos, "admin@moph.go.th", "other-password", zap.NewNop()))

	p, err := repos.Profiles.GetByEmail(ctx, "admin@moph.go.th")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCentralAdmin, p.Role)

	cred, err := repos.Credentials.GetByEmail(ctx, "admin@moph.go.th")
	require.NoError(t, err)
	assert.Equal(t, p.ID, cred.ProfileID)
}
