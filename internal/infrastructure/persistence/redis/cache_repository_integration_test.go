//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type CacheRepositoryIntegrationSuite struct {
	suite.Suite
	container testcontainers.Container
	repo      *CacheRepository
	ctx       context.Context
}

func (suite *CacheRepositoryIntegrationSuite) SetupSuite() {
	suite.ctx = context.Background()

	container, err := testcontainers.GenericContainer(suite.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort(nat.Port("6379/tcp")),
		},
		Started: true,
	})
	suite.Require().NoError(err)
	suite.container = container

	host, err := container.Host(suite.ctx)
	suite.Require().NoError(err)
	port, err := container.MappedPort(suite.ctx, nat.Port("6379/tcp"))
	suite.Require().NoError(err)

	client, err := NewClient(suite.ctx, &config.RedisConfig{
		Host:         host,
		Port:         port.Int(),
		PoolSize:     5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}, zap.NewNop())
	suite.Require().NoError(err)

	suite.repo = NewCacheRepository(client, "test:", zap.NewNop())
}

func (suite *CacheRepositoryIntegrationSuite) TearDownSuite() {
	if suite.container != nil {
		_ = suite.container.Terminate(suite.ctx)
	}
}

func (suite *CacheRepositoryIntegrationSuite) TestRoundTrip() {
	suite.Require().NoError(suite.repo.Set(suite.ctx, "history", []byte(`{"messages":[]}`), 30*time.Minute))

	got, err := suite.repo.Get(suite.ctx, "history")
	suite.Require().NoError(err)
	suite.Equal(`{"messages":[]}`, string(got))

	ttl, err := suite.repo.TTL(suite.ctx, "history")
	suite.Require().NoError(err)
	suite.InDelta(30*time.Minute, ttl, float64(5*time.Second))

	suite.Require().NoError(suite.repo.Delete(suite.ctx, "history"))
	_, err = suite.repo.Get(suite.ctx, "history")
	suite.ErrorIs(err, outbound.ErrCacheMiss)
}

func (suite *CacheRepositoryIntegrationSuite) TestPing() {
	suite.NoError(suite.repo.Ping(suite.ctx))
}

func TestCacheRepositoryIntegrationSuite(t *testing.T) {
	suite.Run(t, new(CacheRepositoryIntegrationSuite))
}
