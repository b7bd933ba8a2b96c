package di

import (
	"context"
	"io"
	"strings"
	"testing"

	"favorites-reconciler/internal/reconcile"
	"favorites-reconciler/internal/reconcile/config"
	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/reconcile/testutil"
	"favorites-reconciler/internal/shared/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ContainerTestSuite struct {
	suite.Suite
	container *Container
	streams   reconcile.Streams
}

func (s *ContainerTestSuite) SetupTest() {
	s.container = NewContainer()
	s.streams = reconcile.Streams{Stdin: strings.NewReader(""), Stdout: io.Discard, Stderr: io.Discard}
}

func (s *ContainerTestSuite) TearDownTest() {
	_ = s.container.Close()
}

func (s *ContainerTestSuite) TestInitializeReconcile() {
	// Act
	err := s.container.InitializeReconcile(config.Default(), logger.NewNopLogger(), s.streams, reconcile.Overrides{})

	// Assert
	s.Require().NoError(err)
	s.NotNil(s.container.GetReconcileModule())
	s.NotNil(s.container.GetReconcileModule().GetUsecase())
}

func (s *ContainerTestSuite) TestInitializeTwiceFails() {
	s.Require().NoError(s.container.InitializeReconcile(config.Default(), nil, s.streams, reconcile.Overrides{}))
	s.Error(s.container.InitializeReconcile(config.Default(), nil, s.streams, reconcile.Overrides{}))
}

func (s *ContainerTestSuite) TestInitializeWithoutConfigFails() {
	s.Error(s.container.InitializeReconcile(nil, nil, s.streams, reconcile.Overrides{}))
	s.Nil(s.container.GetReconcileModule())
}

func (s *ContainerTestSuite) TestInitializeDoesNotContactAuditRedis() {
	// Arrange
	redisServer := miniredis.RunT(s.T())
	cfg := config.Default()
	cfg.Audit.RedisURL = "redis://" + redisServer.Addr()

	// Act
	err := s.container.InitializeReconcile(cfg, nil, s.streams, reconcile.Overrides{})

	// Assert
	s.Require().NoError(err)
	s.Nil(s.container.GetReconcileModule().AuditLog())
	s.Equal(0, redisServer.CommandCount())
}

func (s *ContainerTestSuite) TestCleanupReleasesModule() {
	s.Require().NoError(s.container.InitializeReconcile(config.Default(), nil, s.streams, reconcile.Overrides{}))
	s.NoError(s.container.Cleanup(context.Background()))
	s.Nil(s.container.GetReconcileModule())
}

func TestContainerTestSuite(t *testing.T) {
	suite.Run(t, new(ContainerTestSuite))
}

func TestContainer_RunsJobWithOverrides(t *testing.T) {
	store := testutil.NewMemoryStore().WithBots("b1").WithUser("u1", "b1", "b9")
	container := NewContainer()
	defer container.Close()

	err := container.InitializeReconcile(config.Default(), logger.NewNopLogger(), reconcile.Streams{
		Stdin: strings.NewReader(""), Stdout: io.Discard, Stderr: io.Discard,
	}, reconcile.Overrides{
		Connector: &testutil.Connector{Store: store},
		Loader:    &testutil.StaticLoader{Credential: testutil.TestCredential()},
	})
	require.NoError(t, err)

	result, err := container.GetReconcileModule().GetUsecase().Run(context.Background(), model.RunOptions{
		CredentialSource: "sa.json",
		DryRun:           true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeDryRun, result.Outcome)
	assert.Empty(t, store.Deleted())
}
