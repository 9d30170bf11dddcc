//go:build wireinject
// +build wireinject

// This file documents the dependency graph in google/wire's injector
// shape, grounded on the teacher's wire.go. It is excluded from normal
// builds by the wireinject tag; container.go is the hand-assembled
// equivalent actually compiled and run, since no wire_gen.go has been
// generated for this graph (see DESIGN.md).
package di

import (
	"context"

	"github.com/google/wire"

	"github.com/2lar-b2/orchestrator/infrastructure/config"
)

// SuperSet is the full provider set, mirroring container.go's assembly
// order.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideRedisClient,
	ProvideFasthttpClient,
	ProvideMetrics,
	ProvideWorkflowRepository,
	ProvideLock,
	ProvidePublisher,
	ProvideOutboxProcessor,
	ProvideLoadController,
	ProvideRemoteCaller,
	ProvideClock,
	ProvideSagaCoordinator,
	ProvideSubmissionService,
	ProvideExecutionService,
	ProvideStepDispatcher,
	ProvideDomainConfig,
	ProvideTemplateRegistry,
	ProvideScheduler,
	ProvideErrorHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer is the wire injector stub; `wire` codegen would
// replace this body with wire_gen.go. container.NewContainer is what
// actually runs.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
