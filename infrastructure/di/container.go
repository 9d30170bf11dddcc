package di

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/loadcontrol"
	"github.com/2lar-b2/orchestrator/application/scheduler"
	"github.com/2lar-b2/orchestrator/infrastructure/config"
	"github.com/2lar-b2/orchestrator/infrastructure/messaging/eventbridge"
	"github.com/2lar-b2/orchestrator/infrastructure/persistence/dynamodb"
	"github.com/2lar-b2/orchestrator/interfaces/http/health"
	"github.com/2lar-b2/orchestrator/interfaces/http/rest/handlers"
)

// Container holds every wired collaborator main.go needs: the HTTP-facing
// pieces (for the router) and the background loops (for Start/Stop around
// the server's own lifecycle). Grounded on the teacher's Container struct
// shape, built by direct assembly here rather than wire.Build/wire_gen.go.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Repo      *dynamodb.WorkflowRepository
	Publisher *eventbridge.Publisher
	Outbox    *eventbridge.OutboxProcessor
	LoadCtrl  *loadcontrol.Controller
	Scheduler *scheduler.Scheduler

	WorkflowHandler *handlers.WorkflowHandler
	Health          *health.Checker
}

// NewContainer assembles the full dependency graph.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	dynamoClient := ProvideDynamoDBClient(awsCfg)
	eventBridgeClient := ProvideEventBridgeClient(awsCfg)
	cloudWatchClient := ProvideCloudWatchClient(awsCfg)
	redisClient := ProvideRedisClient(cfg)
	fasthttpClient := ProvideFasthttpClient(cfg)

	metrics := ProvideMetrics(cfg, cloudWatchClient)

	repo := ProvideWorkflowRepository(dynamoClient, cfg, logger)
	lock := ProvideLock(redisClient)
	publisher := ProvidePublisher(eventBridgeClient, cfg, logger)
	outbox := ProvideOutboxProcessor(repo, publisher, cfg, logger)

	loadCtrl := ProvideLoadController(metrics, logger)
	remoteCaller := ProvideRemoteCaller(fasthttpClient, cfg, loadCtrl, logger)

	systemClock := ProvideClock()
	coordinator := ProvideSagaCoordinator(metrics, logger)
	submission := ProvideSubmissionService(repo, publisher, logger)
	execution := ProvideExecutionService(repo, publisher, lock, systemClock, coordinator, cfg, logger)
	dispatcher := ProvideStepDispatcher(execution, remoteCaller, systemClock, metrics, logger)

	domainCfg := ProvideDomainConfig(cfg)
	registry := ProvideTemplateRegistry(domainCfg)
	sched := ProvideScheduler(repo, dispatcher, loadCtrl, registry, logger)

	errorHandler := ProvideErrorHandler(cfg, logger)
	workflowHandler := handlers.NewWorkflowHandler(submission, execution, repo, registry.Lookup, logger, errorHandler)
	healthChecker := health.NewChecker(repo, lock, cfg.RemoteCallTimeout)

	return &Container{
		Config:          cfg,
		Logger:          logger,
		Repo:            repo,
		Publisher:       publisher,
		Outbox:          outbox,
		LoadCtrl:        loadCtrl,
		Scheduler:       sched,
		WorkflowHandler: workflowHandler,
		Health:          healthChecker,
	}, nil
}

// Start begins every background loop the container owns.
func (c *Container) Start(ctx context.Context) {
	c.Outbox.Start(ctx)
	c.LoadCtrl.Start(c.Config.SchedulerBaseTickInterval)
	c.Scheduler.Start(ctx)
}

// Stop gracefully stops every background loop, in reverse start order.
func (c *Container) Stop() {
	c.Scheduler.Stop()
	c.LoadCtrl.Stop()
	c.Outbox.Stop()
}
