// Package di wires the orchestrator's ports to their concrete adapters.
// Grounded on the teacher's providers.go (one Provide* function per
// collaborator, threading *config.Config and the AWS SDK clients through).
// The teacher wires these through google/wire codegen (wire.go +
// wire_gen.go); this package instead assembles the graph directly in
// NewContainer, since it is a small, acyclic, hand-auditable graph and the
// wire CLI has no generated output checked in here to regenerate from.
package di

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/loadcontrol"
	"github.com/2lar-b2/orchestrator/application/ports"
	"github.com/2lar-b2/orchestrator/application/sagas"
	"github.com/2lar-b2/orchestrator/application/scheduler"
	"github.com/2lar-b2/orchestrator/application/services"
	domainconfig "github.com/2lar-b2/orchestrator/domain/config"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	"github.com/2lar-b2/orchestrator/infrastructure/clock"
	"github.com/2lar-b2/orchestrator/infrastructure/config"
	"github.com/2lar-b2/orchestrator/infrastructure/lock/redislock"
	"github.com/2lar-b2/orchestrator/infrastructure/messaging/eventbridge"
	"github.com/2lar-b2/orchestrator/infrastructure/persistence/dynamodb"
	"github.com/2lar-b2/orchestrator/infrastructure/rpc"
	"github.com/2lar-b2/orchestrator/infrastructure/templates"
	pkgerrors "github.com/2lar-b2/orchestrator/pkg/errors"
	"github.com/2lar-b2/orchestrator/pkg/observability"
)

// ProvideLogger builds the environment-appropriate zap logger, matching
// the teacher's ProvideLogger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig loads the AWS SDK config for the configured region.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
}

// ProvideDynamoDBClient constructs the DynamoDB client.
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient constructs the EventBridge client.
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient constructs the CloudWatch client, used by
// pkg/observability's metrics emitter.
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideRedisClient constructs the go-redis client backing the
// distributed lock port.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// ProvideWorkflowRepository wires the DynamoDB-backed WorkflowRepository.
func ProvideWorkflowRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.WorkflowRepository {
	return dynamodb.NewWorkflowRepository(client, cfg.WorkflowTable, cfg.WorkflowTableGSI1, cfg.WorkflowTableGSI2, logger)
}

// ProvideLock wires the Redis-backed Lock port.
func ProvideLock(client *redis.Client) *redislock.Lock {
	return redislock.NewLock(client)
}

// ProvidePublisher wires the EventBridge event publisher.
func ProvidePublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) *eventbridge.Publisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideOutboxProcessor wires the background outbox redelivery loop.
func ProvideOutboxProcessor(repo *dynamodb.WorkflowRepository, publisher *eventbridge.Publisher, cfg *config.Config, logger *zap.Logger) *eventbridge.OutboxProcessor {
	return eventbridge.NewOutboxProcessor(repo, publisher, cfg.OutboxBatchSize, cfg.OutboxInterval, logger)
}

// ProvideFasthttpClient constructs the pooled fasthttp client the RPC
// transport issues calls through.
func ProvideFasthttpClient(cfg *config.Config) *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:     256,
		MaxIdleConnDuration: 30 * time.Second,
		ReadTimeout:         cfg.RemoteCallTimeout,
		WriteTimeout:        cfg.RemoteCallTimeout,
	}
}

// ProvideMetrics wires the CloudWatch metrics emitter. When EnableMetrics is
// false, it returns nil: every Metrics method is nil-safe, so downstream
// collaborators can hold the pointer unconditionally rather than branching
// on the flag themselves.
func ProvideMetrics(cfg *config.Config, client *awscloudwatch.Client) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewMetrics(cfg.MetricsNamespace, client)
}

// ProvideLoadController wires the load monitor, fed by no background
// SnapshotSource (nil): the RPC caller records snapshots inline per call,
// so there is nothing for a polling source to pull that Record doesn't
// already push (§4.8).
func ProvideLoadController(metrics *observability.Metrics, logger *zap.Logger) *loadcontrol.Controller {
	return loadcontrol.NewController(nil, valueobjects.DefaultLoadThresholds(), metrics, logger)
}

// ProvideRemoteCaller wires the RemoteCall port, backed by the fasthttp
// transport and recording load snapshots into loadCtrl as calls complete.
func ProvideRemoteCaller(client *fasthttp.Client, cfg *config.Config, loadCtrl *loadcontrol.Controller, logger *zap.Logger) *rpc.Caller {
	transport := rpc.NewHTTPTransport(client, rpc.StaticResolver(cfg.ServiceEndpoints), logger)
	rpcCfg := rpc.DefaultConfig()
	rpcCfg.MaxRetries = 3
	return rpc.NewCaller(transport, rpcCfg, loadCtrl.Record, logger)
}

// ProvideSagaCoordinator wires the saga coordinator.
func ProvideSagaCoordinator(metrics *observability.Metrics, logger *zap.Logger) *sagas.Coordinator {
	return sagas.NewCoordinator(logger, metrics)
}

// ProvideSubmissionService wires the workflow submission service.
func ProvideSubmissionService(repo *dynamodb.WorkflowRepository, publisher *eventbridge.Publisher, logger *zap.Logger) *services.SubmissionService {
	return services.NewSubmissionService(repo, publisher, logger)
}

// ProvideClock wires the production Clock port: wall-clock time.
func ProvideClock() ports.Clock {
	return clock.NewSystemClock()
}

// ProvideExecutionService wires the per-step execution service.
func ProvideExecutionService(
	repo *dynamodb.WorkflowRepository,
	publisher *eventbridge.Publisher,
	lock *redislock.Lock,
	systemClock ports.Clock,
	coordinator *sagas.Coordinator,
	cfg *config.Config,
	logger *zap.Logger,
) *services.WorkflowExecutionService {
	return services.NewWorkflowExecutionService(repo, publisher, lock, systemClock, coordinator, cfg.LockTTL, logger)
}

// ProvideDomainConfig loads the business-rule config (step timeout tiers,
// workflow shape limits, feature flags) for the deployed environment.
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideTemplateRegistry wires the static workflow-definition registry,
// assigning each step's timeout budget from domainCfg's tiers.
func ProvideTemplateRegistry(domainCfg *domainconfig.DomainConfig) *templates.Registry {
	return templates.NewRegistry(domainCfg)
}

// ProvideStepDispatcher wires the scheduler-facing dispatcher that drives
// the RemoteCall port between step start and completion/failure (§4.6,
// §5).
func ProvideStepDispatcher(execution *services.WorkflowExecutionService, remote *rpc.Caller, systemClock ports.Clock, metrics *observability.Metrics, logger *zap.Logger) *services.StepDispatcher {
	return services.NewStepDispatcher(execution, remote, systemClock, metrics, logger)
}

// ProvideScheduler wires the waveless admission loop.
func ProvideScheduler(repo *dynamodb.WorkflowRepository, dispatcher *services.StepDispatcher, loadCtrl *loadcontrol.Controller, registry *templates.Registry, logger *zap.Logger) *scheduler.Scheduler {
	return scheduler.NewScheduler(repo, dispatcher, loadCtrl, registry.Lookup, logger)
}

// ProvideErrorHandler wires the HTTP-boundary error mapper.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}
