// Package templates is the static, data-driven source of workflow
// definitions (§9's Non-goal: "the engine does not define workflows
// declaratively" - it only walks definitions it is handed). Grounded on
// the teacher's config.LoadConfig pattern of process-start-time static
// data rather than a runtime definition-authoring API; a production
// deployment could swap this for a config file or a definition store
// without the scheduler or handlers noticing, since both only consume the
// TemplateLookup function type.
package templates

import (
	domainconfig "github.com/2lar-b2/orchestrator/domain/config"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	"github.com/2lar-b2/orchestrator/domain/definition"
)

func mustStepID(s string) valueobjects.StepID {
	id, err := valueobjects.NewStepID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// orderFulfillment is a four-step saga: reserve inventory and charge
// payment in parallel, then pack, then ship. Packing depends on both
// upstream steps completing; shipping depends on packing. Every step but
// shipping carries a compensation descriptor so backward recovery (§4.5)
// can unwind a partially completed order. Step timeout budgets come from
// cfg's tiers: inventory reservation is a fast lookup, payment and shipping
// use the standard tier, packing is the slowest physical-world step.
func orderFulfillment(cfg *domainconfig.DomainConfig) definition.Template {
	reserve := mustStepID("reserve-inventory")
	charge := mustStepID("charge-payment")
	pack := mustStepID("pack-order")
	ship := mustStepID("ship-order")

	return definition.Template{
		ID:   "order-fulfillment-v1",
		Type: valueobjects.WorkflowTypeOrderFulfillment,
		Steps: []definition.StepDefinition{
			{
				StepID:      reserve,
				ServiceName: "inventory-service",
				Operation:   "reserve",
				RetryPolicy: valueobjects.DefaultRetryPolicy(),
				Compensation: &valueobjects.CompensationDescriptor{
					Strategy:      valueobjects.CompensationStrategyReverseOperation,
					TargetService: "inventory-service",
					Operation:     "release",
					Idempotent:    true,
				},
				TimeoutMs: cfg.FastStepTimeoutMs,
			},
			{
				StepID:      charge,
				ServiceName: "payment-service",
				Operation:   "charge",
				RetryPolicy: valueobjects.ConservativeRetryPolicy(),
				Compensation: &valueobjects.CompensationDescriptor{
					Strategy:      valueobjects.CompensationStrategyReverseOperation,
					TargetService: "payment-service",
					Operation:     "refund",
					Idempotent:    true,
				},
				TimeoutMs: cfg.StandardStepTimeoutMs,
			},
			{
				StepID:      pack,
				DependsOn:   []valueobjects.StepID{reserve, charge},
				ServiceName: "fulfillment-service",
				Operation:   "pack",
				RetryPolicy: valueobjects.DefaultRetryPolicy(),
				Compensation: &valueobjects.CompensationDescriptor{
					Strategy:      valueobjects.CompensationStrategyRestoreState,
					TargetService: "fulfillment-service",
					Operation:     "unpack",
				},
				TimeoutMs: cfg.SlowStepTimeoutMs,
			},
			{
				StepID:      ship,
				DependsOn:   []valueobjects.StepID{pack},
				ServiceName: "shipping-service",
				Operation:   "dispatch",
				RetryPolicy: valueobjects.AggressiveRetryPolicy(),
				TimeoutMs:   cfg.StandardStepTimeoutMs,
			},
		},
	}
}

// picking is a two-step sequence used by waveless admission (§4.7): pick
// then stage, no parallel branches.
func picking(cfg *domainconfig.DomainConfig) definition.Template {
	pickStep := mustStepID("pick-items")
	stage := mustStepID("stage-items")

	return definition.Template{
		ID:   "picking-v1",
		Type: valueobjects.WorkflowTypePicking,
		Steps: []definition.StepDefinition{
			{
				StepID:      pickStep,
				ServiceName: "warehouse-service",
				Operation:   "pick",
				RetryPolicy: valueobjects.DefaultRetryPolicy(),
				Compensation: &valueobjects.CompensationDescriptor{
					Strategy:      valueobjects.CompensationStrategyDeleteCreated,
					TargetService: "warehouse-service",
					Operation:     "unpick",
					Idempotent:    true,
				},
				TimeoutMs: cfg.StandardStepTimeoutMs,
			},
			{
				StepID:      stage,
				DependsOn:   []valueobjects.StepID{pickStep},
				ServiceName: "warehouse-service",
				Operation:   "stage",
				RetryPolicy: valueobjects.DefaultRetryPolicy(),
				TimeoutMs:   cfg.StandardStepTimeoutMs,
			},
		},
	}
}

// returns is a single-step process: no compensation since a return
// intake has nothing upstream to unwind.
func returns(cfg *domainconfig.DomainConfig) definition.Template {
	intake := mustStepID("intake-return")
	return definition.Template{
		ID:   "returns-v1",
		Type: valueobjects.WorkflowTypeReturns,
		Steps: []definition.StepDefinition{
			{
				StepID:      intake,
				ServiceName: "returns-service",
				Operation:   "intake",
				RetryPolicy: valueobjects.DefaultRetryPolicy(),
				TimeoutMs:   cfg.FastStepTimeoutMs,
			},
		},
	}
}

// Registry is an in-memory, process-start-time-populated set of
// definitions keyed by workflow type.
type Registry struct {
	byType map[valueobjects.WorkflowType]definition.Template
}

// NewRegistry builds the static registry, assigning each step's timeout
// budget from cfg's tiers (§4.3).
func NewRegistry(cfg *domainconfig.DomainConfig) *Registry {
	r := &Registry{byType: make(map[valueobjects.WorkflowType]definition.Template)}
	for _, t := range []definition.Template{orderFulfillment(cfg), picking(cfg), returns(cfg)} {
		r.byType[t.Type] = t
	}
	return r
}

// Lookup resolves a template by workflow type, matching the
// TemplateLookup function type shared by the handler and the scheduler.
func (r *Registry) Lookup(t valueobjects.WorkflowType) (definition.Template, bool) {
	tmpl, ok := r.byType[t]
	return tmpl, ok
}
