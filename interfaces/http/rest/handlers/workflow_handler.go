// Package handlers holds the HTTP-boundary handlers for the workflow
// engine's REST surface. Grounded on the teacher's NodeHandler (constructor
// injection of the service + zap logger + ErrorHandler, decode-validate-
// delegate-respond shape), generalized from command/query buses to direct
// application-service calls since this domain has no CQRS split.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/ports"
	"github.com/2lar-b2/orchestrator/application/services"
	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	"github.com/2lar-b2/orchestrator/domain/definition"
	"github.com/2lar-b2/orchestrator/pkg/common"
	pkgerrors "github.com/2lar-b2/orchestrator/pkg/errors"
	"github.com/2lar-b2/orchestrator/pkg/utils"
)

// TemplateLookup resolves a registered template by type name, shared with
// the waveless scheduler's own lookup function.
type TemplateLookup func(t valueobjects.WorkflowType) (definition.Template, bool)

// WorkflowHandler serves the workflow submission/status/control endpoints.
type WorkflowHandler struct {
	submission *services.SubmissionService
	execution  *services.WorkflowExecutionService
	repo       ports.WorkflowRepository
	templates  TemplateLookup
	logger     *zap.Logger
	errors     *pkgerrors.ErrorHandler
}

// NewWorkflowHandler constructs a WorkflowHandler.
func NewWorkflowHandler(
	submission *services.SubmissionService,
	execution *services.WorkflowExecutionService,
	repo ports.WorkflowRepository,
	templates TemplateLookup,
	logger *zap.Logger,
	errorHandler *pkgerrors.ErrorHandler,
) *WorkflowHandler {
	return &WorkflowHandler{
		submission: submission,
		execution:  execution,
		repo:       repo,
		templates:  templates,
		logger:     logger,
		errors:     errorHandler,
	}
}

// SubmitWorkflowRequest is the POST /workflows body.
type SubmitWorkflowRequest struct {
	Type          string                 `json:"type" validate:"required"`
	Name          string                 `json:"name" validate:"required,min=1,max=200"`
	Priority      string                 `json:"priority,omitempty" validate:"omitempty,oneof=HIGH NORMAL LOW"`
	CorrelationID string                 `json:"correlationId,omitempty"`
	Input         map[string]interface{} `json:"input,omitempty"`
	MaxRetries    int                    `json:"maxRetries,omitempty" validate:"omitempty,min=0,max=20"`
}

func parsePriority(s string) valueobjects.Priority {
	switch s {
	case "LOW":
		return valueobjects.PriorityLow
	case "NORMAL":
		return valueobjects.PriorityNormal
	default:
		return valueobjects.PriorityHigh
	}
}

// Submit handles POST /workflows: instantiates and starts a new workflow
// from a registered template.
func (h *WorkflowHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	workflowType := valueobjects.WorkflowType(req.Type)
	tmpl, ok := h.templates(workflowType)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("no template registered for workflow type "+req.Type))
		return
	}

	wf, err := h.submission.Submit(r.Context(), services.SubmitParams{
		Template:      tmpl,
		Name:          req.Name,
		Priority:      parsePriority(req.Priority),
		TriggeredBy:   requestActor(r),
		CorrelationID: req.CorrelationID,
		Input:         req.Input,
		MaxRetries:    req.MaxRetries,
	})
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.FromDomain(err))
		return
	}

	common.RespondJSON(w, http.StatusCreated, toWorkflowResponse(wf))
}

// Get handles GET /workflows/{workflowID}.
func (h *WorkflowHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewWorkflowIDFromString(chi.URLParam(r, "workflowID"))
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid workflow id"))
		return
	}
	wf, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.FromDomain(err))
		return
	}
	common.RespondJSON(w, http.StatusOK, toWorkflowResponse(wf))
}

// List handles GET /workflows?status=EXECUTING (or ?type=order-fulfillment,
// or ?correlationId=...; only the first of status, type, correlationId
// present is applied, and with none the active workflows are listed), with
// page/page_size/sort/order accepted per pkg/common's pagination params
// (page_size becomes the repository query's result limit; the underlying
// single-table DynamoDB scan has no cheap total-row count, so Total reports
// the size of the page actually returned rather than the full match count).
func (h *WorkflowHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pagination := common.ExtractPaginationParams(r)

	var (
		workflows []*aggregates.Workflow
		err       error
	)
	switch {
	case q.Get("status") != "":
		workflows, err = h.repo.FindByStatus(r.Context(), valueobjects.WorkflowStatus(q.Get("status")), pagination.PageSize)
	case q.Get("type") != "":
		workflows, err = h.repo.FindByType(r.Context(), valueobjects.WorkflowType(q.Get("type")), pagination.PageSize)
	case q.Get("correlationId") != "":
		workflows, err = h.repo.FindByCorrelationID(r.Context(), q.Get("correlationId"))
	default:
		workflows, err = h.repo.FindActive(r.Context(), pagination.PageSize)
	}
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.FromDomain(err))
		return
	}

	resp := make([]workflowResponse, 0, len(workflows))
	for _, wf := range workflows {
		resp = append(resp, toWorkflowResponse(wf))
	}

	meta := common.ExtractMetadata(r.Context())
	common.RespondWithMeta(w, http.StatusOK, resp, &common.MetaInfo{
		RequestID:  meta.RequestID,
		Timestamp:  utils.NowRFC3339(),
		Pagination: common.BuildPaginationMeta(pagination.Page, pagination.PageSize, len(resp)),
	})
}

// CancelRequest is the POST /workflows/{workflowID}/cancel body.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Cancel handles POST /workflows/{workflowID}/cancel.
func (h *WorkflowHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewWorkflowIDFromString(chi.URLParam(r, "workflowID"))
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid workflow id"))
		return
	}
	var req CancelRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	wf, err := h.execution.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.FromDomain(err))
		return
	}
	common.RespondJSON(w, http.StatusOK, toWorkflowResponse(wf))
}

// Pause handles POST /workflows/{workflowID}/pause.
func (h *WorkflowHandler) Pause(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewWorkflowIDFromString(chi.URLParam(r, "workflowID"))
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid workflow id"))
		return
	}
	var req CancelRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	wf, err := h.execution.Pause(r.Context(), id, req.Reason)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.FromDomain(err))
		return
	}
	common.RespondJSON(w, http.StatusOK, toWorkflowResponse(wf))
}

// Resume handles POST /workflows/{workflowID}/resume.
func (h *WorkflowHandler) Resume(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewWorkflowIDFromString(chi.URLParam(r, "workflowID"))
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid workflow id"))
		return
	}
	wf, err := h.execution.Resume(r.Context(), id)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.FromDomain(err))
		return
	}
	common.RespondJSON(w, http.StatusOK, toWorkflowResponse(wf))
}

// requestActor reads the actor requestContextMiddleware already stashed
// into the request context (itself sourced from X-Triggered-By), falling
// back to "api" for unattributed calls.
func requestActor(r *http.Request) string {
	if actor, ok := common.GetUserID(r.Context()); ok && actor != "" {
		return actor
	}
	return "api"
}

type stepResponse struct {
	StepID      string `json:"stepId"`
	Status      string `json:"status"`
	ServiceName string `json:"serviceName"`
	RetryCount  int    `json:"retryCount"`
}

type workflowResponse struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	Priority      string         `json:"priority"`
	Progress      float64        `json:"progressPercent"`
	CorrelationID string         `json:"correlationId,omitempty"`
	RetryCount    int            `json:"retryCount"`
	Steps         []stepResponse `json:"steps"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func toWorkflowResponse(wf *aggregates.Workflow) workflowResponse {
	steps := make([]stepResponse, 0, len(wf.Steps()))
	for _, s := range wf.Steps() {
		steps = append(steps, stepResponse{
			StepID:      s.StepID().String(),
			Status:      string(s.Status()),
			ServiceName: s.ServiceName(),
			RetryCount:  s.RetryCount(),
		})
	}
	return workflowResponse{
		ID:            wf.ID().String(),
		Name:          wf.Name(),
		Type:          string(wf.Type()),
		Status:        string(wf.Status()),
		Priority:      wf.Priority().String(),
		Progress:      wf.ProgressPercent(),
		CorrelationID: wf.CorrelationID(),
		RetryCount:    wf.RetryCount(),
		Steps:         steps,
		CreatedAt:     wf.CreatedAt(),
		UpdatedAt:     wf.UpdatedAt(),
	}
}
