/*
Copyright 2025 Tesoro Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tesoro

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tesoro-finance/tesoro/internal/apierror"
	"github.com/tesoro-finance/tesoro/model"
	"github.com/tesoro-finance/tesoro/pipeline"
	"github.com/tesoro-finance/tesoro/store"
)

// ApprovalReceipt acknowledges a processed approval and points the caller at
// the execution result.
type ApprovalReceipt struct {
	Success         bool   `json:"success"`
	ExecutionStatus string `json:"execution_status"`
	Message         string `json:"message"`
	NextStep        string `json:"next_step"`
}

// SubmitApproval runs the back half of the workflow: it validates the
// reviewer's decision, reconciles it against the stored proposal, executes
// the approved payments and attaches the result to the proposal. A second
// approval for a proposal whose execution is still in flight is refused.
func (t *Tesoro) SubmitApproval(ctx context.Context, req model.ApprovalRequest) (*ApprovalReceipt, error) {
	ctx, span := tracer.Start(ctx, "Processing payment approval")
	defer span.End()

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	span.SetAttributes(
		attribute.String("proposal.id", req.ProposalID),
		attribute.String("approval.decision", req.Decision),
	)

	doc, err := t.store.Get(req.ProposalID)
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "Proposal not found", nil)
	}

	if err := t.store.AcquireExecution(req.ProposalID); err != nil {
		span.RecordError(err)
		if err == store.ErrExecutionInProgress {
			return nil, apierror.NewAPIError(apierror.ErrConflict, err.Error(), nil)
		}
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "Proposal not found", nil)
	}
	defer t.store.ReleaseExecution(req.ProposalID)

	approved, err := ReconcileApproval(model.PaymentsFromDocument(doc), req.Decision, req.ApprovedList())
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	span.AddEvent(fmt.Sprintf("Approval reconciled to %d payments", len(approved)))

	result, err := t.executions.Run(ctx, pipeline.ExecutionContext{
		ProposalID:       req.ProposalID,
		Proposal:         doc,
		ApprovedPayments: approved,
		Decision:         req.Decision,
		CustodyWallet:    req.CustodyWallet,
		PrivateKey:       req.PrivateKey,
		Comments:         req.Comments,
	})
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrExecution, fmt.Sprintf("Execution pipeline error: %v", err), err)
	}

	execDoc := normalizeExecutionResult(result)
	stampExecutionResult(execDoc, req.ProposalID)

	if err := t.store.AttachExecutionResult(req.ProposalID, execDoc); err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record execution result", err)
	}
	t.snapshots.WriteExecutionResult(req.ProposalID, execDoc)

	status := executionStatusOf(execDoc)
	logrus.Infof("approval for %s processed: decision=%s status=%s", req.ProposalID, req.Decision, status)
	return &ApprovalReceipt{
		Success:         true,
		ExecutionStatus: status,
		Message:         approvalMessage(req.Decision, len(approved)),
		NextStep:        fmt.Sprintf("GET /payment_execution_result/%s", req.ProposalID),
	}, nil
}

// ReconcileApproval resolves a decision into the concrete payment list to
// execute, preserving proposal order. A full rejection resolves to an empty
// list; a partial approval naming a payment the proposal does not contain is
// rejected.
func ReconcileApproval(payments []model.Payment, decision string, approvedIDs []string) ([]model.Payment, error) {
	switch decision {
	case model.DecisionApproveAll:
		return payments, nil
	case model.DecisionRejectAll:
		return nil, nil
	case model.DecisionPartial:
		known := make(map[string]bool, len(payments))
		for _, p := range payments {
			known[p.PaymentID] = true
		}
		var unknown []string
		requested := make(map[string]bool, len(approvedIDs))
		for _, id := range approvedIDs {
			if !known[id] {
				unknown = append(unknown, id)
			}
			requested[id] = true
		}
		if len(unknown) > 0 {
			return nil, fmt.Errorf("approved_payments contains unknown payment ids: %s", strings.Join(unknown, ", "))
		}
		approved := make([]model.Payment, 0, len(requested))
		for _, p := range payments {
			if requested[p.PaymentID] {
				approved = append(approved, p)
			}
		}
		return approved, nil
	default:
		return nil, fmt.Errorf("approval_decision must be one of: approve_all, reject_all, partial")
	}
}

// stampExecutionResult guarantees the identifying fields are present without
// overwriting what the pipeline already set.
func stampExecutionResult(doc map[string]interface{}, proposalID string) {
	if _, ok := doc[model.KeyProposalID]; !ok {
		doc[model.KeyProposalID] = proposalID
	}
	if _, ok := doc["execution_timestamp"]; !ok {
		doc["execution_timestamp"] = time.Now().Format(time.RFC3339)
	}
}

func executionStatusOf(doc map[string]interface{}) string {
	if status, ok := doc[model.KeyExecutionStatus].(string); ok && status != "" {
		return status
	}
	return model.StatusFailure
}

func approvalMessage(decision string, approved int) string {
	switch decision {
	case model.DecisionRejectAll:
		return "All payments rejected; no payments were executed."
	case model.DecisionPartial:
		return fmt.Sprintf("Partial approval processed for %d payments.", approved)
	default:
		return "Approval processed for all payments."
	}
}
