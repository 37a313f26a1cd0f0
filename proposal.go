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

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tesoro-finance/tesoro/internal/apierror"
	"github.com/tesoro-finance/tesoro/model"
	"github.com/tesoro-finance/tesoro/pipeline"
)

// ProposalReceipt acknowledges an accepted workflow submission and points the
// caller at the review step.
type ProposalReceipt struct {
	Success    bool   `json:"success"`
	ProposalID string `json:"proposal_id"`
	Message    string `json:"message"`
	NextStep   string `json:"next_step"`
}

// SubmitProposalRequest runs the front half of the workflow: it validates the
// submission, persists the workbook for the pipeline, generates the proposal
// and stores it for review. The returned receipt carries the fresh proposal
// id; nothing is stored when an error is returned.
func (t *Tesoro) SubmitProposalRequest(ctx context.Context, workbook []byte, cfg map[string]interface{}) (*ProposalReceipt, error) {
	ctx, span := tracer.Start(ctx, "Submitting payment workflow request")
	defer span.End()

	if len(workbook) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Uploaded 'excel' file is empty", nil)
	}
	if err := model.ValidateWorkflowConfig(cfg); err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}

	proposalID := model.GenerateUUIDWithSuffix("prop")
	span.SetAttributes(attribute.String("proposal.id", proposalID))

	path, err := t.snapshots.WriteSpreadsheet(proposalID, workbook)
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrExecution, fmt.Sprintf("Failed to save Excel file: %v", err), err)
	}

	result, err := t.proposals.Run(ctx, pipeline.ProposalContext{
		ProposalID:      proposalID,
		SpreadsheetPath: path,
		Config:          cfg,
	})
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrExecution, fmt.Sprintf("Proposal pipeline error: %v", err), err)
	}
	span.AddEvent("Proposal generated")

	doc := normalizeResult(result)
	model.EnsurePaymentIDs(doc)
	t.store.Put(proposalID, doc)
	t.snapshots.WriteProposal(proposalID, doc)

	logrus.Infof("proposal %s stored with %d payments", proposalID, len(model.PaymentsFromDocument(doc)))
	return &ProposalReceipt{
		Success:    true,
		ProposalID: proposalID,
		Message:    "Proposal generated successfully.",
		NextStep:   fmt.Sprintf("GET /get_payment_proposal/%s", proposalID),
	}, nil
}

// GetProposal returns the stored proposal document exactly as it was stored.
func (t *Tesoro) GetProposal(ctx context.Context, proposalID string) (map[string]interface{}, error) {
	_, span := tracer.Start(ctx, "Fetching payment proposal")
	defer span.End()
	span.SetAttributes(attribute.String("proposal.id", proposalID))

	doc, err := t.store.Get(proposalID)
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "Proposal not found", nil)
	}
	return doc, nil
}
