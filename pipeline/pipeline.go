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

// Package pipeline runs the two heavy stages of the payment workflow: turning
// an uploaded spreadsheet into a payment proposal, and turning an approval
// into executed payments. Pipelines return their output as an opaque raw
// payload; interpretation lives with the caller.
package pipeline

import (
	"context"

	"github.com/tesoro-finance/tesoro/model"
)

// Result wraps the raw payload a pipeline stage produced. The payload is
// usually JSON text but nothing here depends on that.
type Result struct {
	Raw string `json:"raw"`
}

// ProposalContext carries everything the proposal pipeline needs for one run.
type ProposalContext struct {
	ProposalID      string
	SpreadsheetPath string
	Config          map[string]interface{}
}

// ExecutionContext carries everything the execution pipeline needs for one
// approval. ApprovedPayments is already reconciled against the decision; a
// rejection arrives here as an empty list.
type ExecutionContext struct {
	ProposalID       string
	Proposal         map[string]interface{}
	ApprovedPayments []model.Payment
	Decision         string
	CustodyWallet    string
	PrivateKey       string
	Comments         string
}

// ProposalPipeline produces a payment proposal from an uploaded spreadsheet.
type ProposalPipeline interface {
	Run(ctx context.Context, pctx ProposalContext) (*Result, error)
}

// ExecutionPipeline executes the approved payments of a proposal.
type ExecutionPipeline interface {
	Run(ctx context.Context, ectx ExecutionContext) (*Result, error)
}
