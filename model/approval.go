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

package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Approval decisions a reviewer can take on a proposal.
const (
	DecisionApproveAll = "approve_all"
	DecisionRejectAll  = "reject_all"
	DecisionPartial    = "partial"
)

// ApprovalRequest is the reviewer's instruction for a stored proposal. It is
// transient input, never persisted. ApprovedPayments is a pointer so a
// missing list can be told apart from an explicitly empty one; it is only
// consulted when Decision is partial. Custody credentials are opaque to the
// orchestrator and passed through to the execution pipeline.
type ApprovalRequest struct {
	ProposalID       string
	CustodyWallet    string
	PrivateKey       string
	Decision         string
	ApprovedPayments *[]string
	Comments         string
}

// Validate checks the approval request per the workflow contract. Checks run
// in order and the first failure wins, so callers get one actionable message.
func (r *ApprovalRequest) Validate() error {
	if err := validation.Validate(r.ProposalID,
		validation.Required.Error("proposal_id is required")); err != nil {
		return err
	}
	if err := validation.Validate(r.CustodyWallet,
		validation.Required.Error("custody_wallet is required")); err != nil {
		return err
	}
	if err := validation.Validate(r.PrivateKey,
		validation.Required.Error("private_key is required")); err != nil {
		return err
	}
	if err := validation.Validate(r.Decision,
		validation.Required.Error("approval_decision is required"),
		validation.In(DecisionApproveAll, DecisionRejectAll, DecisionPartial).
			Error("approval_decision must be one of: approve_all, reject_all, partial")); err != nil {
		return err
	}
	if r.Decision == DecisionPartial && r.ApprovedPayments == nil {
		return validation.NewError("validation_approved_payments", "approved_payments is required for partial approval")
	}
	return nil
}

// ApprovedList returns the caller-supplied approved payment identifiers, or
// nil when none were supplied.
func (r *ApprovalRequest) ApprovedList() []string {
	if r.ApprovedPayments == nil {
		return nil
	}
	return *r.ApprovedPayments
}
