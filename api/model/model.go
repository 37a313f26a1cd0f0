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
	"github.com/tesoro-finance/tesoro/model"
)

// SubmitApproval is the request body of POST /submit_payment_approval.
// ApprovedPayments stays a pointer so an omitted list can be told apart from
// an explicitly empty one.
type SubmitApproval struct {
	ProposalID       string    `json:"proposal_id"`
	CustodyWallet    string    `json:"custody_wallet"`
	PrivateKey       string    `json:"private_key"`
	ApprovalDecision string    `json:"approval_decision"`
	ApprovedPayments *[]string `json:"approved_payments,omitempty"`
	Comments         string    `json:"comments,omitempty"`
}

// ToApprovalRequest converts the request body to its workflow representation.
func (s *SubmitApproval) ToApprovalRequest() model.ApprovalRequest {
	return model.ApprovalRequest{
		ProposalID:       s.ProposalID,
		CustodyWallet:    s.CustodyWallet,
		PrivateKey:       s.PrivateKey,
		Decision:         s.ApprovalDecision,
		ApprovedPayments: s.ApprovedPayments,
		Comments:         s.Comments,
	}
}
