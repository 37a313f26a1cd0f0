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

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	model2 "github.com/tesoro-finance/tesoro/api/model"
)

// SubmitRequest handles the multipart workflow submission: an 'excel' file
// part with the payment workbook and a 'json' form part with the workflow
// configuration. On success it responds 202 Accepted with a Location header
// pointing at the proposal.
//
// Responses:
// - 400 Bad Request: missing or unreadable parts, invalid JSON, invalid configuration.
// - 500 Internal Server Error: proposal pipeline or storage failure.
// - 202 Accepted: proposal generated and stored.
func (a Api) SubmitRequest(c *gin.Context) {
	fileHeader, err := c.FormFile("excel")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing 'excel' file part"})
		return
	}

	rawJSON := c.PostForm("json")
	if rawJSON == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing 'json' config part"})
		return
	}

	var cfg map[string]interface{}
	if err := json.Unmarshal([]byte(rawJSON), &cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON in 'json' part"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Failed to read 'excel' file"})
		return
	}
	defer file.Close()
	workbook, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Failed to read 'excel' file"})
		return
	}

	receipt, err := a.tesoro.SubmitProposalRequest(c.Request.Context(), workbook, cfg)
	if err != nil {
		apiError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/get_payment_proposal/%s", receipt.ProposalID))
	c.JSON(http.StatusAccepted, receipt)
}

// GetPaymentProposal returns the stored proposal document for human review.
func (a Api) GetPaymentProposal(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id is required. pass id in the route /get_payment_proposal/:id"})
		return
	}

	doc, err := a.tesoro.GetProposal(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// SubmitPaymentApproval handles the reviewer's decision on a proposal and
// triggers payment execution.
//
// Responses:
// - 400 Bad Request: malformed JSON or invalid approval fields.
// - 404 Not Found: unknown proposal.
// - 409 Conflict: an execution for the proposal is already in flight.
// - 500 Internal Server Error: execution pipeline failure.
// - 200 OK: approval processed, execution result attached.
func (a Api) SubmitPaymentApproval(c *gin.Context) {
	var approval model2.SubmitApproval
	if err := c.ShouldBindJSON(&approval); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON body"})
		return
	}

	receipt, err := a.tesoro.SubmitApproval(c.Request.Context(), approval.ToApprovalRequest())
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// GetPaymentExecutionResult returns the detailed result of the payment
// execution for a proposal.
func (a Api) GetPaymentExecutionResult(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id is required. pass id in the route /payment_execution_result/:id"})
		return
	}

	result, err := a.tesoro.GetExecutionResult(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
