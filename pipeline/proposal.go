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

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tesoro-finance/tesoro/config"
	"github.com/tesoro-finance/tesoro/extractor"
)

const (
	riskTemperature = 0.3
	riskMaxTokens   = 2000

	proposalTemperature = 0.1
	proposalMaxTokens   = 3000
)

const riskSystemPrompt = `You are a treasury risk assessor. Analyze the parsed financial data
and evaluate risks based on data integrity and completeness, the user-defined
constraints, payment amounts and recipients, and overall financial exposure.
Produce a detailed risk assessment report listing the valid payments
(recipient wallet, amount, reference) with a risk rating of Low, Medium or
High and recommendations.`

const proposalSystemPrompt = `You are a payment proposal processor. Create a structured payment
proposal from the risk assessment. Respond with a single JSON object containing
'proposal_id', 'report', and a list of 'payments', where each payment has a
unique 'payment_id', 'recipient_wallet', 'amount', and 'reference'. Respond
with JSON only, no surrounding prose.`

// LLMProposalPipeline builds payment proposals in two model calls: a risk
// assessment over the extracted spreadsheet, then a structured proposal over
// the assessment. The raw text of the second call is returned untouched.
type LLMProposalPipeline struct {
	llm *LLMClient
	cnf config.PipelineConfig
}

func NewLLMProposalPipeline(cnf config.PipelineConfig, client *LLMClient) *LLMProposalPipeline {
	return &LLMProposalPipeline{llm: client, cnf: cnf}
}

func (p *LLMProposalPipeline) Run(ctx context.Context, pctx ProposalContext) (*Result, error) {
	extraction, err := extractor.Parse(pctx.SpreadsheetPath)
	if err != nil {
		return nil, errors.Wrap(err, "spreadsheet extraction failed")
	}

	extractionJSON, err := json.Marshal(extraction)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode extraction")
	}
	riskConfigJSON, _ := json.Marshal(riskConfigOf(pctx.Config))

	riskReport, err := p.llm.Complete(ctx, p.cnf.RiskModel, riskTemperature, riskMaxTokens, []ChatMessage{
		{Role: "system", Content: riskSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("User-defined constraints:\n%s\n\nParsed spreadsheet data:\n%s", riskConfigJSON, extractionJSON)},
	})
	if err != nil {
		return nil, errors.Wrap(err, "risk assessment failed")
	}
	logrus.Debugf("risk assessment for %s complete (%d chars)", pctx.ProposalID, len(riskReport))

	proposal, err := p.llm.Complete(ctx, p.cnf.ProposalModel, proposalTemperature, proposalMaxTokens, []ChatMessage{
		{Role: "system", Content: proposalSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Use proposal_id: %s\n\nRisk assessment:\n%s", pctx.ProposalID, riskReport)},
	})
	if err != nil {
		return nil, errors.Wrap(err, "proposal generation failed")
	}

	return &Result{Raw: proposal}, nil
}

func riskConfigOf(cfg map[string]interface{}) interface{} {
	if cfg == nil {
		return map[string]interface{}{}
	}
	if rc, ok := cfg["risk_config"]; ok {
		return rc
	}
	return map[string]interface{}{}
}
