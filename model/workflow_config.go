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

// ValidateWorkflowConfig checks the caller-supplied workflow configuration
// document. The schema is additive: unknown fields (such as the legacy
// custody_wallet key) are tolerated and passed through to the pipeline
// unchanged. Checks run in order and the first failure wins.
//
// Required shape:
//
//	{
//	  "user_id": ...,
//	  "risk_config": {
//	    "min_balance_usd": ...,
//	    "transaction_limits": {"single": ..., "daily": ...}
//	  }
//	}
//
// Only presence is enforced here; value ranges belong to the risk pipeline.
func ValidateWorkflowConfig(cfg map[string]interface{}) error {
	if _, ok := cfg["user_id"]; !ok {
		return configError("Missing required field: user_id")
	}
	if _, ok := cfg["risk_config"]; !ok {
		return configError("Missing required field: risk_config")
	}

	risk, ok := cfg["risk_config"].(map[string]interface{})
	if !ok {
		return configError("risk_config must be an object")
	}
	if _, ok := risk["min_balance_usd"]; !ok {
		return configError("risk_config.min_balance_usd is required")
	}

	limits, ok := risk["transaction_limits"].(map[string]interface{})
	if !ok {
		return configError("risk_config.transaction_limits is required")
	}
	for _, k := range []string{"single", "daily"} {
		if _, ok := limits[k]; !ok {
			return configError("risk_config.transaction_limits." + k + " is required")
		}
	}
	return nil
}

func configError(message string) error {
	return validation.NewError("validation_workflow_config", message)
}
