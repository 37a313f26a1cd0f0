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
	"encoding/json"
	"strings"

	"github.com/tesoro-finance/tesoro/model"
	"github.com/tesoro-finance/tesoro/pipeline"
)

// normalizeResult coerces a pipeline output into a document. Three shapes are
// accepted, checked in this order: a result wrapper, whose raw payload is
// normalized as a string; a string, parsed as JSON when possible and wrapped
// as {"raw": s} otherwise; and a map, passed through verbatim. Anything else
// degrades to the raw wrapping of its JSON encoding.
func normalizeResult(v interface{}) map[string]interface{} {
	switch r := v.(type) {
	case *pipeline.Result:
		if r == nil {
			return map[string]interface{}{}
		}
		return normalizeString(r.Raw)
	case pipeline.Result:
		return normalizeString(r.Raw)
	case string:
		return normalizeString(r)
	case map[string]interface{}:
		return r
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return map[string]interface{}{}
		}
		return normalizeString(string(encoded))
	}
}

func normalizeString(s string) map[string]interface{} {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(stripCodeFence(s)), &doc); err == nil && doc != nil {
		return doc
	}
	return map[string]interface{}{"raw": s}
}

// normalizeExecutionResult applies the same coercion but guarantees a usable
// execution document: output that cannot be interpreted becomes a FAILURE
// record carrying the raw payload as its message.
func normalizeExecutionResult(v interface{}) map[string]interface{} {
	doc := normalizeResult(v)
	if raw, ok := doc["raw"]; ok && len(doc) == 1 {
		msg, _ := raw.(string)
		return map[string]interface{}{
			model.KeyExecutionStatus: model.StatusFailure,
			model.KeyMessage:         msg,
		}
	}
	return doc
}

// stripCodeFence unwraps a markdown-fenced payload. Models frequently return
// ```json fences around the object they were asked for.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
