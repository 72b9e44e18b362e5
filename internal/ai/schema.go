package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const instruction = "Analyze the given privacy policy and return structured JSON following the schema exactly " +
	"with values extracted from the privacy policy. Use null for any string or list the policy does not " +
	"address and false for any yes/no question it does not address."

type schema struct {
	Type             string             `json:"type"`
	Properties       map[string]*schema `json:"properties,omitempty"`
	Items            *schema            `json:"items,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
	Nullable         bool               `json:"nullable,omitempty"`
}

type field struct {
	name   string
	schema *schema
}

func object(fields ...field) *schema {
	s := &schema{Type: "OBJECT", Properties: make(map[string]*schema, len(fields))}
	for _, f := range fields {
		s.Properties[f.name] = f.schema
		s.PropertyOrdering = append(s.PropertyOrdering, f.name)
	}
	return s
}

func str() *schema     { return &schema{Type: "STRING", Nullable: true} }
func boolean() *schema { return &schema{Type: "BOOLEAN"} }
func list() *schema {
	return &schema{Type: "ARRAY", Items: &schema{Type: "STRING"}, Nullable: true}
}

// summarySchema is the fixed shape every summary must have.
var summarySchema = object(
	field{"site", str()},
	field{"policy_url", str()},
	field{"last_updated", str()},
	field{"summary", object(
		field{"data", object(
			field{"can_company_collect_data", boolean()},
			field{"is_company_collecting_data", boolean()},
			field{"data_collected", list()},
			field{"data_usage", list()},
		)},
		field{"data_sharing", object(
			field{"do_they_share", boolean()},
			field{"whom_can_they_share", list()},
			field{"whom_are_they_sharing", list()},
			field{"what_do_they_share", list()},
		)},
		field{"can_delete_account", boolean()},
		field{"camera_mic_location_access", object(
			field{"camera", boolean()},
			field{"microphone", boolean()},
			field{"location", boolean()},
		)},
		field{"uses_targeted_ads", boolean()},
		field{"consent_required", boolean()},
		field{"opt_out_options", str()},
		field{"collects_children_data", boolean()},
		field{"gdpr_rights", boolean()},
	)},
	field{"display", object(
		field{"summary_text", str()},
		field{"risk_level", str()},
		field{"recommendation", str()},
	)},
)

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nSite: ")
	b.WriteString(req.Site)
	b.WriteString("\nPolicy URL: ")
	b.WriteString(req.PolicyURL)
	b.WriteString("\n\n")
	b.WriteString(req.Text)
	return b.String()
}

// schemaPrompt embeds the schema for providers without structured output.
func schemaPrompt() string {
	raw, err := json.MarshalIndent(summarySchema, "", "  ")
	if err != nil {
		return instruction
	}
	return instruction + "\n\nRespond with a single JSON object matching this schema " +
		"(types are upper-case, nested keys must appear in propertyOrdering order):\n" + string(raw)
}

// decodeSummary accepts the model's text only if it is a JSON object.
func decodeSummary(text string) (json.RawMessage, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, &SummarizationError{Raw: text, Err: fmt.Errorf("empty summary")}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, &SummarizationError{Raw: text, Err: fmt.Errorf("summary is not a json object: %w", err)}
	}
	if obj == nil {
		return nil, &SummarizationError{Raw: text, Err: fmt.Errorf("summary is null")}
	}
	return json.RawMessage(cleaned), nil
}

// cleanJSON removes markdown code blocks if present
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
