package nlu

import (
	"encoding/json"
	"testing"
)

func TestSalvageJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain object", `{"intent": "create", "title": "buy milk"}`, false},
		{"json code fence", "```json\n{\"intent\": \"list\"}\n```", false},
		{"bare code fence", "```\n{\"intent\": \"stats\"}\n```", false},
		{"surrounding prose", `Sure! Here you go: {"intent": "delete", "task_id": 3} Hope that helps.`, false},
		{"no object", "I could not parse that request.", true},
		{"broken object", `{"intent": "create",`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := salvageJSON(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("salvageJSON error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			var extraction Extraction
			if err := json.Unmarshal(data, &extraction); err != nil {
				t.Errorf("salvaged JSON does not decode: %v", err)
			}
		})
	}
}

func TestSalvageJSONDecodesSchema(t *testing.T) {
	input := "```json\n{\"intent\": \"update\", \"task_id\": 7, \"status\": \"completed\", \"confidence\": 0.92}\n```"

	data, err := salvageJSON(input)
	if err != nil {
		t.Fatalf("salvageJSON: %v", err)
	}

	var e Extraction
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Intent != "update" || e.TaskID != 7 || e.Status != "completed" {
		t.Errorf("extraction = %+v", e)
	}
	if !e.KnownIntent() {
		t.Error("update should be a known intent")
	}
}

func TestKnownIntent(t *testing.T) {
	for _, intent := range []string{"create", "list", "update", "delete", "stats", "dedupe"} {
		e := Extraction{Intent: intent}
		if !e.KnownIntent() {
			t.Errorf("%q should be known", intent)
		}
	}
	for _, intent := range []string{"unknown", "", "chitchat"} {
		e := Extraction{Intent: intent}
		if e.KnownIntent() {
			t.Errorf("%q should not be known", intent)
		}
	}
}
