package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marketplace_backend/internal/scripts/domain"
)

const repairYAML = `
steps:
  - stepId: device
    type: multiple_choice
    question: Which device needs repair?
    required: true
    options:
      - label: Phone
        nextStepId: issue
      - label: Laptop
  - stepId: issue
    type: text
    question: Describe the issue
`

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(buf.String(), "bookingctl dev") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestParseScript(t *testing.T) {
	steps, err := parseScript(strings.NewReader(repairYAML))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}

	device := steps[0]
	if device.ID != "device" || device.Kind != domain.KindMultipleChoice || !device.Required {
		t.Errorf("unexpected first step: %+v", device)
	}
	if len(device.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(device.Options))
	}
	if device.Options[0].NextStepID == nil || *device.Options[0].NextStepID != "issue" {
		t.Errorf("expected phone option to point at issue")
	}
	if device.Options[1].NextStepID != nil {
		t.Errorf("expected laptop option to terminate")
	}
	if steps[1].NextStepID != nil {
		t.Errorf("expected last step to have no default pointer")
	}
}

func TestParseScriptRejections(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "unknown field", input: "steps:\n  - stepId: a\n    colour: red\n"},
		{name: "malformed", input: "steps: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseScript(strings.NewReader(tt.input)); err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
		})
	}
}

func TestScriptCheckCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	content := repairYAML + "    nextStepId: missing\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"script", "check", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `warning: issue: nextStepId "missing" does not exist`) {
		t.Errorf("expected dangling pointer warning, got: %s", out)
	}
	if !strings.Contains(out, "2 steps parsed") {
		t.Errorf("expected step count, got: %s", out)
	}
}

func TestScriptImportRequiresBusiness(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"script", "import", "script.yaml"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected missing --business to fail")
	}
}
