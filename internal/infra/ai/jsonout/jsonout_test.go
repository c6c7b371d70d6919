package jsonout

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractObject_FencedBlock(t *testing.T) {
	text := "Here is the summary you asked for:\n```json\n{\"diagnosis\": \"hypertension\"}\n```\nLet me know if you need anything else."

	obj, err := ExtractObject(text)
	if err != nil {
		t.Fatalf("ExtractObject: %v", err)
	}
	if obj["diagnosis"] != "hypertension" {
		t.Fatalf("diagnosis = %v, want hypertension", obj["diagnosis"])
	}
}

func TestExtractObject_FenceWithoutLanguageTag(t *testing.T) {
	obj, err := ExtractObject("```\n{\"a\": 1}\n```")
	if err != nil {
		t.Fatalf("ExtractObject: %v", err)
	}
	if obj["a"] != float64(1) {
		t.Fatalf("a = %v, want 1", obj["a"])
	}
}

func TestExtractObject_BraceSpan(t *testing.T) {
	text := "The patient data is {\"vitals\": {\"bp\": \"130/85\"}} as extracted."

	obj, err := ExtractObject(text)
	if err != nil {
		t.Fatalf("ExtractObject: %v", err)
	}
	vitals, ok := obj["vitals"].(map[string]any)
	if !ok {
		t.Fatalf("vitals missing: %v", obj)
	}
	if vitals["bp"] != "130/85" {
		t.Fatalf("bp = %v", vitals["bp"])
	}
}

func TestExtractObject_FencePreferredOverBraces(t *testing.T) {
	// Prose braces before the fence must not win.
	text := "{not json} then ```json\n{\"ok\": true}\n``` trailing {also not json}"

	obj, err := ExtractObject(text)
	if err != nil {
		t.Fatalf("ExtractObject: %v", err)
	}
	if obj["ok"] != true {
		t.Fatalf("ok = %v", obj["ok"])
	}
}

func TestExtractObject_StripsLineComments(t *testing.T) {
	text := "```json\n{\n\"name\": \"CBC\" // complete blood count\n}\n```"

	obj, err := ExtractObject(text)
	if err != nil {
		t.Fatalf("ExtractObject: %v", err)
	}
	if obj["name"] != "CBC" {
		t.Fatalf("name = %v", obj["name"])
	}
}

func TestExtractObject_NoJSON(t *testing.T) {
	_, err := ExtractObject("I could not find any structured data in the document.")

	var recovery *RecoveryError
	if !errors.As(err, &recovery) {
		t.Fatalf("want *RecoveryError, got %v", err)
	}
	if recovery.Reason != "No JSON content found in response" {
		t.Fatalf("reason = %q", recovery.Reason)
	}
}

func TestExtractObject_NotAnObject(t *testing.T) {
	_, err := ExtractObject("```json\n[1, 2, 3]\n```")

	var recovery *RecoveryError
	if !errors.As(err, &recovery) {
		t.Fatalf("want *RecoveryError, got %v", err)
	}
	if recovery.Reason != "Response is not a JSON object" {
		t.Fatalf("reason = %q", recovery.Reason)
	}
}

func TestExtractObject_ParseFailureCarriesDetails(t *testing.T) {
	_, err := ExtractObject("{\"broken\": ")

	var recovery *RecoveryError
	if !errors.As(err, &recovery) {
		t.Fatalf("want *RecoveryError, got %v", err)
	}
	if recovery.Reason != "Failed to parse JSON response" {
		t.Fatalf("reason = %q", recovery.Reason)
	}
	if recovery.Details == "" {
		t.Fatal("details should carry the parser error")
	}
}

func TestExtractObject_RawSampleCapped(t *testing.T) {
	long := strings.Repeat("x", 5000)

	_, err := ExtractObject(long)

	var recovery *RecoveryError
	if !errors.As(err, &recovery) {
		t.Fatalf("want *RecoveryError, got %v", err)
	}
	if got := len([]rune(recovery.RawContent)); got != 200 {
		t.Fatalf("raw sample length = %d, want 200", got)
	}
}
