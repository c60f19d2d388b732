package tools

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestNewErrorResult(t *testing.T) {
	result := NewErrorResult("table_missing", "Tabelle nicht gefunden")

	if !result.IsError {
		t.Error("expected IsError to be set")
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}

	var resp ErrorResponse
	if err := json.Unmarshal([]byte(text.Text), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if !resp.Error {
		t.Error("expected error flag")
	}
	if resp.Code != "table_missing" {
		t.Errorf("unexpected code: %q", resp.Code)
	}
	if resp.Message != "Tabelle nicht gefunden" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}
