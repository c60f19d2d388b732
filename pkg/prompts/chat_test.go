package prompts

import (
	"strings"
	"testing"
)

func TestBuildChatSystemPrompt_IncludesWriteTables(t *testing.T) {
	prompt := BuildChatSystemPrompt(ChatContext{
		WriteTables: []string{"t_vehicles", "t_projects"},
	})

	if !strings.Contains(prompt, "- t_projects\n") {
		t.Error("expected t_projects in write table list")
	}
	if !strings.Contains(prompt, "- t_vehicles\n") {
		t.Error("expected t_vehicles in write table list")
	}
	// Sorted regardless of input order.
	if strings.Index(prompt, "t_projects") > strings.Index(prompt, "t_vehicles") {
		t.Error("expected write tables to be sorted")
	}
}

func TestBuildChatSystemPrompt_OmitsEmptySections(t *testing.T) {
	prompt := BuildChatSystemPrompt(ChatContext{})

	if strings.Contains(prompt, "Schreibbare Tabellen") {
		t.Error("expected no write table section without tables")
	}
	if strings.Contains(prompt, "Gesprächspartner") {
		t.Error("expected no user line without a user name")
	}
}

func TestBuildChatSystemPrompt_UserAndDate(t *testing.T) {
	prompt := BuildChatSystemPrompt(ChatContext{
		UserName:    "Maria",
		CurrentDate: "01.09.2026",
	})

	if !strings.Contains(prompt, "Maria") {
		t.Error("expected user name in prompt")
	}
	if !strings.Contains(prompt, "01.09.2026") {
		t.Error("expected date in prompt")
	}
}
