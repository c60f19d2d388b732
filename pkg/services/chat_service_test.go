package services

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/llm"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/tableaccess"
)

func newTestChatStore() *tableaccess.Store {
	return tableaccess.NewStore(&tableaccess.Config{
		WriteAllowList: []string{"t_projects", "t_vehicles"},
		Logger:         zap.NewNop(),
	})
}

func TestChatService_SendMessage(t *testing.T) {
	client := llm.NewMockClient()
	client.ChatWithToolsFunc = func(ctx context.Context, systemPrompt string, userMessage string, tools []llm.ToolDefinition, executor llm.ToolExecutor) (string, error) {
		if !strings.Contains(systemPrompt, "t_projects") {
			t.Error("expected write allow-list in system prompt")
		}
		if len(tools) != 7 {
			t.Errorf("expected 7 tools, got %d", len(tools))
		}
		if userMessage != "Wie viele Projekte laufen?" {
			t.Errorf("unexpected user message: %q", userMessage)
		}
		return "Es laufen drei Projekte.", nil
	}

	svc := NewChatService(newTestChatStore(), client, zap.NewNop())

	resp, err := svc.SendMessage(context.Background(), &ChatRequest{
		Message: "Wie viele Projekte laufen?",
		UserID:  "u-1",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Reply != "Es laufen drei Projekte." {
		t.Errorf("unexpected reply: %q", resp.Reply)
	}
	if resp.Model != "mock-model" {
		t.Errorf("unexpected model: %q", resp.Model)
	}
	if client.ChatWithToolsCalls != 1 {
		t.Errorf("expected 1 chat call, got %d", client.ChatWithToolsCalls)
	}
}

func TestChatService_EmptyMessage(t *testing.T) {
	client := llm.NewMockClient()
	svc := NewChatService(newTestChatStore(), client, zap.NewNop())

	if _, err := svc.SendMessage(context.Background(), &ChatRequest{}); err == nil {
		t.Fatal("expected error for empty message")
	}
	if client.ChatWithToolsCalls != 0 {
		t.Errorf("expected no chat calls, got %d", client.ChatWithToolsCalls)
	}
}
