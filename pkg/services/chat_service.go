// Package services contains the application services that sit between
// the HTTP handlers and the table-access core.
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/llm"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/prompts"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/tableaccess"
)

// ChatService runs one assistant turn: it assembles the system prompt,
// hands the table tools to the model, and returns the final answer.
type ChatService interface {
	SendMessage(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// ChatRequest is one user turn.
type ChatRequest struct {
	Message   string
	UserID    string
	UserName  string
	IPAddress string
}

// ChatResponse is the assistant's answer.
type ChatResponse struct {
	Reply string
	Model string
}

type chatService struct {
	store  *tableaccess.Store
	client llm.Client
	logger *zap.Logger
}

// NewChatService creates the chat service.
func NewChatService(store *tableaccess.Store, client llm.Client, logger *zap.Logger) ChatService {
	return &chatService{
		store:  store,
		client: client,
		logger: logger.Named("chat"),
	}
}

func (s *chatService) SendMessage(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("message is required")
	}

	systemPrompt := prompts.BuildChatSystemPrompt(prompts.ChatContext{
		WriteTables: s.store.WriteAllowList().Tables(),
		UserName:    req.UserName,
		CurrentDate: time.Now().Format("02.01.2006"),
	})

	executor := llm.NewTableToolExecutor(s.store, models.CallOptions{
		UserID:    req.UserID,
		IPAddress: req.IPAddress,
	}, s.logger)

	start := time.Now()
	reply, err := s.client.ChatWithTools(ctx, systemPrompt, req.Message, llm.TableToolDefinitions(), executor)
	if err != nil {
		s.logger.Error("chat turn failed",
			zap.String("user_id", req.UserID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("chat turn: %w", err)
	}

	s.logger.Info("chat turn completed",
		zap.String("user_id", req.UserID),
		zap.Int("reply_length", len(reply)),
		zap.Duration("elapsed", time.Since(start)))

	return &ChatResponse{Reply: reply, Model: s.client.GetModel()}, nil
}
