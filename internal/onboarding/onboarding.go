// Package onboarding drives the conversational store-setup flow: a chat
// model collects business type, store name, starter items, and an owner
// email across a short session. It extracts data only; tenant provisioning
// stays in the service layer.
package onboarding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `Kamu adalah asisten AIKasir yang membantu UMKM setup toko mereka.
Kamu harus bertanya dalam bahasa Indonesia yang santai dan ramah.

Tugas kamu:
1. Tanya jenis usaha/bisnis apa (contoh: warung kopi, toko baju, barbershop)
2. Tanya nama toko/usaha
3. Tanya barang/layanan apa saja yang dijual (minta sebutkan beberapa)
4. Tanya email untuk login

Jawab dalam JSON format:
{
  "message": "pesan untuk user",
  "step": 1-4,
  "data": {
    "business_type": "...",
    "business_name": "...",
    "items": ["item1", "item2"],
    "email": "..."
  },
  "complete": true/false
}

Jika complete=true, berarti semua data sudah lengkap.
Pastikan items adalah array minimal 2 item.`

// ChatClient is the model call. Stubbed in tests.
type ChatClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey string, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: 0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Extracted is the data the assistant has pulled out of the conversation.
type Extracted struct {
	BusinessType string   `json:"business_type"`
	BusinessName string   `json:"business_name"`
	Items        []string `json:"items"`
	Email        string   `json:"email"`
}

// Outcome is one assistant turn. Complete means all four answers are in
// and the caller should provision the store.
type Outcome struct {
	SessionID string
	Message   string
	Complete  bool
	Data      Extracted
}

type assistantReply struct {
	Message  string    `json:"message"`
	Step     int       `json:"step"`
	Data     Extracted `json:"data"`
	Complete bool      `json:"complete"`
}

type Assistant struct {
	sessions SessionStore
	chat     ChatClient
	ttl      time.Duration
	log      zerolog.Logger
}

func NewAssistant(sessions SessionStore, chat ChatClient, ttl time.Duration, log zerolog.Logger) *Assistant {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Assistant{
		sessions: sessions,
		chat:     chat,
		ttl:      ttl,
		log:      log,
	}
}

// Handle runs one conversation turn: load or start the session, replay its
// history to the model with the new user message, and fold the reply's
// extracted fields back into the session.
func (a *Assistant) Handle(ctx context.Context, sessionID string, userMessage string) (*Outcome, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, fmt.Errorf("message is empty")
	}

	var session *Session
	if sessionID != "" {
		existing, found, err := a.sessions.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if found {
			session = existing
		}
	}
	if session == nil {
		session = newSession()
	}

	messages := make([]Message, 0, len(session.History)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, session.History...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	raw, err := a.chat.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	var reply assistantReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		a.log.Warn().Err(err).Str("session_id", session.ID).Msg("assistant reply was not valid JSON")
		return nil, fmt.Errorf("assistant reply malformed: %w", err)
	}

	session.History = append(session.History,
		Message{Role: "user", Content: userMessage},
		Message{Role: "assistant", Content: raw},
	)
	if reply.Step > 0 {
		session.Step = reply.Step
	}
	if reply.Data.BusinessType != "" {
		session.BusinessType = reply.Data.BusinessType
	}
	if reply.Data.BusinessName != "" {
		session.BusinessName = reply.Data.BusinessName
	}
	if len(reply.Data.Items) > 0 {
		session.Items = reply.Data.Items
	}
	if reply.Data.Email != "" {
		session.OwnerEmail = reply.Data.Email
	}

	if err := a.sessions.Save(ctx, session, a.ttl); err != nil {
		return nil, err
	}

	outcome := &Outcome{
		SessionID: session.ID,
		Message:   reply.Message,
		Complete:  reply.Complete,
		Data: Extracted{
			BusinessType: session.BusinessType,
			BusinessName: session.BusinessName,
			Items:        session.Items,
			Email:        session.OwnerEmail,
		},
	}
	if outcome.Message == "" {
		outcome.Message = "Oke, lanjut ya!"
	}
	return outcome, nil
}
