package coach

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/untire/coach-server/internal/llm"
	"github.com/untire/coach-server/internal/store"
)

// historyWindow caps how many prior turns are replayed to the model.
const historyWindow = 10

// modelCallTimeout bounds the primary model call so a stalled provider cannot
// stall the turn; on expiry the turn degrades to the fallback reply.
const modelCallTimeout = 60 * time.Second

// FallbackReply is persisted as a normal assistant message whenever the model
// call fails or no provider is configured. It is never surfaced as an error.
const FallbackReply = "Thank you for reaching out and sharing with me. I can sense that you're looking for support with cancer-related fatigue, and I want you to know that what you're experiencing is completely valid.\n\nI'm currently running in demo mode, but I'm still here to listen and have a real conversation with you. Cancer-related fatigue isn't just being tired - it can feel like it touches every part of your day, can't it?\n\nI'd love to understand more about what you're going through. What does a typical day look like for you right now? Are there particular times when the fatigue feels heavier?\n\n*This is educational support to complement your healthcare team's care.*"

var ErrChatNotFound = errors.New("chat not found")

// TurnService processes one conversation turn end to end: persist the user
// message, resolve context, compose the instruction, call the model, parse
// the reply, and persist the assistant message. The dynamic profile update is
// handed to the background updater and never blocks the turn.
type TurnService struct {
	chats    store.ChatStore
	resolver *Resolver
	catalogs *CatalogProvider
	client   llm.Client
	updater  *ProfileUpdater
}

func NewTurnService(chats store.ChatStore, resolver *Resolver, catalogs *CatalogProvider, client llm.Client, updater *ProfileUpdater) *TurnService {
	return &TurnService{
		chats:    chats,
		resolver: resolver,
		catalogs: catalogs,
		client:   client,
		updater:  updater,
	}
}

type TurnResult struct {
	Chat      *store.Chat
	Assistant *store.Message
}

// HandleTurn runs a turn for the given user. An empty chatID starts a new
// chat, anchored to initialFatigueLevel if one is supplied; the anchor is
// immutable afterwards.
func (s *TurnService) HandleTurn(ctx context.Context, userID, chatID, message string, initialFatigueLevel *float64) (*TurnResult, error) {
	var chat *store.Chat
	var err error

	if chatID == "" {
		chat, err = s.chats.CreateChat(userID, deriveTitle(message), initialFatigueLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat: %w", err)
		}
	} else {
		chat, err = s.chats.GetChat(chatID)
		if err != nil {
			return nil, fmt.Errorf("failed to load chat: %w", err)
		}
		if chat == nil || chat.UserID != userID {
			return nil, ErrChatNotFound
		}
	}

	priorCount, err := s.chats.CountMessages(chat.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	userMsg := &store.Message{ChatID: chat.ID, Role: store.RoleUser, Content: message}
	if err := s.chats.AddMessage(userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	if chat.Title == "" || chat.Title == "New Chat" {
		title := deriveTitle(message)
		if err := s.chats.UpdateChatTitle(chat.ID, title); err != nil {
			log.Printf("Failed to set title for chat %s: %v", chat.ID, err)
		} else {
			chat.Title = title
		}
	}

	tc, err := s.resolver.Resolve(userID, chat)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve turn context: %w", err)
	}
	videos, breathing, err := s.catalogs.AvailableTools(tc)
	if err != nil {
		return nil, fmt.Errorf("failed to load tool catalogs: %w", err)
	}

	systemPrompt := ComposePrompt(PromptInput{
		Profile:        tc.Profile,
		FatigueLevel:   tc.FatigueLevel,
		Settings:       tc.Settings,
		DynamicProfile: tc.DynamicProfile,
		AI:             tc.AI,
		Videos:         videos,
		Breathing:      breathing,
		UserMessage:    message,
		HasHistory:     priorCount > 0,
	})

	history, err := s.chats.GetMessages(chat.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	llmMessages := make([]llm.Message, len(history))
	for i, m := range history {
		llmMessages[i] = llm.Message{Role: m.Role, Content: m.Content}
	}

	callCtx, cancel := context.WithTimeout(ctx, modelCallTimeout)
	defer cancel()
	reply, err := s.client.Complete(callCtx, llm.Request{
		System:      systemPrompt,
		Messages:    llmMessages,
		Model:       tc.AI.Model,
		Temperature: tc.AI.Temperature,
		MaxTokens:   tc.AI.MaxTokens,
	})

	var parsed ParsedReply
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			log.Printf("Model call failed for chat %s, using fallback reply: %v", chat.ID, err)
		}
		parsed = ParsedReply{DisplayText: FallbackReply}
	} else {
		parsed = ParseDirectives(reply)
	}

	assistantMsg := &store.Message{
		ChatID:  chat.ID,
		Role:    store.RoleAssistant,
		Content: parsed.DisplayText,
		Media:   parsed.Media(),
	}
	if err := s.chats.AddMessage(assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	if s.updater != nil {
		s.updater.Enqueue(userID, chat.ID)
	}

	return &TurnResult{Chat: chat, Assistant: assistantMsg}, nil
}

// deriveTitle builds a chat title from the first user message: at most 50
// characters, with an ellipsis marker when truncated.
func deriveTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= 50 {
		return message
	}
	return string(runes[:50]) + "..."
}
