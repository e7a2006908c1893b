package coach

import (
	"context"
	"fmt"
	"time"

	"github.com/untire/coach-server/internal/llm"
	"github.com/untire/coach-server/internal/store"
)

// In-memory stand-ins for the store interfaces, so pipeline tests need no
// database.

type fakeChatStore struct {
	chats    map[string]*store.Chat
	messages map[string][]store.Message
	nextID   int
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		chats:    make(map[string]*store.Chat),
		messages: make(map[string][]store.Message),
	}
}

func (f *fakeChatStore) CreateChat(userID, title string, initialFatigueLevel *float64) (*store.Chat, error) {
	f.nextID++
	chat := &store.Chat{
		ID:                  fmt.Sprintf("chat-%d", f.nextID),
		UserID:              userID,
		Title:               title,
		InitialFatigueLevel: initialFatigueLevel,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
	f.chats[chat.ID] = chat
	return chat, nil
}

func (f *fakeChatStore) GetChat(chatID string) (*store.Chat, error) {
	return f.chats[chatID], nil
}

func (f *fakeChatStore) ListChats(userID string, limit int) ([]store.Chat, error) {
	var out []store.Chat
	for _, c := range f.chats {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeChatStore) UpdateChatTitle(chatID, title string) error {
	if c, ok := f.chats[chatID]; ok {
		c.Title = title
	}
	return nil
}

func (f *fakeChatStore) DeleteChat(chatID string) error {
	delete(f.chats, chatID)
	delete(f.messages, chatID)
	return nil
}

func (f *fakeChatStore) AddMessage(msg *store.Message) error {
	f.nextID++
	msg.ID = fmt.Sprintf("msg-%d", f.nextID)
	msg.Timestamp = time.Now()
	f.messages[msg.ChatID] = append(f.messages[msg.ChatID], *msg)
	return nil
}

func (f *fakeChatStore) GetMessages(chatID string) ([]store.Message, error) {
	return append([]store.Message(nil), f.messages[chatID]...), nil
}

func (f *fakeChatStore) CountMessages(chatID string) (int, error) {
	return len(f.messages[chatID]), nil
}

type fakeProfileStore struct {
	profile *store.Profile
	dynamic string
	writes  []string
}

func (f *fakeProfileStore) GetProfile(userID string) (*store.Profile, error) {
	return f.profile, nil
}

func (f *fakeProfileStore) UpsertProfile(userID string, upd store.ProfileUpdate) (*store.Profile, error) {
	if f.profile == nil {
		f.profile = &store.Profile{UserID: userID}
	}
	if upd.TypicalFatigueLevel != nil {
		f.profile.TypicalFatigueLevel = upd.TypicalFatigueLevel
	}
	return f.profile, nil
}

func (f *fakeProfileStore) UpdateDynamicProfile(userID, text string) error {
	f.dynamic = text
	f.writes = append(f.writes, text)
	return nil
}

func (f *fakeProfileStore) GetDynamicProfile(userID string) (string, error) {
	return f.dynamic, nil
}

func (f *fakeProfileStore) SetLastFatigueAskedDate(userID, date string) error {
	return nil
}

func (f *fakeProfileStore) DeleteProfile(userID string) error {
	f.profile = nil
	f.dynamic = ""
	return nil
}

type fakeSettingsStore struct {
	user *store.UserSettings
	ai   *store.AISettings
}

func (f *fakeSettingsStore) GetUserSettings(userID string) (*store.UserSettings, error) {
	if f.user == nil {
		f.user = store.DefaultUserSettings(userID)
	}
	return f.user, nil
}

func (f *fakeSettingsStore) UpdateUserSettings(userID string, upd store.UserSettingsUpdate) (*store.UserSettings, error) {
	return f.user, nil
}

func (f *fakeSettingsStore) GetAISettings() (*store.AISettings, error) {
	if f.ai == nil {
		f.ai = store.DefaultAISettings()
	}
	return f.ai, nil
}

func (f *fakeSettingsStore) UpdateAISettings(upd store.AISettingsUpdate) (*store.AISettings, error) {
	return f.ai, nil
}

func (f *fakeSettingsStore) DeleteUserSettings(userID string) error {
	f.user = nil
	return nil
}

type fakeCatalogStore struct {
	videos    []store.VideoEntry
	breathing []store.BreathingEntry
	quiz      []store.QuizQuestion
}

func (f *fakeCatalogStore) ListVideos() ([]store.VideoEntry, error) { return f.videos, nil }
func (f *fakeCatalogStore) ListVideosByCategory(category string) ([]store.VideoEntry, error) {
	return f.videos, nil
}
func (f *fakeCatalogStore) AddVideo(v *store.VideoEntry) error { return nil }
func (f *fakeCatalogStore) DeleteVideo(id int64) error         { return nil }
func (f *fakeCatalogStore) ListBreathingExercises() ([]store.BreathingEntry, error) {
	return f.breathing, nil
}
func (f *fakeCatalogStore) AddBreathingExercise(b *store.BreathingEntry) error { return nil }
func (f *fakeCatalogStore) DeleteBreathingExercise(id int64) error             { return nil }
func (f *fakeCatalogStore) ListQuizQuestions() ([]store.QuizQuestion, error)   { return f.quiz, nil }
func (f *fakeCatalogStore) AddQuizQuestion(q *store.QuizQuestion) error        { return nil }

// fakeClient records every request and returns a canned reply or error.
type fakeClient struct {
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
