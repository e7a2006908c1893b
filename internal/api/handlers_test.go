package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/untire/coach-server/internal/auth"
	"github.com/untire/coach-server/internal/store"
)

// fakeStore is an in-memory implementation of every store interface the API
// handlers touch, so routing and authorization can be tested end to end
// without SQLite.
type fakeStore struct {
	users    map[string]*store.User
	sessions map[string]*store.Session
	profiles map[string]*store.Profile
	settings map[string]*store.UserSettings
	ai       *store.AISettings
	chats    map[string]*store.Chat
	messages map[string][]store.Message
	quiz     []store.QuizQuestion
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*store.User),
		sessions: make(map[string]*store.Session),
		profiles: make(map[string]*store.Profile),
		settings: make(map[string]*store.UserSettings),
		chats:    make(map[string]*store.Chat),
		messages: make(map[string][]store.Message),
	}
}

func (f *fakeStore) CreateUser(username, passwordHash string, isAdmin bool) (*store.User, error) {
	f.nextID++
	u := &store.User{ID: username + "-id", Username: username, PasswordHash: passwordHash, IsAdmin: isAdmin}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUserByUsername(username string) (*store.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetUserByID(id string) (*store.User, error) { return f.users[id], nil }

func (f *fakeStore) ListUsers() ([]store.User, error) {
	var out []store.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeStore) DeleteUser(id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeStore) HasAdmin() (bool, error) {
	for _, u := range f.users {
		if u.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateSession(userID, token string, expiresAt time.Time) error {
	f.sessions[token] = &store.Session{ID: token, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeStore) GetSession(token string) (*store.Session, error) {
	s := f.sessions[token]
	if s == nil || time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	return s, nil
}

func (f *fakeStore) DeleteSession(token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeStore) DeleteUserSessions(userID string) error {
	for token, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *fakeStore) GetProfile(userID string) (*store.Profile, error) {
	return f.profiles[userID], nil
}

func (f *fakeStore) UpsertProfile(userID string, upd store.ProfileUpdate) (*store.Profile, error) {
	p := f.profiles[userID]
	if p == nil {
		p = &store.Profile{UserID: userID}
		f.profiles[userID] = p
	}
	if upd.Name != nil {
		p.Name = upd.Name
	}
	if upd.TypicalFatigueLevel != nil {
		p.TypicalFatigueLevel = upd.TypicalFatigueLevel
	}
	return p, nil
}

func (f *fakeStore) UpdateDynamicProfile(userID, text string) error {
	if p := f.profiles[userID]; p != nil {
		p.DynamicProfile = text
	}
	return nil
}

func (f *fakeStore) GetDynamicProfile(userID string) (string, error) {
	if p := f.profiles[userID]; p != nil {
		return p.DynamicProfile, nil
	}
	return "", nil
}

func (f *fakeStore) SetLastFatigueAskedDate(userID, date string) error {
	p := f.profiles[userID]
	if p == nil {
		p = &store.Profile{UserID: userID}
		f.profiles[userID] = p
	}
	p.LastFatigueAskedDate = &date
	return nil
}

func (f *fakeStore) DeleteProfile(userID string) error {
	delete(f.profiles, userID)
	return nil
}

func (f *fakeStore) GetUserSettings(userID string) (*store.UserSettings, error) {
	if f.settings[userID] == nil {
		f.settings[userID] = store.DefaultUserSettings(userID)
	}
	return f.settings[userID], nil
}

func (f *fakeStore) UpdateUserSettings(userID string, upd store.UserSettingsUpdate) (*store.UserSettings, error) {
	s, _ := f.GetUserSettings(userID)
	if upd.BehaviorType != nil {
		s.BehaviorType = *upd.BehaviorType
	}
	if upd.AgenticFeatures != nil {
		s.AgenticFeatures = *upd.AgenticFeatures
	}
	if upd.ChatOnly != nil {
		s.ChatOnly = *upd.ChatOnly
	}
	return s, nil
}

func (f *fakeStore) GetAISettings() (*store.AISettings, error) {
	if f.ai == nil {
		f.ai = store.DefaultAISettings()
	}
	return f.ai, nil
}

func (f *fakeStore) UpdateAISettings(upd store.AISettingsUpdate) (*store.AISettings, error) {
	s, _ := f.GetAISettings()
	if upd.Model != nil {
		s.Model = *upd.Model
	}
	if upd.Temperature != nil {
		s.Temperature = *upd.Temperature
	}
	return s, nil
}

func (f *fakeStore) DeleteUserSettings(userID string) error {
	delete(f.settings, userID)
	return nil
}

func (f *fakeStore) CreateChat(userID, title string, initialFatigueLevel *float64) (*store.Chat, error) {
	f.nextID++
	c := &store.Chat{ID: title + "-id", UserID: userID, Title: title, InitialFatigueLevel: initialFatigueLevel}
	f.chats[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetChat(chatID string) (*store.Chat, error) { return f.chats[chatID], nil }

func (f *fakeStore) ListChats(userID string, limit int) ([]store.Chat, error) {
	var out []store.Chat
	for _, c := range f.chats {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) UpdateChatTitle(chatID, title string) error { return nil }

func (f *fakeStore) DeleteChat(chatID string) error {
	delete(f.chats, chatID)
	delete(f.messages, chatID)
	return nil
}

func (f *fakeStore) AddMessage(msg *store.Message) error {
	f.messages[msg.ChatID] = append(f.messages[msg.ChatID], *msg)
	return nil
}

func (f *fakeStore) GetMessages(chatID string) ([]store.Message, error) {
	return f.messages[chatID], nil
}

func (f *fakeStore) CountMessages(chatID string) (int, error) {
	return len(f.messages[chatID]), nil
}

func (f *fakeStore) ListVideos() ([]store.VideoEntry, error)                     { return nil, nil }
func (f *fakeStore) ListVideosByCategory(category string) ([]store.VideoEntry, error) {
	return nil, nil
}
func (f *fakeStore) AddVideo(v *store.VideoEntry) error                       { return nil }
func (f *fakeStore) DeleteVideo(id int64) error                               { return nil }
func (f *fakeStore) ListBreathingExercises() ([]store.BreathingEntry, error)  { return nil, nil }
func (f *fakeStore) AddBreathingExercise(b *store.BreathingEntry) error       { return nil }
func (f *fakeStore) DeleteBreathingExercise(id int64) error                   { return nil }
func (f *fakeStore) ListQuizQuestions() ([]store.QuizQuestion, error)         { return f.quiz, nil }
func (f *fakeStore) AddQuizQuestion(q *store.QuizQuestion) error              { return nil }

func newTestRouter(f *fakeStore) http.Handler {
	h := NewAPIHandler(f, f, f, f, f, f, nil)
	return NewRouter(h)
}

// addUser creates a user with the given password and an active session,
// returning the session cookie.
func addUser(t *testing.T, f *fakeStore, username, password string, isAdmin bool) *http.Cookie {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := f.CreateUser(username, hash, isAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := auth.NewSessionToken()
	if err != nil {
		t.Fatalf("session token: %v", err)
	}
	if err := f.CreateSession(user.ID, token, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookieName, Value: token}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// --- auth ---

func TestLoginFlow(t *testing.T) {
	f := newFakeStore()
	hash, _ := auth.HashPassword("secret123")
	f.CreateUser("sam", hash, false)
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "sam", "password": "secret123",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got %d, body %s", rec.Code, rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("login did not set a session cookie")
	}

	rec = doJSON(t, router, http.MethodGet, "/api/auth/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: got %d", rec.Code)
	}
	var user store.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if user.Username != "sam" {
		t.Errorf("me username: got %q", user.Username)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFakeStore()
	hash, _ := auth.HashPassword("secret123")
	f.CreateUser("sam", hash, false)
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "sam", "password": "wrong",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(newFakeStore())
	rec := doJSON(t, router, http.MethodGet, "/api/chats", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", rec.Code)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	f := newFakeStore()
	user, _ := f.CreateUser("sam", "x", false)
	f.CreateSession(user.ID, "stale-token", time.Now().Add(-time.Minute))
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodGet, "/api/chats", nil,
		&http.Cookie{Name: auth.SessionCookieName, Value: "stale-token"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", rec.Code)
	}
}

// --- authorization ---

func TestProfileOwnerOnly(t *testing.T) {
	f := newFakeStore()
	cookie := addUser(t, f, "sam", "secret123", false)
	addUser(t, f, "alex", "secret456", false)
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodGet, "/api/profile/alex-id", nil, cookie)
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign profile read: got %d, want 403", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/profile/sam-id", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("own profile read: got %d, want 200", rec.Code)
	}
}

func TestAdminRoutesGated(t *testing.T) {
	f := newFakeStore()
	userCookie := addUser(t, f, "sam", "secret123", false)
	adminCookie := addUser(t, f, "root", "secret456", true)
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodGet, "/api/admin/ai-settings", nil, userCookie)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin: got %d, want 403", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/admin/ai-settings", nil, adminCookie)
	if rec.Code != http.StatusOK {
		t.Errorf("admin: got %d, want 200", rec.Code)
	}
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	f := newFakeStore()
	adminCookie := addUser(t, f, "root", "secret456", true)
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodDelete, "/api/admin/users/root-id", nil, adminCookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self delete: got %d, want 400", rec.Code)
	}
}

// --- fatigue prompting ---

func TestShouldAskFatigueOncePerDay(t *testing.T) {
	f := newFakeStore()
	cookie := addUser(t, f, "sam", "secret123", false)
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodGet, "/api/profile/sam-id/should-ask-fatigue", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var resp map[string]bool
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp["shouldAsk"] {
		t.Error("fresh user should be asked for fatigue level")
	}

	rec = doJSON(t, router, http.MethodPost, "/api/profile/sam-id/fatigue-asked", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("fatigue-asked: got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/profile/sam-id/should-ask-fatigue", nil, cookie)
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["shouldAsk"] {
		t.Error("user should not be asked twice on the same day")
	}
}

// --- clear-all ---

func TestClearAllRemovesUserData(t *testing.T) {
	f := newFakeStore()
	cookie := addUser(t, f, "sam", "secret123", false)
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodPost, "/api/profile/sam-id", map[string]string{"name": "Sam"}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile setup: got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/api/settings/sam-id", map[string]bool{"chat_only": true}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("settings setup: got %d", rec.Code)
	}
	chat, _ := f.CreateChat("sam-id", "old chat", nil)
	f.AddMessage(&store.Message{ChatID: chat.ID, Role: store.RoleUser, Content: "hello"})

	rec = doJSON(t, router, http.MethodDelete, "/api/user/sam-id/clear-all", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear-all: got %d, body %s", rec.Code, rec.Body.String())
	}

	if p, _ := f.GetProfile("sam-id"); p != nil {
		t.Errorf("profile survived clear-all: %+v", p)
	}
	if chats, _ := f.ListChats("sam-id", 0); len(chats) != 0 {
		t.Errorf("chats survived clear-all: %d", len(chats))
	}
	if n, _ := f.CountMessages(chat.ID); n != 0 {
		t.Errorf("messages survived clear-all: %d", n)
	}
	settings, _ := f.GetUserSettings("sam-id")
	if settings.ChatOnly {
		t.Error("settings survived clear-all instead of resetting to defaults")
	}

	// Sessions are gone too: the cookie no longer authenticates.
	rec = doJSON(t, router, http.MethodGet, "/api/chats", nil, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("session survived clear-all: got %d, want 401", rec.Code)
	}
}

// --- chats ---

func TestListChatsReturnsAll(t *testing.T) {
	f := newFakeStore()
	cookie := addUser(t, f, "sam", "secret123", false)
	router := newTestRouter(f)

	for i := 0; i < 60; i++ {
		if _, err := f.CreateChat("sam-id", fmt.Sprintf("chat %d", i), nil); err != nil {
			t.Fatalf("CreateChat: %v", err)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/api/chats", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var chats []store.Chat
	if err := json.Unmarshal(rec.Body.Bytes(), &chats); err != nil {
		t.Fatalf("decode chats: %v", err)
	}
	if len(chats) != 60 {
		t.Errorf("chat list capped: got %d, want 60", len(chats))
	}
}

// --- quiz ---

func TestCalculateQuiz(t *testing.T) {
	f := newFakeStore()
	f.quiz = []store.QuizQuestion{
		{ID: 1, Weight: 1},
		{ID: 2, Weight: 3},
	}
	cookie := addUser(t, f, "sam", "secret123", false)
	router := newTestRouter(f)

	// (0.2*1 + 0.6*3) / 4 = 0.5 -> 5.0
	rec := doJSON(t, router, http.MethodPost, "/api/fatigue-quiz/calculate", map[string]any{
		"answers": []map[string]any{
			{"question_id": 1, "option_value": 0.2},
			{"question_id": 2, "option_value": 0.6},
		},
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]float64
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["fatigue_level"] != 5.0 {
		t.Errorf("fatigue level: got %v, want 5.0", resp["fatigue_level"])
	}
}

func TestCalculateQuizClampsLowEnd(t *testing.T) {
	f := newFakeStore()
	f.quiz = []store.QuizQuestion{{ID: 1, Weight: 1}}
	cookie := addUser(t, f, "sam", "secret123", false)
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodPost, "/api/fatigue-quiz/calculate", map[string]any{
		"answers": []map[string]any{{"question_id": 1, "option_value": 0.0}},
	}, cookie)
	var resp map[string]float64
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["fatigue_level"] != 1.0 {
		t.Errorf("fatigue level: got %v, want clamp to 1.0", resp["fatigue_level"])
	}
}

func TestCalculateQuizIgnoresUnknownQuestions(t *testing.T) {
	f := newFakeStore()
	f.quiz = []store.QuizQuestion{{ID: 1, Weight: 1}}
	cookie := addUser(t, f, "sam", "secret123", false)
	router := newTestRouter(f)

	// The stale answer for a deleted question must not move the result.
	rec := doJSON(t, router, http.MethodPost, "/api/fatigue-quiz/calculate", map[string]any{
		"answers": []map[string]any{
			{"question_id": 1, "option_value": 0.6},
			{"question_id": 99, "option_value": 0.1},
		},
	}, cookie)
	var resp map[string]float64
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["fatigue_level"] != 6.0 {
		t.Errorf("fatigue level: got %v, want 6.0", resp["fatigue_level"])
	}
}

func TestCalculateQuizDefaultsWhenNothingMatches(t *testing.T) {
	f := newFakeStore()
	cookie := addUser(t, f, "sam", "secret123", false)
	router := newTestRouter(f)

	rec := doJSON(t, router, http.MethodPost, "/api/fatigue-quiz/calculate", map[string]any{
		"answers": []map[string]any{
			{"question_id": 99, "option_value": 0.4},
			{"question_id": 100, "option_value": 0.8},
		},
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var resp map[string]float64
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["fatigue_level"] != 5.0 {
		t.Errorf("fatigue level: got %v, want the default 5.0", resp["fatigue_level"])
	}
}
