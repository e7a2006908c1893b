package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/untire/coach-server/internal/auth"
	"github.com/untire/coach-server/internal/coach"
	"github.com/untire/coach-server/internal/store"
)

type APIHandler struct {
	users    store.UserStore
	sessions store.SessionStore
	profiles store.ProfileStore
	settings store.SettingsStore
	chats    store.ChatStore
	catalogs store.CatalogStore
	turns    *coach.TurnService
}

func NewAPIHandler(users store.UserStore, sessions store.SessionStore, profiles store.ProfileStore, settings store.SettingsStore, chats store.ChatStore, catalogs store.CatalogStore, turns *coach.TurnService) *APIHandler {
	return &APIHandler{
		users:    users,
		sessions: sessions,
		profiles: profiles,
		settings: settings,
		chats:    chats,
		catalogs: catalogs,
		turns:    turns,
	}
}

func (h *APIHandler) SessionAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.SessionCookieName)
		if err != nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		session, err := h.sessions.GetSession(cookie.Value)
		if err != nil {
			log.Printf("Error loading session: %v", err)
			http.Error(w, "Failed to validate session", http.StatusInternalServerError)
			return
		}
		if session == nil {
			http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
			return
		}

		user, err := h.users.GetUserByID(session.UserID)
		if err != nil {
			log.Printf("Error loading user %s: %v", session.UserID, err)
			http.Error(w, "Failed to validate session", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", user.ID)
		ctx = context.WithValue(ctx, "isAdmin", user.IsAdmin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *APIHandler) AdminOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isAdmin, _ := r.Context().Value("isAdmin").(bool)
		if !isAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireOwner enforces that path-scoped user resources are only reachable by
// their owner; admins may reach any of them.
func (h *APIHandler) requireOwner(w http.ResponseWriter, r *http.Request, pathUserID string) bool {
	userID := r.Context().Value("userID").(string)
	isAdmin, _ := r.Context().Value("isAdmin").(bool)
	if userID != pathUserID && !isAdmin {
		http.Error(w, "Access denied", http.StatusForbidden)
		return false
	}
	return true
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByUsername(req.Username)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.Username, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.NewSessionToken()
	if err != nil {
		log.Printf("Error generating session token: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	expiresAt := time.Now().Add(auth.SessionTTL)
	if err := h.sessions.CreateSession(user.ID, token, expiresAt); err != nil {
		log.Printf("Error storing session for user %s: %v", user.ID, err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	json.NewEncoder(w).Encode(user)
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		if err := h.sessions.DeleteSession(cookie.Value); err != nil {
			log.Printf("Error deleting session: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)
	user, err := h.users.GetUserByID(userID)
	if err != nil || user == nil {
		log.Printf("Error loading user %s: %v", userID, err)
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(user)
}

func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	pathUserID := chi.URLParam(r, "userID")
	if !h.requireOwner(w, r, pathUserID) {
		return
	}

	profile, err := h.profiles.GetProfile(pathUserID)
	if err != nil {
		log.Printf("Error loading profile for user %s: %v", pathUserID, err)
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		profile = &store.Profile{UserID: pathUserID}
	}
	json.NewEncoder(w).Encode(profile)
}

func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	pathUserID := chi.URLParam(r, "userID")
	if !h.requireOwner(w, r, pathUserID) {
		return
	}

	var upd store.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.profiles.UpsertProfile(pathUserID, upd)
	if err != nil {
		log.Printf("Error updating profile for user %s: %v", pathUserID, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(profile)
}

// ShouldAskFatigueHandler reports whether the client should prompt the user
// for today's fatigue level: once per UTC day at most.
func (h *APIHandler) ShouldAskFatigueHandler(w http.ResponseWriter, r *http.Request) {
	pathUserID := chi.URLParam(r, "userID")
	if !h.requireOwner(w, r, pathUserID) {
		return
	}

	profile, err := h.profiles.GetProfile(pathUserID)
	if err != nil {
		log.Printf("Error loading profile for user %s: %v", pathUserID, err)
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	today := time.Now().UTC().Format("2006-01-02")
	shouldAsk := profile == nil || profile.LastFatigueAskedDate == nil || *profile.LastFatigueAskedDate != today
	json.NewEncoder(w).Encode(map[string]bool{"shouldAsk": shouldAsk})
}

func (h *APIHandler) FatigueAskedHandler(w http.ResponseWriter, r *http.Request) {
	pathUserID := chi.URLParam(r, "userID")
	if !h.requireOwner(w, r, pathUserID) {
		return
	}

	today := time.Now().UTC().Format("2006-01-02")
	if err := h.profiles.SetLastFatigueAskedDate(pathUserID, today); err != nil {
		log.Printf("Error recording fatigue prompt for user %s: %v", pathUserID, err)
		http.Error(w, "Failed to record fatigue prompt", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

type UpdateFatigueRequest struct {
	FatigueLevel *float64 `json:"fatigue_level"`
}

func (h *APIHandler) UpdateFatigueHandler(w http.ResponseWriter, r *http.Request) {
	pathUserID := chi.URLParam(r, "userID")
	if !h.requireOwner(w, r, pathUserID) {
		return
	}

	var req UpdateFatigueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.FatigueLevel == nil {
		http.Error(w, "fatigue_level is required", http.StatusBadRequest)
		return
	}

	profile, err := h.profiles.UpsertProfile(pathUserID, store.ProfileUpdate{TypicalFatigueLevel: req.FatigueLevel})
	if err != nil {
		log.Printf("Error updating fatigue level for user %s: %v", pathUserID, err)
		http.Error(w, "Failed to update fatigue level", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(profile)
}

func (h *APIHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	pathUserID := chi.URLParam(r, "userID")
	if !h.requireOwner(w, r, pathUserID) {
		return
	}

	settings, err := h.settings.GetUserSettings(pathUserID)
	if err != nil {
		log.Printf("Error loading settings for user %s: %v", pathUserID, err)
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(settings)
}

func (h *APIHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	pathUserID := chi.URLParam(r, "userID")
	if !h.requireOwner(w, r, pathUserID) {
		return
	}

	var upd store.UserSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if upd.BehaviorType != nil {
		switch *upd.BehaviorType {
		case store.BehaviorEmpathetic, store.BehaviorPractical, store.BehaviorEncouraging:
		default:
			http.Error(w, "Invalid behavior_type", http.StatusBadRequest)
			return
		}
	}

	settings, err := h.settings.UpdateUserSettings(pathUserID, upd)
	if err != nil {
		log.Printf("Error updating settings for user %s: %v", pathUserID, err)
		http.Error(w, "Failed to update settings", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(settings)
}

type ChatTurnRequest struct {
	ChatID              string   `json:"chat_id"`
	Message             string   `json:"message"`
	InitialFatigueLevel *float64 `json:"initial_fatigue_level"`
}

type ChatTurnResponse struct {
	ChatID  string        `json:"chat_id"`
	Message store.Message `json:"message"`
}

func (h *APIHandler) ChatTurnHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	var req ChatTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "Message cannot be empty", http.StatusBadRequest)
		return
	}

	result, err := h.turns.HandleTurn(r.Context(), userID, req.ChatID, req.Message, req.InitialFatigueLevel)
	if err != nil {
		if errors.Is(err, coach.ErrChatNotFound) {
			http.Error(w, "Chat not found", http.StatusNotFound)
			return
		}
		log.Printf("Error handling turn for user %s, chat %s: %v", userID, req.ChatID, err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(ChatTurnResponse{
		ChatID:  result.Chat.ID,
		Message: *result.Assistant,
	})
}

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	chats, err := h.chats.ListChats(userID, 0)
	if err != nil {
		log.Printf("Error listing chats for user %s: %v", userID, err)
		http.Error(w, "Failed to list chats", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(chats)
}

type GetChatResponse struct {
	*store.Chat
	Messages []store.Message `json:"messages"`
}

func (h *APIHandler) GetChatHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)
	chatID := chi.URLParam(r, "chatID")

	chat, err := h.chats.GetChat(chatID)
	if err != nil {
		log.Printf("Error loading chat %s: %v", chatID, err)
		http.Error(w, "Failed to load chat", http.StatusInternalServerError)
		return
	}
	if chat == nil || chat.UserID != userID {
		http.Error(w, "Chat not found", http.StatusNotFound)
		return
	}

	messages, err := h.chats.GetMessages(chatID)
	if err != nil {
		log.Printf("Error loading messages for chat %s: %v", chatID, err)
		http.Error(w, "Failed to load chat", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(GetChatResponse{Chat: chat, Messages: messages})
}

func (h *APIHandler) DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)
	chatID := chi.URLParam(r, "chatID")

	chat, err := h.chats.GetChat(chatID)
	if err != nil {
		log.Printf("Error loading chat %s: %v", chatID, err)
		http.Error(w, "Failed to delete chat", http.StatusInternalServerError)
		return
	}
	if chat == nil || chat.UserID != userID {
		http.Error(w, "Chat not found", http.StatusNotFound)
		return
	}

	if err := h.chats.DeleteChat(chatID); err != nil {
		log.Printf("Error deleting chat %s: %v", chatID, err)
		http.Error(w, "Failed to delete chat", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearAllHandler wipes every row the user owns: chats, messages, profile,
// settings and sessions. The account itself survives, so the user can log
// back in to a blank slate.
func (h *APIHandler) ClearAllHandler(w http.ResponseWriter, r *http.Request) {
	pathUserID := chi.URLParam(r, "userID")
	if !h.requireOwner(w, r, pathUserID) {
		return
	}

	chats, err := h.chats.ListChats(pathUserID, 0)
	if err != nil {
		log.Printf("Error listing chats for user %s: %v", pathUserID, err)
		http.Error(w, "Failed to clear user data", http.StatusInternalServerError)
		return
	}
	for _, chat := range chats {
		if err := h.chats.DeleteChat(chat.ID); err != nil {
			log.Printf("Error deleting chat %s: %v", chat.ID, err)
			http.Error(w, "Failed to clear user data", http.StatusInternalServerError)
			return
		}
	}
	if err := h.profiles.DeleteProfile(pathUserID); err != nil {
		log.Printf("Error deleting profile for user %s: %v", pathUserID, err)
		http.Error(w, "Failed to clear user data", http.StatusInternalServerError)
		return
	}
	if err := h.settings.DeleteUserSettings(pathUserID); err != nil {
		log.Printf("Error deleting settings for user %s: %v", pathUserID, err)
		http.Error(w, "Failed to clear user data", http.StatusInternalServerError)
		return
	}
	if err := h.sessions.DeleteUserSessions(pathUserID); err != nil {
		log.Printf("Error deleting sessions for user %s: %v", pathUserID, err)
		http.Error(w, "Failed to clear user data", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
