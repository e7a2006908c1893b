package api

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/untire/coach-server/internal/auth"
	"github.com/untire/coach-server/internal/store"
)

func (h *APIHandler) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	var videos []store.VideoEntry
	var err error
	if category := r.URL.Query().Get("category"); category != "" {
		videos, err = h.catalogs.ListVideosByCategory(category)
	} else {
		videos, err = h.catalogs.ListVideos()
	}
	if err != nil {
		log.Printf("Error listing videos: %v", err)
		http.Error(w, "Failed to list videos", http.StatusInternalServerError)
		return
	}
	if videos == nil {
		videos = []store.VideoEntry{}
	}
	json.NewEncoder(w).Encode(videos)
}

func (h *APIHandler) AddVideoHandler(w http.ResponseWriter, r *http.Request) {
	var v store.VideoEntry
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if v.Title == "" || v.EmbedURL == "" {
		http.Error(w, "Title and embed_url are required", http.StatusBadRequest)
		return
	}

	if err := h.catalogs.AddVideo(&v); err != nil {
		log.Printf("Error adding video: %v", err)
		http.Error(w, "Failed to add video", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(v)
}

func (h *APIHandler) DeleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "videoID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid video ID", http.StatusBadRequest)
		return
	}
	if err := h.catalogs.DeleteVideo(id); err != nil {
		log.Printf("Error deleting video %d: %v", id, err)
		http.Error(w, "Failed to delete video", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListBreathingHandler(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.catalogs.ListBreathingExercises()
	if err != nil {
		log.Printf("Error listing breathing exercises: %v", err)
		http.Error(w, "Failed to list breathing exercises", http.StatusInternalServerError)
		return
	}
	if exercises == nil {
		exercises = []store.BreathingEntry{}
	}
	json.NewEncoder(w).Encode(exercises)
}

func (h *APIHandler) AddBreathingHandler(w http.ResponseWriter, r *http.Request) {
	var b store.BreathingEntry
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if b.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	if err := h.catalogs.AddBreathingExercise(&b); err != nil {
		log.Printf("Error adding breathing exercise: %v", err)
		http.Error(w, "Failed to add breathing exercise", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(b)
}

func (h *APIHandler) DeleteBreathingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "exerciseID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid exercise ID", http.StatusBadRequest)
		return
	}
	if err := h.catalogs.DeleteBreathingExercise(id); err != nil {
		log.Printf("Error deleting breathing exercise %d: %v", id, err)
		http.Error(w, "Failed to delete breathing exercise", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListQuizQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	questions, err := h.catalogs.ListQuizQuestions()
	if err != nil {
		log.Printf("Error listing quiz questions: %v", err)
		http.Error(w, "Failed to list quiz questions", http.StatusInternalServerError)
		return
	}
	if questions == nil {
		questions = []store.QuizQuestion{}
	}
	json.NewEncoder(w).Encode(questions)
}

type QuizAnswer struct {
	QuestionID  int64   `json:"question_id"`
	OptionValue float64 `json:"option_value"`
}

type CalculateQuizRequest struct {
	Answers []QuizAnswer `json:"answers"`
}

// CalculateQuizHandler turns quiz answers into a fatigue level: the weighted
// average of option values scaled to [1,10], rounded to one decimal.
func (h *APIHandler) CalculateQuizHandler(w http.ResponseWriter, r *http.Request) {
	var req CalculateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Answers) == 0 {
		http.Error(w, "At least one answer is required", http.StatusBadRequest)
		return
	}

	questions, err := h.catalogs.ListQuizQuestions()
	if err != nil {
		log.Printf("Error listing quiz questions: %v", err)
		http.Error(w, "Failed to calculate fatigue level", http.StatusInternalServerError)
		return
	}
	weights := make(map[int64]float64, len(questions))
	for _, q := range questions {
		weights[q.ID] = q.Weight
	}

	// Answers for question IDs that no longer exist are ignored.
	var weightedSum, totalWeight float64
	for _, a := range req.Answers {
		weight, ok := weights[a.QuestionID]
		if !ok {
			continue
		}
		if weight <= 0 {
			weight = 1
		}
		weightedSum += a.OptionValue * weight
		totalWeight += weight
	}

	level := 5.0
	if totalWeight > 0 {
		level = math.Round(weightedSum/totalWeight*10*10) / 10
		if level < 1 {
			level = 1
		}
		if level > 10 {
			level = 10
		}
	}
	json.NewEncoder(w).Encode(map[string]float64{"fatigue_level": level})
}

func (h *APIHandler) GetAISettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.GetAISettings()
	if err != nil {
		log.Printf("Error loading AI settings: %v", err)
		http.Error(w, "Failed to load AI settings", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(settings)
}

func (h *APIHandler) UpdateAISettingsHandler(w http.ResponseWriter, r *http.Request) {
	var upd store.AISettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if upd.Verbosity != nil {
		switch *upd.Verbosity {
		case "low", "medium", "high":
		default:
			http.Error(w, "Invalid verbosity", http.StatusBadRequest)
			return
		}
	}
	if upd.Temperature != nil && (*upd.Temperature < 0 || *upd.Temperature > 2) {
		http.Error(w, "Temperature must be between 0 and 2", http.StatusBadRequest)
		return
	}

	settings, err := h.settings.UpdateAISettings(upd)
	if err != nil {
		log.Printf("Error updating AI settings: %v", err)
		http.Error(w, "Failed to update AI settings", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(settings)
}

func (h *APIHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers()
	if err != nil {
		log.Printf("Error listing users: %v", err)
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []store.User{}
	}
	json.NewEncoder(w).Encode(users)
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

func (h *APIHandler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	existing, err := h.users.GetUserByUsername(req.Username)
	if err != nil {
		log.Printf("Error checking username %s: %v", req.Username, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "Username already taken", http.StatusConflict)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.Username, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	user, err := h.users.CreateUser(req.Username, hash, req.IsAdmin)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.Username, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *APIHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	adminID := r.Context().Value("userID").(string)
	targetID := chi.URLParam(r, "userID")

	if targetID == adminID {
		http.Error(w, "Cannot delete your own account", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByID(targetID)
	if err != nil {
		log.Printf("Error loading user %s: %v", targetID, err)
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if err := h.users.DeleteUser(targetID); err != nil {
		log.Printf("Error deleting user %s: %v", targetID, err)
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatsHandler gives admins a rough picture of system usage.
func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers()
	if err != nil {
		log.Printf("Error listing users for stats: %v", err)
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	totalChats := 0
	totalMessages := 0
	for _, u := range users {
		chats, err := h.chats.ListChats(u.ID, 0)
		if err != nil {
			log.Printf("Error listing chats for stats: %v", err)
			http.Error(w, "Failed to load stats", http.StatusInternalServerError)
			return
		}
		totalChats += len(chats)
		for _, c := range chats {
			n, err := h.chats.CountMessages(c.ID)
			if err != nil {
				log.Printf("Error counting messages for stats: %v", err)
				http.Error(w, "Failed to load stats", http.StatusInternalServerError)
				return
			}
			totalMessages += n
		}
	}

	json.NewEncoder(w).Encode(map[string]int{
		"total_users":    len(users),
		"total_chats":    totalChats,
		"total_messages": totalMessages,
	})
}
