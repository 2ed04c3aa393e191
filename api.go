package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"
)

// API описывает HTTP API для работы с задачами и заметками.
type API struct {
	store   *Store
	auth    AuthMiddleware
	origins []string
	now     func() time.Time
}

// NewAPI создает API с заданным хранилищем, учетными данными и разрешенными источниками CORS.
func NewAPI(store *Store, user, password string, origins []string) *API {
	return &API{
		store:   store,
		auth:    AuthMiddleware{User: user, Password: password},
		origins: origins,
		now:     time.Now,
	}
}

// Handler возвращает http.Handler со всеми маршрутами API.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", a.handleTasks)
	mux.HandleFunc("/tasks/due", a.handleDueTasks)
	mux.HandleFunc("/tasks/", a.handleTaskByID)
	mux.HandleFunc("/notes", a.handleNotes)

	handler := LoggingMiddleware(a.auth.Wrap(mux))
	if len(a.origins) == 0 {
		return handler
	}

	// Preflight-запросы отвечает cors, до проверки авторизации.
	c := cors.New(cors.Options{
		AllowedOrigins:   a.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(handler)
}

// handleTasks обрабатывает создание и получение списка активных задач.
func (a *API) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleListTasks(w, r)
	case http.MethodPost:
		a.handleCreateTask(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleListTasks возвращает активные задачи пользователя.
func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tasks, err := a.store.ActiveTasks(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to list tasks", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(tasks))
}

// handleCreateTask создает задачу пользователя. Срок необязателен.
func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var payload struct {
		Text  string     `json:"text"`
		DueAt *time.Time `json:"due_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	payload.Text = strings.TrimSpace(payload.Text)
	if payload.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	task, err := a.store.AddTask(r.Context(), userID, payload.Text, payload.DueAt)
	if err != nil {
		http.Error(w, "failed to save task", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// handleDueTasks возвращает задачи всех пользователей со сроком не позже параметра at.
func (a *API) handleDueTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	at := a.now()
	if value := r.URL.Query().Get("at"); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			http.Error(w, errInvalidDueAt.Error(), http.StatusBadRequest)
			return
		}
		at = parsed
	}

	tasks, err := a.store.DueTasks(r.Context(), at)
	if err != nil {
		http.Error(w, "failed to list due tasks", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(tasks))
}

// handleTaskByID маршрутизирует запросы для конкретной задачи: POST /tasks/{id}/done.
func (a *API) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/tasks/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[1] != "done" {
		http.NotFound(w, r)
		return
	}

	id, ok := parseID(parts[0])
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := userIDFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	done, err := a.store.CompleteTask(r.Context(), userID, id)
	if err != nil {
		http.Error(w, "failed to update task", http.StatusInternalServerError)
		return
	}
	if !done {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleNotes обрабатывает создание и получение списка заметок.
func (a *API) handleNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		noteType := NoteType(r.URL.Query().Get("type"))
		if noteType != "" && !noteType.Valid() {
			http.Error(w, errInvalidNoteType.Error(), http.StatusBadRequest)
			return
		}
		notes, err := a.store.Notes(r.Context(), userID, noteType)
		if err != nil {
			http.Error(w, "failed to list notes", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(notes))
	case http.MethodPost:
		var payload struct {
			Text string   `json:"text"`
			Type NoteType `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		payload.Text = strings.TrimSpace(payload.Text)
		if payload.Text == "" {
			http.Error(w, "text is required", http.StatusBadRequest)
			return
		}
		if payload.Type == "" {
			payload.Type = NoteTypeIdea
		}
		if !payload.Type.Valid() {
			http.Error(w, errInvalidNoteType.Error(), http.StatusBadRequest)
			return
		}
		note, err := a.store.AddNote(r.Context(), userID, payload.Text, payload.Type)
		if err != nil {
			http.Error(w, "failed to save note", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, note)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// userIDFromQuery извлекает идентификатор пользователя из параметров запроса.
func userIDFromQuery(r *http.Request) (int64, error) {
	value := r.URL.Query().Get("user_id")
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidUserID
	}
	return id, nil
}

// nonNil заменяет nil-срез пустым, чтобы в JSON был [] вместо null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// writeJSON сериализует ответ в JSON.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
