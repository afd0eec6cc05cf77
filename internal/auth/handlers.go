package auth

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/signcast/signcast/internal/httputil"
)

type Handler struct {
	db          *sql.DB
	sessionDays int
}

func NewHandler(db *sql.DB, sessionDays int) *Handler {
	return &Handler{db: db, sessionDays: sessionDays}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string  `json:"name"`
		Email    string  `json:"email"`
		Password string  `json:"password"`
		GroupID  *string `json:"groupId,omitempty"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	req.Email = NormalizeEmail(req.Email)
	if err := ValidatePassword(req.Password, 8); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	// First registered user owns the instance.
	var count int
	h.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	role := "user"
	if count == 0 {
		role = "admin"
	}

	var userID string
	err = h.db.QueryRow(`
		INSERT INTO users (name, email, password_hash, role, group_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		req.Name, req.Email, hash, role, req.GroupID,
	).Scan(&userID)
	if err != nil {
		httputil.WriteError(w, http.StatusConflict, "email already registered")
		return
	}

	token := h.openSession(w, userID, role == "admin")
	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"userId": userID,
		"role":   role,
		"token":  token,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = NormalizeEmail(req.Email)

	var userID, passwordHash, role string
	var active bool
	err := h.db.QueryRow(
		"SELECT id, password_hash, role, active FROM users WHERE email=$1", req.Email,
	).Scan(&userID, &passwordHash, &role, &active)
	if err != nil || !active || !CheckPassword(passwordHash, req.Password) {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token := h.openSession(w, userID, role == "admin")
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"userId": userID,
		"role":   role,
		"token":  token,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)
	if token != "" {
		h.db.Exec("DELETE FROM sessions WHERE token=$1", token)
	}
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
	httputil.WriteMessage(w, http.StatusOK, "logged out")
}

func (h *Handler) openSession(w http.ResponseWriter, userID string, isAdmin bool) string {
	token, _ := GenerateToken()
	exp := time.Now().Add(time.Duration(h.sessionDays) * 24 * time.Hour).Unix()
	h.db.Exec(
		"INSERT INTO sessions (token, user_id, is_admin, expires_at) VALUES ($1, $2, $3, $4)",
		token, userID, isAdmin, exp,
	)
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   h.sessionDays * 24 * 3600,
	})
	return token
}
