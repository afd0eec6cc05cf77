package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/signcast/signcast/internal/auth"
	"github.com/signcast/signcast/internal/httputil"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Put("/", h.update)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.GetAll()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	settingsMap := make(map[string]string)
	for _, s := range all {
		settingsMap[s.Key] = s.Value
	}
	httputil.WriteJSON(w, http.StatusOK, settingsMap)
}

// update upserts each key in the body. Changes to startup keys take effect
// on the next boot.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil || !u.IsAdmin {
		httputil.WriteError(w, http.StatusForbidden, "admin access required")
		return
	}

	var req map[string]string
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for key, value := range req {
		if err := h.repo.Set(key, value); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to save setting")
			return
		}
	}
	httputil.WriteMessage(w, http.StatusOK, "settings updated")
}
