package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"voicechat/internal/lang"
	"voicechat/internal/ports"
	"voicechat/internal/session"
)

type HistoryHandler struct {
	sessions *session.Manager
	archive  ports.TurnArchive // nil when the Postgres archive is disabled
	log      *logger.ZapLogger
}

func NewHistoryHandler(sessions *session.Manager, archive ports.TurnArchive, log *logger.ZapLogger) *HistoryHandler {
	return &HistoryHandler{
		sessions: sessions,
		archive:  archive,
		log:      log,
	}
}

// GetHistory returns the in-memory transcript of one session. With
// ?source=archive it reads the Postgres archive instead, which survives
// restarts.
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("source") == "archive" {
		if h.archive == nil {
			http.Error(w, "archive is not configured", http.StatusNotImplemented)
			return
		}
		turns, err := h.archive.GetTurns(r.Context(), sessionID)
		if err != nil {
			h.log.Log(logger.LogEntry{Level: "error", Message: "archive read failed", Error: err})
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"session_id": sessionID, "turns": turns})
		return
	}

	sess := h.sessions.Get(sessionID)
	if sess == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{"session_id": sessionID, "turns": sess.History()})
}

// ListLanguages returns the selectable conversation languages.
func (h *HistoryHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	type languageInfo struct {
		Code    string `json:"code"`
		Name    string `json:"name"`
		Locale  string `json:"locale"`
		Default bool   `json:"default"`
	}

	out := make([]languageInfo, 0, 2)
	for _, l := range []lang.Language{lang.Indonesian, lang.English} {
		out = append(out, languageInfo{
			Code:    l.Short(),
			Name:    l.Name(),
			Locale:  l.Locale(),
			Default: l == lang.Default,
		})
	}

	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
