package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dleads/stakeados/internal/auth"
	"github.com/dleads/stakeados/internal/cache"
	"github.com/dleads/stakeados/internal/config"
	"github.com/dleads/stakeados/internal/content"
	"github.com/dleads/stakeados/internal/draft"
	"github.com/dleads/stakeados/internal/model"
	"github.com/dleads/stakeados/internal/notifications"
	"github.com/dleads/stakeados/internal/render"
	"github.com/dleads/stakeados/internal/sse"
	"github.com/dleads/stakeados/internal/util"
)

var routesLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	routesLogger = l
}

// editorSession pairs one draft manager with its autosaver for the
// lifetime of an editing session.
type editorSession struct {
	id        string
	userID    model.UserID
	mgr       *draft.Manager
	autosaver *draft.Autosaver
}

// Handler serves the editor, article, and preferences API.
type Handler struct {
	cfg      *config.Config
	store    content.Store
	prefs    notifications.Store
	auth     auth.AuthProvider
	clients  *sse.SSEClients
	sessions *cache.Cache[string, *editorSession]
}

func NewHandler(cfg *config.Config, store content.Store, prefs notifications.Store, authProvider auth.AuthProvider, clients *sse.SSEClients) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    store,
		prefs:    prefs,
		auth:     authProvider,
		clients:  clients,
		sessions: cache.NewCache[string, *editorSession](),
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow:"))
	})

	mux.HandleFunc(SSEPath, h.serveEvents)
	mux.HandleFunc(PartialsPreview, h.servePreview)

	mux.HandleFunc(EditorSessions, h.serveCreateSession)
	mux.HandleFunc(EditorSession, h.serveSession)
	mux.HandleFunc(EditorSessionSave, h.serveSessionSave)
	mux.HandleFunc(EditorSessionPublish, h.serveSessionPublish)
	mux.HandleFunc(EditorSessionVersion, h.serveSessionVersions)
	mux.HandleFunc(EditorSessionStatus, h.serveSessionStatus)

	mux.HandleFunc(APIArticle, h.serveArticle)
	mux.HandleFunc(APIArticleVersions, h.serveArticleVersions)

	mux.HandleFunc(APIPreferences, h.servePreferences)
	mux.HandleFunc(APIPreferencesReset, h.servePreferencesReset)
	mux.HandleFunc(APIPreferencesExport, h.servePreferencesExport)
	mux.HandleFunc(APIPreferencesImport, h.servePreferencesImport)
	mux.HandleFunc(APIPreferencesQuietHours, h.serveQuietHours)
	mux.HandleFunc(APITimezones, h.serveTimezones)
}

// draftPatchRequest is the wire form of a partial draft update.
type draftPatchRequest struct {
	Title           *model.LocalizedText `json:"title"`
	Content         *model.LocalizedText `json:"content"`
	MetaDescription *model.LocalizedText `json:"meta_description"`
	Category        *string              `json:"category"`
	Tags            []string             `json:"tags"`
	Difficulty      *model.Difficulty    `json:"difficulty"`
	FeaturedImage   *string              `json:"featured_image"`
	RelatedCourses  []string             `json:"related_courses"`
	Status          *model.DraftStatus   `json:"status"`
}

func (r draftPatchRequest) toPatch() draft.Patch {
	return draft.Patch{
		Title:           r.Title,
		Content:         r.Content,
		MetaDescription: r.MetaDescription,
		Category:        r.Category,
		Tags:            r.Tags,
		Difficulty:      r.Difficulty,
		FeaturedImage:   r.FeaturedImage,
		RelatedCourses:  r.RelatedCourses,
		Status:          r.Status,
	}
}

// sessionState is the editor's view of a session after any operation.
type sessionState struct {
	SessionID string      `json:"session_id"`
	Draft     model.Draft `json:"draft"`
	Dirty     bool        `json:"dirty"`
	Saving    bool        `json:"saving"`
	LastSaved *time.Time  `json:"last_saved,omitempty"`
}

func (h *Handler) sessionState(s *editorSession) sessionState {
	state := sessionState{
		SessionID: s.id,
		Draft:     s.mgr.Draft(),
		Dirty:     s.mgr.Dirty(),
		Saving:    s.mgr.Saving(),
	}
	if last := s.mgr.LastSaved(); !last.IsZero() {
		state.LastSaved = &last
	}
	return state
}

func (h *Handler) serveCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	userID, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	var req struct {
		ArticleID model.ArticleID `json:"article_id"`
	}
	if r.Body != nil {
		// An empty body means a fresh draft.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	mgr, err := draft.NewManager(draft.Options{
		Store:   h.store,
		Locales: h.locales(),
		Author:  userID,
		OnError: func(msg string) {
			routesLogger.Warn().Str("user_id", string(userID)).Msg(msg)
		},
		OnSaved: func(id model.ArticleID) {
			go h.clients.Broadcast(id, "saved")
		},
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if req.ArticleID != "" {
		if err := mgr.LoadDraft(r.Context(), req.ArticleID); err != nil {
			http.Error(w, "Article not found", http.StatusNotFound)
			return
		}

		// Pre-render so the first preview of the loaded draft is instant.
		loaded := mgr.Draft()
		for _, locale := range h.locales() {
			if text := loaded.Content.Get(locale); text != "" {
				render.WarmCache([]byte(text), util.ContentHash([]byte(text)))
			}
		}
	}

	session := &editorSession{
		id:     uuid.NewString(),
		userID: userID,
		mgr:    mgr,
	}
	if h.cfg.Editor.Autosave {
		interval := time.Duration(h.cfg.Editor.AutosaveIntervalMS) * time.Millisecond
		session.autosaver = draft.NewAutosaver(mgr, interval)
	}
	h.sessions.Set(session.id, session)

	http.SetCookie(w, &http.Cookie{
		Name:  config.CookieDraftID,
		Value: session.id,
		Path:  "/",
	})

	writeJSON(w, http.StatusCreated, h.sessionState(session))
}

// session resolves the path id to a live session owned by the caller. It
// writes the error response itself; callers bail on nil.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *editorSession {
	userID, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return nil
	}

	s, ok := h.sessions.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil
	}
	if s.userID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil
	}
	return s
}

func (h *Handler) serveSession(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.sessionState(s))
	case http.MethodPatch:
		var req draftPatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		// Publishing goes through the dedicated endpoint; a plain edit
		// may only move between draft and review.
		if req.Status != nil && *req.Status == model.StatusPublished {
			http.Error(w, "Use the publish endpoint to publish", http.StatusBadRequest)
			return
		}
		s.mgr.UpdateDraft(req.toPatch())
		writeJSON(w, http.StatusOK, h.sessionState(s))
	case http.MethodDelete:
		if s.autosaver != nil {
			s.autosaver.Close()
		}
		h.sessions.Delete(s.id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
	}
}

func (h *Handler) serveSessionSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	s := h.session(w, r)
	if s == nil {
		return
	}

	article, err := s.mgr.SaveDraft(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := struct {
		Skipped bool `json:"skipped"`
		sessionState
		Article *model.Article `json:"article,omitempty"`
	}{
		Skipped:      article == nil,
		sessionState: h.sessionState(s),
		Article:      article,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) serveSessionPublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	s := h.session(w, r)
	if s == nil {
		return
	}

	result := s.mgr.Validate()
	if !result.IsValid {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	status := model.StatusPublished
	s.mgr.UpdateDraft(draft.Patch{Status: &status})
	article, err := s.mgr.SaveDraft(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	// Publishing an already-published, unchanged draft is a clean save, so
	// SaveDraft skips the write; answer with the stored article.
	if article == nil {
		article, err = h.store.GetByID(r.Context(), s.mgr.Draft().ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if article == nil {
			http.Error(w, "Article not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, article)
		return
	}

	routesLogger.Info().Str("article_id", string(article.ID)).Msg("Article published")
	writeJSON(w, http.StatusOK, article)
}

func (h *Handler) serveSessionVersions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	s := h.session(w, r)
	if s == nil {
		return
	}

	var req struct {
		ChangeSummary string `json:"change_summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	version, err := s.mgr.CreateVersion(r.Context(), req.ChangeSummary)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	go h.clients.Broadcast(version.ArticleID, "version")
	writeJSON(w, http.StatusCreated, version)
}

// localeStats carries the per-locale editor footer numbers.
type localeStats struct {
	WordCount   int `json:"word_count"`
	ReadingTime int `json:"reading_time_minutes"`
}

func (h *Handler) serveSessionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	s := h.session(w, r)
	if s == nil {
		return
	}

	stats := make(map[model.Locale]localeStats, len(h.locales()))
	for _, locale := range h.locales() {
		stats[locale] = localeStats{
			WordCount:   s.mgr.WordCount(locale),
			ReadingTime: s.mgr.ReadingTime(locale),
		}
	}

	resp := struct {
		sessionState
		Validation draft.ValidationResult       `json:"validation"`
		Stats      map[model.Locale]localeStats `json:"stats"`
	}{
		sessionState: h.sessionState(s),
		Validation:   s.mgr.Validate(),
		Stats:        stats,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) serveArticle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	article, err := h.store.GetByID(r.Context(), model.ArticleID(r.PathValue("id")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if article == nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (h *Handler) serveArticleVersions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	versions, err := h.store.ListVersions(r.Context(), model.ArticleID(r.PathValue("id")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *Handler) servePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	body := r.FormValue("content")
	if body == "" {
		body = "Start typing in the editor to see a preview here."
	}

	htmlContent := render.RenderPreviewCached([]byte(body), util.ContentHash([]byte(body)))

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write(htmlContent)
}

func (h *Handler) locales() []model.Locale {
	locales := make([]model.Locale, 0, len(h.cfg.Content.Locales))
	for _, l := range h.cfg.Content.Locales {
		locales = append(locales, model.Locale(l))
	}
	return locales
}

func (h *Handler) serveEvents(w http.ResponseWriter, r *http.Request) {
	articleID := r.URL.Query().Get("article")
	if articleID == "" {
		http.Error(w, "Article parameter required", http.StatusBadRequest)
		return
	}

	w.Header().Set(config.HCType, "text/event-stream")
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Del("X-Content-Type-Options")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "event: connected\ndata: SSE connection established\n\n")
	flusher.Flush()

	client := &sse.Client{
		Msg:       make(chan string),
		ArticleID: model.ArticleID(articleID),
	}

	h.clients.Add(client)
	routesLogger.Debug().Str("article_id", articleID).Msg("New SSE client connected")

	defer func() {
		h.clients.Delete(client)
		routesLogger.Debug().Str("article_id", articleID).Msg("SSE client disconnected")
	}()

	notify := r.Context().Done()
	for {
		select {
		case msg := <-client.Msg:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		routesLogger.Error().Err(err).Msg("Failed to encode response")
	}
}
