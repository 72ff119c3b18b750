package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/storm-dashboard/internal/dashboard"
	"github.com/couchcryptid/storm-dashboard/internal/domain"
	"github.com/couchcryptid/storm-dashboard/internal/maplayer"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
)

// Dashboard is the presentation boundary of the storm dashboard.
type Dashboard interface {
	State() dashboard.State
	SelectDate(ctx context.Context, raw string) dashboard.State
	FocusStorm(id string) (dashboard.State, bool)
	ClearFocus() dashboard.State
}

// FeatureReader returns the latest classified rain features.
type FeatureReader interface {
	Features() maplayer.FeatureCollection
}

// StyleRenderer renders the full map style document.
type StyleRenderer interface {
	StyleDocument() ([]byte, error)
}

// Routes are the collaborators behind the API routes.
type Routes struct {
	Dashboard       Dashboard
	Rain            FeatureReader
	Style           StyleRenderer
	DefaultLanguage string
}

type handlers struct {
	routes Routes
	logger *slog.Logger
}

type stormView struct {
	domain.Storm
	BasinLabel string `json:"basin_label"`
}

type stateView struct {
	ActiveDate   *domain.DateKey `json:"active_date"`
	SnapshotDate *domain.DateKey `json:"snapshot_date"`
	Storms       []stormView     `json:"storms"`
	FocusedStorm *stormView      `json:"focused_storm"`
	Loading      bool            `json:"loading"`
	Error        *string         `json:"error"`
	Summary      domain.Summary  `json:"summary"`
	Language     string          `json:"language"`
}

func (h *handlers) language(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); domain.SupportedLanguage(lang) {
		return lang
	}
	return h.routes.DefaultLanguage
}

func newStateView(st dashboard.State, lang string) stateView {
	v := stateView{
		ActiveDate:   st.ActiveDate,
		SnapshotDate: st.SnapshotDate,
		Storms:       make([]stormView, len(st.Storms)),
		Loading:      st.Loading,
		Error:        st.Error,
		Summary:      domain.Summarize(st.Storms),
		Language:     lang,
	}
	for i, s := range st.Storms {
		v.Storms[i] = stormView{Storm: s, BasinLabel: s.Basin.Label(lang)}
	}
	if st.FocusedStorm != nil {
		v.FocusedStorm = &stormView{Storm: *st.FocusedStorm, BasinLabel: st.FocusedStorm.Basin.Label(lang)}
	}
	return v
}

func (h *handlers) getState(w http.ResponseWriter, r *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, newStateView(h.routes.Dashboard.State(), h.language(r)))
}

func (h *handlers) selectDate(w http.ResponseWriter, r *http.Request) {
	// The load outlives a disconnected client; only the transport timeout bounds it.
	ctx := context.WithoutCancel(r.Context())
	st := h.routes.Dashboard.SelectDate(ctx, chi.URLParam(r, "date"))
	sharedobs.WriteJSON(w, http.StatusOK, newStateView(st, h.language(r)))
}

func (h *handlers) focusStorm(w http.ResponseWriter, r *http.Request) {
	st, ok := h.routes.Dashboard.FocusStorm(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "storm not found in current snapshot")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, newStateView(st, h.language(r)))
}

func (h *handlers) clearFocus(w http.ResponseWriter, r *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, newStateView(h.routes.Dashboard.ClearFocus(), h.language(r)))
}

func (h *handlers) rainFeatures(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.routes.Rain.Features()); err != nil {
		h.logger.Warn("write rain features", "error", err)
	}
}

func (h *handlers) mapStyle(w http.ResponseWriter, _ *http.Request) {
	doc, err := h.routes.Style.StyleDocument()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
