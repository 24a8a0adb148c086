package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goliatone/go-insights/components/insights"
	"github.com/goliatone/go-insights/components/insights/commands"
	"github.com/goliatone/go-insights/components/insights/queries"
)

// SessionStarter creates sessions. *insights.Hub satisfies it.
type SessionStarter interface {
	Create() *insights.Controller
}

// Handlers exposes HTTP endpoints backed by shared commands and queries. Every command
// endpoint answers with the session snapshot after the command ran.
type Handlers struct {
	Sessions SessionStarter
	API      Executor
	Reader   Reader
	Events   *insights.Broadcaster
}

// StatusCode maps domain errors onto HTTP statuses.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, commands.ErrUnknownSession), errors.Is(err, queries.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, insights.ErrModalNotOpen):
		return http.StatusConflict
	case errors.Is(err, insights.ErrUnknownCollection),
		errors.Is(err, insights.ErrUnknownAnalysis),
		errors.Is(err, insights.ErrUnknownModal),
		errors.Is(err, insights.ErrUnknownWidget),
		errors.Is(err, insights.ErrUnknownTab),
		errors.Is(err, insights.ErrInvalidFilter),
		errors.Is(err, insights.ErrInvalidLayout):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusCode(err), map[string]string{"error": err.Error()})
}

func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	controller := h.Sessions.Create()
	if _, err := controller.SelectCollection(r.Context(), controller.Filters().Snapshot().Collection); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, controller.Snapshot())
}

func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	view, err := h.Reader.Snapshot(r.Context(), queries.SessionInput{Session: r.URL.Query().Get("session")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleModal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.Reader.Modal(r.Context(), queries.ModalInput{Session: q.Get("session"), Modal: q.Get("modal")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleLayout(w http.ResponseWriter, r *http.Request) {
	result, err := h.Reader.Layout(r.Context(), queries.SessionInput{Session: r.URL.Query().Get("session")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleExport streams a visible table as CSV (default) or XLSX.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	table, err := h.Reader.Export(r.Context(), queries.ExportInput{Session: q.Get("session"), Scope: q.Get("scope")})
	if err != nil {
		writeError(w, err)
		return
	}
	if q.Get("format") == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+insights.ExportFilename(table.Name, "xlsx")+`"`)
		_ = insights.WriteXLSX(w, table)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+insights.ExportFilename(table.Name, "csv")+`"`)
	_ = insights.WriteCSV(w, table)
}

func (h *Handlers) HandleSelectCollection(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.SelectCollection, func(in commands.SelectCollectionInput) string { return in.Session })
}

func (h *Handlers) HandleApplyFilter(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.ApplyFilter, func(in commands.ApplyFilterInput) string { return in.Session })
}

func (h *Handlers) HandleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.RunAnalysis, func(in commands.RunAnalysisInput) string { return in.Session })
}

func (h *Handlers) HandleAnalysisPage(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.AnalysisPage, func(in commands.AnalysisPageInput) string { return in.Session })
}

func (h *Handlers) HandleAnalysisTab(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.AnalysisTab, func(in commands.AnalysisTabInput) string { return in.Session })
}

func (h *Handlers) HandleOpenModal(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.OpenModal, func(in commands.OpenModalInput) string { return in.Session })
}

func (h *Handlers) HandleModalPage(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.ModalPage, func(in commands.ModalPageInput) string { return in.Session })
}

func (h *Handlers) HandleSwitchTab(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.SwitchTab, func(in commands.SwitchTabInput) string { return in.Session })
}

func (h *Handlers) HandleCloseModal(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.CloseModal, func(in commands.CloseModalInput) string { return in.Session })
}

func (h *Handlers) HandleChartClick(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.ChartClick, func(in commands.ChartClickInput) string { return in.Session })
}

func (h *Handlers) HandleSetVariant(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.SetVariant, func(in commands.SetVariantInput) string { return in.Session })
}

func (h *Handlers) HandleToggleSeries(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.ToggleSeries, func(in commands.ToggleSeriesInput) string { return in.Session })
}

func (h *Handlers) HandleSaveLayout(w http.ResponseWriter, r *http.Request) {
	handleCommand(h, w, r, h.API.SaveLayout, func(in commands.SaveLayoutInput) string { return in.Session })
}

func handleCommand[T any](h *Handlers, w http.ResponseWriter, r *http.Request, exec func(ctx context.Context, in T) error, session func(T) string) {
	var payload T
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := exec(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	if h.Reader == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	view, err := h.Reader.Snapshot(r.Context(), queries.SessionInput{Session: session(payload)})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Mux mounts every handler on a standard library mux under prefix.
func (h *Handlers) Mux(prefix string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+prefix+"/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET "+prefix+"/snapshot", h.HandleSnapshot)
	mux.HandleFunc("GET "+prefix+"/modal", h.HandleModal)
	mux.HandleFunc("GET "+prefix+"/layout", h.HandleLayout)
	mux.HandleFunc("GET "+prefix+"/export", h.HandleExport)
	mux.HandleFunc("POST "+prefix+"/collection", h.HandleSelectCollection)
	mux.HandleFunc("POST "+prefix+"/filters", h.HandleApplyFilter)
	mux.HandleFunc("POST "+prefix+"/analysis", h.HandleRunAnalysis)
	mux.HandleFunc("POST "+prefix+"/analysis/page", h.HandleAnalysisPage)
	mux.HandleFunc("POST "+prefix+"/analysis/tab", h.HandleAnalysisTab)
	mux.HandleFunc("POST "+prefix+"/modals", h.HandleOpenModal)
	mux.HandleFunc("POST "+prefix+"/modals/page", h.HandleModalPage)
	mux.HandleFunc("POST "+prefix+"/modals/tab", h.HandleSwitchTab)
	mux.HandleFunc("POST "+prefix+"/modals/close", h.HandleCloseModal)
	mux.HandleFunc("POST "+prefix+"/charts/click", h.HandleChartClick)
	mux.HandleFunc("POST "+prefix+"/charts/variant", h.HandleSetVariant)
	mux.HandleFunc("POST "+prefix+"/charts/series", h.HandleToggleSeries)
	mux.HandleFunc("POST "+prefix+"/layout", h.HandleSaveLayout)
	if h.Events != nil {
		mux.HandleFunc("GET "+prefix+"/events", h.Events.ServeSSE)
		mux.HandleFunc("GET "+prefix+"/ws", h.Events.ServeWebSocket)
	}
	return mux
}
