package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-insights/components/insights"
	"github.com/goliatone/go-insights/components/insights/commands"
	"github.com/goliatone/go-insights/components/insights/queries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommander[T any] struct {
	calls []T
	err   error
}

func (s *stubCommander[T]) Execute(_ context.Context, msg T) error {
	s.calls = append(s.calls, msg)
	return s.err
}

type stubReader struct {
	view     insights.DashboardView
	table    insights.ExportTable
	err      error
	sessions []string
}

func (s *stubReader) Snapshot(_ context.Context, in queries.SessionInput) (insights.DashboardView, error) {
	s.sessions = append(s.sessions, in.Session)
	return s.view, s.err
}

func (s *stubReader) Modal(context.Context, queries.ModalInput) (insights.ModalView, error) {
	return insights.ModalView{}, s.err
}

func (s *stubReader) Layout(context.Context, queries.SessionInput) (queries.LayoutResult, error) {
	return queries.LayoutResult{}, s.err
}

func (s *stubReader) Export(context.Context, queries.ExportInput) (insights.ExportTable, error) {
	return s.table, s.err
}

func TestStatusCodeMapping(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("%w: x", commands.ErrUnknownSession):  http.StatusNotFound,
		fmt.Errorf("%w: x", queries.ErrUnknownSession):   http.StatusNotFound,
		fmt.Errorf("%w: x", insights.ErrModalNotOpen):    http.StatusConflict,
		fmt.Errorf("%w: x", insights.ErrUnknownAnalysis): http.StatusBadRequest,
		fmt.Errorf("%w: x", insights.ErrInvalidLayout):   http.StatusBadRequest,
		fmt.Errorf("%w: x", insights.ErrInvalidFilter):   http.StatusBadRequest,
		errors.New("boom"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusCode(err), err.Error())
	}
}

func TestHandleRunAnalysisExecutesAndReturnsSnapshot(t *testing.T) {
	cmd := &stubCommander[commands.RunAnalysisInput]{}
	reader := &stubReader{view: insights.DashboardView{Session: "s1", Mode: insights.ModeAnalysis}}
	h := &Handlers{API: &CommandExecutor{RunAnalysisCommander: cmd}, Reader: reader}

	body := `{"session":"s1","name":"sellers","params":{"year":"2024"}}`
	rec := httptest.NewRecorder()
	h.Mux("/api/insights").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/insights/analysis", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, cmd.calls, 1)
	assert.Equal(t, "sellers", cmd.calls[0].Name)
	assert.Equal(t, "2024", cmd.calls[0].Params["year"])
	assert.Equal(t, []string{"s1"}, reader.sessions)

	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "s1", view["session"])
	assert.Equal(t, "analysis", view["mode"])
}

func TestHandleCommandMapsErrors(t *testing.T) {
	cmd := &stubCommander[commands.CloseModalInput]{err: fmt.Errorf("%w: details", insights.ErrModalNotOpen)}
	h := &Handlers{API: &CommandExecutor{CloseModalCommander: cmd}, Reader: &stubReader{}}

	rec := httptest.NewRecorder()
	h.HandleCloseModal(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"session":"s1","modal":"details"}`)))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "modal is not open")
}

func TestHandleCommandRejectsBadJSON(t *testing.T) {
	h := &Handlers{API: &CommandExecutor{}, Reader: &stubReader{}}
	rec := httptest.NewRecorder()
	h.HandleApplyFilter(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissingCommanderFails(t *testing.T) {
	h := &Handlers{API: &CommandExecutor{}, Reader: &stubReader{}}
	rec := httptest.NewRecorder()
	h.HandleSaveLayout(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"session":"s1"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleExportCSV(t *testing.T) {
	reader := &stubReader{table: insights.ExportTable{
		Name:    "Clientes",
		Columns: []string{"Cliente", "Cidade"},
		Rows:    [][]string{{"Ana", "Natal"}},
	}}
	h := &Handlers{Reader: reader}

	rec := httptest.NewRecorder()
	h.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/export?session=s1&scope=analysis", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "_export.csv")
	assert.Equal(t, "\"Cliente\";\"Cidade\"\r\n\"Ana\";\"Natal\"\r\n", rec.Body.String())
}

func TestHandleSnapshotUnknownSession(t *testing.T) {
	h := &Handlers{Reader: &stubReader{err: fmt.Errorf("%w: %q", queries.ErrUnknownSession, "nope")}}
	rec := httptest.NewRecorder()
	h.HandleSnapshot(rec, httptest.NewRequest(http.MethodGet, "/snapshot?session=nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
