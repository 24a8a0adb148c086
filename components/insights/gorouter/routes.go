package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-insights/components/insights"
	"github.com/goliatone/go-insights/components/insights/commands"
	"github.com/goliatone/go-insights/components/insights/httpapi"
	"github.com/goliatone/go-insights/components/insights/queries"
)

// SessionHub resolves and creates dashboard sessions. *insights.Hub satisfies it.
type SessionHub interface {
	Create() *insights.Controller
	GetOrCreate(id string) (*insights.Controller, bool)
}

// Config wires go-router with the insights hub, commands, queries and event stream.
type Config[T any] struct {
	Router    router.Router[T]
	Hub       SessionHub
	API       httpapi.Executor
	Reader    httpapi.Reader
	Broadcast *insights.Broadcaster
	Renderer  insights.Renderer
	BasePath  string
	Routes    RouteConfig
}

// RouteConfig customizes the relative paths used for insights endpoints.
type RouteConfig struct {
	HTML         string
	Snapshot     string
	Modal        string
	Layout       string
	Export       string
	Collection   string
	Filters      string
	Analysis     string
	AnalysisPage string
	AnalysisTab  string
	Modals       string
	ModalPage    string
	ModalTab     string
	ModalClose   string
	ChartClick   string
	ChartVariant string
	ChartSeries  string
	WebSocket    string
}

// Register mounts insights routes (HTML, JSON, commands, export, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Hub == nil {
		return errors.New("gorouter: hub is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/insights"
	}

	group := cfg.Router.Group(base)

	if cfg.Renderer != nil {
		group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
			controller, err := openSession(ctx.Context(), cfg.Hub, ctx.Query("session"))
			if err != nil {
				return respondError(ctx, httpapi.StatusCode(err), err)
			}
			var buf bytes.Buffer
			if _, err := insights.RenderDashboard(cfg.Renderer, controller.Snapshot(), &buf); err != nil {
				return respondError(ctx, http.StatusInternalServerError, err)
			}
			ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
			return ctx.Send(buf.Bytes())
		}))
	}

	group.Post(routes.Snapshot, router.WrapHandler(func(ctx router.Context) error {
		controller, err := openSession(ctx.Context(), cfg.Hub, "")
		if err != nil {
			return respondError(ctx, httpapi.StatusCode(err), err)
		}
		return ctx.JSON(http.StatusCreated, controller.Snapshot())
	}))

	if cfg.Reader != nil {
		registerReader(group, cfg.Reader, routes)
	}
	if cfg.API != nil {
		registerAPI(group, cfg.API, cfg.Reader, routes)
	}
	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

// openSession returns the session named id, creating and loading a new one when the
// hub does not hold it.
func openSession(ctx context.Context, hub SessionHub, id string) (*insights.Controller, error) {
	var (
		controller *insights.Controller
		created    bool
	)
	if strings.TrimSpace(id) == "" {
		controller, created = hub.Create(), true
	} else {
		controller, created = hub.GetOrCreate(id)
	}
	if created {
		if _, err := controller.SelectCollection(ctx, controller.Filters().Snapshot().Collection); err != nil {
			return nil, err
		}
	}
	return controller, nil
}

func registerReader[T any](r router.Router[T], reader httpapi.Reader, routes RouteConfig) {
	r.Get(routes.Snapshot, router.WrapHandler(func(ctx router.Context) error {
		view, err := reader.Snapshot(ctx.Context(), queries.SessionInput{Session: ctx.Query("session")})
		if err != nil {
			return respondError(ctx, httpapi.StatusCode(err), err)
		}
		return ctx.JSON(http.StatusOK, view)
	}))

	r.Get(routes.Modal, router.WrapHandler(func(ctx router.Context) error {
		view, err := reader.Modal(ctx.Context(), queries.ModalInput{Session: ctx.Query("session"), Modal: ctx.Param("kind")})
		if err != nil {
			return respondError(ctx, httpapi.StatusCode(err), err)
		}
		return ctx.JSON(http.StatusOK, view)
	}))

	r.Get(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		result, err := reader.Layout(ctx.Context(), queries.SessionInput{Session: ctx.Query("session")})
		if err != nil {
			return respondError(ctx, httpapi.StatusCode(err), err)
		}
		return ctx.JSON(http.StatusOK, result)
	}))

	r.Get(routes.Export, router.WrapHandler(func(ctx router.Context) error {
		table, err := reader.Export(ctx.Context(), queries.ExportInput{Session: ctx.Query("session"), Scope: ctx.Query("scope")})
		if err != nil {
			return respondError(ctx, httpapi.StatusCode(err), err)
		}
		var buf bytes.Buffer
		if ctx.Query("format") == "xlsx" {
			if err := insights.WriteXLSX(&buf, table); err != nil {
				return respondError(ctx, http.StatusInternalServerError, err)
			}
			ctx.SetHeader("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			ctx.SetHeader("Content-Disposition", `attachment; filename="`+insights.ExportFilename(table.Name, "xlsx")+`"`)
			return ctx.Send(buf.Bytes())
		}
		if err := insights.WriteCSV(&buf, table); err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		ctx.SetHeader("Content-Type", "text/csv; charset=utf-8")
		ctx.SetHeader("Content-Disposition", `attachment; filename="`+insights.ExportFilename(table.Name, "csv")+`"`)
		return ctx.Send(buf.Bytes())
	}))
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, reader httpapi.Reader, routes RouteConfig) {
	r.Post(routes.Collection, commandHandler(api.SelectCollection, reader, func(in commands.SelectCollectionInput) string { return in.Session }))
	r.Post(routes.Filters, commandHandler(api.ApplyFilter, reader, func(in commands.ApplyFilterInput) string { return in.Session }))
	r.Post(routes.Analysis, commandHandler(api.RunAnalysis, reader, func(in commands.RunAnalysisInput) string { return in.Session }))
	r.Post(routes.AnalysisPage, commandHandler(api.AnalysisPage, reader, func(in commands.AnalysisPageInput) string { return in.Session }))
	r.Post(routes.AnalysisTab, commandHandler(api.AnalysisTab, reader, func(in commands.AnalysisTabInput) string { return in.Session }))
	r.Post(routes.Modals, commandHandler(api.OpenModal, reader, func(in commands.OpenModalInput) string { return in.Session }))
	r.Post(routes.ModalPage, commandHandler(api.ModalPage, reader, func(in commands.ModalPageInput) string { return in.Session }))
	r.Post(routes.ModalTab, commandHandler(api.SwitchTab, reader, func(in commands.SwitchTabInput) string { return in.Session }))
	r.Post(routes.ModalClose, commandHandler(api.CloseModal, reader, func(in commands.CloseModalInput) string { return in.Session }))
	r.Post(routes.ChartClick, commandHandler(api.ChartClick, reader, func(in commands.ChartClickInput) string { return in.Session }))
	r.Post(routes.ChartVariant, commandHandler(api.SetVariant, reader, func(in commands.SetVariantInput) string { return in.Session }))
	r.Post(routes.ChartSeries, commandHandler(api.ToggleSeries, reader, func(in commands.ToggleSeriesInput) string { return in.Session }))
	r.Post(routes.Layout, commandHandler(api.SaveLayout, reader, func(in commands.SaveLayoutInput) string { return in.Session }))
}

func commandHandler[T any](exec func(context.Context, T) error, reader httpapi.Reader, session func(T) string) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		var payload T
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := exec(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusCode(err), err)
		}
		if reader == nil {
			return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
		}
		view, err := reader.Snapshot(ctx.Context(), queries.SessionInput{Session: session(payload)})
		if err != nil {
			return respondError(ctx, httpapi.StatusCode(err), err)
		}
		return ctx.JSON(http.StatusOK, view)
	})
}

func registerWebSocket[T any](r router.Router[T], broadcast *insights.Broadcaster, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := broadcast.Subscribe(ws.Query("session"))
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	defaults := RouteConfig{
		HTML:         "/",
		Snapshot:     "/api/session",
		Modal:        "/api/modals/:kind",
		Layout:       "/api/layout",
		Export:       "/api/export",
		Collection:   "/api/collection",
		Filters:      "/api/filters",
		Analysis:     "/api/analysis",
		AnalysisPage: "/api/analysis/page",
		AnalysisTab:  "/api/analysis/tab",
		Modals:       "/api/modals",
		ModalPage:    "/api/modals/page",
		ModalTab:     "/api/modals/tab",
		ModalClose:   "/api/modals/close",
		ChartClick:   "/api/charts/click",
		ChartVariant: "/api/charts/variant",
		ChartSeries:  "/api/charts/series",
		WebSocket:    "/ws",
	}
	fill := func(value *string, fallback string) {
		if *value == "" {
			*value = fallback
		}
	}
	fill(&routes.HTML, defaults.HTML)
	fill(&routes.Snapshot, defaults.Snapshot)
	fill(&routes.Modal, defaults.Modal)
	fill(&routes.Layout, defaults.Layout)
	fill(&routes.Export, defaults.Export)
	fill(&routes.Collection, defaults.Collection)
	fill(&routes.Filters, defaults.Filters)
	fill(&routes.Analysis, defaults.Analysis)
	fill(&routes.AnalysisPage, defaults.AnalysisPage)
	fill(&routes.AnalysisTab, defaults.AnalysisTab)
	fill(&routes.Modals, defaults.Modals)
	fill(&routes.ModalPage, defaults.ModalPage)
	fill(&routes.ModalTab, defaults.ModalTab)
	fill(&routes.ModalClose, defaults.ModalClose)
	fill(&routes.ChartClick, defaults.ChartClick)
	fill(&routes.ChartVariant, defaults.ChartVariant)
	fill(&routes.ChartSeries, defaults.ChartSeries)
	fill(&routes.WebSocket, defaults.WebSocket)
	return routes
}
