package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/rensights/admin-dashboard/components/listing"
	"github.com/rensights/admin-dashboard/components/listing/commands"
	"github.com/rensights/admin-dashboard/components/listing/gorouter"
	"github.com/rensights/admin-dashboard/components/listing/httpapi"
	"github.com/rensights/admin-dashboard/pkg/admin"
	"github.com/rensights/admin-dashboard/pkg/adminapi/fakebackend"
	"github.com/rensights/admin-dashboard/pkg/telemetry"
)

type serveCmd struct {
	Addr        string `help:"Listen address (defaults to listen_addr)."`
	MetricsAddr string `name:"metrics-addr" help:"Metrics and event stream address (defaults to metrics_addr)."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *Globals) error {
	settings, err := g.settings()
	if err != nil {
		return err
	}
	logger, err := g.logger(settings)
	if err != nil {
		return err
	}
	metrics, err := telemetry.NewPrometheus(nil)
	if err != nil {
		return err
	}
	hook := listing.NewBroadcastHook()
	a, err := admin.New(ctx, admin.Config{
		Settings:  settings,
		Logger:    logger,
		Telemetry: telemetry.Multi{telemetry.NewLogrus(logger), metrics},
		Broadcast: hook,
	})
	if err != nil {
		return err
	}
	renderer, err := gorouter.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("rensightsctl: templates: %w", err)
	}

	server := router.NewFiberAdapter()
	r := server.Router()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:    r,
		Resources: a.Executors(),
		Renderer:  renderer,
		Broadcast: hook,
	}); err != nil {
		return fmt.Errorf("rensightsctl: register routes: %w", err)
	}
	registerAdminRoutes(r.Group("/admin"), a)

	addr := firstNonEmpty(cmd.Addr, settings.ListenAddr)
	metricsAddr := firstNonEmpty(cmd.MetricsAddr, settings.MetricsAddr)

	errs := make(chan error, 2)
	var side *http.Server
	if metricsAddr != "" {
		side = sideServer(metricsAddr, hook)
		go func() {
			if err := side.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()
		logger.WithField("addr", metricsAddr).Info("metrics listening")
	}
	go func() {
		errs <- server.Serve(addr)
	}()
	logger.WithFields(logrus.Fields{"addr": addr, "backend": settings.AdminAPIURL}).Info("admin BFF listening")

	stopping := []shutdowner{server}
	if side != nil {
		stopping = append(stopping, side)
	}
	select {
	case <-ctx.Done():
	case err = <-errs:
	}
	if shutdownErr := shutdownAll(5*time.Second, stopping...); shutdownErr != nil {
		logger.WithError(shutdownErr).Warn("shutdown incomplete")
	}
	return err
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownAll stops every server within one shared timeout.
func shutdownAll(timeout time.Duration, servers ...shutdowner) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// registerAdminRoutes mounts the session, overview and bulk endpoints that
// sit next to the per-resource routes.
func registerAdminRoutes[T any](r router.Router[T], a *admin.Admin) {
	r.Post("/login", router.WrapHandler(func(ctx router.Context) error {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.Unmarshal(ctx.Body(), &body); err != nil {
			return ctx.JSON(http.StatusBadRequest, httpapi.ErrorBody{Error: err.Error()})
		}
		if err := a.Login(ctx.Context(), body.Email, body.Password); err != nil {
			return gorouter.RespondError(ctx, err, httpapi.DefaultLoginPath)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "signed in"})
	}))

	r.Post("/logout", router.WrapHandler(func(ctx router.Context) error {
		if err := a.Logout(ctx.Context()); err != nil {
			return gorouter.RespondError(ctx, err, httpapi.DefaultLoginPath)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "signed out"})
	}))

	r.Get("/overview", router.WrapHandler(func(ctx router.Context) error {
		overview, err := a.Overview(ctx.Context(), ctx.Query("chart"))
		if err != nil {
			return gorouter.RespondError(ctx, err, httpapi.DefaultLoginPath)
		}
		return ctx.JSON(http.StatusOK, overview)
	}))

	r.Get("/overview/chart", router.WrapHandler(func(ctx router.Context) error {
		overview, err := a.Overview(ctx.Context(), firstNonEmpty(ctx.Query("kind"), "bar"))
		if err != nil {
			return gorouter.RespondError(ctx, err, httpapi.DefaultLoginPath)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send([]byte(overview.Chart))
	}))

	r.Post("/batch-approve", router.WrapHandler(func(ctx router.Context) error {
		var body struct {
			IDs       []string `json:"ids"`
			Confirmed bool     `json:"confirmed"`
		}
		if len(ctx.Body()) > 0 {
			if err := json.Unmarshal(ctx.Body(), &body); err != nil {
				return ctx.JSON(http.StatusBadRequest, httpapi.ErrorBody{Error: err.Error()})
			}
		}
		if err := a.BatchApprove(ctx.Context(), commands.BatchApproveInput{IDs: body.IDs, Confirmed: body.Confirmed}); err != nil {
			return gorouter.RespondError(ctx, err, httpapi.DefaultLoginPath)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "approved"})
	}))
}

func sideServer(addr string, hook *listing.BroadcastHook) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/events/sse", hook.ServeSSE)
	mux.HandleFunc("/events/ws", hook.ServeWebSocket)
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
}

type fakeBackendCmd struct {
	Addr     string        `default:":9090" help:"Listen address."`
	Email    string        `default:"admin@rensights.com" help:"Accepted admin email."`
	Password string        `default:"admin" help:"Accepted admin password."`
	Latency  time.Duration `help:"Delay added to every response."`
	Empty    bool          `help:"Start without demo data."`
}

func (cmd *fakeBackendCmd) Run(ctx context.Context, g *Globals) error {
	settings, err := g.settings()
	if err != nil {
		return err
	}
	logger, err := g.logger(settings)
	if err != nil {
		return err
	}
	backend := fakebackend.New(
		fakebackend.WithLogger(logger),
		fakebackend.WithCredentials(cmd.Email, cmd.Password),
		fakebackend.WithLatency(cmd.Latency),
	)
	if !cmd.Empty {
		backend.SeedDemo()
	}
	logger.WithField("addr", cmd.Addr).Info("fake admin backend listening")
	return backend.Serve(ctx, cmd.Addr)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
