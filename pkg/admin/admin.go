// Package admin wires the session, API client, list controllers and
// overview aggregator into one value shared by the CLI and the BFF.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rensights/admin-dashboard/components/dashboard"
	dashqueries "github.com/rensights/admin-dashboard/components/dashboard/queries"
	"github.com/rensights/admin-dashboard/components/listing"
	"github.com/rensights/admin-dashboard/components/listing/commands"
	"github.com/rensights/admin-dashboard/components/listing/httpapi"
	"github.com/rensights/admin-dashboard/components/listing/queries"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
	"github.com/rensights/admin-dashboard/pkg/config"
)

// Telemetry receives events from every component.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// MenuBuilder ensures navigation entries exist in the admin shell.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem is one sidebar link.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
}

// Config wires settings and optional collaborators.
type Config struct {
	Settings       *config.Config
	Store          adminapi.TokenStore
	HTTPClient     *http.Client
	Logger         logrus.FieldLogger
	Telemetry      Telemetry
	Broadcast      *listing.BroadcastHook
	MenuBuilder    MenuBuilder
	MenuCode       string
	OnUnauthorized adminapi.UnauthorizedHandler
}

// Admin owns the shared session and everything built on top of it.
type Admin struct {
	cfg        Config
	logger     logrus.FieldLogger
	session    *adminapi.Session
	api        *adminapi.API
	validator  *listing.JSONSchemaValidator
	aggregator *dashboard.Aggregator
	overview   *dashqueries.OverviewQuery
	executors  []httpapi.Executor
	login      *commands.LoginCommand
	logout     *commands.LogoutCommand
	approve    *commands.BatchApproveCommand
	requests   *listing.Controller[adminapi.AnalysisRequest]
	policy     listing.FailurePolicy
	mountErrs  []error

	mu           sync.Mutex
	unauthorized int
}

// New builds the admin core. The session is restored from the token store
// once, here.
func New(ctx context.Context, cfg Config) (*Admin, error) {
	if cfg.Settings == nil {
		return nil, errors.New("admin: settings are required")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	store := cfg.Store
	if store == nil {
		built, err := NewTokenStore(cfg.Settings)
		if err != nil {
			return nil, err
		}
		store = built
	}
	session, err := adminapi.NewSession(ctx, store, cfg.Settings.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("admin: restore session: %w", err)
	}

	policy, ok := listing.ParseFailurePolicy(cfg.Settings.FailurePolicy)
	if !ok {
		return nil, fmt.Errorf("admin: unknown failure policy %q", cfg.Settings.FailurePolicy)
	}

	a := &Admin{cfg: cfg, logger: logger.WithField("component", "admin"), session: session, policy: policy}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Settings.HTTPTimeout}
	}
	clientCfg := adminapi.Config{
		BaseURL:        cfg.Settings.AdminAPIURL,
		MainBaseURL:    cfg.Settings.MainAPIURL,
		HTTPClient:     httpClient,
		Session:        session,
		Logger:         logger,
		OnUnauthorized: a.onUnauthorized,
	}
	if cfg.Settings.CircuitBreaker {
		clientCfg.Breaker = adminapi.NewBreaker("rensights-admin")
	}
	client, err := adminapi.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}
	a.api = adminapi.NewAPI(client)
	a.validator = listing.NewJSONSchemaValidator(listing.DefaultSchemas())

	a.aggregator, err = dashboard.NewAggregator(dashboard.Options{
		Sections:       dashboard.DefaultSections(a.api),
		SectionTimeout: cfg.Settings.HTTPTimeout,
		Logger:         logger,
		Telemetry:      cfg.Telemetry,
	})
	if err != nil {
		return nil, err
	}
	a.overview = dashqueries.NewOverviewQuery(a.aggregator, nil)

	a.login = commands.NewLoginCommand(a.api, cfg.Telemetry)
	a.logout = commands.NewLogoutCommand(a.api, cfg.Telemetry)

	mount(a, a.api.Users, listing.StatusParam)
	mount(a, a.api.Subscriptions, listing.StatusParam)
	deals := mount(a, a.api.Deals, listing.StatusParam)
	a.requests = mount(a, a.api.AnalysisRequests, listing.StatusParam)
	mount(a, a.api.Articles, listing.StatusParam)
	mount(a, a.api.CityReports, listing.CityParam)
	mount(a, a.api.Translations, listing.SearchParam)
	mount(a, a.api.Languages, listing.SearchParam)
	mount(a, a.api.LandingContent, listing.StatusParam)
	if err := errors.Join(a.mountErrs...); err != nil {
		return nil, err
	}
	a.approve = commands.NewBatchApproveCommand(a.api, deals, cfg.Telemetry)
	return a, nil
}

// mount builds the controller, queries and commands for one resource and
// registers its executor. Failures are collected in a.mountErrs.
func mount[T adminapi.Record](a *Admin, res *adminapi.Resource[T], filter listing.FilterParamFunc) *listing.Controller[T] {
	opts := listing.ResourceOptions(res)
	opts.PageSize = a.cfg.Settings.PageSize
	opts.FilterParam = filter
	opts.FailurePolicy = a.policy
	opts.Logger = a.logger
	opts.Telemetry = a.cfg.Telemetry
	if a.cfg.Broadcast != nil {
		opts.Hook = a.cfg.Broadcast
	}
	controller, err := listing.NewController(opts)
	if err != nil {
		a.mountErrs = append(a.mountErrs, fmt.Errorf("admin: %s controller: %w", res.Name(), err))
		return nil
	}
	actions := commands.DefaultActions()[res.Name()]
	a.executors = append(a.executors, &httpapi.CommandExecutor[T]{
		Name:          res.Name(),
		PageQuerier:   queries.NewPageQuery[T](controller),
		DetailQuerier: queries.NewDetailQuery[T](controller),
		UpdateCommand: &validatedUpdate[T]{
			validator: a.validator,
			resource:  res.Name(),
			next:      commands.NewMutateRecordCommand[T](controller, a.cfg.Telemetry),
		},
		ActionCommand: commands.NewRecordActionCommand[T](controller, res.Action, actions, a.cfg.Telemetry),
		DeleteCommand: commands.NewDeleteRecordCommand(res, controller, a.cfg.Telemetry),
	})
	return controller
}

// validatedUpdate checks changes against the resource schema before the
// update reaches the backend.
type validatedUpdate[T adminapi.Record] struct {
	validator listing.SchemaValidator
	resource  string
	next      *commands.MutateRecordCommand[T]
}

func (v *validatedUpdate[T]) Execute(ctx context.Context, msg commands.MutateRecordInput) error {
	if err := v.validator.ValidateChanges(v.resource, msg.Changes); err != nil {
		return &adminapi.APIError{Kind: adminapi.KindValidation, Message: err.Error(), Err: err}
	}
	return v.next.Execute(ctx, msg)
}

// NewTokenStore picks the token store named by settings.
func NewTokenStore(settings *config.Config) (adminapi.TokenStore, error) {
	switch settings.SessionStore {
	case config.SessionStoreMemory:
		return adminapi.NewMemoryTokenStore(), nil
	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     settings.Redis.Addr,
			Password: settings.Redis.Password,
			DB:       settings.Redis.DB,
		})
		return adminapi.NewRedisTokenStore(rdb, settings.Redis.KeyPrefix, settings.Redis.TTL), nil
	case config.SessionStoreFile, "":
		path := settings.SessionFile
		if path == "" {
			path = adminapi.DefaultSessionFile()
		}
		return adminapi.NewFileTokenStore(path), nil
	}
	return nil, fmt.Errorf("admin: unknown session store %q", settings.SessionStore)
}

func (a *Admin) onUnauthorized(ctx context.Context, err *adminapi.APIError) {
	a.mu.Lock()
	a.unauthorized++
	a.mu.Unlock()
	a.logger.WithField("status", err.Status).Info("session expired, login required")
	if a.cfg.OnUnauthorized != nil {
		a.cfg.OnUnauthorized(ctx, err)
	}
}

// UnauthorizedCount reports how many 401s cleared the session.
func (a *Admin) UnauthorizedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unauthorized
}

func (a *Admin) API() *adminapi.API            { return a.api }
func (a *Admin) Session() *adminapi.Session    { return a.session }
func (a *Admin) Executors() []httpapi.Executor { return append([]httpapi.Executor(nil), a.executors...) }

// Validator checks edits against the built-in resource schemas.
func (a *Admin) Validator() listing.SchemaValidator { return a.validator }

// Login signs in through the login command.
func (a *Admin) Login(ctx context.Context, email, password string) error {
	return a.login.Execute(ctx, commands.LoginInput{Email: email, Password: password})
}

// Logout forgets the stored token.
func (a *Admin) Logout(ctx context.Context) error {
	return a.logout.Execute(ctx, commands.LogoutInput{})
}

// BatchApprove approves deals once confirmed.
func (a *Admin) BatchApprove(ctx context.Context, input commands.BatchApproveInput) error {
	return a.approve.Execute(ctx, input)
}

// SetAnalysisRequestStatus moves an analysis request to status through the
// analysis request list, which reloads once the backend confirms.
func (a *Admin) SetAnalysisRequestStatus(ctx context.Context, id, status string) (adminapi.AnalysisRequest, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" {
		return adminapi.AnalysisRequest{}, &adminapi.APIError{Kind: adminapi.KindValidation, Message: "Status is required"}
	}
	return a.requests.Apply(ctx, id, func(ctx context.Context, id string) (adminapi.AnalysisRequest, error) {
		return a.api.UpdateAnalysisRequestStatus(ctx, id, status)
	})
}

// Overview assembles the dashboard, optionally with a chart.
func (a *Admin) Overview(ctx context.Context, chart string) (dashboard.Overview, error) {
	return a.overview.Query(ctx, dashqueries.OverviewInput{Chart: chart})
}

// Executor returns the executor for name.
func (a *Admin) Executor(name string) (httpapi.Executor, bool) {
	slug := adminapi.ResourceSlug(name)
	for _, exec := range a.executors {
		if exec.Resource() == slug {
			return exec, true
		}
	}
	return nil, false
}

// Menu lists one sidebar entry per resource after the dashboard link.
func (a *Admin) Menu() []MenuItem {
	items := []MenuItem{{Label: "Dashboard", Route: "admin.dashboard", Icon: "home", Position: 0}}
	for i, name := range adminapi.ResourceNames() {
		items = append(items, MenuItem{
			Label:    menuLabel(name),
			Route:    "admin." + name,
			Icon:     menuIcons[name],
			Position: i + 1,
		})
	}
	return items
}

// Bootstrap seeds the navigation when a menu builder is configured.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if a.cfg.MenuBuilder == nil {
		return nil
	}
	for _, item := range a.Menu() {
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, item); err != nil {
			return fmt.Errorf("admin: menu item %s: %w", item.Route, err)
		}
	}
	return nil
}

func menuLabel(name string) string {
	words := strings.Split(adminapi.ResourceSlug(name), "-")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

var menuIcons = map[string]string{
	adminapi.ResourceUsers:            "users",
	adminapi.ResourceSubscriptions:    "credit-card",
	adminapi.ResourceDeals:            "briefcase",
	adminapi.ResourceAnalysisRequests: "bar-chart",
	adminapi.ResourceArticles:         "file-text",
	adminapi.ResourceCityReports:      "map",
	adminapi.ResourceTranslations:     "globe",
	adminapi.ResourceLanguages:        "flag",
	adminapi.ResourceLandingContent:   "layout",
}
