// Package fakebackend serves an in-memory admin REST backend that follows the
// same conventions as the real one. Tests, the CLI and the BFF example run
// against it.
package fakebackend

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Default credentials accepted by the login endpoint.
const (
	DefaultEmail    = "admin@rensights.com"
	DefaultPassword = "admin"
)

// Response is a canned reply served instead of the next real one.
type Response struct {
	Status      int
	Body        string
	ContentType string
}

// Option configures a Backend.
type Option func(*Backend)

// WithCredentials replaces the accepted login.
func WithCredentials(email, password string) Option {
	return func(b *Backend) {
		b.email = email
		b.password = password
	}
}

// WithToken pre-registers a valid bearer token.
func WithToken(token string) Option {
	return func(b *Backend) {
		if token != "" {
			b.tokens[token] = true
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithLatency delays every response, handy for exercising stale responses.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) {
		b.latency = d
	}
}

// Backend is the in-memory server.
type Backend struct {
	mu       sync.Mutex
	app      *fiber.App
	email    string
	password string
	tokens   map[string]bool
	data     map[string]*collection
	injected []Response
	hits     map[string]int
	latency  time.Duration
	logger   logrus.FieldLogger
}

type collection struct {
	order []string
	items map[string]map[string]any
}

// New builds a backend with no records.
func New(opts ...Option) *Backend {
	b := &Backend{
		email:    DefaultEmail,
		password: DefaultPassword,
		tokens:   map[string]bool{},
		data:     map[string]*collection{},
		hits:     map[string]int{},
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
		AppName:               "rensights-fake-admin",
	})
	b.routes()
	return b
}

// App exposes the fiber app, e.g. for app.Test in unit tests.
func (b *Backend) App() *fiber.App {
	return b.app
}

// Start listens on addr (use "127.0.0.1:0" for an ephemeral port) and
// returns the base URL.
func (b *Backend) Start(addr string) (string, error) {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("fakebackend: listen %s: %w", addr, err)
	}
	go func() {
		if err := b.app.Listener(ln); err != nil {
			b.logger.WithError(err).Debug("fake backend stopped")
		}
	}()
	return "http://" + ln.Addr().String(), nil
}

// Close stops the server started by Start.
func (b *Backend) Close() error {
	return b.app.Shutdown()
}

// Serve blocks until ctx is cancelled.
func (b *Backend) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("fakebackend: listen %s: %w", addr, err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- b.app.Listener(ln) }()
	select {
	case <-ctx.Done():
		if err := b.app.Shutdown(); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// IssueToken registers and returns a fresh token.
func (b *Backend) IssueToken() string {
	token := uuid.NewString()
	b.mu.Lock()
	b.tokens[token] = true
	b.mu.Unlock()
	return token
}

// RevokeTokens invalidates every token; the next authenticated call gets 401.
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	b.tokens = map[string]bool{}
	b.mu.Unlock()
}

// FailNext makes the next request fail with status and a JSON error body.
func (b *Backend) FailNext(status int, message string) {
	body := fmt.Sprintf(`{"error":%s}`, strconv.Quote(message))
	b.RespondNext(Response{Status: status, Body: body, ContentType: fiber.MIMEApplicationJSON})
}

// RespondNext serves resp verbatim for the next request.
func (b *Backend) RespondNext(resp Response) {
	b.mu.Lock()
	b.injected = append(b.injected, resp)
	b.mu.Unlock()
}

// Hits reports how many requests reached "METHOD /path".
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[strings.ToUpper(method)+" "+path]
}

// Seed inserts records; records without an id get one.
func (b *Backend) Seed(resource string, records ...map[string]any) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, b.insertLocked(resource, rec))
	}
	return ids
}

// Records returns a copy of every record of resource in insertion order.
func (b *Backend) Records(resource string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	coll := b.data[resource]
	if coll == nil {
		return []map[string]any{}
	}
	out := make([]map[string]any, 0, len(coll.order))
	for _, id := range coll.order {
		out = append(out, clone(coll.items[id]))
	}
	return out
}

func (b *Backend) insertLocked(resource string, rec map[string]any) string {
	coll := b.data[resource]
	if coll == nil {
		coll = &collection{items: map[string]map[string]any{}}
		b.data[resource] = coll
	}
	rec = clone(rec)
	id, _ := rec["id"].(string)
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}
	if _, exists := coll.items[id]; !exists {
		coll.order = append(coll.order, id)
	}
	coll.items[id] = rec
	return id
}

func (b *Backend) routes() {
	b.app.Use(b.observe)

	b.app.Post("/api/admin/auth/login", b.login)
	b.app.Get("/api/languages/enabled", b.enabledLanguages)
	b.app.Get("/api/city-reports/:id/download", b.downloadReport)

	admin := b.app.Group("/api/admin", b.authenticate)
	admin.Get("/dashboard/stats", b.stats)
	admin.Post("/deals/batch-approve", b.batchApprove)
	admin.Put("/analysis-requests/:id/status", b.updateStatus)
	admin.Get("/:resource", b.list)
	admin.Post("/:resource", b.create)
	admin.Delete("/:resource", b.deleteAll)
	admin.Get("/:resource/:id", b.get)
	admin.Put("/:resource/:id", b.update)
	admin.Delete("/:resource/:id", b.remove)
	admin.Post("/:resource/:id/:action", b.action)
}

func (b *Backend) observe(c *fiber.Ctx) error {
	b.mu.Lock()
	b.hits[c.Method()+" "+c.Path()]++
	var injected *Response
	if len(b.injected) > 0 {
		next := b.injected[0]
		b.injected = b.injected[1:]
		injected = &next
	}
	latency := b.latency
	b.mu.Unlock()

	if latency > 0 {
		time.Sleep(latency)
	}
	b.logger.WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Debug("fake backend request")

	if injected != nil {
		if injected.ContentType != "" {
			c.Set(fiber.HeaderContentType, injected.ContentType)
		}
		return c.Status(injected.Status).SendString(injected.Body)
	}
	return c.Next()
}

func (b *Backend) authenticate(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	b.mu.Lock()
	ok := token != "" && header != token && b.tokens[token]
	b.mu.Unlock()
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	return c.Next()
}

func (b *Backend) login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if !strings.EqualFold(strings.TrimSpace(req.Email), b.email) || req.Password != b.password {
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	token := b.IssueToken()
	return c.JSON(fiber.Map{
		"token":     token,
		"email":     b.email,
		"firstName": "Admin",
		"lastName":  "User",
		"role":      "ADMIN",
	})
}

func (b *Backend) list(c *fiber.Ctx) error {
	resource := c.Params("resource")
	page := atoiDefault(c.Query("page"), 0)
	size := atoiDefault(c.Query("size"), 20)
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	status := c.Query("status")
	city := c.Query("city")
	search := strings.ToLower(c.Query("search"))

	b.mu.Lock()
	var matched []map[string]any
	if coll := b.data[resource]; coll != nil {
		for _, id := range coll.order {
			rec := coll.items[id]
			if status != "" && !strings.EqualFold(statusOf(rec), status) {
				continue
			}
			if city != "" && !strings.EqualFold(fmt.Sprint(rec["city"]), city) {
				continue
			}
			if search != "" && !matches(rec, search) {
				continue
			}
			matched = append(matched, clone(rec))
		}
	}
	b.mu.Unlock()

	total := len(matched)
	totalPages := (total + size - 1) / size
	start := page * size
	content := []map[string]any{}
	if start < total {
		end := start + size
		if end > total {
			end = total
		}
		content = matched[start:end]
	}
	return c.JSON(fiber.Map{
		"content":       content,
		"totalElements": total,
		"totalPages":    totalPages,
		"size":          size,
		"number":        page,
	})
}

func (b *Backend) get(c *fiber.Ctx) error {
	rec, ok := b.find(c.Params("resource"), c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Record not found")
	}
	return c.JSON(rec)
}

func (b *Backend) create(c *fiber.Ctx) error {
	var rec map[string]any
	if err := c.BodyParser(&rec); err != nil || rec == nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	delete(rec, "id")
	if _, ok := rec["createdAt"]; !ok {
		rec["createdAt"] = time.Now().UTC().Format(time.RFC3339)
	}
	resource := c.Params("resource")
	b.mu.Lock()
	id := b.insertLocked(resource, rec)
	stored := clone(b.data[resource].items[id])
	b.mu.Unlock()
	return c.Status(fiber.StatusCreated).JSON(stored)
}

func (b *Backend) update(c *fiber.Ctx) error {
	var changes map[string]any
	if err := c.BodyParser(&changes); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	rec, ok := b.merge(c.Params("resource"), c.Params("id"), changes)
	if !ok {
		return fail(c, fiber.StatusNotFound, "Record not found")
	}
	return c.JSON(rec)
}

func (b *Backend) updateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		return fail(c, fiber.StatusBadRequest, "Status is required")
	}
	rec, ok := b.merge("analysis-requests", c.Params("id"), map[string]any{"status": strings.ToUpper(req.Status)})
	if !ok {
		return fail(c, fiber.StatusNotFound, "Record not found")
	}
	return c.JSON(rec)
}

var actionStatus = map[string]string{
	"approve":    "APPROVED",
	"reject":     "REJECTED",
	"activate":   "ACTIVE",
	"deactivate": "INACTIVE",
	"publish":    "PUBLISHED",
	"unpublish":  "DRAFT",
	"complete":   "COMPLETED",
	"cancel":     "CANCELLED",
}

func (b *Backend) action(c *fiber.Ctx) error {
	action := strings.ToLower(c.Params("action"))
	status, ok := actionStatus[action]
	if !ok {
		return fail(c, fiber.StatusBadRequest, fmt.Sprintf("Unknown action %q", action))
	}
	changes := map[string]any{"status": status}
	if c.Params("resource") == "languages" {
		changes = map[string]any{"enabled": status == "ACTIVE"}
	}
	if status == "PUBLISHED" {
		changes["publishedAt"] = time.Now().UTC().Format(time.RFC3339)
	}
	rec, ok := b.merge(c.Params("resource"), c.Params("id"), changes)
	if !ok {
		return fail(c, fiber.StatusNotFound, "Record not found")
	}
	return c.JSON(rec)
}

func (b *Backend) batchApprove(c *fiber.Ctx) error {
	var req struct {
		IDs []string `json:"ids"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	wanted := map[string]bool{}
	for _, id := range req.IDs {
		wanted[id] = true
	}
	b.mu.Lock()
	approved := []string{}
	if coll := b.data["deals"]; coll != nil {
		for _, id := range coll.order {
			rec := coll.items[id]
			if len(wanted) > 0 && !wanted[id] {
				continue
			}
			if len(wanted) == 0 && statusOf(rec) != "PENDING" {
				continue
			}
			rec["status"] = "APPROVED"
			approved = append(approved, id)
		}
	}
	b.mu.Unlock()
	return c.JSON(fiber.Map{"approved": len(approved), "ids": approved})
}

func (b *Backend) remove(c *fiber.Ctx) error {
	resource, id := c.Params("resource"), c.Params("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	coll := b.data[resource]
	if coll == nil || coll.items[id] == nil {
		return fail(c, fiber.StatusNotFound, "Record not found")
	}
	delete(coll.items, id)
	for i, existing := range coll.order {
		if existing == id {
			coll.order = append(coll.order[:i], coll.order[i+1:]...)
			break
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (b *Backend) deleteAll(c *fiber.Ctx) error {
	b.mu.Lock()
	delete(b.data, c.Params("resource"))
	b.mu.Unlock()
	return c.SendStatus(fiber.StatusNoContent)
}

func (b *Backend) stats(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := func(resource, status string) int {
		coll := b.data[resource]
		if coll == nil {
			return 0
		}
		if status == "" {
			return len(coll.order)
		}
		n := 0
		for _, rec := range coll.items {
			if statusOf(rec) == status {
				n++
			}
		}
		return n
	}
	return c.JSON(fiber.Map{
		"totalUsers":              count("users", ""),
		"activeSubscriptions":     count("subscriptions", "ACTIVE"),
		"pendingDeals":            count("deals", "PENDING"),
		"pendingAnalysisRequests": count("analysis-requests", "PENDING"),
		"publishedArticles":       count("articles", "PUBLISHED"),
	})
}

func (b *Backend) enabledLanguages(c *fiber.Ctx) error {
	out := []map[string]any{}
	for _, rec := range b.Records("languages") {
		if enabled, _ := rec["enabled"].(bool); enabled {
			out = append(out, rec)
		}
	}
	return c.JSON(out)
}

func (b *Backend) downloadReport(c *fiber.Ctx) error {
	rec, ok := b.find("city-reports", c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Report not found")
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.pdf"`, rec["id"]))
	return c.SendString(fmt.Sprintf("%%PDF-1.4\n%% city report %v for %v\n", rec["id"], rec["city"]))
}

func (b *Backend) find(resource, id string) (map[string]any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	coll := b.data[resource]
	if coll == nil || coll.items[id] == nil {
		return nil, false
	}
	return clone(coll.items[id]), true
}

func (b *Backend) merge(resource, id string, changes map[string]any) (map[string]any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	coll := b.data[resource]
	if coll == nil || coll.items[id] == nil {
		return nil, false
	}
	rec := coll.items[id]
	for key, value := range changes {
		if key == "id" {
			continue
		}
		rec[key] = value
	}
	return clone(rec), true
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func statusOf(rec map[string]any) string {
	if status, ok := rec["status"].(string); ok {
		return strings.ToUpper(status)
	}
	if enabled, ok := rec["enabled"].(bool); ok {
		if enabled {
			return "ACTIVE"
		}
		return "INACTIVE"
	}
	return ""
}

func matches(rec map[string]any, needle string) bool {
	for _, value := range rec {
		if s, ok := value.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func atoiDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func clone(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
