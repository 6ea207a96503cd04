package adminapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ettle/strcase"
)

// AdminPrefix is the path prefix of every admin endpoint.
const AdminPrefix = "/api/admin"

// Resource names known to the admin backend.
const (
	ResourceUsers            = "users"
	ResourceSubscriptions    = "subscriptions"
	ResourceDeals            = "deals"
	ResourceAnalysisRequests = "analysis-requests"
	ResourceArticles         = "articles"
	ResourceCityReports      = "city-reports"
	ResourceTranslations     = "translations"
	ResourceLanguages        = "languages"
	ResourceLandingContent   = "landing-content"
)

// ResourceNames lists every admin resource in menu order.
func ResourceNames() []string {
	return []string{
		ResourceUsers,
		ResourceSubscriptions,
		ResourceDeals,
		ResourceAnalysisRequests,
		ResourceArticles,
		ResourceCityReports,
		ResourceTranslations,
		ResourceLanguages,
		ResourceLandingContent,
	}
}

// ResourceSlug turns "AnalysisRequests" or "analysis_requests" into the
// "analysis-requests" path segment.
func ResourceSlug(name string) string {
	return strcase.ToKebab(strings.TrimSpace(name))
}

// Resource exposes the uniform REST convention for one record type:
// list, get, create, update, action and delete under /api/admin/<name>.
type Resource[T any] struct {
	client *Client
	name   string
	base   string
}

// NewResource binds a resource name to a client.
func NewResource[T any](client *Client, name string) *Resource[T] {
	slug := ResourceSlug(name)
	return &Resource[T]{client: client, name: slug, base: AdminPrefix + "/" + slug}
}

// Name returns the resource path segment.
func (r *Resource[T]) Name() string {
	return r.name
}

// List fetches one page.
func (r *Resource[T]) List(ctx context.Context, req PageRequest) (Page[T], error) {
	if req.Size <= 0 {
		req.Size = DefaultPageSize
	}
	if req.Page < 0 {
		req.Page = 0
	}
	return Request[Page[T]](ctx, r.client, http.MethodGet, r.base, WithQuery(req))
}

// Get fetches a single record.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	path, err := r.itemPath(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return Request[T](ctx, r.client, http.MethodGet, path)
}

// Create posts a new record.
func (r *Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	return Request[T](ctx, r.client, http.MethodPost, r.base, WithBody(payload))
}

// Update sends a partial record and returns the replaced record.
func (r *Resource[T]) Update(ctx context.Context, id string, changes map[string]any) (T, error) {
	path, err := r.itemPath(id)
	if err != nil {
		var zero T
		return zero, err
	}
	if changes == nil {
		changes = map[string]any{}
	}
	return Request[T](ctx, r.client, http.MethodPut, path, WithBody(changes))
}

// Action posts to /<id>/<action> (approve, reject, activate, ...).
func (r *Resource[T]) Action(ctx context.Context, id, action string) (T, error) {
	path, err := r.itemPath(id)
	if err != nil {
		var zero T
		return zero, err
	}
	action = strings.Trim(strings.TrimSpace(action), "/")
	if action == "" {
		var zero T
		return zero, &APIError{Kind: KindValidation, Message: "adminapi: action is required"}
	}
	return Request[T](ctx, r.client, http.MethodPost, path+"/"+url.PathEscape(action))
}

// Delete removes a record.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	path, err := r.itemPath(id)
	if err != nil {
		return err
	}
	return r.client.Do(ctx, http.MethodDelete, path, nil)
}

// DeleteAll removes every record of the resource.
func (r *Resource[T]) DeleteAll(ctx context.Context) error {
	return r.client.Do(ctx, http.MethodDelete, r.base, nil)
}

func (r *Resource[T]) itemPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", &APIError{Kind: KindValidation, Message: fmt.Sprintf("adminapi: %s id is required", r.name), Err: errMissingID}
	}
	return r.base + "/" + url.PathEscape(id), nil
}

var errMissingID = errors.New("adminapi: id is required")
