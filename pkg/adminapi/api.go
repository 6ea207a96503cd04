package adminapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// API bundles typed resources for every admin page.
type API struct {
	client *Client

	Users            *Resource[User]
	Subscriptions    *Resource[Subscription]
	Deals            *Resource[Deal]
	AnalysisRequests *Resource[AnalysisRequest]
	Articles         *Resource[Article]
	CityReports      *Resource[CityReport]
	Translations     *Resource[Translation]
	Languages        *Resource[Language]
	LandingContent   *Resource[LandingContent]
}

// NewAPI wires every resource onto client.
func NewAPI(client *Client) *API {
	return &API{
		client:           client,
		Users:            NewResource[User](client, ResourceUsers),
		Subscriptions:    NewResource[Subscription](client, ResourceSubscriptions),
		Deals:            NewResource[Deal](client, ResourceDeals),
		AnalysisRequests: NewResource[AnalysisRequest](client, ResourceAnalysisRequests),
		Articles:         NewResource[Article](client, ResourceArticles),
		CityReports:      NewResource[CityReport](client, ResourceCityReports),
		Translations:     NewResource[Translation](client, ResourceTranslations),
		Languages:        NewResource[Language](client, ResourceLanguages),
		LandingContent:   NewResource[LandingContent](client, ResourceLandingContent),
	}
}

// Client returns the underlying HTTP client.
func (a *API) Client() *Client {
	return a.client
}

// Documents returns an untyped view of any resource.
func (a *API) Documents(name string) *Resource[Document] {
	return NewResource[Document](a.client, name)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and stores the returned token in the session.
func (a *API) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResponse{}, &APIError{Kind: KindValidation, Message: "Email and password are required"}
	}
	resp, err := Request[LoginResponse](ctx, a.client, http.MethodPost, AdminPrefix+"/auth/login",
		WithBody(loginRequest{Email: email, Password: password}))
	if err != nil {
		return LoginResponse{}, err
	}
	if resp.Token == "" {
		return LoginResponse{}, &APIError{Kind: KindServer, Status: http.StatusOK, Message: "Login response did not include a token"}
	}
	session := a.client.Session()
	if session == nil {
		return resp, errors.New("adminapi: client has no session to store the token in")
	}
	if err := session.SetToken(ctx, resp.Token); err != nil {
		return resp, err
	}
	return resp, nil
}

// Logout forgets the token. No backend call is made.
func (a *API) Logout(ctx context.Context) error {
	return a.client.Session().ClearToken(ctx)
}

// DashboardStats loads the overview counters.
func (a *API) DashboardStats(ctx context.Context) (DashboardStats, error) {
	return Request[DashboardStats](ctx, a.client, http.MethodGet, AdminPrefix+"/dashboard/stats")
}

// UpdateAnalysisRequestStatus moves an analysis request to status.
func (a *API) UpdateAnalysisRequestStatus(ctx context.Context, id, status string) (AnalysisRequest, error) {
	if strings.TrimSpace(id) == "" {
		return AnalysisRequest{}, &APIError{Kind: KindValidation, Message: "adminapi: analysis-requests id is required"}
	}
	path := fmt.Sprintf("%s/%s/%s/status", AdminPrefix, ResourceAnalysisRequests, url.PathEscape(id))
	return Request[AnalysisRequest](ctx, a.client, http.MethodPut, path,
		WithBody(map[string]string{"status": status}))
}

// BatchApproveResult reports how many deals a batch approval touched.
type BatchApproveResult struct {
	Approved int      `json:"approved"`
	IDs      []string `json:"ids,omitempty"`
}

// BatchApproveDeals approves several deals at once. An empty ids list
// approves every pending deal.
func (a *API) BatchApproveDeals(ctx context.Context, ids []string) (BatchApproveResult, error) {
	if ids == nil {
		ids = []string{}
	}
	path := fmt.Sprintf("%s/%s/batch-approve", AdminPrefix, ResourceDeals)
	return Request[BatchApproveResult](ctx, a.client, http.MethodPost, path,
		WithBody(map[string][]string{"ids": ids}))
}

// EnabledLanguages reads the public language list from the main backend.
func (a *API) EnabledLanguages(ctx context.Context) ([]Language, error) {
	langs, err := Request[[]Language](ctx, a.client, http.MethodGet, "/api/languages/enabled", OnMainBackend())
	if err != nil {
		return nil, err
	}
	if langs == nil {
		langs = []Language{}
	}
	return langs, nil
}

// DownloadCityReport streams a report file from the main backend into w.
func (a *API) DownloadCityReport(ctx context.Context, id string, w io.Writer) error {
	if strings.TrimSpace(id) == "" {
		return &APIError{Kind: KindValidation, Message: "adminapi: city-reports id is required"}
	}
	path := fmt.Sprintf("/api/city-reports/%s/download", url.PathEscape(id))
	return a.client.DoRaw(ctx, http.MethodGet, path, w, OnMainBackend(), WithHeader("Accept", "*/*"))
}
