package adminapi

import (
	"fmt"
	"strconv"
)

// Record is any backend entity with a stable identifier.
type Record interface {
	RecordID() string
}

// StatusRecord is a Record that also carries a status used for filtering.
type StatusRecord interface {
	Record
	RecordStatus() string
}

// Status values used across resources.
const (
	StatusPending    = "PENDING"
	StatusApproved   = "APPROVED"
	StatusRejected   = "REJECTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
	StatusActive     = "ACTIVE"
	StatusInactive   = "INACTIVE"
	StatusDraft      = "DRAFT"
	StatusPublished  = "PUBLISHED"
	StatusExpired    = "EXPIRED"
)

// User is an account on the platform.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty"`
	Status    string `json:"status,omitempty"`
	Verified  bool   `json:"verified,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func (u User) RecordID() string     { return u.ID }
func (u User) RecordStatus() string { return u.Status }

// Subscription is a user's plan.
type Subscription struct {
	ID        string `json:"id"`
	UserID    string `json:"userId,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
	Plan      string `json:"plan,omitempty"`
	Status    string `json:"status,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

func (s Subscription) RecordID() string     { return s.ID }
func (s Subscription) RecordStatus() string { return s.Status }

// Deal is a property deal submitted for review.
type Deal struct {
	ID           string  `json:"id"`
	Title        string  `json:"title,omitempty"`
	City         string  `json:"city,omitempty"`
	Area         string  `json:"area,omitempty"`
	PropertyType string  `json:"propertyType,omitempty"`
	Bedrooms     int     `json:"bedrooms,omitempty"`
	Price        float64 `json:"price,omitempty"`
	Status       string  `json:"status,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
}

func (d Deal) RecordID() string     { return d.ID }
func (d Deal) RecordStatus() string { return d.Status }

// AnalysisRequest is a user's request for a property analysis.
type AnalysisRequest struct {
	ID           string `json:"id"`
	Email        string `json:"email,omitempty"`
	City         string `json:"city,omitempty"`
	Area         string `json:"area,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Status       string `json:"status,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

func (a AnalysisRequest) RecordID() string     { return a.ID }
func (a AnalysisRequest) RecordStatus() string { return a.Status }

// Article is a published piece of content.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	Content     string `json:"content,omitempty"`
	Status      string `json:"status,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

func (a Article) RecordID() string     { return a.ID }
func (a Article) RecordStatus() string { return a.Status }

// CityReport is a downloadable market report for a city.
type CityReport struct {
	ID      string `json:"id"`
	City    string `json:"city,omitempty"`
	Title   string `json:"title,omitempty"`
	FileURL string `json:"fileUrl,omitempty"`
	Status  string `json:"status,omitempty"`
}

func (c CityReport) RecordID() string     { return c.ID }
func (c CityReport) RecordStatus() string { return c.Status }

// Translation is one localized string.
type Translation struct {
	ID           string `json:"id"`
	Key          string `json:"key"`
	LanguageCode string `json:"languageCode"`
	Namespace    string `json:"namespace,omitempty"`
	Value        string `json:"value"`
}

func (t Translation) RecordID() string     { return t.ID }
func (t Translation) RecordStatus() string { return "" }

// Language is a UI language the platform can serve.
type Language struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name,omitempty"`
	NativeName string `json:"nativeName,omitempty"`
	Enabled    bool   `json:"enabled"`
}

func (l Language) RecordID() string { return l.ID }

func (l Language) RecordStatus() string {
	if l.Enabled {
		return StatusActive
	}
	return StatusInactive
}

// LandingContent is one editable section of the landing page.
type LandingContent struct {
	ID           string         `json:"id"`
	Section      string         `json:"section"`
	LanguageCode string         `json:"languageCode,omitempty"`
	Content      map[string]any `json:"content,omitempty"`
	Status       string         `json:"status,omitempty"`
}

func (l LandingContent) RecordID() string     { return l.ID }
func (l LandingContent) RecordStatus() string { return l.Status }

// DashboardStats is the headline counters block of the admin overview.
type DashboardStats struct {
	TotalUsers              int `json:"totalUsers"`
	ActiveSubscriptions     int `json:"activeSubscriptions"`
	PendingDeals            int `json:"pendingDeals"`
	PendingAnalysisRequests int `json:"pendingAnalysisRequests"`
	PublishedArticles       int `json:"publishedArticles"`
}

// LoginResponse is returned by the login endpoint.
type LoginResponse struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Document is an untyped record; the CLI uses it to work with any resource.
type Document map[string]any

func (d Document) RecordID() string {
	return scalarString(d["id"])
}

func (d Document) RecordStatus() string {
	return scalarString(d["status"])
}

func scalarString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}
