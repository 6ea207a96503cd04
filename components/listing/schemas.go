package listing

import "github.com/rensights/admin-dashboard/pkg/adminapi"

// DefaultSchemas returns change schemas for the admin resources. They only
// constrain fields that are present, since edits are partial.
func DefaultSchemas() map[string]map[string]any {
	statusEnum := func(values ...string) map[string]any {
		enum := make([]any, 0, len(values))
		for _, v := range values {
			enum = append(enum, v)
		}
		return map[string]any{"type": "string", "enum": enum}
	}
	nonEmpty := map[string]any{"type": "string", "minLength": 1}

	return map[string]map[string]any{
		adminapi.ResourceUsers: {
			"type": "object",
			"properties": map[string]any{
				"email":     map[string]any{"type": "string", "pattern": `^[^@\s]+@[^@\s]+\.[^@\s]+$`},
				"firstName": map[string]any{"type": "string"},
				"lastName":  map[string]any{"type": "string"},
				"role":      statusEnum("USER", "ADMIN"),
				"status":    statusEnum(adminapi.StatusActive, adminapi.StatusInactive),
			},
		},
		adminapi.ResourceSubscriptions: {
			"type": "object",
			"properties": map[string]any{
				"plan":   nonEmpty,
				"status": statusEnum(adminapi.StatusActive, adminapi.StatusInactive, adminapi.StatusExpired, adminapi.StatusCancelled),
			},
		},
		adminapi.ResourceDeals: {
			"type": "object",
			"properties": map[string]any{
				"title":    nonEmpty,
				"price":    map[string]any{"type": "number", "minimum": 0},
				"bedrooms": map[string]any{"type": "integer", "minimum": 0},
				"status":   statusEnum(adminapi.StatusPending, adminapi.StatusApproved, adminapi.StatusRejected),
			},
		},
		adminapi.ResourceAnalysisRequests: {
			"type": "object",
			"properties": map[string]any{
				"status": statusEnum(adminapi.StatusPending, adminapi.StatusInProgress, adminapi.StatusCompleted, adminapi.StatusCancelled),
			},
		},
		adminapi.ResourceArticles: {
			"type": "object",
			"properties": map[string]any{
				"title":  nonEmpty,
				"slug":   map[string]any{"type": "string", "pattern": `^[a-z0-9]+(-[a-z0-9]+)*$`},
				"status": statusEnum(adminapi.StatusDraft, adminapi.StatusPublished),
			},
		},
		adminapi.ResourceCityReports: {
			"type": "object",
			"properties": map[string]any{
				"city":   nonEmpty,
				"status": statusEnum(adminapi.StatusDraft, adminapi.StatusPublished),
			},
		},
		adminapi.ResourceTranslations: {
			"type": "object",
			"properties": map[string]any{
				"key":          nonEmpty,
				"languageCode": map[string]any{"type": "string", "pattern": `^[a-z]{2}(-[A-Z]{2})?$`},
				"value":        map[string]any{"type": "string"},
			},
		},
		adminapi.ResourceLanguages: {
			"type": "object",
			"properties": map[string]any{
				"code":    map[string]any{"type": "string", "pattern": `^[a-z]{2}(-[A-Z]{2})?$`},
				"enabled": map[string]any{"type": "boolean"},
			},
		},
		adminapi.ResourceLandingContent: {
			"type": "object",
			"properties": map[string]any{
				"section": nonEmpty,
				"content": map[string]any{"type": "object"},
				"status":  statusEnum(adminapi.StatusDraft, adminapi.StatusPublished),
			},
		},
	}
}
