package dashboard

import (
	"context"

	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// Section keys used by DefaultSections.
const (
	SectionStats                   = "stats"
	SectionPendingDeals            = "pendingDeals"
	SectionPendingAnalysisRequests = "pendingAnalysisRequests"
	SectionRecentUsers             = "recentUsers"
	SectionEnabledLanguages        = "enabledLanguages"
)

// PreviewSize is how many records the list sections show.
const PreviewSize = 5

// DefaultSections builds the standard admin overview over api.
func DefaultSections(api *adminapi.API) []Section {
	return []Section{
		{
			Key:      SectionStats,
			Title:    "Overview",
			Fallback: adminapi.DashboardStats{},
			Fetch: func(ctx context.Context) (any, error) {
				return api.DashboardStats(ctx)
			},
		},
		{
			Key:      SectionPendingDeals,
			Title:    "Deals awaiting review",
			Fallback: adminapi.Page[adminapi.Deal]{Content: []adminapi.Deal{}},
			Fetch:    pendingPage(api.Deals),
		},
		{
			Key:      SectionPendingAnalysisRequests,
			Title:    "Pending analysis requests",
			Fallback: adminapi.Page[adminapi.AnalysisRequest]{Content: []adminapi.AnalysisRequest{}},
			Fetch:    pendingPage(api.AnalysisRequests),
		},
		{
			Key:      SectionRecentUsers,
			Title:    "Recent users",
			Fallback: adminapi.Page[adminapi.User]{Content: []adminapi.User{}},
			Fetch: func(ctx context.Context) (any, error) {
				page, err := api.Users.List(ctx, adminapi.PageRequest{Size: PreviewSize})
				if err != nil {
					return nil, err
				}
				return page.Normalize(PreviewSize), nil
			},
		},
		{
			Key:      SectionEnabledLanguages,
			Title:    "Enabled languages",
			Fallback: []adminapi.Language{},
			Fetch: func(ctx context.Context) (any, error) {
				return api.EnabledLanguages(ctx)
			},
		},
	}
}

func pendingPage[T any](res *adminapi.Resource[T]) SectionFunc {
	return func(ctx context.Context) (any, error) {
		page, err := res.List(ctx, adminapi.PageRequest{Size: PreviewSize, Status: "PENDING"})
		if err != nil {
			return nil, err
		}
		return page.Normalize(PreviewSize), nil
	}
}
