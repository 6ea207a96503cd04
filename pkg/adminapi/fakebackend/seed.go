package fakebackend

// SeedDemo loads a small data set covering every admin page.
func (b *Backend) SeedDemo() {
	b.Seed("users",
		map[string]any{"id": "u-1", "email": "sara@example.com", "firstName": "Sara", "lastName": "Haddad", "role": "USER", "status": "ACTIVE", "verified": true},
		map[string]any{"id": "u-2", "email": "omar@example.com", "firstName": "Omar", "lastName": "Khalil", "role": "USER", "status": "ACTIVE"},
		map[string]any{"id": "u-3", "email": "lina@example.com", "firstName": "Lina", "lastName": "Aziz", "role": "ADMIN", "status": "INACTIVE"},
	)
	b.Seed("subscriptions",
		map[string]any{"id": "s-1", "userId": "u-1", "userEmail": "sara@example.com", "plan": "PREMIUM", "status": "ACTIVE", "startDate": "2026-01-01"},
		map[string]any{"id": "s-2", "userId": "u-2", "userEmail": "omar@example.com", "plan": "BASIC", "status": "EXPIRED", "startDate": "2025-03-01", "endDate": "2026-03-01"},
	)
	b.Seed("deals",
		map[string]any{"id": "d-1", "title": "2BR Marina view", "city": "Dubai", "area": "Dubai Marina", "propertyType": "APARTMENT", "bedrooms": 2, "price": 1850000, "status": "PENDING"},
		map[string]any{"id": "d-2", "title": "Villa with garden", "city": "Dubai", "area": "Arabian Ranches", "propertyType": "VILLA", "bedrooms": 4, "price": 4200000, "status": "PENDING"},
		map[string]any{"id": "d-3", "title": "Studio downtown", "city": "Abu Dhabi", "area": "Al Reem", "propertyType": "APARTMENT", "bedrooms": 0, "price": 690000, "status": "APPROVED"},
	)
	b.Seed("analysis-requests",
		map[string]any{"id": "a-1", "email": "sara@example.com", "city": "Dubai", "area": "JVC", "propertyType": "APARTMENT", "status": "PENDING"},
		map[string]any{"id": "a-2", "email": "omar@example.com", "city": "Sharjah", "area": "Al Majaz", "propertyType": "VILLA", "status": "IN_PROGRESS"},
	)
	b.Seed("articles",
		map[string]any{"id": "ar-1", "title": "Q3 market outlook", "slug": "q3-market-outlook", "status": "PUBLISHED", "publishedAt": "2026-09-01T08:00:00Z"},
		map[string]any{"id": "ar-2", "title": "Rental yields explained", "slug": "rental-yields-explained", "status": "DRAFT"},
	)
	b.Seed("city-reports",
		map[string]any{"id": "cr-1", "city": "Dubai", "title": "Dubai 2026 H1", "status": "PUBLISHED"},
	)
	b.Seed("translations",
		map[string]any{"id": "t-1", "key": "nav.home", "languageCode": "en", "namespace": "common", "value": "Home"},
		map[string]any{"id": "t-2", "key": "nav.home", "languageCode": "ar", "namespace": "common", "value": "الرئيسية"},
	)
	b.Seed("languages",
		map[string]any{"id": "en", "code": "en", "name": "English", "nativeName": "English", "enabled": true},
		map[string]any{"id": "ar", "code": "ar", "name": "Arabic", "nativeName": "العربية", "enabled": true},
		map[string]any{"id": "ru", "code": "ru", "name": "Russian", "nativeName": "Русский", "enabled": false},
	)
	b.Seed("landing-content",
		map[string]any{"id": "lc-1", "section": "hero", "languageCode": "en", "status": "PUBLISHED", "content": map[string]any{"headline": "Invest with insight"}},
	)
}
