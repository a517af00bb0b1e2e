package models

// Match statuses as stored. Expired is never written; it is derived at read time.
type MatchStatus string

const (
	MatchStatusActive        MatchStatus = "active"
	MatchStatusExpired       MatchStatus = "expired"
	MatchStatusContactShared MatchStatus = "contact_shared"
)

// Interest outcomes returned to the liking user
type InterestStatus string

const (
	InterestStatusPending InterestStatus = "pending"
	InterestStatusMatched InterestStatus = "matched"
)

// Contact kinds accepted by ShareContact
const (
	ContactKindPhone     = "phone"
	ContactKindEmail     = "email"
	ContactKindInstagram = "instagram"
	ContactKindOther     = "other"
)

// Match origins, used for metrics and event payloads
const (
	MatchOriginOrganic = "organic"
	MatchOriginRematch = "rematch"
)
