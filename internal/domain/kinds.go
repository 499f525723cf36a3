package domain

// Entity kind names. These are the wire identifiers used by the sync
// endpoints and the keys of manifest / attempt count maps.
const (
	KindLanguages    = "languages"
	KindDialects     = "dialects"
	KindRegions      = "regions"
	KindGenres       = "genres"
	KindRoles        = "roles"
	KindConsentTypes = "consent_types"
	KindDeviceTypes  = "device_types"
	KindTasks        = "tasks"
	KindKeywords     = "keywords"
	KindSubjects     = "subjects"
	KindProjects     = "projects"
	KindSessions     = "sessions"
	KindRecordings   = "recordings"
)

// CatalogKinds lists the reference kinds that live in code-keyed catalog
// tables. Dialects reference languages, so languages must come first; the
// remaining catalog kinds are independent of each other.
var CatalogKinds = []string{
	KindLanguages,
	KindDialects,
	KindRegions,
	KindGenres,
	KindRoles,
	KindConsentTypes,
	KindDeviceTypes,
	KindTasks,
	KindKeywords,
}

// KindOrder is the full import dependency order. Every foreign key points
// at a kind that appears earlier in this list, so applying kinds in this
// order never violates a constraint.
var KindOrder = []string{
	KindLanguages,
	KindDialects,
	KindRegions,
	KindGenres,
	KindRoles,
	KindConsentTypes,
	KindDeviceTypes,
	KindTasks,
	KindKeywords,
	KindSubjects,
	KindProjects,
	KindSessions,
	KindRecordings,
}

var knownKinds = func() map[string]bool {
	m := make(map[string]bool, len(KindOrder))
	for _, k := range KindOrder {
		m[k] = true
	}
	return m
}()

// KnownKind reports whether name is a syncable entity kind.
func KnownKind(name string) bool {
	return knownKinds[name]
}

// IsCatalogKind reports whether name is one of the code-keyed catalog kinds.
func IsCatalogKind(name string) bool {
	for _, k := range CatalogKinds {
		if k == name {
			return true
		}
	}
	return false
}
