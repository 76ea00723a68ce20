package component

import "strings"

// BuildDataID assembles the session-unique identity of a component from its
// constituent parts. Unset parts are substituted with "*", so two records of
// the same component from different origins or scopes stay distinguishable
// while wildcard forms remain comparable.
func BuildDataID(scope Scope, bundle BundleKind, origin, cid, branch string) string {
	scopeStr := "*"
	if scope != ScopeUnknown {
		scopeStr = scope.String()
	}
	bundleStr := "*"
	if bundle != BundleKindUnknown {
		bundleStr = bundle.String()
	}
	if origin == "" {
		origin = "*"
	}
	if branch == "" {
		branch = "*"
	}
	return strings.Join([]string{scopeStr, bundleStr, origin, cid, branch}, "/")
}

// DataIDMatches reports whether a data-ID pattern matches the given
// component. "*" fields in the pattern match anything; the component-ID
// field is compared case-insensitively.
func DataIDMatches(c *Component, dataID string) bool {
	parts := strings.Split(dataID, "/")
	if len(parts) != 5 {
		return false
	}
	if parts[0] != "*" && parts[0] != c.Scope.String() {
		return false
	}
	if parts[1] != "*" && parts[1] != c.bundleKind().String() {
		return false
	}
	if parts[2] != "*" && parts[2] != c.Origin {
		return false
	}
	if !strings.EqualFold(parts[3], c.ID) {
		return false
	}
	if parts[4] != "*" && parts[4] != c.Branch {
		return false
	}
	return true
}
