package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role identifiers issued by the platform's identity service.
const (
	RoleGuest             = "guest"
	RoleLearner           = "learner"
	RoleExplorationEditor = "exploration_editor"
	RoleModerator         = "moderator"
	RoleAdmin             = "admin"
)

// roleRank orders roles from least to most privileged.
var roleRank = map[string]int{
	RoleGuest:             0,
	RoleLearner:           1,
	RoleExplorationEditor: 2,
	RoleModerator:         3,
	RoleAdmin:             4,
}

// MinimumRoleForReview maps a suggestion type to the minimum role required to
// review suggestions of that type. Types without an entry have no role
// threshold beyond being authenticated. Consumed by the authorization check
// in the HTTP layer; the lifecycle engine itself does not enforce it.
var MinimumRoleForReview = map[SuggestionType]string{
	SuggestionTypeEditStateContent: RoleExplorationEditor,
}

// CanReview reports whether a user with the given role meets the minimum role
// threshold for reviewing suggestions of the given type.
func CanReview(role string, suggestionType SuggestionType) bool {
	minimum, ok := MinimumRoleForReview[suggestionType]
	if !ok {
		return true
	}
	return roleRank[role] >= roleRank[minimum]
}

// Claims defines the structure of the JWT claims issued by the identity
// service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
