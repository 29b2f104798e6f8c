// Package policy is the single place that answers whether an acting user may
// read or mutate a project, its membership, or its tasks. Decisions are pure
// functions over entities the caller has already loaded; nothing here touches
// the database.
package policy

import (
	"net/http"

	"github.com/bugbridge-dev/bugbridge/internal/models"
)

type Reason string

const (
	ReasonValidation       Reason = "VALIDATION"
	ReasonNotAuthenticated Reason = "NOT_AUTHENTICATED"
	ReasonNotAuthorized    Reason = "NOT_AUTHORIZED"
	ReasonOwnerOnly        Reason = "FORBIDDEN_OWNER_ONLY"
	ReasonNotFound         Reason = "NOT_FOUND"
	ReasonDuplicateMember  Reason = "DUPLICATE_MEMBER"
	ReasonUserNotFound     Reason = "USER_NOT_FOUND"
	ReasonCorruptOwner     Reason = "CORRUPT_OWNER"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanReadProject allows the owner and every member. Expects
// project.Memberships to be loaded.
func CanReadProject(actorID uint, project *models.Project) Decision {
	if project.OwnerID != 0 && project.OwnerID == actorID {
		return allow()
	}

	if IsMember(actorID, project) {
		return allow()
	}

	// A dangling owner reference means the owner-match leg cannot be
	// evaluated at all; fail closed and say why.
	if project.OwnerID == 0 {
		return deny(ReasonCorruptOwner)
	}

	return deny(ReasonNotAuthorized)
}

// CanAdministerProject gates update, delete and member management. Owner
// only, and fail-closed when the owner reference is dangling.
func CanAdministerProject(actorID uint, project *models.Project) Decision {
	if project.OwnerID == 0 {
		return deny(ReasonCorruptOwner)
	}

	if project.OwnerID == actorID {
		return allow()
	}

	return deny(ReasonOwnerOnly)
}

// CanModifyTask covers task creation and updates, including status moves
// driven by the board: any project participant may do these.
func CanModifyTask(actorID uint, project *models.Project) Decision {
	return CanReadProject(actorID, project)
}

// CanDeleteTask is stricter than modification: only the project owner
// deletes tasks.
func CanDeleteTask(actorID uint, project *models.Project) Decision {
	return CanAdministerProject(actorID, project)
}

// CheckNewMember validates a prospective member resolved by email. A nil
// target means the email matched no user.
func CheckNewMember(project *models.Project, target *models.User) Decision {
	if target == nil {
		return deny(ReasonUserNotFound)
	}

	if project.OwnerID == target.ID || IsMember(target.ID, project) {
		return deny(ReasonDuplicateMember)
	}

	return allow()
}

// CanAssign reports whether a user may hold the assignee slot on one of the
// project's tasks: the owner or any member.
func CanAssign(assigneeID uint, project *models.Project) bool {
	if project.OwnerID != 0 && project.OwnerID == assigneeID {
		return true
	}

	return IsMember(assigneeID, project)
}

func IsMember(userID uint, project *models.Project) bool {
	for _, membership := range project.Memberships {
		if membership.UserID == userID {
			return true
		}
	}

	return false
}

// StatusCode maps a denial reason to its HTTP status. Ownership and access
// denials are 403; 401 is reserved for missing or invalid identity.
func StatusCode(reason Reason) int {
	switch reason {
	case ReasonValidation, ReasonDuplicateMember:
		return http.StatusBadRequest
	case ReasonNotAuthenticated:
		return http.StatusUnauthorized
	case ReasonNotAuthorized, ReasonOwnerOnly:
		return http.StatusForbidden
	case ReasonNotFound, ReasonUserNotFound:
		return http.StatusNotFound
	case ReasonCorruptOwner:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Message is the client-visible text for a denial; internal detail stays in
// server logs.
func Message(reason Reason) string {
	switch reason {
	case ReasonValidation:
		return "Invalid request"
	case ReasonNotAuthenticated:
		return "User not authenticated"
	case ReasonNotAuthorized:
		return "Not authorized to access this project"
	case ReasonOwnerOnly:
		return "Only the project owner can do this"
	case ReasonNotFound:
		return "Not found"
	case ReasonDuplicateMember:
		return "User already in project"
	case ReasonUserNotFound:
		return "User not found with this email"
	case ReasonCorruptOwner:
		return "Project data corrupted: no owner found"
	default:
		return "Internal server error"
	}
}
