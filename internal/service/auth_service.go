package service

import (
	"context"

	"github.com/rs/zerolog"
)

// ChatKind distinguishes where a command arrived from.
type ChatKind int

const (
	ChatPrivate ChatKind = iota
	ChatGroup
)

// DenyReason tells a handler why a caller was rejected.
type DenyReason int

const (
	DenyNone DenyReason = iota
	DenyNotOwnerInPrivateChat
	DenyNotAuthorized
	DenyChannelMembershipRequired
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

var allowed = Decision{Allowed: true}

func denied(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Allowlist is the read side of the persisted allow-list.
type Allowlist interface {
	Contains(id int64) bool
}

// MembershipChecker reports whether a caller currently belongs to the
// required channel. Implementations must fail closed.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) bool
}

// Authorize is the pure allow-list gate, evaluated in order: owner bypass,
// private-chat rejection, allow-list membership. It performs no I/O.
func Authorize(callerID int64, kind ChatKind, ownerID int64, allowlist Allowlist, requireAllowlist bool) Decision {
	if callerID == ownerID {
		return allowed
	}
	if kind == ChatPrivate {
		return denied(DenyNotOwnerInPrivateChat)
	}
	if requireAllowlist && (allowlist == nil || !allowlist.Contains(callerID)) {
		return denied(DenyNotAuthorized)
	}
	return allowed
}

// AuthService composes the pure gate with the live channel-membership
// check. Both checks are independently switchable.
type AuthService struct {
	ownerID          int64
	requireAllowlist bool
	requireChannel   bool
	allowlist        Allowlist
	membership       MembershipChecker
	log              zerolog.Logger
}

func NewAuthService(ownerID int64, allowlist Allowlist, membership MembershipChecker, requireAllowlist, requireChannel bool, log zerolog.Logger) *AuthService {
	return &AuthService{
		ownerID:          ownerID,
		requireAllowlist: requireAllowlist,
		requireChannel:   requireChannel,
		allowlist:        allowlist,
		membership:       membership,
		log:              log,
	}
}

func (s *AuthService) IsOwner(id int64) bool {
	return id == s.ownerID
}

// Check runs the full policy for a protected command. The owner is exempt
// from everything, including the channel check.
func (s *AuthService) Check(ctx context.Context, callerID int64, kind ChatKind) Decision {
	decision := Authorize(callerID, kind, s.ownerID, s.allowlist, s.requireAllowlist)
	if !decision.Allowed {
		return decision
	}
	if callerID == s.ownerID {
		return decision
	}

	if s.requireChannel && s.membership != nil {
		if !s.membership.IsMember(ctx, callerID) {
			s.log.Debug().Int64("user", callerID).Msg("channel membership check failed")
			return denied(DenyChannelMembershipRequired)
		}
	}
	return decision
}
