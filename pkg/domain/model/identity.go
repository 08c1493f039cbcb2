package model

import "context"

// Identity decides which backend owns the caller's records. It is either
// Anonymous (local store) or Authenticated (remote store).
type Identity interface {
	isIdentity()
	String() string
}

// Anonymous is the identity of a caller without a verified account
type Anonymous struct{}

func (Anonymous) isIdentity() {}

func (Anonymous) String() string { return "anonymous" }

// Authenticated is a verified user. UserID scopes the cloud collection and
// blob namespace.
type Authenticated struct {
	UserID string
}

func (Authenticated) isIdentity() {}

func (a Authenticated) String() string { return "user:" + a.UserID }

// NewIdentity returns Anonymous for an empty uid, Authenticated otherwise
func NewIdentity(uid string) Identity {
	if uid == "" {
		return Anonymous{}
	}
	return Authenticated{UserID: uid}
}

type identityKey struct{}

// ContextWithIdentity stores the identity in the context
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored in ctx, or Anonymous
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok && id != nil {
		return id
	}
	return Anonymous{}
}
