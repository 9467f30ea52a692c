// Package identity normalizes mail addresses into stable contact keys and
// maintains the deduplicated identity records behind them.
package identity

import (
	"context"
	"strings"

	"missive/internal/model"
	"missive/internal/store"
)

// refPrefix marks a resolved identity reference on a message.
const refPrefix = "identity:"

// Key normalizes a mail address into a stable identity key: surrounding
// whitespace is trimmed, the address is lowercased, and every character
// outside [a-z0-9] becomes an underscore. The same address always yields the
// same key.
func Key(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Ref returns the reference string stored on messages for a resolved key.
func Ref(key string) string {
	return refPrefix + key
}

// Resolver maps addresses seen on messages to stored identity records.
type Resolver struct {
	store store.Store
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve upserts the identity for an address and returns its reference.
// A display name seen on any message sticks to the identity; a message
// without one never clears a previously seen name. Empty addresses resolve
// to an empty reference without touching the store.
func (r *Resolver) Resolve(ctx context.Context, email, name string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", nil
	}

	key := Key(email)
	err := r.store.UpsertIdentity(ctx, model.Identity{
		Key:   key,
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  strings.TrimSpace(name),
	})
	if err != nil {
		return "", err
	}

	return Ref(key), nil
}

// ResolveAll resolves a list of addresses, preserving order. The returned
// slice has one reference per input address; unresolvable (empty) addresses
// contribute an empty string.
func (r *Resolver) ResolveAll(
	ctx context.Context,
	addrs []model.Address,
) ([]string, error) {
	if len(addrs) == 0 {
		return nil, nil
	}

	refs := make([]string, 0, len(addrs))
	for _, a := range addrs {
		ref, err := r.Resolve(ctx, a.Email, a.Name)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Annotate resolves every participant of a message and fills its identity
// reference fields in place.
func (r *Resolver) Annotate(ctx context.Context, msg *model.Message) error {
	ref, err := r.Resolve(ctx, msg.From.Email, msg.From.Name)
	if err != nil {
		return err
	}
	msg.FromIdentity = ref

	if msg.ToIdentities, err = r.ResolveAll(ctx, msg.To); err != nil {
		return err
	}
	if msg.CcIdentities, err = r.ResolveAll(ctx, msg.Cc); err != nil {
		return err
	}
	if msg.BccIdentities, err = r.ResolveAll(ctx, msg.Bcc); err != nil {
		return err
	}
	return nil
}
