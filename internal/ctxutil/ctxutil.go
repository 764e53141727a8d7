package ctxutil

import (
	"context"
	"time"

	"github.com/campusbook/classwork/internal/models"
)

// private keys to avoid collisions
type key int

const (
	keyPrincipal key = iota
	keyOpName
)

// WithPrincipal / Principal carry the authenticated caller through a request.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, keyPrincipal, p)
}

func Principal(ctx context.Context) (models.Principal, bool) {
	v := ctx.Value(keyPrincipal)
	if v == nil {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

// WithOp / Op carry the operation name for logs.
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v := ctx.Value(keyOpName)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

var DefaultDBTimeout = 5 * time.Second

// WithDBTimeout caps a DB call at DefaultDBTimeout, or at the parent's
// remaining deadline when that is shorter.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		if remain := time.Until(dl); remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
