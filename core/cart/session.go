package cart

import (
	"context"
	"encoding/gob"

	"github.com/alexedwards/scs/v2"
)

// SessionKey holds the anonymous shopper's cart inside the scs session.
const SessionKey = "cart"

func init() {
	gob.Register(Cart{})
}

// FromSession returns the session-held cart, or nil when there is none.
func FromSession(ctx context.Context, session *scs.SessionManager) *Cart {
	v := session.Get(ctx, SessionKey)
	c, ok := v.(Cart)
	if !ok {
		return nil
	}
	return &c
}

func ToSession(ctx context.Context, session *scs.SessionManager, c Cart) {
	session.Put(ctx, SessionKey, c)
}

func ClearSession(ctx context.Context, session *scs.SessionManager) {
	session.Remove(ctx, SessionKey)
}
