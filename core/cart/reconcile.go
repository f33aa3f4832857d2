package cart

// Source says where the resolved cart came from.
type Source int

const (
	// SourceNew is a cart created for this request.
	SourceNew Source = iota

	// SourceSession is the session-held cart; for an authenticated user
	// this means the session cart was adopted and must be persisted.
	SourceSession

	// SourcePersisted is the cart stored under the user's id.
	SourcePersisted
)

// Resolve picks the single cart the current action will mutate.
//
// A persisted cart always wins for an authenticated user; any session
// cart is considered stale once a persisted one exists. Without a
// persisted cart an authenticated user adopts the session cart, which
// then carries their id. Anonymous shoppers only ever see the session
// cart. The returned cart is a copy; callers persist it themselves when
// it carries a user id.
func Resolve(userID string, session *Cart, persisted *Cart) (Cart, Source) {
	if userID != "" {
		if persisted != nil {
			return *persisted, SourcePersisted
		}
		if session != nil {
			adopted := *session
			adopted.UserID = userID
			for i := range adopted.Items {
				adopted.Items[i].UserID = userID
			}
			return adopted, SourceSession
		}
		return New(userID), SourceNew
	}

	if session != nil {
		return *session, SourceSession
	}
	return New(""), SourceNew
}

// ResolveLogin applies the signin/signup cart policy: an existing
// persisted cart is loaded into the session and the anonymous session
// cart is discarded; otherwise a session cart is adopted and must be
// persisted. No line-level merge between two non-empty carts happens.
// The second return value says whether the cart needs persisting; a nil
// cart means the user logs in with no cart at all.
func ResolveLogin(userID string, session *Cart, persisted *Cart) (*Cart, bool) {
	if persisted != nil {
		return persisted, false
	}

	if session != nil {
		adopted, _ := Resolve(userID, session, nil)
		return &adopted, true
	}

	return nil, false
}
