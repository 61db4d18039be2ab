// Package session stores per-browser key/value state server side, keyed by
// a random session id carried in a cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/internal/query"
	"github.com/fleetdesk/taxi/orm"
)

// CookieName is the cookie that carries the session id.
const CookieName = "sessionid"

// VisitsKey counts index page loads within a session.
const VisitsKey = "num_visits"

var (
	// ErrInvalid is returned for ids that are missing, malformed, unknown or expired.
	ErrInvalid = errors.New("session: invalid")
)

// Store persists sessions and their values.
type Store struct {
	db  orm.Querier
	ttl time.Duration
}

// NewStore returns a store whose new sessions live for ttl.
func NewStore(db orm.Querier, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl}
}

// Create opens a session for driverID.
func (s *Store) Create(ctx context.Context, driverID int) (model.Session, error) {
	now := orm.Now(ctx)
	sess := model.Session{
		ID:        uuid.NewString(),
		DriverID:  driverID,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(s.ttl).UnixMilli(),
	}
	if err := query.Sessions(s.db).Create(ctx, &sess); err != nil {
		return model.Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Get returns the live session with id. Expired sessions are removed and
// reported as ErrInvalid.
func (s *Store) Get(ctx context.Context, id string) (model.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Session{}, ErrInvalid
	}
	sess, err := query.Sessions(s.db).WherePK(id).First(ctx)
	if errors.Is(err, orm.ErrNotFound) {
		return model.Session{}, ErrInvalid
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(orm.Now(ctx)) {
		if err := s.Delete(ctx, id); err != nil {
			return model.Session{}, err
		}
		return model.Session{}, ErrInvalid
	}
	return sess, nil
}

// Delete removes the session and its values. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := query.Sessions(s.db).WherePK(id).DeleteCount(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges every session past its expiry.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := query.Sessions(s.db).Where("expires_at <= ?", orm.Now(ctx).UnixMilli()).DeleteCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}

// Load reads every value of the session.
func (s *Store) Load(ctx context.Context, sessionID string) (*State, error) {
	rows, err := query.SessionValues(s.db).Where("session_id = ?", sessionID).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session values: %w", err)
	}
	st := &State{sessionID: sessionID, values: make(map[string]string, len(rows)), dirty: map[string]bool{}}
	for _, r := range rows {
		st.values[r.Key] = r.Value
	}
	return st, nil
}

// Save writes the values changed since Load in one transaction.
func (s *Store) Save(ctx context.Context, st *State) error {
	if len(st.dirty) == 0 {
		return nil
	}
	err := orm.InTransaction(ctx, s.db, func(q orm.Querier) error {
		for key := range st.dirty {
			v := model.SessionValue{SessionID: st.sessionID, Key: key, Value: st.values[key]}
			if err := query.SessionValues(q).OnConflict("session_id", "name").Upsert(ctx, &v); err != nil {
				return err //nolint:wrapcheck // wrapped below
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session values: %w", err)
	}
	clear(st.dirty)
	return nil
}

// State is the value set of one session as read by Load.
type State struct {
	sessionID string
	values    map[string]string
	dirty     map[string]bool
}

func (st *State) SessionID() string { return st.sessionID }

func (st *State) Get(key string) (string, bool) {
	v, ok := st.values[key]
	return v, ok
}

func (st *State) Set(key, value string) {
	st.values[key] = value
	st.dirty[key] = true
}

// Int returns the value of key as an integer, or def when it is absent or
// not a number.
func (st *State) Int(key string, def int) int {
	v, ok := st.values[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (st *State) SetInt(key string, n int) {
	st.Set(key, strconv.Itoa(n))
}
