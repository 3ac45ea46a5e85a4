// Package store provides the bbolt-backed playback state store.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/osa030/cloudbox/internal/app/session"
	"github.com/osa030/cloudbox/internal/domain/playback"
)

var bucketSessions = []byte("sessions")

// BoltStore implements session.Store on an embedded bbolt database. One
// record per user, keyed by user ID, JSON-encoded.
//
// Narrow updates are read-modify-write cycles inside a single bolt Update
// transaction, so each individual write is atomic. There is no transaction
// spanning an engine load and a later write.
type BoltStore struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the database at path.
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create sessions bucket")
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get loads the playback state for a user.
func (s *BoltStore) Get(ctx context.Context, userID string) (*playback.State, error) {
	var st *playback.State
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSessions).Get([]byte(userID))
		if data == nil {
			return errors.Wrapf(session.ErrNoPlaybackState, "user %s", userID)
		}
		var decoded playback.State
		if err := json.Unmarshal(data, &decoded); err != nil {
			return errors.Wrapf(err, "corrupt session record for user %s", userID)
		}
		st = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Put replaces the user's record wholesale.
func (s *BoltStore) Put(ctx context.Context, userID string, st *playback.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "failed to encode session record")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(userID), data)
	})
}

// Users returns the IDs of all users with a stored session, for
// operator inspection.
func (s *BoltStore) Users(ctx context.Context) ([]string, error) {
	var users []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(k, v []byte) error {
			users = append(users, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

// SetPosition updates only the play position.
func (s *BoltStore) SetPosition(ctx context.Context, userID string, position int) error {
	return s.update(userID, func(st *playback.State) {
		st.Position = position
	})
}

// SetOffsetAndPosition updates the remembered offset and the play position
// in one write.
func (s *BoltStore) SetOffsetAndPosition(ctx context.Context, userID string, offsetMs int64, position int) error {
	return s.update(userID, func(st *playback.State) {
		st.OffsetMs = offsetMs
		st.Position = position
	})
}

// SetLooping updates only the looping flag.
func (s *BoltStore) SetLooping(ctx context.Context, userID string, looping bool) error {
	return s.update(userID, func(st *playback.State) {
		st.Looping = looping
	})
}

// update applies a field mutation to the stored record inside one bolt
// transaction. Fails with ErrNoPlaybackState when no record exists.
func (s *BoltStore) update(userID string, mutate func(*playback.State)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		data := b.Get([]byte(userID))
		if data == nil {
			return errors.Wrapf(session.ErrNoPlaybackState, "user %s", userID)
		}
		var st playback.State
		if err := json.Unmarshal(data, &st); err != nil {
			return errors.Wrapf(err, "corrupt session record for user %s", userID)
		}
		mutate(&st)
		encoded, err := json.Marshal(&st)
		if err != nil {
			return errors.Wrap(err, "failed to encode session record")
		}
		return b.Put([]byte(userID), encoded)
	})
}
