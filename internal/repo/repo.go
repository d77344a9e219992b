// Package repo implements the offline-first record repositories.
//
// Every mutation follows the same shape: when the network monitor says
// online, write through the remote store and refresh the local cache
// with the authoritative row; when offline, or when the remote write
// fails for any reason, write locally and queue the mutation for
// replay. Reads prefer the remote copy and fall back to the local
// cache silently on connectivity failures.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/model"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/remote"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/syncqueue"
)

// ErrUsernameTaken is returned by Users.Create when the requested
// username already exists, compared case-insensitively.
var ErrUsernameTaken = errors.New("repo: username already taken")

// Onliner reports the effective connectivity state. The network
// monitor satisfies this.
type Onliner interface {
	Online() bool
}

// record is any entity that can produce its canonical column map.
type record interface {
	Values() map[string]any
}

// Deps wires a repository set.
type Deps struct {
	Local  *localstore.Store
	Remote remote.Store
	Queue  *syncqueue.Queue
	Net    Onliner
	Logger zerolog.Logger
}

// Repositories bundles one repository per entity family, all sharing
// the same stores and queue.
type Repositories struct {
	Users         *Users
	QuizAttempts  *QuizAttempts
	Achievements  *Achievements
	CustomQuizzes *CustomQuizzes
	Notes         *Notes
	Todos         *Todos
	Pomodoro      *Pomodoro
	Notifications *Notifications
	BugReports    *BugReports
	ActivityLogs  *ActivityLogs
	Settings      *Settings
	LoginHistory  *LoginHistory
}

// New creates the repository set.
func New(deps Deps) *Repositories {
	b := &base{
		local:  deps.Local,
		remote: deps.Remote,
		queue:  deps.Queue,
		net:    deps.Net,
		log:    deps.Logger,
	}
	return &Repositories{
		Users:         &Users{base: b},
		QuizAttempts:  &QuizAttempts{base: b},
		Achievements:  &Achievements{base: b},
		CustomQuizzes: &CustomQuizzes{base: b},
		Notes:         &Notes{base: b},
		Todos:         &Todos{base: b},
		Pomodoro:      &Pomodoro{base: b},
		Notifications: &Notifications{base: b},
		BugReports:    &BugReports{base: b},
		ActivityLogs:  &ActivityLogs{base: b},
		Settings:      &Settings{base: b},
		LoginHistory:  &LoginHistory{base: b},
	}
}

type base struct {
	local  *localstore.Store
	remote remote.Store
	queue  *syncqueue.Queue
	net    Onliner
	log    zerolog.Logger
}

func (b *base) online() bool {
	return b.net.Online()
}

// create inserts rec, writing through to the remote when online. The
// remote's returned row is scanned back into rec so defaulted columns
// come back authoritative; any remote failure, connectivity or a
// rejected statement, falls back to the local-plus-queue path so the
// write is never lost.
func (b *base) create(ctx context.Context, table, userID string, rec record) error {
	values := rec.Values()
	recordID := fmt.Sprintf("%v", values["id"])

	if b.online() {
		err := b.remote.Insert(ctx, rec, table, values)
		if err == nil {
			return b.cacheOne(ctx, table, rec)
		}
		b.fallbackLog(err, table, "insert")
	}

	if err := b.local.ReplaceRow(ctx, table, values); err != nil {
		return err
	}
	_, err := b.queue.Enqueue(ctx, userID, table, recordID, syncqueue.OpInsert, values)
	return err
}

// update applies rec's full column map to its existing row. Returns
// remote.ErrNotFound when the row is gone remotely.
func (b *base) update(ctx context.Context, table, userID string, rec record) error {
	values := rec.Values()
	recordID := fmt.Sprintf("%v", values["id"])

	if b.online() {
		err := b.remote.Update(ctx, rec, table, recordID, values)
		if err == nil {
			return b.cacheOne(ctx, table, rec)
		}
		if remote.IsNotFound(err) {
			return err
		}
		b.fallbackLog(err, table, "update")
	}

	if err := b.local.ReplaceRow(ctx, table, values); err != nil {
		return err
	}
	_, err := b.queue.Enqueue(ctx, userID, table, recordID, syncqueue.OpUpdate, values)
	return err
}

// upsert inserts or updates rec keyed on conflictColumn. Offline, the
// existing local row's identity is adopted so replay becomes an update
// instead of a conflicting insert that would discard the new values.
func (b *base) upsert(ctx context.Context, table, conflictColumn, userID string, rec record) error {
	values := rec.Values()

	if b.online() {
		err := b.remote.Upsert(ctx, rec, table, conflictColumn, values)
		if err == nil {
			return b.cacheOne(ctx, table, rec)
		}
		b.fallbackLog(err, table, "upsert")
	}

	op := syncqueue.OpInsert
	var existing struct {
		ID        string          `db:"id"`
		CreatedAt model.Timestamp `db:"created_at"`
	}
	query := fmt.Sprintf("SELECT id, created_at FROM %s WHERE %q = ?", table, conflictColumn)
	err := b.local.Get(ctx, &existing, query, localstore.EncodeValue(values[conflictColumn]))
	switch {
	case err == nil:
		op = syncqueue.OpUpdate
		values["id"] = existing.ID
		values["created_at"] = existing.CreatedAt
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("failed to check existing %s row: %w", table, err)
	}

	if err := b.local.ReplaceRow(ctx, table, values); err != nil {
		return err
	}
	recordID := fmt.Sprintf("%v", values["id"])
	if _, err := b.queue.Enqueue(ctx, userID, table, recordID, op, values); err != nil {
		return err
	}
	// Hand the caller the row as stored, id included.
	return b.local.Get(ctx, rec, fmt.Sprintf("SELECT * FROM %s WHERE id = ?", table), recordID)
}

// delete removes the row locally no matter what, then removes it
// remotely. Every unsuccessful remote delete queues the removal; a
// locally deleted row with no queued DELETE would come back from the
// remote on the next cached read.
func (b *base) delete(ctx context.Context, table, userID, id string) error {
	if err := b.local.DeleteRow(ctx, table, id); err != nil {
		return err
	}

	if b.online() {
		err := b.remote.Delete(ctx, table, id)
		if err == nil {
			return nil
		}
		b.fallbackLog(err, table, "delete")
	}

	_, err := b.queue.Enqueue(ctx, userID, table, id, syncqueue.OpDelete, nil)
	return err
}

// fallbackLog records why a remote write is being retried through the
// queue. Connectivity drops are routine; a rejected statement is worth
// a louder line.
func (b *base) fallbackLog(err error, table, op string) {
	if remote.IsUnavailable(err) {
		b.log.Debug().Err(err).Str("table", table).Str("op", op).Msg("remote unreachable, falling back to local write")
		return
	}
	b.log.Warn().Err(err).Str("table", table).Str("op", op).Msg("remote rejected write, falling back to local write")
}

// get fetches a single row by id into rec, preferring the remote copy
// and refreshing the cache with it. The returned bool is false when
// the row does not exist anywhere reachable.
func (b *base) get(ctx context.Context, table, id string, rec record) (bool, error) {
	if b.online() {
		err := b.remote.Get(ctx, rec, table, id)
		switch {
		case err == nil:
			return true, b.cacheOne(ctx, table, rec)
		case remote.IsNotFound(err):
			return false, nil
		case remote.IsUnavailable(err):
			b.log.Debug().Err(err).Str("table", table).Msg("remote unreachable, reading locally")
		default:
			return false, err
		}
	}
	return b.getLocal(ctx, table, id, rec)
}

func (b *base) getLocal(ctx context.Context, table, id string, rec record) (bool, error) {
	err := b.local.Get(ctx, rec, fmt.Sprintf("SELECT * FROM %s WHERE id = ?", table), id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s from local store: %w", table, err)
	}
	return true, nil
}

// cacheOne refreshes the local copy of rec. Cache refresh failures are
// logged rather than surfaced; the authoritative write already landed.
func (b *base) cacheOne(ctx context.Context, table string, rec record) error {
	if err := b.local.ReplaceRow(ctx, table, rec.Values()); err != nil {
		b.log.Warn().Err(err).Str("table", table).Msg("failed to refresh local cache")
	}
	return nil
}

// remoteList reports whether a remote list query succeeded; a
// connectivity failure means the caller should read locally instead.
func (b *base) remoteList(ctx context.Context, dest any, table string, q remote.Query) (bool, error) {
	if !b.online() {
		return false, nil
	}
	err := b.remote.Select(ctx, dest, table, q)
	if err == nil {
		return true, nil
	}
	if remote.IsUnavailable(err) {
		b.log.Debug().Err(err).Str("table", table).Msg("remote unreachable, listing locally")
		return false, nil
	}
	return false, err
}
