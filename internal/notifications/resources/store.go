// internal/notifications/resources/store.go
package resources

import (
	"context"
	"database/sql"

	"notification-engine/internal/common/errors"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/models"

	"github.com/lib/pq"
)

// Current-version rows only; soft-deleted entities never surface in
// notification text.
const (
	usersQuery = `SELECT user_id, name, handle, COALESCE(profile_picture_url, '')
		FROM users
		WHERE is_current = TRUE AND is_deactivated = FALSE AND user_id = ANY($1)`

	tracksQuery = `SELECT track_id, title, owner_id, COALESCE(cover_art_url, ''), is_price_gated
		FROM tracks
		WHERE is_current = TRUE AND is_delete = FALSE AND track_id = ANY($1)`

	playlistsQuery = `SELECT playlist_id, playlist_name, owner_id, is_album, COALESCE(cover_art_url, '')
		FROM playlists
		WHERE is_current = TRUE AND is_delete = FALSE AND playlist_id = ANY($1)`
)

// Store resolves the minimal denormalized entity views referenced by
// notification text and email props.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "resource-store"}),
	}
}

// Resolved is the per-kind lookup table handed to FormatEmailProps and the
// message builders. Absent keys mean the entity is deleted or unknown.
type Resolved struct {
	Users     map[int64]*models.UserResource
	Tracks    map[int64]*models.TrackResource
	Playlists map[int64]*models.PlaylistResource
}

func newResolved() *Resolved {
	return &Resolved{
		Users:     map[int64]*models.UserResource{},
		Tracks:    map[int64]*models.TrackResource{},
		Playlists: map[int64]*models.PlaylistResource{},
	}
}

// Resolve performs at most one bulk query per entity kind.
func (s *Store) Resolve(ctx context.Context, needs Needs) (*Resolved, error) {
	out := newResolved()

	if ids := needs.userIDs(); len(ids) > 0 {
		rows, err := s.db.QueryContext(ctx, usersQuery, pq.Array(ids))
		if err != nil {
			return nil, errors.NewEntityLookupFailedError(string(models.EntityUser), err)
		}
		if err := scanUsers(rows, out.Users); err != nil {
			return nil, errors.NewEntityLookupFailedError(string(models.EntityUser), err)
		}
	}

	if ids := needs.trackIDs(); len(ids) > 0 {
		rows, err := s.db.QueryContext(ctx, tracksQuery, pq.Array(ids))
		if err != nil {
			return nil, errors.NewEntityLookupFailedError(string(models.EntityTrack), err)
		}
		if err := scanTracks(rows, out.Tracks); err != nil {
			return nil, errors.NewEntityLookupFailedError(string(models.EntityTrack), err)
		}
	}

	if ids := needs.playlistIDs(); len(ids) > 0 {
		rows, err := s.db.QueryContext(ctx, playlistsQuery, pq.Array(ids))
		if err != nil {
			return nil, errors.NewEntityLookupFailedError(string(models.EntityPlaylist), err)
		}
		if err := scanPlaylists(rows, out.Playlists); err != nil {
			return nil, errors.NewEntityLookupFailedError(string(models.EntityPlaylist), err)
		}
	}

	return out, nil
}

func scanUsers(rows *sql.Rows, out map[int64]*models.UserResource) error {
	defer rows.Close()
	for rows.Next() {
		u := &models.UserResource{}
		if err := rows.Scan(&u.UserID, &u.Name, &u.Handle, &u.ImageURL); err != nil {
			return err
		}
		out[u.UserID] = u
	}
	return rows.Err()
}

func scanTracks(rows *sql.Rows, out map[int64]*models.TrackResource) error {
	defer rows.Close()
	for rows.Next() {
		t := &models.TrackResource{}
		if err := rows.Scan(&t.TrackID, &t.Title, &t.OwnerID, &t.CoverArtURL, &t.IsPriceGated); err != nil {
			return err
		}
		out[t.TrackID] = t
	}
	return rows.Err()
}

func scanPlaylists(rows *sql.Rows, out map[int64]*models.PlaylistResource) error {
	defer rows.Close()
	for rows.Next() {
		p := &models.PlaylistResource{}
		if err := rows.Scan(&p.PlaylistID, &p.Name, &p.OwnerID, &p.IsAlbum, &p.CoverArtURL); err != nil {
			return err
		}
		out[p.PlaylistID] = p
	}
	return rows.Err()
}
