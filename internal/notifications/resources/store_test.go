// internal/notifications/resources/store_test.go
package resources

import (
	"context"
	"testing"

	"notification-engine/internal/common/errors"
	"notification-engine/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, logger.NewNoOpLogger()), mock
}

func TestStore_Resolve_OneBulkQueryPerEntityKind(t *testing.T) {
	store, mock := newStoreWithMock(t)

	needs := NewNeeds()
	needs.AddUser(1, 2, 1, 2)
	needs.AddTrack(10, 11)
	needs.AddPlaylist(20)

	mock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "handle", "profile_picture_url"}).
			AddRow(1, "Alice", "alice", "").
			AddRow(2, "Bob", "bob", "https://img.example/bob"))

	mock.ExpectQuery("FROM tracks").
		WillReturnRows(sqlmock.NewRows([]string{"track_id", "title", "owner_id", "cover_art_url", "is_price_gated"}).
			AddRow(10, "First Light", 1, "", false).
			AddRow(11, "Night Drive", 2, "", true))

	mock.ExpectQuery("FROM playlists").
		WillReturnRows(sqlmock.NewRows([]string{"playlist_id", "playlist_name", "owner_id", "is_album", "cover_art_url"}).
			AddRow(20, "Morning Mix", 1, false, ""))

	resolved, err := store.Resolve(context.Background(), needs)
	require.NoError(t, err)

	assert.Len(t, resolved.Users, 2)
	assert.Equal(t, "Alice", resolved.Users[1].Name)
	assert.Len(t, resolved.Tracks, 2)
	assert.True(t, resolved.Tracks[11].IsPriceGated)
	assert.Len(t, resolved.Playlists, 1)

	// Exactly three queries total, regardless of how many ids each kind
	// carried.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Resolve_SkipsEmptyKinds(t *testing.T) {
	store, mock := newStoreWithMock(t)

	needs := NewNeeds()
	needs.AddUser(5)

	mock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "handle", "profile_picture_url"}).
			AddRow(5, "Carol", "carol", ""))

	resolved, err := store.Resolve(context.Background(), needs)
	require.NoError(t, err)
	assert.Len(t, resolved.Users, 1)
	assert.Empty(t, resolved.Tracks)
	assert.Empty(t, resolved.Playlists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Resolve_LookupFailureIsRetryable(t *testing.T) {
	store, mock := newStoreWithMock(t)

	needs := NewNeeds()
	needs.AddTrack(10)

	mock.ExpectQuery("FROM tracks").WillReturnError(assert.AnError)

	_, err := store.Resolve(context.Background(), needs)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEntityLookupFailed))
	assert.True(t, errors.IsRetryable(err))
	assert.False(t, errors.IsBatchFatal(err))
}

type fakeProvider struct {
	needs Needs
}

func (f fakeProvider) ResourcesForEmail() Needs { return f.needs }

func TestAggregator_Resolve_UnionsProviderNeeds(t *testing.T) {
	store, mock := newStoreWithMock(t)
	aggregator := NewAggregator(store)

	a := NewNeeds()
	a.AddUser(1)
	a.AddTrack(10)
	b := NewNeeds()
	b.AddUser(1, 2)
	b.AddTrack(10)

	mock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "handle", "profile_picture_url"}).
			AddRow(1, "Alice", "alice", "").
			AddRow(2, "Bob", "bob", ""))
	mock.ExpectQuery("FROM tracks").
		WillReturnRows(sqlmock.NewRows([]string{"track_id", "title", "owner_id", "cover_art_url", "is_price_gated"}).
			AddRow(10, "First Light", 1, "", false))

	resolved, err := aggregator.Resolve(context.Background(),
		fakeProvider{needs: a}, fakeProvider{needs: b})
	require.NoError(t, err)

	// Two providers sharing entities cost one users query and one tracks
	// query, not one pair per provider.
	assert.Len(t, resolved.Users, 2)
	assert.Len(t, resolved.Tracks, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNeeds_Merge(t *testing.T) {
	a := NewNeeds()
	a.AddUser(1)
	b := NewNeeds()
	b.AddUser(2)
	b.AddPlaylist(30)

	a.Merge(b)
	assert.Len(t, a.Users, 2)
	assert.Len(t, a.Playlists, 1)

	// Non-positive ids never make it into a bulk query.
	a.AddUser(0, -5)
	assert.Len(t, a.Users, 2)
}
