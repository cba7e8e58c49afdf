// internal/models/entity.go
package models

// EntityKind names the kinds of referenced entities a variant may need for
// message text and email props.
type EntityKind string

const (
	EntityUser     EntityKind = "user"
	EntityTrack    EntityKind = "track"
	EntityPlaylist EntityKind = "playlist"
)

// UserResource is the denormalized user view used in notification text.
type UserResource struct {
	UserID   int64
	Name     string
	Handle   string
	ImageURL string
}

// TrackResource is the denormalized track view used in notification text.
type TrackResource struct {
	TrackID      int64
	Title        string
	OwnerID      int64
	CoverArtURL  string
	IsPriceGated bool
}

// PlaylistResource is the denormalized playlist/album view used in
// notification text.
type PlaylistResource struct {
	PlaylistID  int64
	Name        string
	OwnerID     int64
	IsAlbum     bool
	CoverArtURL string
}
