// internal/models/event.go
package models

import "time"

// EventKind discriminates which variant handles a notification event.
type EventKind string

const (
	KindFollow                     EventKind = "follow"
	KindRepost                     EventKind = "repost"
	KindRepostOfRepost             EventKind = "repost_of_repost"
	KindSave                       EventKind = "save"
	KindSaveOfRepost               EventKind = "save_of_repost"
	KindRemix                      EventKind = "remix"
	KindCosign                     EventKind = "cosign"
	KindCreate                     EventKind = "create"
	KindComment                    EventKind = "comment"
	KindCommentThread              EventKind = "comment_thread"
	KindCommentMention             EventKind = "comment_mention"
	KindCommentReaction            EventKind = "comment_reaction"
	KindMention                    EventKind = "mention"
	KindTipReceive                 EventKind = "tip_receive"
	KindTipSendReaction            EventKind = "tip_send_reaction"
	KindSupporterRankUp            EventKind = "supporter_rank_up"
	KindSupportingRankUp           EventKind = "supporting_rank_up"
	KindSupporterDethroned         EventKind = "supporter_dethroned"
	KindChallengeReward            EventKind = "challenge_reward"
	KindClaimableReward            EventKind = "claimable_reward"
	KindTierChange                 EventKind = "tier_change"
	KindMilestone                  EventKind = "milestone"
	KindAddTrackToPlaylist         EventKind = "track_added_to_playlist"
	KindTrackAddedToPurchasedAlbum EventKind = "track_added_to_purchased_album"
	KindTrending                   EventKind = "trending"
	KindTrendingPlaylist           EventKind = "trending_playlist"
	KindTrendingUnderground        EventKind = "trending_underground"
	KindAnnouncement               EventKind = "announcement"
	KindUSDCPurchaseBuyer          EventKind = "usdc_purchase_buyer"
	KindUSDCPurchaseSeller         EventKind = "usdc_purchase_seller"
)

// NotificationEvent is one event read off the queue. Immutable once parsed.
// GroupID plus Timestamp form the client-visible dedup/grouping key carried
// in every push payload.
type NotificationEvent struct {
	Type             EventKind              `json:"type"`
	Data             map[string]interface{} `json:"data"`
	RecipientUserIDs []int64                `json:"recipientUserIds"`
	Specifier        string                 `json:"specifier"`
	GroupID          string                 `json:"groupId"`
	Timestamp        time.Time              `json:"timestamp"`
}

// Int64Field reads a numeric field out of the generic payload. The queue
// encodes all numbers as JSON floats.
func (e *NotificationEvent) Int64Field(key string) (int64, bool) {
	v, ok := e.Data[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

// StringField reads a string field out of the generic payload.
func (e *NotificationEvent) StringField(key string) (string, bool) {
	v, ok := e.Data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// BoolField reads a boolean field out of the generic payload.
func (e *NotificationEvent) BoolField(key string) bool {
	v, ok := e.Data[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
