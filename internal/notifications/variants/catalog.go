// internal/notifications/variants/catalog.go
package variants

import (
	"fmt"

	"notification-engine/internal/models"
	"notification-engine/internal/notifications/resources"
)

// kindRow is one catalog entry. The catalog replaces per-kind handler types
// for every kind whose behavior is fully described by data: which toggle
// gates it, which entities its text needs, how the text reads, and what the
// client deep-links on.
type kindRow struct {
	// Toggle gates mobile and browser push. FeatureNone means the kind
	// has no user-facing toggle and only the generic checks apply.
	Toggle models.Feature

	// Emails marks kinds that produce a live transactional email.
	Emails bool

	// SenderKey names the payload field carrying the acting user, whose
	// abuse flag suppresses mobile and email. Empty for system kinds.
	SenderKey string

	// Required payload fields, validated at variant construction.
	Required []string

	Needs   func(e *models.NotificationEvent) resources.Needs
	Message func(e *models.NotificationEvent, res *resources.Resolved) (title, body string)

	// GroupedMessage renders many same-kind events as one digest line.
	// Nil falls back to the single-event message plus a count.
	GroupedMessage func(events []*models.NotificationEvent, res *resources.Resolved) (title, body string)

	// Data builds the discriminated deep-link block tagged by kind.
	Data func(e *models.NotificationEvent) map[string]interface{}
}

// needsNone is for kinds whose text references no stored entities.
func needsNone(*models.NotificationEvent) resources.Needs { return resources.NewNeeds() }

// needsSenderAndEntity covers the engagement kinds: acting user plus the
// entity acted on.
func needsSenderAndEntity(senderKey string) func(*models.NotificationEvent) resources.Needs {
	return func(e *models.NotificationEvent) resources.Needs {
		needs := resources.NewNeeds()
		if id, ok := e.Int64Field(senderKey); ok {
			needs.AddUser(id)
		}
		if id, ok := e.Int64Field("entityId"); ok {
			entityType, _ := e.StringField("entityType")
			if models.EntityKind(entityType) == models.EntityPlaylist {
				needs.AddPlaylist(id)
			} else {
				needs.AddTrack(id)
			}
		}
		return needs
	}
}

// deepLink copies the listed payload fields into a type-tagged block.
func deepLink(keys ...string) func(e *models.NotificationEvent) map[string]interface{} {
	return func(e *models.NotificationEvent) map[string]interface{} {
		data := map[string]interface{}{
			"type":    string(e.Type),
			"groupId": e.GroupID,
		}
		for _, key := range keys {
			if v, ok := e.Data[key]; ok {
				data[key] = v
			}
		}
		return data
	}
}

// groupedEngagement renders "X and N others <verb> <entity>".
func groupedEngagement(senderKey, verb string) func([]*models.NotificationEvent, *resources.Resolved) (string, string) {
	return func(events []*models.NotificationEvent, res *resources.Resolved) (string, string) {
		first := events[0]
		name := "Someone"
		if id, ok := first.Int64Field(senderKey); ok {
			name = userName(res, id)
		}
		entity := entityTitle(first, res)
		if len(events) == 1 {
			return "New Activity", fmt.Sprintf("%s %s %s", name, verb, entity)
		}
		return "New Activity", fmt.Sprintf("%s and %d others %s %s", name, len(events)-1, verb, entity)
	}
}

// newCatalog builds the kind table. Entries are keyed by wire kind; the
// registry rejects kinds with no row.
func newCatalog() map[models.EventKind]kindRow {
	return map[models.EventKind]kindRow{
		models.KindFollow: {
			Toggle:    models.FeatureFollowers,
			Emails:    true,
			SenderKey: "followerUserId",
			Required:  []string{"followerUserId"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("followerUserId"); ok {
					needs.AddUser(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("followerUserId")
				return "New Follower", fmt.Sprintf("%s followed you", userName(res, id))
			},
			GroupedMessage: func(events []*models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := events[0].Int64Field("followerUserId")
				if len(events) == 1 {
					return "New Follower", fmt.Sprintf("%s followed you", userName(res, id))
				}
				return "New Followers", fmt.Sprintf("%s and %d others followed you", userName(res, id), len(events)-1)
			},
			Data: deepLink("followerUserId"),
		},

		models.KindRepost: {
			Toggle:         models.FeatureReposts,
			Emails:         true,
			SenderKey:      "userId",
			Required:       []string{"userId", "entityId"},
			Needs:          needsSenderAndEntity("userId"),
			GroupedMessage: groupedEngagement("userId", "reposted"),
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("userId")
				return "New Repost", fmt.Sprintf("%s reposted %s", userName(res, id), entityTitle(e, res))
			},
			Data: deepLink("userId", "entityId", "entityType"),
		},

		models.KindRepostOfRepost: {
			Toggle:    models.FeatureReposts,
			Emails:    true,
			SenderKey: "userId",
			Required:  []string{"userId", "entityId"},
			Needs:     needsSenderAndEntity("userId"),
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("userId")
				return "New Repost", fmt.Sprintf("%s reposted your repost of %s", userName(res, id), entityTitle(e, res))
			},
			Data: deepLink("userId", "entityId", "entityType"),
		},

		models.KindSave: {
			Toggle:         models.FeatureFavorites,
			Emails:         true,
			SenderKey:      "userId",
			Required:       []string{"userId", "entityId"},
			Needs:          needsSenderAndEntity("userId"),
			GroupedMessage: groupedEngagement("userId", "favorited"),
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("userId")
				return "New Favorite", fmt.Sprintf("%s favorited %s", userName(res, id), entityTitle(e, res))
			},
			Data: deepLink("userId", "entityId", "entityType"),
		},

		models.KindSaveOfRepost: {
			Toggle:    models.FeatureFavorites,
			Emails:    true,
			SenderKey: "userId",
			Required:  []string{"userId", "entityId"},
			Needs:     needsSenderAndEntity("userId"),
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("userId")
				return "New Favorite", fmt.Sprintf("%s favorited your repost of %s", userName(res, id), entityTitle(e, res))
			},
			Data: deepLink("userId", "entityId", "entityType"),
		},

		models.KindRemix: {
			Toggle:    models.FeatureRemixes,
			Emails:    true,
			SenderKey: "userId",
			Required:  []string{"userId", "trackId", "parentTrackId"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("userId"); ok {
					needs.AddUser(id)
				}
				if id, ok := e.Int64Field("trackId"); ok {
					needs.AddTrack(id)
				}
				if id, ok := e.Int64Field("parentTrackId"); ok {
					needs.AddTrack(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				userID, _ := e.Int64Field("userId")
				parentID, _ := e.Int64Field("parentTrackId")
				return "New Remix of Your Track",
					fmt.Sprintf("%s remixed %s", userName(res, userID), trackTitle(res, parentID))
			},
			Data: deepLink("userId", "trackId", "parentTrackId"),
		},

		models.KindCosign: {
			Toggle:    models.FeatureRemixes,
			Emails:    true,
			SenderKey: "userId",
			Required:  []string{"userId", "remixTrackId"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("userId"); ok {
					needs.AddUser(id)
				}
				if id, ok := e.Int64Field("remixTrackId"); ok {
					needs.AddTrack(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				userID, _ := e.Int64Field("userId")
				remixID, _ := e.Int64Field("remixTrackId")
				return "New Co-Sign",
					fmt.Sprintf("%s co-signed your remix %s", userName(res, userID), trackTitle(res, remixID))
			},
			Data: deepLink("userId", "remixTrackId", "parentTrackId"),
		},

		// KindCreate is registered here for its catalog data but executed
		// by the bespoke publish variant, which adds the purchase gate.
		models.KindCreate: {
			Toggle:    models.FeatureNone,
			SenderKey: "userId",
			Required:  []string{"userId", "entityId"},
			Needs:     needsSenderAndEntity("userId"),
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("userId")
				return "New Artist Update",
					fmt.Sprintf("%s released %s", userName(res, id), entityTitle(e, res))
			},
			Data: deepLink("userId", "entityId", "entityType"),
		},

		models.KindComment: {
			Toggle:    models.FeatureComments,
			Emails:    true,
			SenderKey: "userId",
			Required:  []string{"userId", "entityId"},
			Needs:     needsSenderAndEntity("userId"),
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("userId")
				return "New Comment", fmt.Sprintf("%s commented on %s", userName(res, id), entityTitle(e, res))
			},
			Data: deepLink("userId", "entityId", "entityType", "commentId"),
		},

		models.KindCommentThread: {
			Toggle:    models.FeatureComments,
			Emails:    true,
			SenderKey: "userId",
			Required:  []string{"userId", "entityId"},
			Needs:     needsSenderAndEntity("userId"),
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("userId")
				return "New Reply", fmt.Sprintf("%s replied to your comment on %s", userName(res, id), entityTitle(e, res))
			},
			Data: deepLink("userId", "entityId", "entityType", "commentId"),
		},

		models.KindCommentMention: {
			Toggle:    models.FeatureMentions,
			Emails:    true,
			SenderKey: "userId",
			Required:  []string{"userId", "entityId"},
			Needs:     needsSenderAndEntity("userId"),
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("userId")
				return "New Mention", fmt.Sprintf("%s mentioned you in a comment on %s", userName(res, id), entityTitle(e, res))
			},
			Data: deepLink("userId", "entityId", "entityType", "commentId"),
		},

		models.KindCommentReaction: {
			Toggle:    models.FeatureComments,
			Emails:    true,
			SenderKey: "userId",
			Required:  []string{"userId", "entityId"},
			Needs:     needsSenderAndEntity("userId"),
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("userId")
				return "New Reaction", fmt.Sprintf("%s reacted to your comment on %s", userName(res, id), entityTitle(e, res))
			},
			Data: deepLink("userId", "entityId", "entityType", "commentId"),
		},

		models.KindMention: {
			Toggle:    models.FeatureMentions,
			Emails:    true,
			SenderKey: "userId",
			Required:  []string{"userId", "entityId"},
			Needs:     needsSenderAndEntity("userId"),
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("userId")
				return "New Mention", fmt.Sprintf("%s mentioned you on %s", userName(res, id), entityTitle(e, res))
			},
			Data: deepLink("userId", "entityId", "entityType"),
		},

		models.KindTipReceive: {
			Toggle:    models.FeatureNone,
			Emails:    true,
			SenderKey: "senderUserId",
			Required:  []string{"senderUserId", "amount"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("senderUserId"); ok {
					needs.AddUser(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("senderUserId")
				return "You Received a Tip",
					fmt.Sprintf("%s sent you a tip of %s", userName(res, id), formatAmount(e))
			},
			Data: deepLink("senderUserId", "amount"),
		},

		models.KindTipSendReaction: {
			Toggle:    models.FeatureNone,
			SenderKey: "senderUserId",
			Required:  []string{"senderUserId"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("senderUserId"); ok {
					needs.AddUser(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("senderUserId")
				return "New Reaction", fmt.Sprintf("%s reacted to your tip", userName(res, id))
			},
			Data: deepLink("senderUserId"),
		},

		models.KindSupporterRankUp: {
			Toggle:    models.FeatureNone,
			Emails:    true,
			SenderKey: "senderUserId",
			Required:  []string{"senderUserId", "rank"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("senderUserId"); ok {
					needs.AddUser(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("senderUserId")
				rank, _ := e.Int64Field("rank")
				return "New Top Supporter",
					fmt.Sprintf("%s became your #%d top supporter", userName(res, id), rank)
			},
			Data: deepLink("senderUserId", "rank"),
		},

		models.KindSupportingRankUp: {
			Toggle:    models.FeatureNone,
			Emails:    true,
			SenderKey: "receiverUserId",
			Required:  []string{"receiverUserId", "rank"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("receiverUserId"); ok {
					needs.AddUser(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				id, _ := e.Int64Field("receiverUserId")
				rank, _ := e.Int64Field("rank")
				return "Top Supporter",
					fmt.Sprintf("You're now %s's #%d top supporter", userName(res, id), rank)
			},
			Data: deepLink("receiverUserId", "rank"),
		},

		models.KindSupporterDethroned: {
			Toggle:    models.FeatureNone,
			Emails:    true,
			SenderKey: "usurperUserId",
			Required:  []string{"usurperUserId", "receiverUserId"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("usurperUserId"); ok {
					needs.AddUser(id)
				}
				if id, ok := e.Int64Field("receiverUserId"); ok {
					needs.AddUser(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				usurperID, _ := e.Int64Field("usurperUserId")
				receiverID, _ := e.Int64Field("receiverUserId")
				return "You've Been Dethroned",
					fmt.Sprintf("%s dethroned you as %s's #1 top supporter", userName(res, usurperID), userName(res, receiverID))
			},
			Data: deepLink("usurperUserId", "receiverUserId"),
		},

		models.KindChallengeReward: {
			Toggle:   models.FeatureNone,
			Required: []string{"challengeId"},
			Needs:    needsNone,
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				return "You've Earned a Reward",
					fmt.Sprintf("You've earned %s for completing a challenge", formatAmount(e))
			},
			Data: deepLink("challengeId", "amount"),
		},

		models.KindClaimableReward: {
			Toggle:   models.FeatureNone,
			Required: []string{"challengeId"},
			Needs:    needsNone,
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				return "Reward Ready to Claim", "You have a reward waiting to be claimed"
			},
			Data: deepLink("challengeId"),
		},

		models.KindTierChange: {
			Toggle:   models.FeatureMilestones,
			Required: []string{"tier"},
			Needs:    needsNone,
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				tier, _ := e.StringField("tier")
				return "Tier Upgrade", fmt.Sprintf("Congrats, you've reached %s tier", tier)
			},
			Data: deepLink("tier"),
		},

		models.KindMilestone: {
			Toggle:   models.FeatureMilestones,
			Emails:   true,
			Required: []string{"milestoneType", "threshold"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				milestoneType, _ := e.StringField("milestoneType")
				if milestoneType == "follower_count" {
					return needs
				}
				if id, ok := e.Int64Field("entityId"); ok {
					entityType, _ := e.StringField("entityType")
					if models.EntityKind(entityType) == models.EntityPlaylist {
						needs.AddPlaylist(id)
					} else {
						needs.AddTrack(id)
					}
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				milestoneType, _ := e.StringField("milestoneType")
				threshold, _ := e.Int64Field("threshold")
				switch milestoneType {
				case "follower_count":
					return "Congratulations", fmt.Sprintf("You have reached over %d followers", threshold)
				case "listen_count":
					return "Congratulations", fmt.Sprintf("%s has reached over %d listens", entityTitle(e, res), threshold)
				case "favorite_count":
					return "Congratulations", fmt.Sprintf("%s has reached over %d favorites", entityTitle(e, res), threshold)
				case "repost_count":
					return "Congratulations", fmt.Sprintf("%s has reached over %d reposts", entityTitle(e, res), threshold)
				default:
					return "Congratulations", fmt.Sprintf("%s hit a new milestone", entityTitle(e, res))
				}
			},
			Data: deepLink("milestoneType", "threshold", "entityId", "entityType"),
		},

		models.KindAddTrackToPlaylist: {
			Toggle:    models.FeatureNone,
			Emails:    true,
			SenderKey: "playlistOwnerId",
			Required:  []string{"trackId", "playlistId", "playlistOwnerId"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("playlistOwnerId"); ok {
					needs.AddUser(id)
				}
				if id, ok := e.Int64Field("trackId"); ok {
					needs.AddTrack(id)
				}
				if id, ok := e.Int64Field("playlistId"); ok {
					needs.AddPlaylist(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				ownerID, _ := e.Int64Field("playlistOwnerId")
				trackID, _ := e.Int64Field("trackId")
				playlistID, _ := e.Int64Field("playlistId")
				return "Your Track Got on a Playlist",
					fmt.Sprintf("%s added %s to their playlist %s",
						userName(res, ownerID), trackTitle(res, trackID), playlistName(res, playlistID))
			},
			Data: deepLink("trackId", "playlistId", "playlistOwnerId"),
		},

		models.KindTrackAddedToPurchasedAlbum: {
			Toggle:   models.FeatureNone,
			Emails:   true,
			Required: []string{"trackId", "playlistId"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("trackId"); ok {
					needs.AddTrack(id)
				}
				if id, ok := e.Int64Field("playlistId"); ok {
					needs.AddPlaylist(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				trackID, _ := e.Int64Field("trackId")
				playlistID, _ := e.Int64Field("playlistId")
				return "New Track on a Purchased Album",
					fmt.Sprintf("%s was added to %s, an album you purchased",
						trackTitle(res, trackID), playlistName(res, playlistID))
			},
			Data: deepLink("trackId", "playlistId"),
		},

		models.KindTrending: {
			Toggle:   models.FeatureMilestones,
			Required: []string{"trackId", "rank"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("trackId"); ok {
					needs.AddTrack(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				trackID, _ := e.Int64Field("trackId")
				rank, _ := e.Int64Field("rank")
				return "Your Track Is Trending",
					fmt.Sprintf("%s is #%d on Trending right now", trackTitle(res, trackID), rank)
			},
			Data: deepLink("trackId", "rank"),
		},

		models.KindTrendingPlaylist: {
			Toggle:   models.FeatureMilestones,
			Required: []string{"playlistId", "rank"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("playlistId"); ok {
					needs.AddPlaylist(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				playlistID, _ := e.Int64Field("playlistId")
				rank, _ := e.Int64Field("rank")
				return "Your Playlist Is Trending",
					fmt.Sprintf("%s is #%d on Trending Playlists right now", playlistName(res, playlistID), rank)
			},
			Data: deepLink("playlistId", "rank"),
		},

		models.KindTrendingUnderground: {
			Toggle:   models.FeatureMilestones,
			Required: []string{"trackId", "rank"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("trackId"); ok {
					needs.AddTrack(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				trackID, _ := e.Int64Field("trackId")
				rank, _ := e.Int64Field("rank")
				return "Your Track Is Trending",
					fmt.Sprintf("%s is #%d on Underground Trending right now", trackTitle(res, trackID), rank)
			},
			Data: deepLink("trackId", "rank"),
		},

		// KindAnnouncement is registered for its catalog data but executed
		// by the bespoke broadcast variant, which paginates recipients.
		models.KindAnnouncement: {
			Toggle:   models.FeatureAnnouncements,
			Required: []string{"title"},
			Needs:    needsNone,
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				title, _ := e.StringField("title")
				body, _ := e.StringField("shortDescription")
				return title, body
			},
			Data: deepLink("title", "shortDescription"),
		},

		models.KindUSDCPurchaseBuyer: {
			Toggle:    models.FeatureNone,
			Emails:    true,
			SenderKey: "sellerUserId",
			Required:  []string{"contentId", "sellerUserId"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("sellerUserId"); ok {
					needs.AddUser(id)
				}
				if id, ok := e.Int64Field("contentId"); ok {
					contentType, _ := e.StringField("contentType")
					if models.EntityKind(contentType) == models.EntityPlaylist {
						needs.AddPlaylist(id)
					} else {
						needs.AddTrack(id)
					}
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				sellerID, _ := e.Int64Field("sellerUserId")
				contentID, _ := e.Int64Field("contentId")
				return "Purchase Successful",
					fmt.Sprintf("You just purchased %s from %s", trackTitle(res, contentID), userName(res, sellerID))
			},
			Data: deepLink("contentId", "contentType", "sellerUserId"),
		},

		models.KindUSDCPurchaseSeller: {
			Toggle:    models.FeatureNone,
			Emails:    true,
			SenderKey: "buyerUserId",
			Required:  []string{"contentId", "buyerUserId"},
			Needs: func(e *models.NotificationEvent) resources.Needs {
				needs := resources.NewNeeds()
				if id, ok := e.Int64Field("buyerUserId"); ok {
					needs.AddUser(id)
				}
				if id, ok := e.Int64Field("contentId"); ok {
					needs.AddTrack(id)
				}
				return needs
			},
			Message: func(e *models.NotificationEvent, res *resources.Resolved) (string, string) {
				buyerID, _ := e.Int64Field("buyerUserId")
				contentID, _ := e.Int64Field("contentId")
				return "Content Sold",
					fmt.Sprintf("Congrats, %s just bought %s", userName(res, buyerID), trackTitle(res, contentID))
			},
			Data: deepLink("contentId", "contentType", "buyerUserId", "amount"),
		},
	}
}
