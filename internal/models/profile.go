// internal/models/profile.go
package models

// Feature is a per-feature notification toggle key. Kinds without a
// dedicated toggle (tips, rank-ups, purchases, rewards) carry FeatureNone
// and are gated only by the generic abuse/device checks.
type Feature string

const (
	FeatureNone          Feature = ""
	FeatureFavorites     Feature = "favorites"
	FeatureReposts       Feature = "reposts"
	FeatureFollowers     Feature = "followers"
	FeatureRemixes       Feature = "remixes"
	FeatureComments      Feature = "comments"
	FeatureMentions      Feature = "mentions"
	FeatureMilestones    Feature = "milestonesAndAchievements"
	FeatureAnnouncements Feature = "announcements"
)

// PlatformType identifies the mobile push platform of a registered device.
type PlatformType string

const (
	PlatformIOS     PlatformType = "ios"
	PlatformAndroid PlatformType = "android"
)

// EmailFrequency controls live versus digest email delivery. Only Live
// produces a send from this engine; Daily/Weekly belong to the digest jobs.
type EmailFrequency string

const (
	EmailOff    EmailFrequency = "off"
	EmailLive   EmailFrequency = "live"
	EmailDaily  EmailFrequency = "daily"
	EmailWeekly EmailFrequency = "weekly"
)

// DeviceToken is one enabled mobile push registration. Enabled flips to
// false in-memory when the provider reports the endpoint permanently gone,
// so later events in the same batch skip it.
type DeviceToken struct {
	PlatformType   PlatformType
	EndpointHandle string
	Enabled        bool
}

// BrowserSubscription is one web-push subscription keyed by endpoint.
type BrowserSubscription struct {
	Endpoint  string
	P256DHKey string
	AuthKey   string
	Enabled   bool
}

// MobileProfile holds a user's device registrations and mobile toggles.
type MobileProfile struct {
	FeatureToggles map[Feature]bool
	Devices        []*DeviceToken
}

// BrowserProfile holds a user's browser subscriptions and browser toggles.
type BrowserProfile struct {
	FeatureToggles map[Feature]bool
	Subscriptions  []*BrowserSubscription
}

// EmailProfile holds a user's email address and frequency setting. Address
// is empty when the user row itself is missing, in which case no email is
// sendable regardless of frequency.
type EmailProfile struct {
	Address   string
	Frequency EmailFrequency
}

// RecipientChannelProfile is the per-user channel eligibility view built
// once per batch by the settings resolver and passed read-only into every
// variant's Process (device Enabled flags are the one mutable exception).
type RecipientChannelProfile struct {
	UserID             int64
	Mobile             MobileProfile
	Browser            BrowserProfile
	Email              EmailProfile
	IsAbusive          bool
	IsDeactivated      bool
	IsEmailDeliverable bool
	Timezone           string
}

// EnabledDevices returns the devices still eligible for a send.
func (p *RecipientChannelProfile) EnabledDevices() []*DeviceToken {
	out := make([]*DeviceToken, 0, len(p.Mobile.Devices))
	for _, d := range p.Mobile.Devices {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// EnabledBrowserSubscriptions returns the subscriptions still eligible for
// a send.
func (p *RecipientChannelProfile) EnabledBrowserSubscriptions() []*BrowserSubscription {
	out := make([]*BrowserSubscription, 0, len(p.Browser.Subscriptions))
	for _, s := range p.Browser.Subscriptions {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// MobileToggle reports whether the given feature is enabled for mobile
// push. Features default to enabled when the user never saved a setting,
// and FeatureNone is always enabled.
func (p *RecipientChannelProfile) MobileToggle(f Feature) bool {
	return toggleEnabled(p.Mobile.FeatureToggles, f)
}

// BrowserToggle reports whether the given feature is enabled for browser
// push.
func (p *RecipientChannelProfile) BrowserToggle(f Feature) bool {
	return toggleEnabled(p.Browser.FeatureToggles, f)
}

func toggleEnabled(toggles map[Feature]bool, f Feature) bool {
	if f == FeatureNone {
		return true
	}
	enabled, ok := toggles[f]
	if !ok {
		return true
	}
	return enabled
}
