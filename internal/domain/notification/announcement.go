// Package notification contains the outbound announcement model: the
// level-up and season-rollback messages and the sink they are sent
// through. Delivery lives in infrastructure/external.
package notification

import (
	"context"
	"fmt"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// MentionPolicy controls whether an announcement is allowed to ping the
// mentioned user.
type MentionPolicy string

const (
	// MentionAll lets the announcement ping mentioned users.
	MentionAll MentionPolicy = "all"

	// MentionNone renders mentions without pinging anyone.
	MentionNone MentionPolicy = "none"
)

// Announcement is one outbound message to a guild channel.
type Announcement struct {
	// ChannelID is the destination channel.
	ChannelID shared.ChannelID

	// Content is the message text.
	Content string

	// Mentions controls ping behavior for the message.
	Mentions MentionPolicy
}

// Announcer is the delivery sink for announcements.
type Announcer interface {
	// Announce sends the announcement. Delivery failures are reported,
	// never retried here; callers decide what a failed announcement
	// costs them.
	Announce(ctx context.Context, a Announcement) error
}

// onboardingHint is appended to the very first level-up of a member.
const onboardingHint = "\nYou can toggle the ping with `/toggle_ping` command"

// tempSeasonEndedText announces the automatic rollback of an expired
// temporary season.
const tempSeasonEndedText = "The temporary season has ended ! Rolling back to the previous season"

// LevelUp builds the level-up announcement for a member. Level 1 always
// pings and carries the onboarding hint; later levels honor the member's
// ping preference.
func LevelUp(channelID shared.ChannelID, userID shared.UserID, level int, xp int64, pingPreference bool) Announcement {
	content := fmt.Sprintf("Congratulations %s, you are now level **%d** with **%d** exp. ! 🎉", userID.Mention(), level, xp)

	mentions := MentionNone
	if level == 1 || pingPreference {
		mentions = MentionAll
	}
	if level == 1 {
		content += onboardingHint
	}

	return Announcement{
		ChannelID: channelID,
		Content:   content,
		Mentions:  mentions,
	}
}

// TempSeasonEnded builds the rollback announcement sent when a temporary
// season expires.
func TempSeasonEnded(channelID shared.ChannelID) Announcement {
	return Announcement{
		ChannelID: channelID,
		Content:   tempSeasonEndedText,
		Mentions:  MentionNone,
	}
}
