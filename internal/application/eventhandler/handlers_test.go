package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildhub/guild-xp-hub/internal/domain/guild"
	"github.com/guildhub/guild-xp-hub/internal/domain/member"
	"github.com/guildhub/guild-xp-hub/internal/domain/notification"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

type fakeAnnouncer struct {
	sent    []notification.Announcement
	failure error
}

func (a *fakeAnnouncer) Announce(_ context.Context, an notification.Announcement) error {
	if a.failure != nil {
		return a.failure
	}
	a.sent = append(a.sent, an)
	return nil
}

type fakeProfileRepo struct {
	profiles map[shared.UserID]*member.Profile
}

func (r *fakeProfileRepo) GetOrCreate(_ context.Context, userID shared.UserID) (*member.Profile, error) {
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	return member.NewProfile(userID)
}

func (r *fakeProfileRepo) SetPingOnLevelUp(context.Context, shared.UserID, bool) error {
	return nil
}

type fakeGuildRepo struct {
	guilds map[shared.GuildID]*guild.Guild
}

func (r *fakeGuildRepo) Get(_ context.Context, guildID shared.GuildID) (*guild.Guild, error) {
	if g, ok := r.guilds[guildID]; ok {
		return g, nil
	}
	return nil, shared.ErrGuildNotFound
}

func (r *fakeGuildRepo) GetOrCreate(ctx context.Context, guildID shared.GuildID) (*guild.Guild, error) {
	if g, err := r.Get(ctx, guildID); err == nil {
		return g, nil
	}
	return guild.NewGuild(guildID)
}

func (r *fakeGuildRepo) Update(context.Context, *guild.Guild) error { return nil }

func (r *fakeGuildRepo) TryActivateTempSeason(context.Context, shared.GuildID) (bool, error) {
	return false, nil
}

func (r *fakeGuildRepo) ClearTempSeason(context.Context, shared.GuildID) (bool, error) {
	return false, nil
}

func TestOnLevelUp_AnnouncesWithPingPreference(t *testing.T) {
	profile, err := member.NewProfile(42)
	require.NoError(t, err)
	profile.PingOnLevelUp = false

	announcer := &fakeAnnouncer{}
	h := NewOnLevelUpHandler(
		&fakeProfileRepo{profiles: map[shared.UserID]*member.Profile{42: profile}},
		announcer,
		nil,
	)

	require.NoError(t, h.Handle(shared.NewLevelUpEvent(42, 7, 5, 1250, 123)))

	require.Len(t, announcer.sent, 1)
	sent := announcer.sent[0]
	assert.Equal(t, shared.ChannelID(123), sent.ChannelID)
	assert.Equal(t, notification.MentionNone, sent.Mentions)
	assert.Contains(t, sent.Content, "level **5**")
	assert.NotContains(t, sent.Content, "/toggle_ping")
}

func TestOnLevelUp_FirstLevelAlwaysPings(t *testing.T) {
	profile, err := member.NewProfile(42)
	require.NoError(t, err)
	profile.PingOnLevelUp = false

	announcer := &fakeAnnouncer{}
	h := NewOnLevelUpHandler(
		&fakeProfileRepo{profiles: map[shared.UserID]*member.Profile{42: profile}},
		announcer,
		nil,
	)

	require.NoError(t, h.Handle(shared.NewLevelUpEvent(42, 7, 1, 105, 123)))

	require.Len(t, announcer.sent, 1)
	assert.Equal(t, notification.MentionAll, announcer.sent[0].Mentions)
	assert.Contains(t, announcer.sent[0].Content, "/toggle_ping")
}

func TestOnLevelUp_SkipsWithoutChannel(t *testing.T) {
	announcer := &fakeAnnouncer{}
	h := NewOnLevelUpHandler(&fakeProfileRepo{}, announcer, nil)

	require.NoError(t, h.Handle(shared.NewLevelUpEvent(42, 7, 2, 300, 0)))
	assert.Empty(t, announcer.sent)
}

func TestOnLevelUp_SwallowsDeliveryFailure(t *testing.T) {
	announcer := &fakeAnnouncer{failure: errors.New("discord down")}
	h := NewOnLevelUpHandler(&fakeProfileRepo{}, announcer, nil)

	assert.NoError(t, h.Handle(shared.NewLevelUpEvent(42, 7, 2, 300, 123)))
}

func TestOnTempSeasonEnded_AnnouncesRollback(t *testing.T) {
	g, err := guild.NewGuild(7)
	require.NoError(t, err)
	g.SetAnnounceChannel(55)

	announcer := &fakeAnnouncer{}
	h := NewOnTempSeasonEndedHandler(
		&fakeGuildRepo{guilds: map[shared.GuildID]*guild.Guild{7: g}},
		announcer,
		nil,
	)

	require.NoError(t, h.Handle(shared.NewTempSeasonEndedEvent(7, time.Now(), false)))

	require.Len(t, announcer.sent, 1)
	assert.Equal(t, shared.ChannelID(55), announcer.sent[0].ChannelID)
	assert.Equal(t, "The temporary season has ended ! Rolling back to the previous season", announcer.sent[0].Content)
}

func TestOnTempSeasonEnded_SilentOnManualStop(t *testing.T) {
	g, err := guild.NewGuild(7)
	require.NoError(t, err)
	g.SetAnnounceChannel(55)

	announcer := &fakeAnnouncer{}
	h := NewOnTempSeasonEndedHandler(
		&fakeGuildRepo{guilds: map[shared.GuildID]*guild.Guild{7: g}},
		announcer,
		nil,
	)

	require.NoError(t, h.Handle(shared.NewTempSeasonEndedEvent(7, time.Now(), true)))
	assert.Empty(t, announcer.sent)
}

func TestOnTempSeasonEnded_SkipsWithoutChannel(t *testing.T) {
	g, err := guild.NewGuild(7)
	require.NoError(t, err)

	announcer := &fakeAnnouncer{}
	h := NewOnTempSeasonEndedHandler(
		&fakeGuildRepo{guilds: map[shared.GuildID]*guild.Guild{7: g}},
		announcer,
		nil,
	)

	require.NoError(t, h.Handle(shared.NewTempSeasonEndedEvent(7, time.Now(), false)))
	assert.Empty(t, announcer.sent)
}
