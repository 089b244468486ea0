package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildhub/guild-xp-hub/internal/domain/leaderboard"
	"github.com/guildhub/guild-xp-hub/internal/domain/season"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// In-memory fakes backing the query handler tests.

type fakeLeaderboardRepo struct {
	standings *leaderboard.Standings
}

func newFakeLeaderboardRepo(xpByUser map[shared.UserID]int64) *fakeLeaderboardRepo {
	st := leaderboard.NewStandings()
	for userID, xp := range xpByUser {
		entry, _ := leaderboard.NewEntry(1, userID, xp, 0)
		_ = st.Add(entry)
	}
	st.SortByXP()
	return &fakeLeaderboardRepo{standings: st}
}

func (r *fakeLeaderboardRepo) GetTop(_ context.Context, _ shared.GuildID, limit int) ([]*leaderboard.Entry, error) {
	return r.standings.Top(limit), nil
}

func (r *fakeLeaderboardRepo) GetPage(_ context.Context, _ shared.GuildID, p shared.Pagination) ([]*leaderboard.Entry, error) {
	all := r.standings.All()
	if p.Offset() >= len(all) {
		return nil, nil
	}
	end := p.Offset() + p.Limit()
	if end > len(all) {
		end = len(all)
	}
	return all[p.Offset():end], nil
}

func (r *fakeLeaderboardRepo) GetRank(_ context.Context, _ shared.GuildID, userID shared.UserID) (*leaderboard.Entry, error) {
	if e := r.standings.GetByID(userID); e != nil {
		return e.Clone(), nil
	}
	return nil, shared.ErrMemberNotFound
}

func (r *fakeLeaderboardRepo) GetStandings(context.Context, shared.GuildID) (*leaderboard.Standings, error) {
	return r.standings, nil
}

func (r *fakeLeaderboardRepo) GetTotalCount(context.Context, shared.GuildID) (int, error) {
	return r.standings.Count(), nil
}

type fakeTopCache struct {
	top  []*leaderboard.Entry
	sets int
}

func (c *fakeTopCache) GetCachedTop(context.Context, shared.GuildID, int) ([]*leaderboard.Entry, error) {
	return c.top, nil
}

func (c *fakeTopCache) SetCachedTop(_ context.Context, _ shared.GuildID, entries []*leaderboard.Entry, _ int, _ time.Duration) error {
	c.top = entries
	c.sets++
	return nil
}

func (c *fakeTopCache) Invalidate(context.Context, shared.GuildID) error {
	c.top = nil
	return nil
}

func (c *fakeTopCache) InvalidateAll(context.Context) error {
	c.top = nil
	return nil
}

type fakeSeasonRepo struct {
	seasons []*season.Season
	scores  map[uuid.UUID][]season.Score
}

func (r *fakeSeasonRepo) CreateWithSnapshot(context.Context, *season.Season) error { return nil }
func (r *fakeSeasonRepo) Create(context.Context, *season.Season) error             { return nil }

func (r *fakeSeasonRepo) GetByID(_ context.Context, id uuid.UUID) (*season.Season, error) {
	for _, s := range r.seasons {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, shared.ErrSeasonNotFound
}

func (r *fakeSeasonRepo) GetByLabel(_ context.Context, guildID shared.GuildID, label shared.SeasonLabel) (*season.Season, error) {
	for _, s := range r.seasons {
		if s.GuildID == guildID && s.Label == label {
			return s, nil
		}
	}
	return nil, shared.ErrSeasonNotFound
}

func (r *fakeSeasonRepo) ListByGuild(_ context.Context, guildID shared.GuildID) ([]*season.Season, error) {
	var out []*season.Season
	for _, s := range r.seasons {
		if s.GuildID == guildID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSeasonRepo) CountByGuild(ctx context.Context, guildID shared.GuildID) (int, error) {
	rows, err := r.ListByGuild(ctx, guildID)
	return len(rows), err
}

func (r *fakeSeasonRepo) LabelExists(ctx context.Context, guildID shared.GuildID, label shared.SeasonLabel) (bool, error) {
	_, err := r.GetByLabel(ctx, guildID, label)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeSeasonRepo) Rename(context.Context, uuid.UUID, shared.SeasonLabel) error { return nil }
func (r *fakeSeasonRepo) Delete(context.Context, uuid.UUID) error                     { return nil }
func (r *fakeSeasonRepo) MakePermanent(context.Context, uuid.UUID) error              { return nil }

func (r *fakeSeasonRepo) GetActiveTemporary(context.Context, shared.GuildID) (*season.Season, error) {
	return nil, shared.ErrSeasonNotFound
}

func (r *fakeSeasonRepo) ListExpiredTemporary(context.Context, time.Time) ([]*season.Season, error) {
	return nil, nil
}

func (r *fakeSeasonRepo) Scores(_ context.Context, seasonID uuid.UUID) ([]season.Score, error) {
	return r.scores[seasonID], nil
}

func (r *fakeSeasonRepo) UserHistory(_ context.Context, guildID shared.GuildID, userID shared.UserID) ([]season.UserSeasonScore, error) {
	var out []season.UserSeasonScore
	for _, s := range r.seasons {
		if s.GuildID != guildID {
			continue
		}
		for _, sc := range r.scores[s.ID] {
			if sc.UserID == userID {
				out = append(out, season.UserSeasonScore{
					SeasonID:        s.ID,
					Label:           s.Label,
					Score:           sc.Score,
					Ranking:         sc.Ranking,
					SeasonCreatedAt: s.CreatedAt,
				})
			}
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Leaderboard
// ──────────────────────────────────────────────────────────────────────────────

func TestGetLeaderboard_TiesShareRank(t *testing.T) {
	repo := newFakeLeaderboardRepo(map[shared.UserID]int64{
		1: 500,
		2: 500,
		3: 100,
	})
	h := NewGetLeaderboardHandler(repo, nil)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{GuildID: 7})
	require.NoError(t, err)

	require.Len(t, res.Entries, 3)
	assert.Equal(t, 1, res.Entries[0].Rank)
	assert.Equal(t, 1, res.Entries[1].Rank)
	assert.Equal(t, 3, res.Entries[2].Rank, "member after a tie group resumes at the positional index")
	assert.Equal(t, 3, res.TotalCount)
}

func TestGetLeaderboard_CachesTopPage(t *testing.T) {
	repo := newFakeLeaderboardRepo(map[shared.UserID]int64{1: 500, 2: 100})
	cache := &fakeTopCache{}
	h := NewGetLeaderboardHandler(repo, cache)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{GuildID: 7})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, 1, cache.sets)

	res, err = h.Handle(context.Background(), GetLeaderboardQuery{GuildID: 7})
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, 1, cache.sets)

	// Deeper pages bypass the cache.
	res, err = h.Handle(context.Background(), GetLeaderboardQuery{GuildID: 7, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, int64(2), res.Entries[0].UserID)
}

func TestGetLeaderboard_Validation(t *testing.T) {
	h := NewGetLeaderboardHandler(newFakeLeaderboardRepo(nil), nil)

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	assert.ErrorIs(t, err, shared.ErrInvalidGuildID)

	_, err = h.Handle(context.Background(), GetLeaderboardQuery{GuildID: 7, Offset: -1})
	assert.ErrorIs(t, err, shared.ErrNegativeValue)

	_, err = h.Handle(context.Background(), GetLeaderboardQuery{GuildID: 7, Limit: -1})
	assert.ErrorIs(t, err, shared.ErrNegativeValue)

	// Offsets that do not land on a page boundary are refused instead of
	// being silently rounded down.
	_, err = h.Handle(context.Background(), GetLeaderboardQuery{GuildID: 7, Limit: 10, Offset: 5})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rank
// ──────────────────────────────────────────────────────────────────────────────

func TestGetRank(t *testing.T) {
	repo := newFakeLeaderboardRepo(map[shared.UserID]int64{
		1: 500,
		2: 500,
		3: 100,
	})
	h := NewGetRankHandler(repo)

	res, err := h.Handle(context.Background(), GetRankQuery{GuildID: 7, UserID: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rank)
	assert.Equal(t, int64(500), res.XP)
	assert.Equal(t, 3, res.TotalCount)

	res, err = h.Handle(context.Background(), GetRankQuery{GuildID: 7, UserID: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rank)
}

func TestGetRank_UnregisteredMember(t *testing.T) {
	h := NewGetRankHandler(newFakeLeaderboardRepo(nil))

	_, err := h.Handle(context.Background(), GetRankQuery{GuildID: 7, UserID: 42})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Seasons
// ──────────────────────────────────────────────────────────────────────────────

func TestGetSeasons(t *testing.T) {
	s1, err := season.NewSeason(7, shared.NewSeasonLabel("one"))
	require.NoError(t, err)
	s2, err := season.NewTemporarySeason(7, shared.NewSeasonLabel("sprint"), time.Hour)
	require.NoError(t, err)
	other, err := season.NewSeason(8, shared.NewSeasonLabel("elsewhere"))
	require.NoError(t, err)

	repo := &fakeSeasonRepo{
		seasons: []*season.Season{s1, s2, other},
		scores: map[uuid.UUID][]season.Score{
			s1.ID: {
				{SeasonID: s1.ID, UserID: 1, Score: 500, Ranking: 1},
				{SeasonID: s1.ID, UserID: 2, Score: 100, Ranking: 2},
			},
		},
	}
	h := NewGetSeasonsHandler(repo)

	list, err := h.List(context.Background(), ListSeasonsQuery{GuildID: 7})
	require.NoError(t, err)
	require.Len(t, list.Seasons, 2)

	scores, err := h.Scores(context.Background(), GetSeasonScoresQuery{GuildID: 7, Label: "ONE"})
	require.NoError(t, err)
	assert.Equal(t, "one", scores.Season.Label)
	assert.False(t, scores.Season.Temporary)
	require.Len(t, scores.Scores, 2)
	assert.Equal(t, int64(1), scores.Scores[0].UserID)
	assert.Equal(t, 1, scores.Scores[0].Ranking)

	_, err = h.Scores(context.Background(), GetSeasonScoresQuery{GuildID: 7, Label: "ghost"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetUserHistory(t *testing.T) {
	s1, err := season.NewSeason(7, shared.NewSeasonLabel("one"))
	require.NoError(t, err)
	s2, err := season.NewSeason(7, shared.NewSeasonLabel("two"))
	require.NoError(t, err)

	repo := &fakeSeasonRepo{
		seasons: []*season.Season{s1, s2},
		scores: map[uuid.UUID][]season.Score{
			s1.ID: {
				{SeasonID: s1.ID, UserID: 1, Score: 500, Ranking: 1},
				{SeasonID: s1.ID, UserID: 2, Score: 100, Ranking: 2},
			},
			s2.ID: {
				{SeasonID: s2.ID, UserID: 1, Score: 250, Ranking: 2},
			},
		},
	}
	h := NewGetSeasonsHandler(repo)

	res, err := h.History(context.Background(), UserHistoryQuery{GuildID: 7, UserID: 1})
	require.NoError(t, err)
	require.Len(t, res.History, 2)
	assert.Equal(t, int64(1), res.UserID)

	// A member with no archived scores has an empty history.
	res, err = h.History(context.Background(), UserHistoryQuery{GuildID: 7, UserID: 99})
	require.NoError(t, err)
	assert.Empty(t, res.History)

	_, err = h.History(context.Background(), UserHistoryQuery{GuildID: 7})
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)
}
