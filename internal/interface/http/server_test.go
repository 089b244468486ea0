package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildhub/guild-xp-hub/internal/application/command"
	"github.com/guildhub/guild-xp-hub/internal/application/query"
	"github.com/guildhub/guild-xp-hub/internal/domain/member"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
	"github.com/guildhub/guild-xp-hub/internal/infrastructure/messaging"
)

// ═══════════════════════════════════════════════════════════════════════════
// Fakes
// ═══════════════════════════════════════════════════════════════════════════

type fakeEnqueuer struct {
	events []member.ActivityEvent
	err    error
}

func (f *fakeEnqueuer) Enqueue(ev member.ActivityEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type fakeAdjuster struct {
	cmd command.AdjustProgressCommand
	err error
}

func (f *fakeAdjuster) Handle(_ context.Context, cmd command.AdjustProgressCommand) (*command.AdjustProgressResult, error) {
	f.cmd = cmd
	if f.err != nil {
		return nil, f.err
	}
	return &command.AdjustProgressResult{XP: 500, Level: 2}, nil
}

type fakeSeasonOps struct {
	created command.CreateSeasonCommand
	deleted command.DeleteSeasonCommand
	renamed command.RenameSeasonCommand
	started command.StartTemporarySeasonCommand
	stopped command.StopTemporarySeasonCommand
	err     error
}

func (f *fakeSeasonOps) Handle(_ context.Context, cmd command.CreateSeasonCommand) (*command.CreateSeasonResult, error) {
	f.created = cmd
	if f.err != nil {
		return nil, f.err
	}
	return &command.CreateSeasonResult{SeasonID: "s1", Label: "1"}, nil
}

type fakeSeasonDeleter struct {
	ops *fakeSeasonOps
}

func (f fakeSeasonDeleter) Handle(_ context.Context, cmd command.DeleteSeasonCommand) error {
	f.ops.deleted = cmd
	return f.ops.err
}

type fakeSeasonRenamer struct {
	ops *fakeSeasonOps
}

func (f fakeSeasonRenamer) Handle(_ context.Context, cmd command.RenameSeasonCommand) error {
	f.ops.renamed = cmd
	return f.ops.err
}

type fakeTempStarter struct {
	ops *fakeSeasonOps
}

func (f fakeTempStarter) Handle(_ context.Context, cmd command.StartTemporarySeasonCommand) (*command.StartTemporarySeasonResult, error) {
	f.ops.started = cmd
	if f.ops.err != nil {
		return nil, f.ops.err
	}
	return &command.StartTemporarySeasonResult{SeasonID: "s2", Label: "event"}, nil
}

type fakeTempStopper struct {
	ops *fakeSeasonOps
}

func (f fakeTempStopper) Handle(_ context.Context, cmd command.StopTemporarySeasonCommand) error {
	f.ops.stopped = cmd
	return f.ops.err
}

type fakeSettings struct {
	xp       *command.SetXPEnabledCommand
	channel  *command.SetAnnounceChannelCommand
	category *command.SetCategoryBlockedCommand
	member   *command.SetMemberBlockedCommand
	ping     *command.SetPingPreferenceCommand
	err      error
}

func (f *fakeSettings) SetXPEnabled(_ context.Context, cmd command.SetXPEnabledCommand) error {
	f.xp = &cmd
	return f.err
}

func (f *fakeSettings) SetAnnounceChannel(_ context.Context, cmd command.SetAnnounceChannelCommand) error {
	f.channel = &cmd
	return f.err
}

func (f *fakeSettings) SetCategoryBlocked(_ context.Context, cmd command.SetCategoryBlockedCommand) error {
	f.category = &cmd
	return f.err
}

func (f *fakeSettings) SetMemberBlocked(_ context.Context, cmd command.SetMemberBlockedCommand) error {
	f.member = &cmd
	return f.err
}

func (f *fakeSettings) SetPingPreference(_ context.Context, cmd command.SetPingPreferenceCommand) error {
	f.ping = &cmd
	return f.err
}

type fakeLeaderboardReader struct {
	query query.GetLeaderboardQuery
	err   error
}

func (f *fakeLeaderboardReader) Handle(_ context.Context, q query.GetLeaderboardQuery) (*query.GetLeaderboardResult, error) {
	f.query = q
	if f.err != nil {
		return nil, f.err
	}
	return &query.GetLeaderboardResult{
		Entries: []query.LeaderboardEntryDTO{
			{Rank: 1, UserID: 42, XP: 900, Level: 3},
		},
		TotalCount: 1,
	}, nil
}

type fakeRankReader struct {
	err error
}

func (f *fakeRankReader) Handle(context.Context, query.GetRankQuery) (*query.GetRankResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &query.GetRankResult{Rank: 3, UserID: 42, XP: 500, Level: 2, TotalCount: 10}, nil
}

type fakeSeasonReader struct {
	err error
}

func (f *fakeSeasonReader) List(context.Context, query.ListSeasonsQuery) (*query.ListSeasonsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &query.ListSeasonsResult{Seasons: []query.SeasonDTO{{ID: "s1", Label: "1"}}}, nil
}

func (f *fakeSeasonReader) Scores(context.Context, query.GetSeasonScoresQuery) (*query.GetSeasonScoresResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &query.GetSeasonScoresResult{
		Season: query.SeasonDTO{ID: "s1", Label: "1"},
		Scores: []query.SeasonScoreDTO{{UserID: 42, Score: 900, Ranking: 1}},
	}, nil
}

func (f *fakeSeasonReader) History(_ context.Context, q query.UserHistoryQuery) (*query.UserHistoryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &query.UserHistoryResult{
		UserID:  q.UserID.Int64(),
		History: []query.UserSeasonScoreDTO{{SeasonID: "s1", Label: "1", Score: 900, Ranking: 1}},
	}, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Harness
// ═══════════════════════════════════════════════════════════════════════════

type testEnv struct {
	server   *Server
	enqueuer *fakeEnqueuer
	seasons  *fakeSeasonOps
	settings *fakeSettings
	adjuster *fakeAdjuster
	lb       *fakeLeaderboardReader
	rank     *fakeRankReader
	reader   *fakeSeasonReader
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	env := &testEnv{
		enqueuer: &fakeEnqueuer{},
		seasons:  &fakeSeasonOps{},
		settings: &fakeSettings{},
		adjuster: &fakeAdjuster{},
		lb:       &fakeLeaderboardReader{},
		rank:     &fakeRankReader{},
		reader:   &fakeSeasonReader{},
	}

	cfg := DefaultConfig()
	cfg.EnableMetrics = false
	if mutate != nil {
		mutate(&cfg)
	}

	env.server = NewServer(cfg, Dependencies{
		Enqueuer:        env.enqueuer,
		AdjustProgress:  env.adjuster,
		CreateSeason:    env.seasons,
		DeleteSeason:    fakeSeasonDeleter{env.seasons},
		RenameSeason:    fakeSeasonRenamer{env.seasons},
		StartTempSeason: fakeTempStarter{env.seasons},
		StopTempSeason:  fakeTempStopper{env.seasons},
		GuildSettings:   env.settings,
		GetLeaderboard:  env.lb,
		GetRank:         env.rank,
		GetSeasons:      env.reader,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// ═══════════════════════════════════════════════════════════════════════════
// Ingest
// ═══════════════════════════════════════════════════════════════════════════

func TestIngestEvent_Accepted(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/events", map[string]interface{}{
		"kind":           "message",
		"user_id":        42,
		"guild_id":       10,
		"channel_id":     555,
		"content_length": 120,
	}, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, env.enqueuer.events, 1)

	ev := env.enqueuer.events[0]
	assert.Equal(t, member.KindMessage, ev.Kind)
	assert.Equal(t, shared.UserID(42), ev.UserID)
	assert.Equal(t, shared.GuildID(10), ev.GuildID)
	assert.Equal(t, 120, ev.ContentLength)
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestIngestEvent_ShedsLoadWhenSaturated(t *testing.T) {
	env := newTestEnv(t, nil)
	env.enqueuer.err = messaging.ErrQueueFull

	rec := env.do(t, http.MethodPost, "/api/v1/events", map[string]interface{}{
		"kind": "message", "user_id": 42, "guild_id": 10,
	}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "queue_full", resp.Error.Code)
}

func TestIngestEvent_RejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t, nil)
	env.enqueuer.err = shared.ErrUnknownEventKind

	rec := env.do(t, http.MethodPost, "/api/v1/events", map[string]interface{}{
		"kind": "typing", "user_id": 42, "guild_id": 10,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestEvent_RejectsMalformedJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ═══════════════════════════════════════════════════════════════════════════
// Reads
// ═══════════════════════════════════════════════════════════════════════════

func TestGetLeaderboard_PassesPagination(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/guilds/10/leaderboard?limit=5&offset=10", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, shared.GuildID(10), env.lb.query.GuildID)
	assert.Equal(t, 5, env.lb.query.Limit)
	assert.Equal(t, 10, env.lb.query.Offset)
}

func TestGetLeaderboard_RejectsBadGuildID(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/guilds/banana/leaderboard", nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRank_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	env.rank.err = fmt.Errorf("get_rank: %w", shared.ErrMemberNotFound)

	rec := env.do(t, http.MethodGet, "/api/v1/guilds/10/members/42/rank", nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSeasons(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/guilds/10/seasons", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestGetSeasonScores(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/guilds/10/seasons/1/scores", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetMemberHistory(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/guilds/10/members/42/history", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.True(t, body.Success)
}

// ═══════════════════════════════════════════════════════════════════════════
// Season lifecycle
// ═══════════════════════════════════════════════════════════════════════════

func TestCreateSeason(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/guilds/10/seasons", map[string]string{"label": "spring"}, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, shared.GuildID(10), env.seasons.created.GuildID)
	assert.Equal(t, "spring", env.seasons.created.Label)
}

func TestDeleteSeason(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodDelete, "/api/v1/guilds/10/seasons/spring", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "spring", env.seasons.deleted.Label)
}

func TestRenameSeason(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/guilds/10/seasons/spring/rename",
		map[string]string{"new_label": "summer"}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "spring", env.seasons.renamed.Label)
	assert.Equal(t, "summer", env.seasons.renamed.NewLabel)
}

func TestStartTempSeason_ConflictWhenAlreadyRunning(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seasons.err = fmt.Errorf("start_temp_season: %w", shared.ErrTempSeasonActive)

	rec := env.do(t, http.MethodPost, "/api/v1/guilds/10/seasons/temporary",
		map[string]string{"duration": "1d12h"}, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStopTempSeason_IsManual(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodDelete, "/api/v1/guilds/10/seasons/temporary", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.seasons.stopped.Manual)
	assert.Equal(t, shared.GuildID(10), env.seasons.stopped.GuildID)
}

func TestStopTempSeason_ConflictWhenNothingRunning(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seasons.err = fmt.Errorf("stop_temp_season: %w", shared.ErrNoTempSeasonRunning)

	rec := env.do(t, http.MethodDelete, "/api/v1/guilds/10/seasons/temporary", nil, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// ═══════════════════════════════════════════════════════════════════════════
// Moderation and settings
// ═══════════════════════════════════════════════════════════════════════════

func TestAdjustProgress(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/guilds/10/members/42/adjustments",
		map[string]interface{}{"kind": "xp", "delta": -100}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, command.AdjustXP, env.adjuster.cmd.Kind)
	assert.Equal(t, int64(-100), env.adjuster.cmd.Delta)
}

func TestSetMemberBlocked(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPut, "/api/v1/guilds/10/members/42/blocked",
		map[string]bool{"blocked": true}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.settings.member)
	assert.True(t, env.settings.member.Blocked)
}

func TestSetCategoryBlocked(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPut, "/api/v1/guilds/10/categories/777/blocked",
		map[string]bool{"blocked": true}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.settings.category)
	assert.Equal(t, shared.CategoryID(777), env.settings.category.CategoryID)
}

func TestSetXPEnabled(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPut, "/api/v1/guilds/10/settings/xp",
		map[string]bool{"enabled": false}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.settings.xp)
	assert.False(t, env.settings.xp.Enabled)
}

func TestSetAnnounceChannel_ZeroClears(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPut, "/api/v1/guilds/10/settings/announce-channel",
		map[string]int64{"channel_id": 0}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.settings.channel)
	assert.False(t, env.settings.channel.ChannelID.IsSet())
}

func TestSetPingPreference(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPut, "/api/v1/users/42/ping",
		map[string]bool{"ping": false}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.settings.ping)
	assert.False(t, env.settings.ping.Ping)
}

// ═══════════════════════════════════════════════════════════════════════════
// Auth and probes
// ═══════════════════════════════════════════════════════════════════════════

func TestAdminRoutesRequireAPIKey(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.AdminAPIKeys = []string{"sekret"}
	})

	rec := env.do(t, http.MethodPost, "/api/v1/guilds/10/seasons", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/guilds/10/seasons", map[string]string{},
		map[string]string{"X-API-Key": "sekret"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Public reads stay open.
	rec = env.do(t, http.MethodGet, "/api/v1/guilds/10/leaderboard", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProbes(t *testing.T) {
	env := newTestEnv(t, nil)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/ready", nil, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/live", nil, nil).Code)
}
