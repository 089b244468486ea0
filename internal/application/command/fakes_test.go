package command

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guildhub/guild-xp-hub/internal/domain/guild"
	"github.com/guildhub/guild-xp-hub/internal/domain/leaderboard"
	"github.com/guildhub/guild-xp-hub/internal/domain/member"
	"github.com/guildhub/guild-xp-hub/internal/domain/season"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// In-memory fakes backing the command handler tests.

type fakeMemberRepo struct {
	mu      sync.Mutex
	rows    map[string]*member.Membership
	failure error
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{rows: make(map[string]*member.Membership)}
}

func membershipKey(userID shared.UserID, guildID shared.GuildID) string {
	return shared.MembershipAggregateID(userID.Int64(), guildID.Int64())
}

func (r *fakeMemberRepo) Get(_ context.Context, userID shared.UserID, guildID shared.GuildID) (*member.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return nil, r.failure
	}
	m, ok := r.rows[membershipKey(userID, guildID)]
	if !ok {
		return nil, shared.ErrMemberNotFound
	}
	return m.Clone(), nil
}

func (r *fakeMemberRepo) GetOrCreate(ctx context.Context, userID shared.UserID, guildID shared.GuildID) (*member.Membership, error) {
	if m, err := r.Get(ctx, userID, guildID); err == nil {
		return m, nil
	} else if !shared.IsNotFound(err) {
		return nil, err
	}
	m, err := member.NewMembership(userID, guildID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.rows[membershipKey(userID, guildID)] = m.Clone()
	r.mu.Unlock()
	return m, nil
}

func (r *fakeMemberRepo) Update(_ context.Context, m *member.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	key := membershipKey(m.UserID, m.GuildID)
	if _, ok := r.rows[key]; !ok {
		return shared.ErrMemberNotFound
	}
	r.rows[key] = m.Clone()
	return nil
}

func (r *fakeMemberRepo) SetBlocked(_ context.Context, userID shared.UserID, guildID shared.GuildID, blocked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[membershipKey(userID, guildID)]
	if !ok {
		return shared.ErrMemberNotFound
	}
	m.XPBlocked = blocked
	return nil
}

func (r *fakeMemberRepo) ListByGuild(_ context.Context, guildID shared.GuildID) ([]*member.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*member.Membership
	for _, m := range r.rows {
		if m.GuildID == guildID {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) CountByGuild(ctx context.Context, guildID shared.GuildID) (int, error) {
	rows, err := r.ListByGuild(ctx, guildID)
	return len(rows), err
}

type fakeProfileRepo struct {
	mu   sync.Mutex
	rows map[shared.UserID]*member.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{rows: make(map[shared.UserID]*member.Profile)}
}

func (r *fakeProfileRepo) GetOrCreate(_ context.Context, userID shared.UserID) (*member.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.rows[userID]; ok {
		clone := *p
		return &clone, nil
	}
	p, err := member.NewProfile(userID)
	if err != nil {
		return nil, err
	}
	r.rows[userID] = p
	clone := *p
	return &clone, nil
}

func (r *fakeProfileRepo) SetPingOnLevelUp(_ context.Context, userID shared.UserID, ping bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[userID]
	if !ok {
		return shared.ErrProfileNotFound
	}
	p.PingOnLevelUp = ping
	return nil
}

type fakeGuildRepo struct {
	mu   sync.Mutex
	rows map[shared.GuildID]*guild.Guild
}

func newFakeGuildRepo() *fakeGuildRepo {
	return &fakeGuildRepo{rows: make(map[shared.GuildID]*guild.Guild)}
}

func (r *fakeGuildRepo) Get(_ context.Context, guildID shared.GuildID) (*guild.Guild, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.rows[guildID]
	if !ok {
		return nil, shared.ErrGuildNotFound
	}
	clone := *g
	return &clone, nil
}

func (r *fakeGuildRepo) GetOrCreate(ctx context.Context, guildID shared.GuildID) (*guild.Guild, error) {
	if g, err := r.Get(ctx, guildID); err == nil {
		return g, nil
	}
	g, err := guild.NewGuild(guildID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.rows[guildID] = g
	r.mu.Unlock()
	clone := *g
	return &clone, nil
}

func (r *fakeGuildRepo) Update(_ context.Context, g *guild.Guild) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[g.GuildID]; !ok {
		return shared.ErrGuildNotFound
	}
	clone := *g
	r.rows[g.GuildID] = &clone
	return nil
}

func (r *fakeGuildRepo) TryActivateTempSeason(_ context.Context, guildID shared.GuildID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.rows[guildID]
	if !ok {
		return false, shared.ErrGuildNotFound
	}
	if g.TempSeasonActive {
		return false, nil
	}
	g.TempSeasonActive = true
	return true, nil
}

func (r *fakeGuildRepo) ClearTempSeason(_ context.Context, guildID shared.GuildID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.rows[guildID]
	if !ok {
		return false, shared.ErrGuildNotFound
	}
	if !g.TempSeasonActive {
		return false, nil
	}
	g.TempSeasonActive = false
	return true, nil
}

type fakeSeasonRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*season.Season
	scores  map[uuid.UUID][]season.Score
	resets  int
	failure error
}

func newFakeSeasonRepo() *fakeSeasonRepo {
	return &fakeSeasonRepo{
		rows:   make(map[uuid.UUID]*season.Season),
		scores: make(map[uuid.UUID][]season.Score),
	}
}

func (r *fakeSeasonRepo) insert(s *season.Season) error {
	for _, existing := range r.rows {
		if existing.GuildID == s.GuildID && existing.Label == s.Label {
			return shared.ErrSeasonLabelTaken
		}
	}
	clone := *s
	r.rows[s.ID] = &clone
	return nil
}

func (r *fakeSeasonRepo) CreateWithSnapshot(_ context.Context, s *season.Season) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	if err := r.insert(s); err != nil {
		return err
	}
	r.resets++
	return nil
}

func (r *fakeSeasonRepo) Create(_ context.Context, s *season.Season) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	return r.insert(s)
}

func (r *fakeSeasonRepo) GetByID(_ context.Context, id uuid.UUID) (*season.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, shared.ErrSeasonNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeSeasonRepo) GetByLabel(_ context.Context, guildID shared.GuildID, label shared.SeasonLabel) (*season.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.GuildID == guildID && s.Label == label {
			clone := *s
			return &clone, nil
		}
	}
	return nil, shared.ErrSeasonNotFound
}

func (r *fakeSeasonRepo) ListByGuild(_ context.Context, guildID shared.GuildID) ([]*season.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*season.Season
	for _, s := range r.rows {
		if s.GuildID == guildID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeSeasonRepo) CountByGuild(ctx context.Context, guildID shared.GuildID) (int, error) {
	rows, err := r.ListByGuild(ctx, guildID)
	return len(rows), err
}

func (r *fakeSeasonRepo) LabelExists(_ context.Context, guildID shared.GuildID, label shared.SeasonLabel) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.GuildID == guildID && s.Label == label {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSeasonRepo) Rename(_ context.Context, id uuid.UUID, label shared.SeasonLabel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return shared.ErrSeasonNotFound
	}
	for _, other := range r.rows {
		if other.ID != id && other.GuildID == s.GuildID && other.Label == label {
			return shared.ErrSeasonLabelTaken
		}
	}
	s.Label = label
	return nil
}

func (r *fakeSeasonRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return shared.ErrSeasonNotFound
	}
	delete(r.rows, id)
	delete(r.scores, id)
	return nil
}

func (r *fakeSeasonRepo) MakePermanent(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return shared.ErrSeasonNotFound
	}
	s.EndsAt = nil
	return nil
}

func (r *fakeSeasonRepo) GetActiveTemporary(_ context.Context, guildID shared.GuildID) (*season.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.GuildID == guildID && s.EndsAt != nil {
			clone := *s
			return &clone, nil
		}
	}
	return nil, shared.ErrSeasonNotFound
}

func (r *fakeSeasonRepo) ListExpiredTemporary(_ context.Context, now time.Time) ([]*season.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*season.Season
	for _, s := range r.rows {
		if s.Expired(now) {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeSeasonRepo) Scores(_ context.Context, seasonID uuid.UUID) ([]season.Score, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores[seasonID], nil
}

func (r *fakeSeasonRepo) UserHistory(_ context.Context, guildID shared.GuildID, userID shared.UserID) ([]season.UserSeasonScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []season.UserSeasonScore
	for id, s := range r.rows {
		if s.GuildID != guildID {
			continue
		}
		for _, sc := range r.scores[id] {
			if sc.UserID == userID {
				out = append(out, season.UserSeasonScore{
					SeasonID:        id,
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

type fakeCache struct {
	mu          sync.Mutex
	invalidated []shared.GuildID
}

func (c *fakeCache) GetCachedTop(context.Context, shared.GuildID, int) ([]*leaderboard.Entry, error) {
	return nil, nil
}

func (c *fakeCache) SetCachedTop(context.Context, shared.GuildID, []*leaderboard.Entry, int, time.Duration) error {
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, guildID shared.GuildID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, guildID)
	return nil
}

func (c *fakeCache) InvalidateAll(context.Context) error { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) byType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
