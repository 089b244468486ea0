package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/guildhub/guild-xp-hub/internal/application/command"
	"github.com/guildhub/guild-xp-hub/internal/application/query"
	"github.com/guildhub/guild-xp-hub/internal/domain/member"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
	"github.com/guildhub/guild-xp-hub/internal/infrastructure/messaging"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY INGEST
// ══════════════════════════════════════════════════════════════════════════════

// ingestEventRequest is an inbound activity event from the gateway
// adapter.
type ingestEventRequest struct {
	Kind          string `json:"kind"`
	UserID        int64  `json:"user_id"`
	GuildID       int64  `json:"guild_id"`
	ChannelID     int64  `json:"channel_id,omitempty"`
	CategoryID    int64  `json:"category_id,omitempty"`
	ContentLength int    `json:"content_length,omitempty"`
}

// handleIngestEvent handles POST /api/v1/events. Accepted events are
// answered with 202 before processing; a saturated pipeline sheds load
// with 503 so the gateway can back off.
func (s *Server) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	var req ingestEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	ev := member.ActivityEvent{
		Kind:          member.ActivityKind(req.Kind),
		UserID:        shared.UserID(req.UserID),
		GuildID:       shared.GuildID(req.GuildID),
		ChannelID:     shared.ChannelID(req.ChannelID),
		CategoryID:    shared.CategoryID(req.CategoryID),
		ContentLength: req.ContentLength,
		OccurredAt:    time.Now().UTC(),
	}

	if err := s.deps.Enqueuer.Enqueue(ev); err != nil {
		if s.deps.Metrics != nil {
			reason := "invalid"
			if errors.Is(err, messaging.ErrQueueFull) {
				reason = "queue_full"
			}
			s.deps.Metrics.EventsRejected.WithLabelValues(reason).Inc()
		}
		s.writeError(w, err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.EventsIngested.WithLabelValues(req.Kind).Inc()
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD & RANK HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/guilds/{guildID}/leaderboard.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}

	q := query.GetLeaderboardQuery{
		GuildID: shared.GuildID(guildID),
		Limit:   queryParamInt(r, "limit", 0),
		Offset:  queryParamInt(r, "offset", 0),
	}

	result, err := s.deps.GetLeaderboard.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetRank handles GET /api/v1/guilds/{guildID}/members/{userID}/rank.
func (s *Server) handleGetRank(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}
	userID, ok := s.int64Param(w, r, "userID")
	if !ok {
		return
	}

	result, err := s.deps.GetRank.Handle(r.Context(), query.GetRankQuery{
		GuildID: shared.GuildID(guildID),
		UserID:  shared.UserID(userID),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SEASON HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListSeasons handles GET /api/v1/guilds/{guildID}/seasons.
func (s *Server) handleListSeasons(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}

	result, err := s.deps.GetSeasons.List(r.Context(), query.ListSeasonsQuery{
		GuildID: shared.GuildID(guildID),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetSeasonScores handles GET /api/v1/guilds/{guildID}/seasons/{label}/scores.
func (s *Server) handleGetSeasonScores(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}

	result, err := s.deps.GetSeasons.Scores(r.Context(), query.GetSeasonScoresQuery{
		GuildID: shared.GuildID(guildID),
		Label:   chi.URLParam(r, "label"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetMemberHistory handles GET /api/v1/guilds/{guildID}/members/{userID}/history.
func (s *Server) handleGetMemberHistory(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}
	userID, ok := s.int64Param(w, r, "userID")
	if !ok {
		return
	}

	result, err := s.deps.GetSeasons.History(r.Context(), query.UserHistoryQuery{
		GuildID: shared.GuildID(guildID),
		UserID:  shared.UserID(userID),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// createSeasonRequest is the body for archiving a season.
type createSeasonRequest struct {
	Label string `json:"label,omitempty"`
}

// handleCreateSeason handles POST /api/v1/guilds/{guildID}/seasons.
func (s *Server) handleCreateSeason(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}

	var req createSeasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	result, err := s.deps.CreateSeason.Handle(r.Context(), command.CreateSeasonCommand{
		GuildID: shared.GuildID(guildID),
		Label:   req.Label,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleDeleteSeason handles DELETE /api/v1/guilds/{guildID}/seasons/{label}.
func (s *Server) handleDeleteSeason(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}

	err := s.deps.DeleteSeason.Handle(r.Context(), command.DeleteSeasonCommand{
		GuildID: shared.GuildID(guildID),
		Label:   chi.URLParam(r, "label"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// renameSeasonRequest is the body for renaming a season.
type renameSeasonRequest struct {
	NewLabel string `json:"new_label"`
}

// handleRenameSeason handles POST /api/v1/guilds/{guildID}/seasons/{label}/rename.
func (s *Server) handleRenameSeason(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}

	var req renameSeasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	err := s.deps.RenameSeason.Handle(r.Context(), command.RenameSeasonCommand{
		GuildID:  shared.GuildID(guildID),
		Label:    chi.URLParam(r, "label"),
		NewLabel: req.NewLabel,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// startTempSeasonRequest is the body for starting a temporary season.
type startTempSeasonRequest struct {
	Label    string `json:"label,omitempty"`
	Duration string `json:"duration"`
}

// handleStartTempSeason handles POST /api/v1/guilds/{guildID}/seasons/temporary.
func (s *Server) handleStartTempSeason(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}

	var req startTempSeasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	result, err := s.deps.StartTempSeason.Handle(r.Context(), command.StartTemporarySeasonCommand{
		GuildID:  shared.GuildID(guildID),
		Label:    req.Label,
		Duration: req.Duration,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleStopTempSeason handles DELETE /api/v1/guilds/{guildID}/seasons/temporary.
// A stop through the API is always a manual stop.
func (s *Server) handleStopTempSeason(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}

	err := s.deps.StopTempSeason.Handle(r.Context(), command.StopTemporarySeasonCommand{
		GuildID: shared.GuildID(guildID),
		Manual:  true,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// ══════════════════════════════════════════════════════════════════════════════
// MODERATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// adjustProgressRequest is the body for a manual correction.
type adjustProgressRequest struct {
	Kind  string `json:"kind"`
	Delta int64  `json:"delta"`
}

// handleAdjustProgress handles POST /api/v1/guilds/{guildID}/members/{userID}/adjustments.
func (s *Server) handleAdjustProgress(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}
	userID, ok := s.int64Param(w, r, "userID")
	if !ok {
		return
	}

	var req adjustProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	result, err := s.deps.AdjustProgress.Handle(r.Context(), command.AdjustProgressCommand{
		UserID:  shared.UserID(userID),
		GuildID: shared.GuildID(guildID),
		Kind:    command.AdjustKind(req.Kind),
		Delta:   req.Delta,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// blockedRequest is the body for block toggles.
type blockedRequest struct {
	Blocked bool `json:"blocked"`
}

// handleSetMemberBlocked handles PUT /api/v1/guilds/{guildID}/members/{userID}/blocked.
func (s *Server) handleSetMemberBlocked(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}
	userID, ok := s.int64Param(w, r, "userID")
	if !ok {
		return
	}

	var req blockedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	err := s.deps.GuildSettings.SetMemberBlocked(r.Context(), command.SetMemberBlockedCommand{
		GuildID: shared.GuildID(guildID),
		UserID:  shared.UserID(userID),
		Blocked: req.Blocked,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"blocked": req.Blocked})
}

// handleSetCategoryBlocked handles PUT /api/v1/guilds/{guildID}/categories/{categoryID}/blocked.
func (s *Server) handleSetCategoryBlocked(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}
	categoryID, ok := s.int64Param(w, r, "categoryID")
	if !ok {
		return
	}

	var req blockedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	err := s.deps.GuildSettings.SetCategoryBlocked(r.Context(), command.SetCategoryBlockedCommand{
		GuildID:    shared.GuildID(guildID),
		CategoryID: shared.CategoryID(categoryID),
		Blocked:    req.Blocked,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"blocked": req.Blocked})
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// xpEnabledRequest is the body for the guild-wide experience toggle.
type xpEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetXPEnabled handles PUT /api/v1/guilds/{guildID}/settings/xp.
func (s *Server) handleSetXPEnabled(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}

	var req xpEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	err := s.deps.GuildSettings.SetXPEnabled(r.Context(), command.SetXPEnabledCommand{
		GuildID: shared.GuildID(guildID),
		Enabled: req.Enabled,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

// announceChannelRequest is the body for the announcement channel
// setting. A zero channel ID clears the channel and silences level-up
// announcements.
type announceChannelRequest struct {
	ChannelID int64 `json:"channel_id"`
}

// handleSetAnnounceChannel handles PUT /api/v1/guilds/{guildID}/settings/announce-channel.
func (s *Server) handleSetAnnounceChannel(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.int64Param(w, r, "guildID")
	if !ok {
		return
	}

	var req announceChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	err := s.deps.GuildSettings.SetAnnounceChannel(r.Context(), command.SetAnnounceChannelCommand{
		GuildID:   shared.GuildID(guildID),
		ChannelID: shared.ChannelID(req.ChannelID),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"channel_id": req.ChannelID})
}

// pingRequest is the body for the per-user ping preference.
type pingRequest struct {
	Ping bool `json:"ping"`
}

// handleSetPingPreference handles PUT /api/v1/users/{userID}/ping.
func (s *Server) handleSetPingPreference(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.int64Param(w, r, "userID")
	if !ok {
		return
	}

	var req pingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	err := s.deps.GuildSettings.SetPingPreference(r.Context(), command.SetPingPreferenceCommand{
		UserID: shared.UserID(userID),
		Ping:   req.Ping,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ping": req.Ping})
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// int64Param parses a numeric path parameter, writing a 400 on failure.
func (s *Server) int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", name+" must be a positive integer")
		return 0, false
	}
	return v, true
}

// queryParamInt extracts an integer query parameter with a default.
func queryParamInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return v
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, messaging.ErrQueueFull):
		writeJSONError(w, http.StatusServiceUnavailable, "queue_full", "Event pipeline is saturated, retry later")
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsConflict(err), errors.Is(err, shared.ErrInvalidState):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, shared.ErrBlocked), errors.Is(err, shared.ErrDisabled):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
