package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/eventforge/internal/domain/events"
	"github.com/yungbote/eventforge/internal/generator"
	"github.com/yungbote/eventforge/internal/http/response"
	"github.com/yungbote/eventforge/internal/pkg/logger"
	"github.com/yungbote/eventforge/internal/services"
)

type EventHandler struct {
	log    *logger.Logger
	events services.EventService
}

func NewEventHandler(baseLog *logger.Logger, events services.EventService) *EventHandler {
	return &EventHandler{log: baseLog.With("handler", "EventHandler"), events: events}
}

type eventView struct {
	*events.DynamicEvent
	MinRankName string `json:"min_rank_name"`
	MaxRankName string `json:"max_rank_name"`
}

type nextEventResponse struct {
	Event           eventView `json:"event"`
	Fallback        bool      `json:"fallback"`
	RankDescription string    `json:"rank_description,omitempty"`
}

func view(ev *events.DynamicEvent) eventView {
	return eventView{
		DynamicEvent: ev,
		MinRankName:  ev.MinRank.String(),
		MaxRankName:  ev.MaxRank.String(),
	}
}

// rankParam accepts a rank name or its numeric level.
func rankParam(raw string) (events.Rank, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, errors.New("rank is required")
	}
	return events.ParseRank(raw)
}

// GET /api/events/next?rank=phd
func (h *EventHandler) Next(c *gin.Context) {
	rank, err := rankParam(c.Query("rank"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rank", err)
		return
	}
	sel, err := h.events.Next(c.Request.Context(), rank)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, nextEventResponse{
		Event:           view(sel.Event),
		Fallback:        sel.Fallback,
		RankDescription: h.events.Description(rank),
	})
}

type usageRequest struct {
	PlayerName  string    `json:"player_name"`
	Rank        rankField `json:"rank"`
	ChoiceIndex *int      `json:"choice_index"`
}

// POST /api/events/:id/usage
func (h *EventHandler) RecordUsage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_event_id", err)
		return
	}
	var req usageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if strings.TrimSpace(req.PlayerName) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_player_name", nil)
		return
	}
	if !events.Rank(req.Rank).Valid() {
		response.RespondError(c, http.StatusBadRequest, "invalid_rank", nil)
		return
	}
	if req.ChoiceIndex == nil {
		response.RespondError(c, http.StatusBadRequest, "missing_choice_index", nil)
		return
	}
	if err := h.events.RecordUsage(c.Request.Context(), id, req.PlayerName, events.Rank(req.Rank), *req.ChoiceIndex); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

type creativeRequest struct {
	Rank  rankField           `json:"rank"`
	Round int                 `json:"round"`
	Stats *events.PlayerStats `json:"stats,omitempty"`
}

// POST /api/events/creative
func (h *EventHandler) Creative(c *gin.Context) {
	var req creativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	rank := events.Rank(req.Rank)
	if !rank.Valid() {
		response.RespondError(c, http.StatusBadRequest, "invalid_rank", nil)
		return
	}
	stats := events.TypicalStats(rank)
	if req.Stats != nil {
		stats = *req.Stats
	}
	sel, err := h.events.Creative(c.Request.Context(), generator.CreativeRequest{
		Stats: stats,
		Round: req.Round,
		Rank:  rank,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, nextEventResponse{
		Event:           view(sel.Event),
		Fallback:        sel.Fallback,
		RankDescription: h.events.Description(rank),
	})
}

// rankField decodes either a rank name or a numeric level.
type rankField events.Rank

func (r *rankField) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = unq
	}
	parsed, err := events.ParseRank(raw)
	if err != nil {
		return err
	}
	*r = rankField(parsed)
	return nil
}
