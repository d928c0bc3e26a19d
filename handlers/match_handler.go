package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-stages/models"
	"github.com/Dosada05/tournament-stages/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// GetMatch godoc
// @Summary Get a match
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListStageMatches godoc
// @Summary List the matches of a stage by round
// @Tags matches
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /stages/{stageID}/matches [get]
func (h *MatchHandler) ListStageMatches(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matches, err := h.matchService.ListStageMatches(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListDisputes godoc
// @Summary List the disputes raised on a match
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {array} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /matches/{matchID}/disputes [get]
func (h *MatchHandler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	disputes, err := h.matchService.ListDisputes(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"disputes": disputes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Start godoc
// @Summary Move a scheduled match to in progress
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Param Idempotency-Key header string false "Replay-safe request key"
// @Success 200 {object} services.MatchResult
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]interface{} "Invalid transition"
// @Security BearerAuth
// @Router /matches/{matchID}/start [post]
func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(req transitionRequest) (*services.MatchResult, error) {
		return h.matchService.Start(r.Context(), req.actor, req.matchID, req.key)
	})
}

// SubmitResult godoc
// @Summary Report the score of an in-progress match
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param Idempotency-Key header string false "Replay-safe request key"
// @Param input body services.SubmitResultInput true "Scores and optional stats"
// @Success 200 {object} services.MatchResult
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]interface{} "Invalid transition"
// @Security BearerAuth
// @Router /matches/{matchID}/result [post]
func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	var input services.SubmitResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.transition(w, r, func(req transitionRequest) (*services.MatchResult, error) {
		return h.matchService.SubmitResult(r.Context(), req.actor, req.matchID, req.key, input)
	})
}

// ConfirmResult godoc
// @Summary Confirm a reported result
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Param Idempotency-Key header string false "Replay-safe request key"
// @Success 200 {object} services.MatchResult
// @Failure 409 {object} map[string]interface{} "Ambiguous result or invalid transition"
// @Security BearerAuth
// @Router /matches/{matchID}/confirm [post]
func (h *MatchHandler) ConfirmResult(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(req transitionRequest) (*services.MatchResult, error) {
		return h.matchService.ConfirmResult(r.Context(), req.actor, req.matchID, req.key)
	})
}

// Dispute godoc
// @Summary Open a dispute on a reported or completed match
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param Idempotency-Key header string false "Replay-safe request key"
// @Param input body services.DisputeInput false "Reason"
// @Success 200 {object} services.MatchResult
// @Failure 409 {object} map[string]interface{} "Invalid transition"
// @Security BearerAuth
// @Router /matches/{matchID}/dispute [post]
func (h *MatchHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	var input services.DisputeInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.transition(w, r, func(req transitionRequest) (*services.MatchResult, error) {
		return h.matchService.Dispute(r.Context(), req.actor, req.matchID, req.key, input)
	})
}

// ResolveDispute godoc
// @Summary Resolve the open dispute of a match
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param Idempotency-Key header string false "Replay-safe request key"
// @Param input body services.ResolveDisputeInput true "Outcome"
// @Success 200 {object} services.MatchResult
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]interface{} "Invalid transition"
// @Security BearerAuth
// @Router /matches/{matchID}/resolve [post]
func (h *MatchHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	var input services.ResolveDisputeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.transition(w, r, func(req transitionRequest) (*services.MatchResult, error) {
		return h.matchService.ResolveDispute(r.Context(), req.actor, req.matchID, req.key, input)
	})
}

// Cancel godoc
// @Summary Cancel a match
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Param Idempotency-Key header string false "Replay-safe request key"
// @Success 200 {object} services.MatchResult
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]interface{} "Invalid transition"
// @Security BearerAuth
// @Router /matches/{matchID}/cancel [post]
func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(req transitionRequest) (*services.MatchResult, error) {
		return h.matchService.Cancel(r.Context(), req.actor, req.matchID, req.key)
	})
}

type transitionRequest struct {
	actor   models.Actor
	matchID int
	key     string
}

func (h *MatchHandler) transition(w http.ResponseWriter, r *http.Request, apply func(transitionRequest) (*services.MatchResult, error)) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	result, err := apply(transitionRequest{
		actor:   actor,
		matchID: matchID,
		key:     r.Header.Get(idempotencyKeyHeader),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
