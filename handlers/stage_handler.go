package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-stages/services"
)

type StageHandler struct {
	stageService services.StageService
}

func NewStageHandler(ss services.StageService) *StageHandler {
	return &StageHandler{stageService: ss}
}

type createStagesInput struct {
	Stages []services.StageSpec `json:"stages"`
}

// CreateStages godoc
// @Summary Append stages to a tournament
// @Tags stages
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body createStagesInput true "Stage specs in play order"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string "Invalid configuration"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/stages [post]
func (h *StageHandler) CreateStages(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input createStagesInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stages, err := h.stageService.CreateStages(r.Context(), tournamentID, input.Stages)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"stages": stages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListStages godoc
// @Summary List the stages of a tournament in play order
// @Tags stages
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID}/stages [get]
func (h *StageHandler) ListStages(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stages, err := h.stageService.ListStages(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stages": stages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStage godoc
// @Summary Get a stage with its groups
// @Tags stages
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /stages/{stageID} [get]
func (h *StageHandler) GetStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stage, err := h.stageService.GetStage(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stage": stage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartStage godoc
// @Summary Activate a pending stage
// @Tags stages
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Stage is not pending or the previous one is unfinished"
// @Security BearerAuth
// @Router /stages/{stageID}/start [post]
func (h *StageHandler) StartStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stage, err := h.stageService.StartStage(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stage": stage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CompleteStage godoc
// @Summary Complete an active stage and store its advancement
// @Tags stages
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 200 {object} services.AdvancementResult
// @Failure 409 {object} map[string]interface{} "Unfinished matches"
// @Security BearerAuth
// @Router /stages/{stageID}/complete [post]
func (h *StageHandler) CompleteStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	adv, err := h.stageService.CompleteStage(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"advancement": adv}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Advancement godoc
// @Summary Advanced and eliminated participants of a completed stage
// @Tags stages
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 200 {object} services.AdvancementResult
// @Failure 409 {object} map[string]interface{} "Stage not completed"
// @Router /stages/{stageID}/advancement [get]
func (h *StageHandler) Advancement(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	adv, err := h.stageService.CalculateAdvancement(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"advancement": adv}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateNextStage godoc
// @Summary Seed and activate the stage after this one
// @Tags stages
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 200 {object} services.NextStageResult
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /stages/{stageID}/next [post]
func (h *StageHandler) GenerateNextStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	result, err := h.stageService.GenerateNextStage(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateSwissRound godoc
// @Summary Pair the next Swiss round
// @Tags stages
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /stages/{stageID}/swiss-rounds [post]
func (h *StageHandler) GenerateSwissRound(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	count, err := h.stageService.GenerateSwissRound(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches_created": count}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
