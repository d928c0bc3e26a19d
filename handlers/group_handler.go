package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-stages/services"
)

type GroupHandler struct {
	groupService services.GroupService
}

func NewGroupHandler(gs services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: gs}
}

// ConfigureGroups godoc
// @Summary Create the groups of a round-robin stage
// @Tags groups
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body services.ConfigureGroupsParams true "Group settings"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Groups already drawn"
// @Failure 422 {object} map[string]string "Invalid configuration"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/groups [post]
func (h *GroupHandler) ConfigureGroups(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.ConfigureGroupsParams
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.groupService.ConfigureGroups(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DrawGroups godoc
// @Summary Place participants into the configured groups
// @Tags groups
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body services.DrawParams true "Draw strategy"
// @Success 200 {object} services.DrawResult
// @Failure 409 {object} map[string]interface{} "Groups already drawn"
// @Failure 422 {object} map[string]string "No groups or participants"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/groups/draw [post]
func (h *GroupHandler) DrawGroups(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.DrawParams
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.groupService.DrawGroups(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateMatches godoc
// @Summary Build the round-robin schedule of every group of a stage
// @Tags groups
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Matches already played"
// @Security BearerAuth
// @Router /stages/{stageID}/groups/matches [post]
func (h *GroupHandler) GenerateMatches(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	count, err := h.groupService.GenerateGroupMatches(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches_created": count}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	groups, err := h.groupService.ListGroups(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
