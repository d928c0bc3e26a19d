package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-stages/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// GroupStandings godoc
// @Summary Ranked standings of a group
// @Tags standings
// @Produce json
// @Param groupID path int true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /groups/{groupID}/standings [get]
func (h *StandingsHandler) GroupStandings(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rows, err := h.standingsService.ListGroupStandings(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) RecalculateGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rows, err := h.standingsService.CalculateStandings(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) RecalculateStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	byGroup, err := h.standingsService.RecalculateStage(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": byGroup}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Export godoc
// @Summary Standings export of a stage, groups in display order
// @Tags standings
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 200 {object} standings.Export
// @Failure 404 {object} map[string]string
// @Router /stages/{stageID}/standings [get]
func (h *StandingsHandler) Export(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	export, err := h.standingsService.ExportStandings(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, export, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Archive godoc
// @Summary Upload the standings export of a stage to object storage
// @Tags standings
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 201 {object} storage.UploadResult
// @Failure 503 {object} map[string]string "Archive storage not configured"
// @Security BearerAuth
// @Router /stages/{stageID}/standings/archive [post]
func (h *StandingsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	result, err := h.standingsService.ArchiveStandings(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"archive": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
