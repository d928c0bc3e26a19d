package standings

import (
	"sort"

	"github.com/Dosada05/tournament-stages/models"
)

// TiebreakerSnapshot is the flat audit view of the values the chain compared.
type TiebreakerSnapshot struct {
	Points       int `json:"points"`
	Wins         int `json:"wins"`
	Differential int `json:"differential"`
	For          int `json:"for"`
}

type ExportEntry struct {
	Rank          int                `json:"rank"`
	ParticipantID int                `json:"participant_id"`
	UserID        *int               `json:"user_id,omitempty"`
	TeamID        *int               `json:"team_id,omitempty"`
	Points        int                `json:"points"`
	Played        int                `json:"played"`
	Wins          int                `json:"wins"`
	Draws         int                `json:"draws"`
	Losses        int                `json:"losses"`
	Advancing     bool               `json:"advancing"`
	Eliminated    bool               `json:"eliminated"`
	Tiebreakers   TiebreakerSnapshot `json:"tiebreakers"`
}

type ExportGroup struct {
	GroupID      int           `json:"group_id"`
	Name         string        `json:"name"`
	DisplayOrder int           `json:"display_order"`
	Entries      []ExportEntry `json:"entries"`
}

type Export struct {
	StageID     int                `json:"stage_id"`
	ScoringType models.ScoringType `json:"scoring_type"`
	Groups      []ExportGroup      `json:"groups"`
}

// BuildExport groups ranked standings under their group, groups in display
// order and entries by rank.
func BuildExport(stageID int, groups []*models.Group, rows []*models.Standing, scoring models.ScoringType) (*Export, error) {
	fam, err := familyFor(scoring)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[int][]*models.Standing, len(groups))
	for _, s := range rows {
		byGroup[s.GroupID] = append(byGroup[s.GroupID], s)
	}

	sortedGroups := make([]*models.Group, len(groups))
	copy(sortedGroups, groups)
	sort.SliceStable(sortedGroups, func(i, j int) bool { return sortedGroups[i].DisplayOrder < sortedGroups[j].DisplayOrder })

	export := &Export{StageID: stageID, ScoringType: scoring, Groups: make([]ExportGroup, 0, len(groups))}
	for _, g := range sortedGroups {
		members := byGroup[g.ID]
		sort.SliceStable(members, func(i, j int) bool { return rankOf(members[i]) < rankOf(members[j]) })

		eg := ExportGroup{GroupID: g.ID, Name: g.Name, DisplayOrder: g.DisplayOrder, Entries: make([]ExportEntry, 0, len(members))}
		for _, s := range members {
			eg.Entries = append(eg.Entries, ExportEntry{
				Rank:          rankOf(s),
				ParticipantID: s.ParticipantID,
				UserID:        s.UserID,
				TeamID:        s.TeamID,
				Points:        s.Points,
				Played:        s.MatchesPlayed,
				Wins:          s.Wins,
				Draws:         s.Draws,
				Losses:        s.Losses,
				Advancing:     s.IsAdvancing,
				Eliminated:    s.IsEliminated,
				Tiebreakers: TiebreakerSnapshot{
					Points:       s.Points,
					Wins:         s.Wins,
					Differential: fam.differential(s.Counters),
					For:          fam.scoreFor(s.Counters),
				},
			})
		}
		export.Groups = append(export.Groups, eg)
	}
	return export, nil
}

func rankOf(s *models.Standing) int {
	if s.Rank == nil {
		return 1 << 30
	}
	return *s.Rank
}
