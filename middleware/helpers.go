package middleware

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/tournament-stages/models"
)

const (
	jwtClaimUserID         = "user_id"
	jwtClaimRole           = "role"
	jwtClaimParticipantIDs = "participant_ids"
)

func actorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	userID, err := intClaim(claims[jwtClaimUserID], jwtClaimUserID)
	if err != nil {
		return models.Actor{}, err
	}
	if userID <= 0 {
		return models.Actor{}, fmt.Errorf("invalid user ID value in '%s' claim: %d", jwtClaimUserID, userID)
	}

	roleStr, ok := claims[jwtClaimRole].(string)
	if !ok {
		return models.Actor{}, fmt.Errorf("missing or invalid '%s' claim", jwtClaimRole)
	}
	role := models.UserRole(roleStr)
	switch role {
	case models.RoleAdmin, models.RoleOrganizer, models.RolePlayer:
	default:
		return models.Actor{}, fmt.Errorf("invalid role value in claim: %q", roleStr)
	}

	actor := models.Actor{UserID: userID, Role: role}
	if raw, ok := claims[jwtClaimParticipantIDs]; ok && raw != nil {
		list, ok := raw.([]interface{})
		if !ok {
			return models.Actor{}, fmt.Errorf("invalid type for '%s' claim: expected array, got %T", jwtClaimParticipantIDs, raw)
		}
		for _, item := range list {
			id, err := intClaim(item, jwtClaimParticipantIDs)
			if err != nil {
				return models.Actor{}, err
			}
			actor.ParticipantIDs = append(actor.ParticipantIDs, id)
		}
	}
	return actor, nil
}

// intClaim accepts JSON numbers and numeric strings.
func intClaim(v interface{}, name string) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("'%s' claim is not an integer: %f", name, n)
		}
		return int(n), nil
	case string:
		id, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("'%s' claim is not an integer: %q", name, n)
		}
		return id, nil
	case nil:
		return 0, fmt.Errorf("missing '%s' claim in token", name)
	}
	return 0, fmt.Errorf("invalid type for '%s' claim: expected number or string, got %T", name, v)
}
