package service

import (
	"testing"

	"github.com/gatherhub/ticketing/internal/models"
	"github.com/stretchr/testify/assert"
)

func hackathonEvent() *models.Event {
	return &models.Event{
		ID:          "evt-hack",
		Name:        "Campus Hackathon",
		IsTeamEvent: true,
		MinTeamSize: 2,
		MaxTeamSize: 4,
	}
}

func makeRoster(size, leaders int) *Roster {
	r := &Roster{Name: "Null Pointers"}
	for i := 0; i < size; i++ {
		r.Members = append(r.Members, RosterMember{
			Name:     "Member",
			Phone:    "9876543210",
			IsLeader: i < leaders,
		})
	}
	return r
}

func TestValidateRoster_SizeBounds(t *testing.T) {
	event := hackathonEvent()

	// min-1 rejected, min accepted, max accepted, max+1 rejected
	err := ValidateRoster(event, makeRoster(1, 1))
	assert.ErrorIs(t, err, ErrInvalidTeam)

	assert.NoError(t, ValidateRoster(event, makeRoster(2, 1)))
	assert.NoError(t, ValidateRoster(event, makeRoster(4, 1)))

	err = ValidateRoster(event, makeRoster(5, 1))
	assert.ErrorIs(t, err, ErrInvalidTeam)
}

func TestValidateRoster_LeaderDesignation(t *testing.T) {
	event := hackathonEvent()

	err := ValidateRoster(event, makeRoster(3, 0))
	assert.ErrorIs(t, err, ErrInvalidLeader)

	err = ValidateRoster(event, makeRoster(3, 2))
	assert.ErrorIs(t, err, ErrInvalidLeader)

	assert.NoError(t, ValidateRoster(event, makeRoster(3, 1)))
}

func TestValidateRoster_MemberShape(t *testing.T) {
	event := hackathonEvent()

	roster := makeRoster(2, 1)
	roster.Members[1].Name = "   "
	assert.ErrorIs(t, ValidateRoster(event, roster), ErrInvalidMember)

	roster = makeRoster(2, 1)
	roster.Members[0].Phone = "12345"
	assert.ErrorIs(t, ValidateRoster(event, roster), ErrInvalidMember)

	roster = makeRoster(2, 1)
	roster.Members[0].Phone = "98765x3210"
	assert.ErrorIs(t, ValidateRoster(event, roster), ErrInvalidMember)
}

func TestValidateRoster_TeamName(t *testing.T) {
	roster := makeRoster(2, 1)
	roster.Name = ""
	assert.ErrorIs(t, ValidateRoster(hackathonEvent(), roster), ErrInvalidTeam)
}
