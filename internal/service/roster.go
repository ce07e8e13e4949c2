package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gatherhub/ticketing/internal/models"
)

var (
	ErrInvalidTeam   = errors.New("invalid team roster")
	ErrInvalidMember = errors.New("invalid team member")
	ErrInvalidLeader = errors.New("team must have exactly one leader")
)

// 10-digit local mobile format.
var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

type RosterMember struct {
	Name     string
	Phone    string
	IsLeader bool
}

type Roster struct {
	Name    string
	Members []RosterMember
}

// ValidateRoster enforces team-size bounds, member shape and leader
// designation. It is pure and runs strictly before any capacity reservation,
// so a rejected roster never touches the ledger.
func ValidateRoster(event *models.Event, roster *Roster) error {
	if strings.TrimSpace(roster.Name) == "" {
		return fmt.Errorf("%w: team name is required", ErrInvalidTeam)
	}

	size := len(roster.Members)
	if size < event.MinTeamSize || size > event.MaxTeamSize {
		return fmt.Errorf("%w: team size must be between %d and %d, got %d",
			ErrInvalidTeam, event.MinTeamSize, event.MaxTeamSize, size)
	}

	leaders := 0
	for i, m := range roster.Members {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: member %d has an empty name", ErrInvalidMember, i+1)
		}
		if !phonePattern.MatchString(m.Phone) {
			return fmt.Errorf("%w: member %d has an invalid contact number", ErrInvalidMember, i+1)
		}
		if m.IsLeader {
			leaders++
		}
	}

	if leaders != 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidLeader, leaders)
	}
	return nil
}
