package services

import (
	"fmt"
	"strings"

	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"gorm.io/gorm"
)

// DeletionCheck is the outcome of a dependency count before a delete.
type DeletionCheck struct {
	CanDelete  bool             `json:"canDelete"`
	Reason     string           `json:"reason,omitempty"`
	Dependents map[string]int64 `json:"dependents"`
}

type dependent struct {
	key              string
	singular, plural string
	count            int64
}

func (d dependent) String() string {
	if d.count == 1 {
		return "1 " + d.singular
	}
	return fmt.Sprintf("%d %s", d.count, d.plural)
}

func newDeletionCheck(resource string, deps ...dependent) *DeletionCheck {
	check := &DeletionCheck{CanDelete: true, Dependents: make(map[string]int64, len(deps))}
	var blocking []string
	for _, d := range deps {
		check.Dependents[d.key] = d.count
		if d.count > 0 {
			blocking = append(blocking, d.String())
		}
	}
	if len(blocking) > 0 {
		check.CanDelete = false
		check.Reason = fmt.Sprintf("Cannot delete %s: it has %s", resource, joinAnd(blocking))
	}
	return check
}

func joinAnd(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

// Conflict converts a failed check into a 409 carrying the counts.
func (c *DeletionCheck) Conflict() error {
	if c.CanDelete {
		return nil
	}
	return utils.NewConflictError(c.Reason).WithDetails(c.Dependents)
}

// CheckClientDeletion counts proposals and bookings referencing the client.
func CheckClientDeletion(tx *gorm.DB, clientID string) (*DeletionCheck, error) {
	proposals, err := database.CountWhere[models.Proposal](tx, "client_id = ?", clientID)
	if err != nil {
		return nil, err
	}
	bookings, err := database.CountWhere[models.Booking](tx, "client_id = ?", clientID)
	if err != nil {
		return nil, err
	}
	return newDeletionCheck("client",
		dependent{"proposals", "proposal", "proposals", proposals},
		dependent{"bookings", "booking", "bookings", bookings},
	), nil
}

// CheckVenueDeletion counts proposal venue options and bookings referencing the venue.
func CheckVenueDeletion(tx *gorm.DB, venueID string) (*DeletionCheck, error) {
	options, err := database.CountWhere[models.ProposalVenue](tx, "venue_id = ?", venueID)
	if err != nil {
		return nil, err
	}
	bookings, err := database.CountWhere[models.Booking](tx, "venue_id = ?", venueID)
	if err != nil {
		return nil, err
	}
	return newDeletionCheck("venue",
		dependent{"proposalVenues", "proposal option", "proposal options", options},
		dependent{"bookings", "booking", "bookings", bookings},
	), nil
}

// CheckProposalDeletion counts bookings made from the proposal.
func CheckProposalDeletion(tx *gorm.DB, proposalID string) (*DeletionCheck, error) {
	bookings, err := database.CountWhere[models.Booking](tx, "proposal_id = ?", proposalID)
	if err != nil {
		return nil, err
	}
	return newDeletionCheck("proposal", dependent{"bookings", "booking", "bookings", bookings}), nil
}
