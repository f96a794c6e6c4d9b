package services

import (
	"errors"

	"github.com/snackcart/affiliate_engine/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// TreeFanOut is the structural limit on direct children (binary tree).
	TreeFanOut = 2
	// MaxCommissionDepth bounds every ancestor walk.
	MaxCommissionDepth = 3
	// bfsVisitLimit caps spillover searches so a corrupted tree can never
	// send the queue into an endless loop.
	bfsVisitLimit = 10000
)

// Placement is where a new affiliate ends up in the tree. ReferrerID always
// names the original inviter; ParentID is the actual slot, which differs
// from the referrer once spillover kicks in.
type Placement struct {
	ParentID   *uuid.UUID
	Position   *string
	ReferrerID *uuid.UUID
}

// PlaceAffiliate resolves referrerCode and finds a slot for newID: directly
// under the referrer when a slot is open (left before right), otherwise at
// the first open slot breadth-first below the referrer.
//
// Unknown codes fail with ErrUnknownReferrer. A would-be self-reference or a
// referrer whose ancestor chain loops fails with ErrInvalidTreeOperation /
// ErrCorruptTree; callers are expected to fall back to root placement rather
// than drop the registration.
func PlaceAffiliate(tx *gorm.DB, newID uuid.UUID, referrerCode string) (*Placement, error) {
	var referrer models.Affiliate
	if err := tx.Where("coupon_code = ?", referrerCode).First(&referrer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownReferrer
		}
		return nil, err
	}

	if referrer.ID == newID {
		return nil, ErrInvalidTreeOperation
	}

	// Linking under the referrer must not put newID above itself. A fresh
	// id can't appear in anyone's ancestor chain, but rows imported from
	// the old system have been seen self-referencing, so check anyway.
	chain, err := ancestorIDs(tx, referrer.ID, bfsVisitLimit)
	if err != nil {
		return nil, err
	}
	for _, id := range chain {
		if id == newID {
			return nil, ErrInvalidTreeOperation
		}
	}

	parentID, position, err := findOpenSlot(tx, referrer.ID)
	if err != nil {
		return nil, err
	}

	refID := referrer.ID
	return &Placement{ParentID: &parentID, Position: &position, ReferrerID: &refID}, nil
}

// findOpenSlot walks the subtree under rootID breadth-first and returns the
// first node with fewer than TreeFanOut children, left slot before right.
func findOpenSlot(tx *gorm.DB, rootID uuid.UUID) (uuid.UUID, string, error) {
	queue := []uuid.UUID{rootID}
	visited := map[uuid.UUID]bool{rootID: true}

	for len(queue) > 0 {
		if len(visited) > bfsVisitLimit {
			return uuid.Nil, "", ErrCorruptTree
		}
		nodeID := queue[0]
		queue = queue[1:]

		var children []models.Affiliate
		if err := tx.Where("parent_id = ?", nodeID).Order("position asc").Find(&children).Error; err != nil {
			return uuid.Nil, "", err
		}

		if len(children) < TreeFanOut {
			taken := map[string]bool{}
			for _, c := range children {
				if c.Position != nil {
					taken[*c.Position] = true
				}
			}
			if !taken[models.PositionLeft] {
				return nodeID, models.PositionLeft, nil
			}
			return nodeID, models.PositionRight, nil
		}

		for _, c := range children {
			if visited[c.ID] {
				return uuid.Nil, "", ErrCorruptTree
			}
			visited[c.ID] = true
			queue = append(queue, c.ID)
		}
	}

	return uuid.Nil, "", ErrCorruptTree
}

// Ancestors returns up to maxDepth ancestors of affiliateID, nearest first.
// The walk is hard-capped at maxDepth and aborts with ErrCorruptTree if it
// revisits a node, so a cyclic parent chain can never hang a request.
func Ancestors(tx *gorm.DB, affiliateID uuid.UUID, maxDepth int) ([]models.Affiliate, error) {
	var start models.Affiliate
	if err := tx.Select("id", "parent_id").First(&start, "id = ?", affiliateID).Error; err != nil {
		return nil, err
	}

	var out []models.Affiliate
	visited := map[uuid.UUID]bool{affiliateID: true}
	nextID := start.ParentID

	for depth := 0; depth < maxDepth && nextID != nil; depth++ {
		if visited[*nextID] {
			return nil, ErrCorruptTree
		}
		visited[*nextID] = true

		var parent models.Affiliate
		if err := tx.First(&parent, "id = ?", *nextID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCorruptTree
			}
			return nil, err
		}
		out = append(out, parent)
		nextID = parent.ParentID
	}

	return out, nil
}

// ancestorIDs walks the full parent chain (no depth limit beyond the visit
// cap) and is used to validate placements before linking.
func ancestorIDs(tx *gorm.DB, affiliateID uuid.UUID, limit int) ([]uuid.UUID, error) {
	var out []uuid.UUID
	visited := map[uuid.UUID]bool{affiliateID: true}

	currentID := affiliateID
	for len(out) < limit {
		var node models.Affiliate
		if err := tx.Select("id", "parent_id").First(&node, "id = ?", currentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCorruptTree
			}
			return nil, err
		}
		if node.ParentID == nil {
			return out, nil
		}
		if visited[*node.ParentID] {
			return nil, ErrCorruptTree
		}
		visited[*node.ParentID] = true
		out = append(out, *node.ParentID)
		currentID = *node.ParentID
	}
	return nil, ErrCorruptTree
}
