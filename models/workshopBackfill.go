package models

import (
	"context"

	"gorm.io/gorm"
)

// WorkshopBackfillResult lists what a role backfill did, per workshop.
type WorkshopBackfillResult struct {
	Assigned     []*Workshop
	Unclassified []*Workshop
	Skipped      []*Workshop
}

// BackfillWorkshopRoles assigns a role to every workshop without one, using
// the legacy name rule. Workshops that already have a role are left alone.
// With dryRun nothing is written.
func BackfillWorkshopRoles(ctx context.Context, db *gorm.DB, dryRun bool) (*WorkshopBackfillResult, error) {
	workshops, err := ListWorkshops(ctx, db)
	if err != nil {
		return nil, err
	}
	result := &WorkshopBackfillResult{}
	for _, w := range workshops {
		if w.Role != WorkshopRoleNone {
			result.Skipped = append(result.Skipped, w)
			continue
		}
		role, ok := ClassifyWorkshopName(w.Name)
		if !ok {
			result.Unclassified = append(result.Unclassified, w)
			continue
		}
		if !dryRun {
			if err := SetWorkshopRole(ctx, db, w.ID, role); err != nil {
				return nil, err
			}
		}
		w.Role = role
		result.Assigned = append(result.Assigned, w)
	}
	return result, nil
}
