package drivers

import (
	"sort"
	"time"

	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
)

// MergeUnavailabilities reduces a driver's windows to the minimal merged set.
// Windows merge only with windows of the same type, and touching counts as
// mergeable even though touching windows never conflict with a booking.
//
// The function is idempotent: feeding its own output back in returns the same
// set. It runs on every write path so readers can always assume the invariant
// holds.
func MergeUnavailabilities(windows []models.DriverUnavailability, now time.Time) []models.DriverUnavailability {
	groups := make(map[enums.UnavailabilityType][]models.DriverUnavailability)
	for _, w := range windows {
		groups[w.Type] = append(groups[w.Type], w)
	}

	merged := make([]models.DriverUnavailability, 0, len(windows))
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			return group[i].StartsAt.Before(group[j].StartsAt)
		})

		var acc []models.DriverUnavailability
		for _, current := range group {
			if len(acc) == 0 {
				acc = append(acc, current)
				continue
			}
			last := &acc[len(acc)-1]
			if last.EndsAt.Before(current.StartsAt) {
				acc = append(acc, current)
				continue
			}
			absorb(last, current, now)
		}
		merged = append(merged, acc...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].StartsAt.Equal(merged[j].StartsAt) {
			return merged[i].Type < merged[j].Type
		}
		return merged[i].StartsAt.Before(merged[j].StartsAt)
	})
	return merged
}

// absorb folds incoming into acc: widest extent, the accumulated reason wins
// over the incoming one, earliest creation time.
func absorb(acc *models.DriverUnavailability, incoming models.DriverUnavailability, now time.Time) {
	if incoming.StartsAt.Before(acc.StartsAt) {
		acc.StartsAt = incoming.StartsAt
	}
	if incoming.EndsAt.After(acc.EndsAt) {
		acc.EndsAt = incoming.EndsAt
	}
	if emptyReason(acc.Reason) && !emptyReason(incoming.Reason) {
		acc.Reason = incoming.Reason
	}
	if incoming.CreatedAt.Before(acc.CreatedAt) {
		acc.CreatedAt = incoming.CreatedAt
	}
	acc.UpdatedAt = now
}

func emptyReason(reason *string) bool {
	return reason == nil || *reason == ""
}
