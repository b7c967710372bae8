package drivers

import (
	"testing"
	"time"

	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mergeNow = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

func window(kind enums.UnavailabilityType, start, end time.Time) models.DriverUnavailability {
	return models.DriverUnavailability{
		ID:        uuid.New(),
		DriverID:  uuid.New(),
		Type:      kind,
		StartsAt:  start,
		EndsAt:    end,
		CreatedAt: mergeNow,
		UpdatedAt: mergeNow,
	}
}

func day(weekday, hour int) time.Time {
	// March 2 2026 is a Monday.
	return time.Date(2026, time.March, 2+weekday, hour, 0, 0, 0, time.UTC)
}

func TestMergeOverlappingSameType(t *testing.T) {
	// Illness Mon 09:00-17:00 plus illness Mon 15:00-Tue 09:00 collapses to
	// one window Mon 09:00-Tue 09:00.
	merged := MergeUnavailabilities([]models.DriverUnavailability{
		window(enums.UnavailabilityTypeIllness, day(0, 9), day(0, 17)),
		window(enums.UnavailabilityTypeIllness, day(0, 15), day(1, 9)),
	}, mergeNow)

	require.Len(t, merged, 1)
	assert.Equal(t, day(0, 9), merged[0].StartsAt)
	assert.Equal(t, day(1, 9), merged[0].EndsAt)
	assert.Equal(t, enums.UnavailabilityTypeIllness, merged[0].Type)
}

func TestMergeTouchingWindows(t *testing.T) {
	merged := MergeUnavailabilities([]models.DriverUnavailability{
		window(enums.UnavailabilityTypeVacation, day(0, 9), day(0, 12)),
		window(enums.UnavailabilityTypeVacation, day(0, 12), day(0, 17)),
	}, mergeNow)

	require.Len(t, merged, 1)
	assert.Equal(t, day(0, 9), merged[0].StartsAt)
	assert.Equal(t, day(0, 17), merged[0].EndsAt)
}

func TestMergeKeepsDistinctTypesApart(t *testing.T) {
	merged := MergeUnavailabilities([]models.DriverUnavailability{
		window(enums.UnavailabilityTypeVacation, day(0, 9), day(0, 17)),
		window(enums.UnavailabilityTypeAppointment, day(0, 10), day(0, 11)),
	}, mergeNow)

	require.Len(t, merged, 2)
	assert.NotEqual(t, merged[0].Type, merged[1].Type)
}

func TestMergeDisjointStaysDisjoint(t *testing.T) {
	merged := MergeUnavailabilities([]models.DriverUnavailability{
		window(enums.UnavailabilityTypeOther, day(0, 9), day(0, 11)),
		window(enums.UnavailabilityTypeOther, day(0, 14), day(0, 16)),
	}, mergeNow)

	require.Len(t, merged, 2)
	assert.Equal(t, day(0, 9), merged[0].StartsAt)
	assert.Equal(t, day(0, 14), merged[1].StartsAt)
}

func TestMergeChainCollapsesTransitively(t *testing.T) {
	merged := MergeUnavailabilities([]models.DriverUnavailability{
		window(enums.UnavailabilityTypeVacation, day(0, 9), day(0, 12)),
		window(enums.UnavailabilityTypeVacation, day(0, 11), day(0, 14)),
		window(enums.UnavailabilityTypeVacation, day(0, 14), day(0, 18)),
	}, mergeNow)

	require.Len(t, merged, 1)
	assert.Equal(t, day(0, 9), merged[0].StartsAt)
	assert.Equal(t, day(0, 18), merged[0].EndsAt)
}

func TestMergeReasonAndCreatedAt(t *testing.T) {
	reason := "knee surgery"
	older := window(enums.UnavailabilityTypeIllness, day(0, 10), day(0, 12))
	older.CreatedAt = mergeNow.Add(-48 * time.Hour)
	newer := window(enums.UnavailabilityTypeIllness, day(0, 11), day(0, 15))
	newer.Reason = &reason

	merged := MergeUnavailabilities([]models.DriverUnavailability{older, newer}, mergeNow)

	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].Reason)
	assert.Equal(t, reason, *merged[0].Reason)
	assert.Equal(t, mergeNow.Add(-48*time.Hour), merged[0].CreatedAt)
	assert.Equal(t, mergeNow, merged[0].UpdatedAt)
}

func TestMergeIsIdempotent(t *testing.T) {
	input := []models.DriverUnavailability{
		window(enums.UnavailabilityTypeIllness, day(0, 9), day(0, 17)),
		window(enums.UnavailabilityTypeIllness, day(0, 15), day(1, 9)),
		window(enums.UnavailabilityTypeVacation, day(2, 8), day(4, 20)),
	}

	once := MergeUnavailabilities(input, mergeNow)
	twice := MergeUnavailabilities(once, mergeNow)

	require.Equal(t, len(once), len(twice))
	for i := range once {
		assert.Equal(t, once[i].StartsAt, twice[i].StartsAt)
		assert.Equal(t, once[i].EndsAt, twice[i].EndsAt)
		assert.Equal(t, once[i].Type, twice[i].Type)
	}
}

func TestMergeSortsByStartThenType(t *testing.T) {
	merged := MergeUnavailabilities([]models.DriverUnavailability{
		window(enums.UnavailabilityTypeVacation, day(3, 9), day(3, 12)),
		window(enums.UnavailabilityTypeIllness, day(0, 9), day(0, 12)),
		window(enums.UnavailabilityTypeAppointment, day(1, 9), day(1, 10)),
	}, mergeNow)

	require.Len(t, merged, 3)
	assert.True(t, merged[0].StartsAt.Before(merged[1].StartsAt))
	assert.True(t, merged[1].StartsAt.Before(merged[2].StartsAt))
}
