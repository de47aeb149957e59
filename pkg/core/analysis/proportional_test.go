package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

func TestAllocateProportional_EvenSplit(t *testing.T) {
	// 26 hours over a table where nurse and aide each hold 50% of records
	records := []model.OccupancyRecord{
		record(1, 9, 0, "p1", "nurse", "full_time"),
		record(1, 9, 0, "p2", "aide", "part_time"),
	}

	byRole, byEmployment, warnings := AllocateProportional(records, 26.0)

	assert.Empty(t, warnings)
	assert.InDelta(t, 13.0, byRole.Shares["nurse"], 1e-9)
	assert.InDelta(t, 13.0, byRole.Shares["aide"], 1e-9)
	assert.InDelta(t, 26.0, byRole.Sum(), 1e-9)
	assert.InDelta(t, 13.0, byEmployment.Shares["full_time"], 1e-9)
	assert.InDelta(t, 26.0, byEmployment.Sum(), 1e-9)
}

func TestAllocateProportional_Conservation(t *testing.T) {
	var records []model.OccupancyRecord
	roles := []string{"nurse", "nurse", "nurse", "aide", "clerk", "clerk", "driver"}
	for i, role := range roles {
		records = append(records, record(1+i%3, 9, 0, string(rune('a'+i)), role, "full_time"))
	}

	byRole, byEmployment, _ := AllocateProportional(records, 17.3)

	assert.InDelta(t, 17.3, byRole.Sum(), 1e-9)
	assert.InDelta(t, 17.3, byEmployment.Sum(), 1e-9)
	assert.InDelta(t, 17.3, byRole.Total, 1e-9)
}

func TestAllocateProportional_OnlyOrdinaryWorkingRecords(t *testing.T) {
	leave := record(1, 9, 0, "p2", "aide", "part_time")
	leave.DayType = model.DayTypeLeavePaid
	notWorking := record(1, 9, 0, "p3", "clerk", "full_time")
	notWorking.WorkedSlots = 0

	records := []model.OccupancyRecord{
		record(1, 9, 0, "p1", "nurse", "full_time"),
		leave,
		notWorking,
	}

	byRole, _, warnings := AllocateProportional(records, 10.0)

	assert.Empty(t, warnings)
	require.Len(t, byRole.Shares, 1)
	assert.InDelta(t, 10.0, byRole.Shares["nurse"], 1e-9)
}

func TestAllocateProportional_EmptyTable(t *testing.T) {
	byRole, byEmployment, warnings := AllocateProportional(nil, 10.0)

	assert.Empty(t, byRole.Shares)
	assert.Empty(t, byEmployment.Shares)
	assert.NotEmpty(t, warnings)
	assert.InDelta(t, 10.0, byRole.Total, 1e-9)
}

func TestAllocateProportional_NegativeTotalClamped(t *testing.T) {
	records := []model.OccupancyRecord{record(1, 9, 0, "p1", "nurse", "full_time")}

	byRole, _, warnings := AllocateProportional(records, -4.0)

	assert.NotEmpty(t, warnings)
	assert.InDelta(t, 0.0, byRole.Sum(), 1e-9)
	assert.InDelta(t, 0.0, byRole.Total, 1e-9)
}
