package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolattend/internal/model"
)

func TestMemoryUserClassPrefersEarliestUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	_, err := m.CreateUser(ctx, model.User{ID: "u-a", Name: "Asha Verma", Class: "10B", Role: model.RoleStudent, CreatedAt: t0.Add(time.Hour)})
	require.NoError(t, err)
	_, err = m.CreateUser(ctx, model.User{ID: "u-z", Name: "Asha Verma", Class: "9A", Role: model.RoleStudent, CreatedAt: t0})
	require.NoError(t, err)
	_, err = m.CreateUser(ctx, model.User{ID: "u-b", Name: "Asha Verma", Role: model.RoleTeacher, CreatedAt: t0.Add(-time.Hour)})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		class, ok, err := m.UserClass(ctx, "Asha Verma")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "9A", class)
	}

	_, ok, err := m.UserClass(ctx, "asha verma")
	require.NoError(t, err)
	assert.False(t, ok, "names match case-sensitively")
}

func TestMemoryAttendanceClassPrefersLowestID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, class := range []string{"9A", "10B"} {
		require.NoError(t, m.CommitAttendance(ctx, []model.AttendanceWrite{{
			ID: model.DocKey("Ravi Kumar", class), Name: "Ravi Kumar", Class: class, Create: true,
			Entries: []model.AttendanceRecord{{ClockIn: "9:00 AM", ClockOut: "3:00 PM", DayAndDate: "2025-08-01"}},
		}}))
	}

	for i := 0; i < 10; i++ {
		class, ok, err := m.AttendanceClass(ctx, "Ravi Kumar")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "10B", class)
	}

	_, ok, err := m.AttendanceClass(ctx, "Meena")
	require.NoError(t, err)
	assert.False(t, ok)
}
