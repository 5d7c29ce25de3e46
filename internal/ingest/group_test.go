package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolattend/internal/model"
)

func TestGroupRows(t *testing.T) {
	rows := []Row{
		{Name: "Asha Verma", Class: "9 A", ClockIn: "09:05", ClockOut: "15:10", DayAndDate: "2024-03-15"},
		{Name: "Rahul", Class: "9A", ClockIn: "--:--", ClockOut: "", DayAndDate: "2024-03-15"},
		{Name: "Asha Verma", Class: "9 A", ClockIn: "10:00", ClockOut: "16:00", DayAndDate: "2024-03-15"},
		{Name: "Asha Verma", Class: "9 A", ClockIn: "9:00 am", ClockOut: "4 PM", DayAndDate: "2024-03-16"},
	}
	groups := GroupRows(rows)
	require.Len(t, groups, 2)

	asha := groups[0]
	assert.Equal(t, "ashaverma_9a", asha.Key)
	assert.Equal(t, "Asha Verma", asha.Name)
	assert.Equal(t, "9 A", asha.Class)
	assert.Equal(t, []model.AttendanceRecord{
		{ClockIn: "9:05 AM", ClockOut: "3:10 PM", DayAndDate: "2024-03-15"},
		{ClockIn: "9:00 AM", ClockOut: "4:00 PM", DayAndDate: "2024-03-16"},
	}, asha.Records)

	rahul := groups[1]
	assert.Equal(t, "rahul_9a", rahul.Key)
	assert.Equal(t, []model.AttendanceRecord{
		{ClockIn: model.NoTime, ClockOut: model.NoTime, DayAndDate: "2024-03-15"},
	}, rahul.Records)
}

func TestClassResolverCachesHitsAndMisses(t *testing.T) {
	calls := map[string]int{}
	users := func(_ context.Context, name string) (string, bool, error) {
		calls["users:"+name]++
		if name == "Asha Verma" {
			return "9A", true, nil
		}
		return "", false, nil
	}
	attendance := func(_ context.Context, name string) (string, bool, error) {
		calls["attendance:"+name]++
		if name == "Rahul" {
			return "10B", true, nil
		}
		return "", false, nil
	}
	r := NewClassResolver(users, attendance)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		class, ok, err := r.Resolve(ctx, "Asha Verma")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "9A", class)

		class, ok, err = r.Resolve(ctx, "Rahul")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "10B", class)

		_, ok, err = r.Resolve(ctx, "asha verma")
		require.NoError(t, err)
		assert.False(t, ok, "matching is case-sensitive")
	}

	assert.Equal(t, 1, calls["users:Asha Verma"])
	assert.Equal(t, 0, calls["attendance:Asha Verma"])
	assert.Equal(t, 1, calls["users:Rahul"])
	assert.Equal(t, 1, calls["attendance:Rahul"])
	assert.Equal(t, 1, calls["users:asha verma"])
	assert.Equal(t, 1, calls["attendance:asha verma"])
}

func TestClassResolverPropagatesErrors(t *testing.T) {
	boom := errors.New("backend down")
	r := NewClassResolver(func(context.Context, string) (string, bool, error) {
		return "", false, boom
	})
	_, _, err := r.Resolve(context.Background(), "Asha")
	assert.ErrorIs(t, err, boom)
}
