package attendance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolattend/internal/ingest"
	"schoolattend/internal/model"
	"schoolattend/internal/store"
)

const augustReport = "Monthly Attendance Report\n" +
	"Name: Asha Verma\n" +
	"01/08/2025 9:05 17:10 8:05 0:00 0:15\n" +
	"02/08/2025 9:00 17:00 8:00 0:00 0:30\n" +
	"Name: Ravi Kumar\n" +
	"01/08/2025 8:55\n"

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	_, err := mem.CreateUser(context.Background(), model.User{Name: "Asha Verma", Class: "9A", Role: model.RoleStudent})
	require.NoError(t, err)
	err = mem.CommitAttendance(context.Background(), []model.AttendanceWrite{{
		ID: model.DocKey("Ravi Kumar", "9B"), Name: "Ravi Kumar", Class: "9B", Create: true,
		Entries: []model.AttendanceRecord{{ClockIn: "9:00 AM", ClockOut: "3:00 PM", DayAndDate: "2025-07-31"}},
	}})
	require.NoError(t, err)
	return NewService(mem, nil), mem
}

func TestIngestMergesIntoDocuments(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rep, err := svc.Ingest(ctx, "august.txt", []byte(augustReport))
	require.NoError(t, err)
	assert.Equal(t, ingest.StrategyMonthlyTable, rep.Strategy)
	assert.Equal(t, 3, rep.ParsedRows)
	assert.Equal(t, 3, rep.Updated)
	assert.Equal(t, 2, rep.Documents)

	doc, err := svc.Document(ctx, "ravikumar_9b")
	require.NoError(t, err)
	require.Len(t, doc.Attendance, 2)
	assert.Equal(t, "2025-08-01", doc.Attendance[1].DayAndDate)
	assert.Equal(t, "8:55 AM", doc.Attendance[1].ClockIn)
	assert.Equal(t, model.NoTime, doc.Attendance[1].ClockOut)

	rep, err = svc.Ingest(ctx, "august.txt", []byte(augustReport))
	require.NoError(t, err)
	assert.Equal(t, 3, rep.ParsedRows)
	assert.Zero(t, rep.Updated)
}

func TestIngestWithNothingUsable(t *testing.T) {
	svc, _ := newTestService(t)
	rep, err := svc.Ingest(context.Background(), "notes.txt", []byte("Name: Nobody Known\n01/08/2025 9:00 17:00\n"))
	require.ErrorIs(t, err, ErrNoRows)
	assert.Zero(t, rep.ParsedRows)
	require.Len(t, rep.Dropped, 1)
	assert.Equal(t, ingest.ReasonUnresolvedClass, rep.Dropped[0].Reason)
}

func TestListSummarises(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Ingest(ctx, "august.txt", []byte(augustReport))
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ashaverma_9a", all[0].ID)
	assert.Equal(t, 2, all[0].PresentDays)
	assert.Equal(t, "2025-08-01", all[0].FirstDay)
	assert.Equal(t, "2025-08-02", all[0].LastDay)

	nineB, err := svc.List(ctx, "9B")
	require.NoError(t, err)
	require.Len(t, nineB, 1)
	assert.Equal(t, "2025-07-31", nineB[0].FirstDay)
}
