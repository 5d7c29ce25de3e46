package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"schoolattend/internal/model"
	"schoolattend/internal/store"
)

func newTestService() (*Service, *store.Memory) {
	mem := store.NewMemory()
	svc := NewService(mem, nil)
	svc.cost = bcrypt.MinCost
	return svc, mem
}

func TestCreateValidates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := map[string]NewUser{
		"no name":           {Role: model.RoleTeacher},
		"unknown role":      {Name: "Asha", Role: "parent"},
		"student no class":  {Name: "Asha", Role: model.RoleStudent},
		"password no email": {Name: "Meera", Role: model.RoleTeacher, Password: "pw"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidUser)
		})
	}
}

func TestCreateAndAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Create(ctx, NewUser{Name: " Meera Nair ", Role: "Teacher", Email: "meera@school.test", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "Meera Nair", u.Name)
	assert.Equal(t, model.RoleTeacher, u.Role)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	_, err = svc.Create(ctx, NewUser{Name: "Other", Role: model.RoleTeacher, Email: "MEERA@school.test"})
	assert.ErrorIs(t, err, ErrInvalidUser)

	got, err := svc.Authenticate(ctx, "Meera@School.test", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "meera@school.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@school.test", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDeleteStudentCascadesToAttendance(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	student, err := svc.Create(ctx, NewUser{Name: "Asha Verma", Class: "9A", Role: model.RoleStudent})
	require.NoError(t, err)
	require.NoError(t, mem.CommitAttendance(ctx, []model.AttendanceWrite{{
		ID: model.DocKey("Asha Verma", "9A"), Name: "Asha Verma", Class: "9A", Create: true,
		Entries: []model.AttendanceRecord{{ClockIn: "9:00 AM", ClockOut: "5:00 PM", DayAndDate: "2025-08-01"}},
	}}))

	require.NoError(t, svc.Delete(ctx, student.ID))

	_, err = svc.Get(ctx, student.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = mem.AttendanceDoc(ctx, "ashaverma_9a")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, student.ID), store.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, in := range []NewUser{
		{Name: "Ravi", Class: "9B", Role: model.RoleStudent},
		{Name: "Asha", Class: "9A", Role: model.RoleStudent},
		{Name: "Meera", Role: model.RoleTeacher},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	students, err := svc.List(ctx, "STUDENT", "")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Asha", students[0].Name)

	nineB, err := svc.List(ctx, "", "9B")
	require.NoError(t, err)
	require.Len(t, nineB, 1)
	assert.Equal(t, "Ravi", nineB[0].Name)
}
