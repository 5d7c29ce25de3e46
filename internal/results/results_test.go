package results

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolattend/internal/model"
	"schoolattend/internal/store"
)

func mark(name, class, subject string, marks, outOf float64) model.Result {
	return model.Result{Name: name, Class: class, Subject: subject, Marks: marks, MaxMarks: outOf}
}

func TestLeaderboardRanksWithTies(t *testing.T) {
	rs := []model.Result{
		mark("Ravi", "9A", "Maths", 45, 50),
		mark("Ravi", "9A", "Science", 45, 50),
		mark("Asha", "9A", "Maths", 90, 100),
		mark("Dev", "9A", "Maths", 80, 100),
		mark("Zoe", "9A", "Maths", 90, 100),
		mark("Other", "9B", "Maths", 100, 100),
	}
	board := Leaderboard(rs, "9A")
	require.Len(t, board, 4)

	var got []string
	var ranks []int
	for _, s := range board {
		got = append(got, s.Name)
		ranks = append(ranks, s.Rank)
	}
	assert.Equal(t, []string{"Asha", "Ravi", "Zoe", "Dev"}, got)
	assert.Equal(t, []int{1, 1, 1, 4}, ranks)
	assert.Equal(t, 2, board[1].Subjects)
	assert.Equal(t, 90.0, board[1].Percentage)
	assert.Equal(t, 80.0, board[3].Percentage)

	all := Leaderboard(rs, "")
	require.Len(t, all, 5)
	assert.Equal(t, "Other", all[0].Name)
}

func TestLeaderboardRoundsPercentage(t *testing.T) {
	board := Leaderboard([]model.Result{mark("Asha", "9A", "Maths", 2, 3)}, "")
	require.Len(t, board, 1)
	assert.Equal(t, 66.67, board[0].Percentage)
}

func TestRecordValidates(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	for name, r := range map[string]model.Result{
		"missing subject": mark("Asha", "9A", "", 5, 10),
		"zero max":        mark("Asha", "9A", "Maths", 0, 0),
		"above max":       mark("Asha", "9A", "Maths", 11, 10),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Record(ctx, r)
			assert.ErrorIs(t, err, ErrInvalidResult)
		})
	}

	saved, err := svc.Record(ctx, mark(" Asha ", "9A", "Maths", 7, 10))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "Asha", saved.Name)

	board, err := svc.Leaderboard(ctx, "9A")
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 70.0, board[0].Percentage)
}
