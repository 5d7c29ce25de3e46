package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToISODate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15/03/2024", "2024-03-15"},
		{"2024-03-15", "2024-03-15"},
		{"not a date", ""},
		{"", ""},
		{"1/8/2025", "2025-08-01"},
		{"01-08-2025", "2025-08-01"},
		{" 15/03/2024 ", "2024-03-15"},
		{"31/02/2024", ""},
		{"15/13/2024", ""},
		{"15 Mar 2024", "2024-03-15"},
		{"Mar 15, 2024", "2024-03-15"},
		{"2024-03-15T10:30:00Z", "2024-03-15"},
		{"9:05", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToISODate(tt.in))
		})
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"14:05", "2:05 PM"},
		{"9:30 AM", "9:30 AM"},
		{"00:00", "12:00 AM"},
		{"00:45", "12:45 AM"},
		{"12:10", "12:10 PM"},
		{"09:05", "9:05 AM"},
		{"9:30 am", "9:30 AM"},
		{"9:30pm", "9:30 PM"},
		{"09:07 PM", "9:07 PM"},
		{"9 AM", "9:00 AM"},
		{"11pm", "11:00 PM"},
		{"17:10:00", "5:10 PM"},
		{"25:00", "25:00"},
		{"absent", "absent"},
		{"--:--", "--:--"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTime(tt.in))
		})
	}
}

func TestSerialToISODate(t *testing.T) {
	assert.Equal(t, "2024-03-15", SerialToISODate(45366))
	assert.Equal(t, "", SerialToISODate(0))
}

func TestSheetClock(t *testing.T) {
	assert.Equal(t, "9:00", sheetClock("0.375"))
	assert.Equal(t, "17:30", sheetClock("0.7291666666666666"))
	assert.Equal(t, "9:05 AM", sheetClock("9:05 AM"))
	assert.Equal(t, "", sheetClock(""))
}
