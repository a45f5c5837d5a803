package clickup

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
)

func TestPartition(t *testing.T) {
	tasks := []Task{
		{ID: "1", Status: Status{Status: "to do", Type: "open"}},
		{ID: "2", Status: Status{Status: "done", Type: "closed"}},
		{ID: "3", Status: Status{Status: "in progress", Type: "custom"}},
		{ID: "4", Status: Status{Status: "complete", Type: "closed"}},
	}

	open, completed := Partition(tasks)

	require.Len(t, open, 2)
	require.Len(t, completed, 2)
	require.Equal(t, len(tasks), len(open)+len(completed))
	require.Equal(t, "1", open[0].ID)
	require.Equal(t, "3", open[1].ID)
	require.Equal(t, "2", completed[0].ID)
	require.Equal(t, "4", completed[1].ID)
}

func TestPartitionEmpty(t *testing.T) {
	open, completed := Partition(nil)
	require.NotNil(t, open)
	require.NotNil(t, completed)
	require.Empty(t, open)
	require.Empty(t, completed)
}

func timeToMillisString(tm time.Time) string {
	return strconv.FormatInt(tm.UnixMilli(), 10)
}

func TestInDueWindow(t *testing.T) {
	now := time.Date(2025, time.March, 10, 15, 30, 0, 0, time.UTC)
	day := func(offset int) string {
		due := now.AddDate(0, 0, offset)
		return timeToMillisString(due)
	}

	open := Status{Status: "to do", Type: "open"}
	closed := Status{Status: "done", Type: "closed"}

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"due today", Task{Status: open, DueDate: day(0)}, true},
		{"due tomorrow", Task{Status: open, DueDate: day(1)}, true},
		{"overdue", Task{Status: open, DueDate: day(-5)}, true},
		{"due in two days", Task{Status: open, DueDate: day(2)}, false},
		{"no due date", Task{Status: open}, false},
		{"closed but overdue", Task{Status: closed, DueDate: day(-1)}, false},
		{"unparseable due date", Task{Status: open, DueDate: "soon"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, InDueWindow(tc.task, now))
		})
	}
}

func TestFilterDueWindow(t *testing.T) {
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	open := Status{Status: "to do", Type: "open"}

	tasks := []Task{
		{ID: "today", Status: open, DueDate: timeToMillisString(now)},
		{ID: "someday", Status: open, DueDate: timeToMillisString(now.AddDate(0, 0, 7))},
		{ID: "overdue", Status: open, DueDate: timeToMillisString(now.AddDate(0, 0, -2))},
	}

	filtered := FilterDueWindow(tasks, now)

	require.Len(t, filtered, 2)
	require.Equal(t, "today", filtered[0].ID)
	require.Equal(t, "overdue", filtered[1].ID)
}

func TestClosedStatus(t *testing.T) {
	statuses := []Status{
		{Status: "to do", Type: "open"},
		{Status: "in progress", Type: "custom"},
		{Status: "done", Type: "closed"},
	}

	picked, err := ClosedStatus(statuses)
	require.NoError(t, err)
	require.Equal(t, "done", picked)
}

func TestClosedStatusMissing(t *testing.T) {
	_, err := ClosedStatus([]Status{{Status: "to do", Type: "open"}})
	require.ErrorIs(t, err, apperrors.ErrNoClosedStatus)
}

func TestOpenStatusPicksFirstNonClosed(t *testing.T) {
	statuses := []Status{
		{Status: "done", Type: "closed"},
		{Status: "to do", Type: "open"},
		{Status: "in progress", Type: "custom"},
	}

	picked, err := OpenStatus(statuses)
	require.NoError(t, err)
	require.Equal(t, "to do", picked)
}

func TestOpenStatusMissing(t *testing.T) {
	_, err := OpenStatus([]Status{{Status: "done", Type: "closed"}})
	require.ErrorIs(t, err, apperrors.ErrNoOpenStatus)
}
