package clickup

import (
	"context"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
)

// Partition splits tasks into open and completed. The two halves are
// complementary: every task lands in exactly one of them, decided solely by
// status type.
func Partition(tasks []Task) (open, completed []Task) {
	open = make([]Task, 0, len(tasks))
	completed = make([]Task, 0)
	for _, t := range tasks {
		if t.IsClosed() {
			completed = append(completed, t)
		} else {
			open = append(open, t)
		}
	}
	return open, completed
}

// dueDay truncates a millisecond epoch timestamp to the start of its day in
// now's location.
func dueDay(dueMillis int64, now time.Time) time.Time {
	due := time.UnixMilli(dueMillis).In(now.Location())
	return time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, now.Location())
}

// InDueWindow reports whether the task is due today, tomorrow, or overdue,
// relative to now. Closed tasks and tasks without a due date are excluded.
func InDueWindow(t Task, now time.Time) bool {
	if t.IsClosed() || t.DueDate == "" {
		return false
	}
	dueMillis, err := strconv.ParseInt(t.DueDate, 10, 64)
	if err != nil {
		return false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)
	due := dueDay(dueMillis, now)

	return due.Equal(today) || due.Equal(tomorrow) || due.Before(today)
}

// FilterDueWindow keeps the tasks inside the due window. The result is never
// nil.
func FilterDueWindow(tasks []Task, now time.Time) []Task {
	filtered := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if InDueWindow(t, now) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// ClosedStatus picks the status a task must be set to when closing: the one
// whose type is "closed".
func ClosedStatus(statuses []Status) (string, error) {
	for _, s := range statuses {
		if s.Type == "closed" {
			return s.Status, nil
		}
	}
	return "", apperrors.ErrNoClosedStatus
}

// OpenStatus picks the status a task is reopened into: the first status in the
// list's own ordering whose type is not "closed".
func OpenStatus(statuses []Status) (string, error) {
	for _, s := range statuses {
		if s.Type != "closed" {
			return s.Status, nil
		}
	}
	return "", apperrors.ErrNoOpenStatus
}

// statusesForTask resolves the status set of the list owning a task.
func (c *Client) statusesForTask(ctx context.Context, taskID string) ([]Status, error) {
	task, err := c.Task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.List.ID == "" {
		return nil, apperrors.ErrListUnknown
	}

	list, err := c.List(ctx, task.List.ID)
	if err != nil {
		return nil, err
	}
	if len(list.Statuses) == 0 {
		return nil, apperrors.ErrNoClosedStatus
	}
	return list.Statuses, nil
}

// CloseTask moves a task into its list's closed status: fetch the task to
// find its list, fetch the list's statuses, pick the closed one, PUT.
func (c *Client) CloseTask(ctx context.Context, taskID string) (string, *UpdateResult, error) {
	statuses, err := c.statusesForTask(ctx, taskID)
	if err != nil {
		return "", nil, err
	}

	target, err := ClosedStatus(statuses)
	if err != nil {
		return "", nil, err
	}

	result, err := c.UpdateTask(ctx, taskID, map[string]any{"status": target})
	if err != nil {
		return target, nil, err
	}
	return target, result, nil
}

// ReopenTask moves a closed task back into the list's first open status.
func (c *Client) ReopenTask(ctx context.Context, taskID string) (string, *UpdateResult, error) {
	statuses, err := c.statusesForTask(ctx, taskID)
	if err != nil {
		return "", nil, err
	}

	target, err := OpenStatus(statuses)
	if err != nil {
		return "", nil, err
	}

	result, err := c.UpdateTask(ctx, taskID, map[string]any{"status": target})
	if err != nil {
		return target, nil, err
	}
	return target, result, nil
}

// ListEntry is one row of the aggregated space view. Folder-nested lists are
// qualified with their folder name.
type ListEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaskCount int    `json:"task_count,omitempty"`
}

// AggregateLists concatenates folder-nested and folderless lists of a space.
// With withCounts set, each entry also carries its task total.
func (c *Client) AggregateLists(ctx context.Context, spaceID string, withCounts bool) ([]ListEntry, error) {
	folders, err := c.Folders(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	spaceLists, err := c.SpaceLists(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	entries := make([]ListEntry, 0, len(spaceLists))
	for _, folder := range folders {
		for _, list := range folder.Lists {
			entries = append(entries, ListEntry{
				ID:   list.ID,
				Name: fmt.Sprintf("%s / %s", folder.Name, list.Name),
			})
		}
	}
	for _, list := range spaceLists {
		entries = append(entries, ListEntry{ID: list.ID, Name: list.Name})
	}

	if withCounts {
		for i := range entries {
			count, err := c.TaskCount(ctx, entries[i].ID)
			if err != nil {
				return nil, err
			}
			entries[i].TaskCount = count
		}
	}
	return entries, nil
}

// ListTasks pairs a list with its due-window tasks for the space dashboard
// view.
type ListTasks struct {
	ListID   string `json:"list_id"`
	ListName string `json:"list_name"`
	Tasks    []Task `json:"tasks"`
}

// ListsWithDueTasks aggregates every list of a space together with the tasks
// due today, tomorrow, or overdue.
func (c *Client) ListsWithDueTasks(ctx context.Context, spaceID string) ([]ListEntry, []ListTasks, error) {
	entries, err := c.AggregateLists(ctx, spaceID, false)
	if err != nil {
		return nil, nil, err
	}

	now := c.nowFunc()
	listTasks := make([]ListTasks, 0, len(entries))
	for _, entry := range entries {
		tasks, err := c.Tasks(ctx, entry.ID)
		if err != nil {
			return nil, nil, err
		}
		listTasks = append(listTasks, ListTasks{
			ListID:   entry.ID,
			ListName: entry.Name,
			Tasks:    FilterDueWindow(tasks, now),
		})
	}
	return entries, listTasks, nil
}

// LastComment returns the newest comment text of a task (empty when the task
// has none) along with the total comment count.
func (c *Client) LastComment(ctx context.Context, taskID string) (string, int, error) {
	comments, err := c.Comments(ctx, taskID)
	if err != nil {
		return "", 0, err
	}
	if len(comments) == 0 {
		return "", 0, nil
	}
	return comments[len(comments)-1].CommentText, len(comments), nil
}
