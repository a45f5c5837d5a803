package clickup

import "encoding/json"

// Team is a ClickUp workspace.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Member struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListSummary is a list as it appears nested under a space or folder.
type ListSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Folder struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Lists []ListSummary `json:"lists"`
}

// Status is one entry of a list's status set. Order follows the list's own
// ordering as returned by ClickUp; it is never re-sorted.
type Status struct {
	Status string `json:"status"`
	Type   string `json:"type"`
	Color  string `json:"color,omitempty"`
}

// List is the full list resource, including its status set.
type List struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Statuses []Status `json:"statuses"`
}

// Task is the fixed subset of ClickUp task fields the gateway exposes.
// DueDate is a millisecond epoch timestamp serialized as a string, or empty.
type Task struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Status    Status   `json:"status"`
	DueDate   string   `json:"due_date,omitempty"`
	URL       string   `json:"url,omitempty"`
	Assignees []Member `json:"assignees,omitempty"`
}

// IsClosed reports whether the task counts as completed. A task is closed iff
// its status type is "closed"; everything else is open.
func (t Task) IsClosed() bool {
	return t.Status.Type == "closed"
}

// TaskDetail is the single-task resource, fetched when an operation needs the
// owning list.
type TaskDetail struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
	List   struct {
		ID string `json:"id"`
	} `json:"list"`
}

type Comment struct {
	ID          string `json:"id"`
	CommentText string `json:"comment_text"`
}

// CreateTaskRequest is the validated payload for task creation.
type CreateTaskRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	DueDate     int64   `json:"due_date,omitempty"`
	Assignees   []int64 `json:"assignees,omitempty"`
}

// UpdateResult is returned by task mutations. Success requires the upstream
// response to echo the task id.
type UpdateResult struct {
	ID  string
	Raw json.RawMessage
}
