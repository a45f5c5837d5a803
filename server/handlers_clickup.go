package server

import (
	"encoding/json"
	"net/http"

	"github.com/nverhoeven/taskpilot/clickup"
	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
)

const clickUpRawKey = "clickup_response"

// ClickUpTeamsHandler is the legacy passthrough: the upstream /team body is
// returned untouched.
func (s *Server) ClickUpTeamsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.clickup.TeamsRaw(r.Context())
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch teams", clickUpRawKey)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}

// ClickUpWorkspacesHandler lists the workspaces the API token can see.
func (s *Server) ClickUpWorkspacesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, raw, err := s.clickup.Teams(r.Context())
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch workspaces", clickUpRawKey)
			return
		}
		if teams == nil {
			writeError(w, http.StatusNotFound, "no workspaces found", map[string]any{
				"workspaces":  []clickup.Team{},
				clickUpRawKey: json.RawMessage(raw),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"workspaces": teams})
	}
}

// ClickUpWorkspaceMembersHandler lists the members of a workspace. A response
// without a members collection means the workspace does not exist for this
// token.
func (s *Server) ClickUpWorkspaceMembersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := r.PathValue("teamId")

		members, raw, err := s.clickup.TeamMembers(r.Context(), teamID)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch workspace members", clickUpRawKey)
			return
		}
		if members == nil {
			writeError(w, http.StatusNotFound, "workspace not found", map[string]any{
				"team_id":     teamID,
				clickUpRawKey: json.RawMessage(raw),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"team_id": teamID,
			"members": members,
		})
	}
}

// ClickUpWorkspaceSpacesHandler lists the spaces of a workspace.
func (s *Server) ClickUpWorkspaceSpacesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := r.PathValue("teamId")

		spaces, raw, err := s.clickup.Spaces(r.Context(), teamID)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch spaces", clickUpRawKey)
			return
		}
		if spaces == nil {
			writeError(w, http.StatusNotFound, "workspace not found", map[string]any{
				"team_id":     teamID,
				clickUpRawKey: json.RawMessage(raw),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"team_id": teamID,
			"spaces":  spaces,
		})
	}
}

// ClickUpSpaceListsHandler lists every list of a space, folder-nested ones
// qualified with their folder name, each with its task count.
func (s *Server) ClickUpSpaceListsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spaceID := r.PathValue("spaceId")

		lists, err := s.clickup.AggregateLists(r.Context(), spaceID, true)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch lists", clickUpRawKey)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"space_id": spaceID,
			"lists":    lists,
		})
	}
}

// ClickUpSpaceListsTasksHandler pairs every list of a space with its tasks due
// today, tomorrow, or overdue.
func (s *Server) ClickUpSpaceListsTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spaceID := r.PathValue("spaceId")

		_, listTasks, err := s.clickup.ListsWithDueTasks(r.Context(), spaceID)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch lists with tasks", clickUpRawKey)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"space_id": spaceID,
			"lists":    listTasks,
		})
	}
}

// ClickUpListTasksHandler lists the open tasks of a list.
func (s *Server) ClickUpListTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID := r.PathValue("listId")

		tasks, err := s.clickup.Tasks(r.Context(), listID)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch tasks", clickUpRawKey)
			return
		}

		open, _ := clickup.Partition(tasks)
		writeJSON(w, http.StatusOK, map[string]any{
			"list_id": listID,
			"tasks":   open,
			"count":   len(open),
		})
	}
}

// ClickUpListTasksDueHandler lists the open tasks of a list that are due
// today, tomorrow, or overdue.
func (s *Server) ClickUpListTasksDueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID := r.PathValue("listId")

		tasks, err := s.clickup.Tasks(r.Context(), listID)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch tasks", clickUpRawKey)
			return
		}

		due := clickup.FilterDueWindow(tasks, s.clickup.Now())
		writeJSON(w, http.StatusOK, map[string]any{
			"list_id": listID,
			"tasks":   due,
			"count":   len(due),
		})
	}
}

// ClickUpListCompletedTasksHandler lists the closed tasks of a list.
func (s *Server) ClickUpListCompletedTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID := r.PathValue("listId")

		tasks, err := s.clickup.Tasks(r.Context(), listID)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch tasks", clickUpRawKey)
			return
		}

		_, completed := clickup.Partition(tasks)
		writeJSON(w, http.StatusOK, map[string]any{
			"list_id": listID,
			"tasks":   completed,
			"count":   len(completed),
		})
	}
}

// ClickUpListStatusesHandler lists the statuses configured on a list.
func (s *Server) ClickUpListStatusesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID := r.PathValue("listId")

		list, err := s.clickup.List(r.Context(), listID)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch list statuses", clickUpRawKey)
			return
		}
		if list.Statuses == nil {
			writeError(w, http.StatusNotFound, "no statuses found for list", map[string]any{
				"list_id":  listID,
				"statuses": []clickup.Status{},
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"list_id":  listID,
			"statuses": list.Statuses,
		})
	}
}

// ClickUpCreateTaskHandler creates a task in a list.
func (s *Server) ClickUpCreateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID := r.PathValue("listId")

		var req clickup.CreateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid request body", nil)
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusUnprocessableEntity, "name is required", nil)
			return
		}

		result, err := s.clickup.CreateTask(r.Context(), listID, req)
		if err != nil {
			writeUpstreamError(w, err, "unable to create task", clickUpRawKey)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"list_id":     listID,
			"task_id":     result.ID,
			clickUpRawKey: json.RawMessage(result.Raw),
		})
	}
}

// ClickUpTaskStatusHandler sets a task's status to the requested value.
func (s *Server) ClickUpTaskStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := r.PathValue("taskId")

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
			writeError(w, http.StatusUnprocessableEntity, "status is required", nil)
			return
		}

		result, err := s.clickup.UpdateTask(r.Context(), taskID, map[string]any{"status": req.Status})
		if err != nil {
			writeUpstreamError(w, err, "unable to update task status", clickUpRawKey)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"task_id":     result.ID,
			"status":      req.Status,
			clickUpRawKey: json.RawMessage(result.Raw),
		})
	}
}

// ClickUpTaskDueDateHandler sets a task's due date (millisecond timestamp).
func (s *Server) ClickUpTaskDueDateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := r.PathValue("taskId")

		var req struct {
			DueDate int64 `json:"due_date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DueDate <= 0 {
			writeError(w, http.StatusUnprocessableEntity, "due_date is required", nil)
			return
		}

		result, err := s.clickup.UpdateTask(r.Context(), taskID, map[string]any{"due_date": req.DueDate})
		if err != nil {
			writeUpstreamError(w, err, "unable to update task due date", clickUpRawKey)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"task_id":     result.ID,
			"due_date":    req.DueDate,
			clickUpRawKey: json.RawMessage(result.Raw),
		})
	}
}

// ClickUpTaskCloseHandler moves a task into its list's closed status.
func (s *Server) ClickUpTaskCloseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := r.PathValue("taskId")

		status, result, err := s.clickup.CloseTask(r.Context(), taskID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNoClosedStatus) || apperrors.Is(err, apperrors.ErrListUnknown) {
				writeError(w, http.StatusUnprocessableEntity, err.Error(), map[string]any{"task_id": taskID})
				return
			}
			writeUpstreamError(w, err, "unable to close task", clickUpRawKey)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"task_id":     result.ID,
			"status":      status,
			clickUpRawKey: json.RawMessage(result.Raw),
		})
	}
}

// ClickUpTaskReopenHandler moves a closed task back into the list's first
// open status.
func (s *Server) ClickUpTaskReopenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := r.PathValue("taskId")

		status, result, err := s.clickup.ReopenTask(r.Context(), taskID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNoOpenStatus) || apperrors.Is(err, apperrors.ErrListUnknown) {
				writeError(w, http.StatusUnprocessableEntity, err.Error(), map[string]any{"task_id": taskID})
				return
			}
			writeUpstreamError(w, err, "unable to reopen task", clickUpRawKey)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"task_id":     result.ID,
			"status":      status,
			clickUpRawKey: json.RawMessage(result.Raw),
		})
	}
}

// ClickUpLastCommentHandler returns the newest comment on a task.
func (s *Server) ClickUpLastCommentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := r.PathValue("taskId")

		comment, total, err := s.clickup.LastComment(r.Context(), taskID)
		if err != nil {
			writeUpstreamError(w, err, "unable to fetch comments", clickUpRawKey)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"task_id":        taskID,
			"comment":        comment,
			"total_comments": total,
		})
	}
}

// ClickUpAddCommentHandler posts a comment onto a task.
func (s *Server) ClickUpAddCommentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := r.PathValue("taskId")

		var req struct {
			CommentText string `json:"comment_text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CommentText == "" {
			writeError(w, http.StatusUnprocessableEntity, "comment_text is required", nil)
			return
		}

		result, err := s.clickup.AddComment(r.Context(), taskID, req.CommentText)
		if err != nil {
			writeUpstreamError(w, err, "unable to add comment", clickUpRawKey)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"task_id":     taskID,
			"comment_id":  result.ID,
			clickUpRawKey: json.RawMessage(result.Raw),
		})
	}
}
