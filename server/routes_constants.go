package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteMicrosoftConfig = "/microsoft/config"
	RouteAuthToken       = "/auth/token"
	RouteAuthUser        = "/auth/user"
	RouteAuthLogout      = "/auth/logout"

	// Email Routes
	RouteEmailsUnreplied = "/emails/unreplied"
	RouteEmail           = "/emails/{messageId}"

	// Sheet Routes
	RouteSheetData   = "/sheets/sheet-data"
	RouteSheetColors = "/sheets/sheet-colors"

	// ClickUp Routes - Workspaces
	RouteClickUpTeams            = "/clickup/teams"
	RouteClickUpWorkspaces       = "/clickup/workspaces"
	RouteClickUpWorkspaceMembers = "/clickup/workspace/{teamId}/members"
	RouteClickUpWorkspaceSpaces  = "/clickup/workspace/{teamId}/spaces"

	// ClickUp Routes - Spaces & Lists
	RouteClickUpSpaceLists      = "/clickup/space/{spaceId}/lists"
	RouteClickUpSpaceListsTasks = "/clickup/space/{spaceId}/lists-tasks"

	// ClickUp Routes - List Tasks
	RouteClickUpListTasks          = "/clickup/list/{listId}/tasks"
	RouteClickUpListTasksDue       = "/clickup/list/{listId}/tasks/due"
	RouteClickUpListCompletedTasks = "/clickup/list/{listId}/completed-tasks"
	RouteClickUpListStatuses       = "/clickup/list/{listId}/statuses"
	RouteClickUpListCreateTask     = "/clickup/list/{listId}/task"

	// ClickUp Routes - Task Mutations
	RouteClickUpTaskStatus      = "/clickup/task/{taskId}/status"
	RouteClickUpTaskDueDate     = "/clickup/task/{taskId}/due-date"
	RouteClickUpTaskClose       = "/clickup/task/{taskId}/close"
	RouteClickUpTaskReopen      = "/clickup/task/{taskId}/reopen"
	RouteClickUpTaskLastComment = "/clickup/task/{taskId}/last-comment"
	RouteClickUpTaskComment     = "/clickup/task/{taskId}/comment"
)
