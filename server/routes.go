package server

func (s *Server) initRoutes() {
	// CORS preflight for every route; CorsMiddleware answers cross-origin
	// OPTIONS requests before the handler runs.
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	// AUTH
	s.RegisterRouteHandler("GET "+RouteMicrosoftConfig, ChainMiddleware(s.MicrosoftConfigHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthToken, ChainMiddleware(s.AuthTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthUser, ChainMiddleware(s.AuthUserHandler(), s.SessionMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// EMAIL (Microsoft Graph, session required)
	s.RegisterRouteHandler("GET "+RouteEmailsUnreplied, ChainMiddleware(s.UnrepliedEmailsHandler(), s.SessionMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteEmail, ChainMiddleware(s.EmailHandler(), s.SessionMiddleware()...))

	// SHEETS (OneDrive workbook, session required)
	s.RegisterRouteHandler("GET "+RouteSheetData, ChainMiddleware(s.SheetDataHandler(), s.SessionMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSheetColors, ChainMiddleware(s.SheetColorsHandler(), s.SessionMiddleware()...))

	// CLICKUP (server-side API token, no session)
	s.RegisterRouteHandler("GET "+RouteClickUpTeams, ChainMiddleware(s.ClickUpTeamsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClickUpWorkspaces, ChainMiddleware(s.ClickUpWorkspacesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClickUpWorkspaceMembers, ChainMiddleware(s.ClickUpWorkspaceMembersHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClickUpWorkspaceSpaces, ChainMiddleware(s.ClickUpWorkspaceSpacesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClickUpSpaceLists, ChainMiddleware(s.ClickUpSpaceListsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClickUpSpaceListsTasks, ChainMiddleware(s.ClickUpSpaceListsTasksHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClickUpListTasks, ChainMiddleware(s.ClickUpListTasksHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClickUpListTasksDue, ChainMiddleware(s.ClickUpListTasksDueHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClickUpListCompletedTasks, ChainMiddleware(s.ClickUpListCompletedTasksHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClickUpListStatuses, ChainMiddleware(s.ClickUpListStatusesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClickUpListCreateTask, ChainMiddleware(s.ClickUpCreateTaskHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PUT "+RouteClickUpTaskStatus, ChainMiddleware(s.ClickUpTaskStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PUT "+RouteClickUpTaskDueDate, ChainMiddleware(s.ClickUpTaskDueDateHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PUT "+RouteClickUpTaskClose, ChainMiddleware(s.ClickUpTaskCloseHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PUT "+RouteClickUpTaskReopen, ChainMiddleware(s.ClickUpTaskReopenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClickUpTaskLastComment, ChainMiddleware(s.ClickUpLastCommentHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClickUpTaskComment, ChainMiddleware(s.ClickUpAddCommentHandler(), s.APIMiddleware()...))
}
