package api

import "github.com/go-chi/chi/v5"

// Browser routes
const (
	Index   = "/"
	Info    = "/info"
	Conf    = "/conf"
	Profile = "/profile"
	Login   = "/login"
	Rub     = "/rub"
	Blocked = "/blocked"
	Logout  = "/logout"

	SocialStudies           = "/o"
	SocialStudiesGroup      = "/o/group/{group}"
	SocialStudiesDocument   = "/o/document"
	SocialStudiesFullscreen = "/o/fullscreen"

	Philosophy           = "/of"
	PhilosophyDocument   = "/of/document"
	PhilosophyFullscreen = "/of/fullscreen"

	Health = "/healthz"
)

// Login form actions
const (
	ActionSelectGroup = "select_group"
	ActionSelectUser  = "select_user"
	ActionVerifyCode  = "verify_code"
)

// Routes is implemented by every handler that mounts browser routes.
type Routes interface {
	Register(r chi.Router)
}
