package application

import "errors"

var (
	// ErrApplicationNotFound indicates the application doesn't exist.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrInvalidTransition indicates an invalid status transition.
	ErrInvalidTransition = errors.New("invalid application status transition")
	// ErrDuplicateApplication indicates the developer already has a live application.
	ErrDuplicateApplication = errors.New("developer already applied to this project")
	// ErrProjectClosed indicates the project is not accepting applications.
	ErrProjectClosed = errors.New("project is not accepting applications")
	// ErrTeamFull indicates accepting would exceed the project's team size.
	ErrTeamFull = errors.New("project team is full")
	// ErrForbidden indicates the actor may not perform the action.
	ErrForbidden = errors.New("not allowed to modify application")
	// ErrInvalidInput indicates invalid application input.
	ErrInvalidInput = errors.New("invalid application input")
)
