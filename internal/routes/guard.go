// Package routes declares the navigable views and the guard that admits or
// denies navigation based on the current session record. Evaluate is a pure
// function: no network calls, no suspension.
package routes

import (
	"github.com/noteward-dev/noteward/internal/session"
)

// Route names
const (
	RouteRoot      = "root"
	RouteAuth      = "auth"
	RouteHome      = "home"
	RouteTags      = "tags"
	RouteTagDetail = "tag-detail"
	RouteCalendar  = "calendar"
	RouteTrash     = "trash"
	RouteUsers     = "users" // admin landing
)

// Route describes a navigable view and its access requirements
type Route struct {
	Name string
	Path string

	RequiresAuth  bool
	RequiresGuest bool
	RequiresAdmin bool

	// RedirectTo makes the route a static redirect, evaluated before any
	// session check (the root path always lands on auth)
	RedirectTo string
}

// Table is the full route table for the client
var Table = []Route{
	{Name: RouteRoot, Path: "/", RedirectTo: RouteAuth},
	{Name: RouteAuth, Path: "/auth", RequiresGuest: true},
	{Name: RouteHome, Path: "/home", RequiresAuth: true},
	{Name: RouteTags, Path: "/tags", RequiresAuth: true},
	{Name: RouteTagDetail, Path: "/tags/:id", RequiresAuth: true},
	{Name: RouteCalendar, Path: "/calendar", RequiresAuth: true},
	{Name: RouteTrash, Path: "/trash", RequiresAuth: true},
	{Name: RouteUsers, Path: "/users", RequiresAuth: true, RequiresAdmin: true},
}

// Lookup finds a route by name
func Lookup(name string) (Route, bool) {
	for _, r := range Table {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Snapshot is the session state the guard decides on
type Snapshot struct {
	Authenticated bool
	Role          session.Role
}

// SnapshotFrom reads the current session state from a store
func SnapshotFrom(store session.Store) Snapshot {
	rec, authenticated := store.Current()
	return Snapshot{
		Authenticated: authenticated,
		Role:          rec.Role,
	}
}

// Decision is the guard's verdict for a navigation request
type Decision struct {
	Allow    bool
	Redirect string // route name, set when Allow is false
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirectTo(name string) Decision {
	return Decision{Redirect: name}
}

// Evaluate decides whether navigation to the route is admitted.
// Rules are ordered; the first match wins.
func Evaluate(r Route, s Snapshot) Decision {
	if r.RedirectTo != "" {
		return redirectTo(r.RedirectTo)
	}

	if r.RequiresAuth {
		if !s.Authenticated {
			return redirectTo(RouteAuth)
		}
		if r.RequiresAdmin && s.Role != session.RoleAdmin {
			return redirectTo(RouteHome)
		}
		return allow()
	}

	if r.RequiresGuest && s.Authenticated {
		if s.Role == session.RoleAdmin {
			return redirectTo(RouteUsers)
		}
		return redirectTo(RouteHome)
	}

	return allow()
}
