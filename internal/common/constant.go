// Package common contains shared constants and sentinel errors used across
// focussync components.
package common

// AuthorizationHeaderName carries the bearer access token on API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// Collection names shared by the client replica and the server schema.
const (
	CollectionTasks  = "tasks"
	CollectionHabits = "habits"
)
