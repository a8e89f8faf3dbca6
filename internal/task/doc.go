// Package task stores tasks: units of work inside a project, assigned to
// exactly one user and moving through the statuses ToDo, InProgress and Done.
//
// Status transitions are unrestricted. Who may change a task is decided by
// the auth policy table; Task implements auth.Assignable so the assignee
// rule can be evaluated against it.
package task
