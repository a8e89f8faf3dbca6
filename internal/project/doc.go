// Package project stores projects: named units of work created by an admin
// or manager and scoped to the creator's company.
package project
