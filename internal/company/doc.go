// Package company provides the tenant model for Tasklane.
//
// A Company is identified to people by its (name, domain) pair. Users
// belong to at most one company and projects inherit the company of their
// creator. Companies are created explicitly by an admin or implicitly at
// registration through FindOrCreate.
//
// Deleting a company leaves users and projects that reference it in place.
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use from multiple goroutines.
package company
