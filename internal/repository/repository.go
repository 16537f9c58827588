// Package repository contains the database access layer. Repositories are
// thin gorm wrappers; business rules live in the services that call them.
package repository

// ListOptions contains common pagination options
type ListOptions struct {
	Limit  int
	Offset int
}
