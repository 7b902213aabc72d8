// Package repository contains the data-access contract of the API and its
// MySQL implementation. The sentinel errors below are shared by every store
// implementation so handlers can tell a missing record from a failing one.
package repository

import "errors" // errors builds the not-found sentinels

// ErrMovieNotFound is returned when no movie has the requested id.
var ErrMovieNotFound = errors.New("movie not found")

// ErrScheduleNotFound is returned when no schedule has the requested id.
var ErrScheduleNotFound = errors.New("schedule not found")
