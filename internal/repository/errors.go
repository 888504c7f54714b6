// Package repository defines the data-access layer. Sentinel errors
// declared here let handlers translate storage failures into status
// codes without inspecting driver-specific errors.
package repository

import "errors"

// ErrEmailExists is returned when a signup collides with an existing
// account. Handlers translate this into a 400 response.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a referenced entity (product, coupon,
// order, user) does not exist. Handlers translate this into a 404, or
// a 401 when the missing entity is the account behind a credential.
var ErrNotFound = errors.New("not found")

// ErrStoreUnavailable is returned by the refresh store in strict mode
// when Redis is unreachable. In the default lax mode the store degrades
// to no-ops instead and this error is never seen.
var ErrStoreUnavailable = errors.New("refresh store unavailable")
