// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios: a missing
// row, a uniqueness conflict, or a delete that is refused because other
// records still reference the row.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist (or is not
// visible to the resolved propietario).  Handlers translate this into an
// HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user insert or update collides with an
// existing email.
var ErrEmailExists = errors.New("email already exists")

// ErrRutExists is returned when a user insert or update collides with an
// existing RUT.
var ErrRutExists = errors.New("rut already exists")

// ErrTokenNotFound is returned when a refresh token is missing, expired, or
// was already redeemed by a concurrent request.  The caller cannot tell the
// cases apart, which is intentional.
var ErrTokenNotFound = errors.New("refresh token not found")

// ErrHasDependents is returned when a user delete is refused because
// cotizaciones or policies still reference the user.  Handlers should
// translate this into an HTTP 409 response.
var ErrHasDependents = errors.New("user has dependent records")

// ErrUserInactive is returned when a credential check succeeds structurally
// but the account has been deactivated by an administrator.
var ErrUserInactive = errors.New("user inactive")

// ErrEmailUnverified is returned when the account exists but the owner has
// not completed email verification yet.
var ErrEmailUnverified = errors.New("email not verified")
