package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores and clients.
// Services translate them into coded domain errors; handlers never see them.
//
//   - ErrNotFound: no record exists under the key
//   - ErrAlreadyUsed: the key is already taken (duplicate registration, reused token id)
//   - ErrUnavailable: a backing service could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
