package registry

import "errors"

// ErrNoStore is returned by Save, SaveTo and Load when the registry was built
// without a state store.
var ErrNoStore = errors.New("no state store configured")
