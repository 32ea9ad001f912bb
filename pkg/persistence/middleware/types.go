// Package middleware decorates recording stores with redaction and
// encryption at rest.
package middleware

import "github.com/edisonylee/turbocommerce-sub001/pkg/ports"

// Middleware allows wrapping a RecordingStore to add behavior.
type Middleware func(ports.RecordingStore) ports.RecordingStore

// Chain applies mws so that the first one sees a recording first on Save.
func Chain(store ports.RecordingStore, mws ...Middleware) ports.RecordingStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
