// ABOUTME: Vendor contract (per-provider wire strategy) and the name -> factory registry
// ABOUTME: Provider packages register themselves from init; lookups are thread-safe

package ai

import (
	"io"
	"sort"
	"sync"
)

// Vendor is the per-provider strategy a generic Adapter is parameterized by.
// It owns every wire-level difference; the Adapter owns everything else.
type Vendor interface {
	// Name returns the provider identifier ("openai", "anthropic", ...).
	Name() string

	// DefaultBaseURL is used when Credentials supplies no override.
	DefaultBaseURL() string

	// DefaultModel is used when neither the caller nor Credentials names one.
	DefaultModel() string

	// SystemChannel reports how the system prompt travels.
	SystemChannel() SystemChannel

	// Endpoint builds the full request URL.
	Endpoint(baseURL, model, key string, streaming bool) string

	// Headers returns auth and vendor headers for key.
	Headers(key string) map[string]string

	// Encode serializes a request body.
	Encode(req *Request) ([]byte, error)

	// EncodeProbe serializes the cheapest request that proves a key works.
	EncodeProbe(model string) ([]byte, error)

	// Decode consumes a response body. Undecodable fragments are reported
	// through emit as EventFragmentSkipped and never abort the decode. I/O
	// errors on body are returned as-is; vendor-reported failures inside a
	// successful body are returned as *Error.
	Decode(body io.Reader, streaming bool, emit EmitFunc) (*Result, error)

	// QuotaStatus reports whether HTTP 402 means QuotaExceeded.
	QuotaStatus() bool
}

// VendorFactory creates a fresh Vendor.
type VendorFactory func() Vendor

var (
	registryMu sync.RWMutex
	registry   = make(map[string]VendorFactory)
)

// RegisterVendor registers a factory under name.
func RegisterVendor(name string, factory VendorFactory) {
	registryMu.Lock()
	registry[name] = factory
	registryMu.Unlock()
}

// LookupVendor returns a new Vendor for name, or nil if none is registered.
func LookupVendor(name string) Vendor {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

// HasVendor checks whether name is registered.
func HasVendor(name string) bool {
	registryMu.RLock()
	_, ok := registry[name]
	registryMu.RUnlock()
	return ok
}

// Vendors returns the registered names in sorted order.
func Vendors() []string {
	registryMu.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	registryMu.RUnlock()
	sort.Strings(names)
	return names
}
