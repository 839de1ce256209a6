// Package crypto provides password encryption and locked memory for the
// wallet seed.
//
//nolint:revive // Internal package name is intentional
package crypto

import (
	"runtime"
	"sync"
)

// SecureBytes holds a secret that is zeroed on Destroy and, when requested,
// kept out of swap with mlock (VirtualLock on Windows).
type SecureBytes struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// NewSecureBytes allocates size zero bytes. With lock set the region is
// pinned in RAM if the OS allows it; IsLocked reports the outcome.
func NewSecureBytes(size int, lock bool) *SecureBytes {
	sb := &SecureBytes{data: make([]byte, size)}
	if lock && size > 0 {
		sb.locked = lockRegion(sb.data) == nil
	}
	runtime.SetFinalizer(sb, (*SecureBytes).Destroy)
	return sb
}

// NewSecureBytesFrom copies data into a new SecureBytes. The caller still
// owns data and should zero it.
func NewSecureBytesFrom(data []byte, lock bool) (*SecureBytes, error) {
	sb := NewSecureBytes(len(data), lock)
	copy(sb.data, data)
	return sb, nil
}

// Bytes returns the secret itself, or nil after Destroy. Do not keep it.
func (s *SecureBytes) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Copy returns an unprotected copy of the data, or nil after Destroy.
// The caller is responsible for zeroing it.
func (s *SecureBytes) Copy() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil
	}
	return append([]byte(nil), s.data...)
}

// IsLocked reports whether the memory is pinned.
func (s *SecureBytes) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Len returns the length of the secret, 0 after Destroy.
func (s *SecureBytes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Destroy zeroes and unpins the memory. Later calls are no-ops.
func (s *SecureBytes) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return
	}
	Zero(s.data)
	if s.locked {
		_ = unlockRegion(s.data)
	}
	s.data, s.locked = nil, false
	runtime.SetFinalizer(s, nil)
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
}
