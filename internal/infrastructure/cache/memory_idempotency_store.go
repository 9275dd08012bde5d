// Package cache almacenes de claves de idempotencia y locks de tareas (Redis o memoria).
package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryIdempotencyStore claves de idempotencia en un mapa con vencimiento. Sirve para una sola
// instancia y para pruebas; la limpieza la hace la tarea de mantenimiento con PurgeExpired.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryIdempotencyStore crea un almacén vacío.
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: make(map[string]time.Time), now: time.Now}
}

// Claim reserva la clave por ttl. Devuelve false si ya estaba reservada y no venció.
func (s *MemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.entries[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	return true, nil
}

// Release libera la clave para que el cliente pueda reintentar.
func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// PurgeExpired elimina las claves vencidas y devuelve cuántas borró.
func (s *MemoryIdempotencyStore) PurgeExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for key, exp := range s.entries {
		if !now.Before(exp) {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}

// Size número de claves almacenadas (vencidas incluidas).
func (s *MemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
