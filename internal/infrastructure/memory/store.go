// Package memory implementa los puertos de persistencia en memoria. Se usa en pruebas y
// con LEDGER_STORAGE=memory para una sola instancia; no sobrevive reinicios.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Store estado compartido por todos los repositorios en memoria.
// Run toma el lock exclusivo durante toda la transacción, así dos commits concurrentes se serializan.
type Store struct {
	mu sync.RWMutex
	st *state
}

type state struct {
	documents map[string]*entity.Document
	order     []string
	refs      map[string]string
	movements []*entity.Movement
	sequences map[entity.DocumentKind]int64
}

func newState() *state {
	return &state{
		documents: make(map[string]*entity.Document),
		refs:      make(map[string]string),
		sequences: make(map[entity.DocumentKind]int64),
	}
}

// clone copia superficial de colecciones; los documentos se copian en profundidad al escribir,
// los movimientos nunca cambian.
func (s *state) clone() *state {
	out := &state{
		documents: make(map[string]*entity.Document, len(s.documents)),
		order:     append([]string(nil), s.order...),
		refs:      make(map[string]string, len(s.refs)),
		movements: append([]*entity.Movement(nil), s.movements...),
		sequences: make(map[entity.DocumentKind]int64, len(s.sequences)),
	}
	for k, v := range s.documents {
		out.documents[k] = v
	}
	for k, v := range s.refs {
		out.refs[k] = v
	}
	for k, v := range s.sequences {
		out.sequences[k] = v
	}
	return out
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{st: newState()}
}

// scope acceso al estado: fuera de una transacción cada llamada toma su propio lock;
// dentro de Run el lock ya está tomado.
type scope struct {
	store *Store
	inTx  bool
}

func (sc scope) read() func() {
	if sc.inTx {
		return func() {}
	}
	sc.store.mu.RLock()
	return sc.store.mu.RUnlock
}

func (sc scope) write() func() {
	if sc.inTx {
		return func() {}
	}
	sc.store.mu.Lock()
	return sc.store.mu.Unlock
}

func (sc scope) state() *state { return sc.store.st }

// Documents repositorio de documentos fuera de transacción.
func (s *Store) Documents() *DocumentRepository {
	return &DocumentRepository{scope{store: s}}
}

// Movements repositorio del libro fuera de transacción.
func (s *Store) Movements() *MovementRepository {
	return &MovementRepository{scope{store: s}}
}

// Run ejecuta fn con repositorios transaccionales. Si fn falla o el contexto vence,
// el estado vuelve a la foto tomada al inicio.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	sc := scope{store: s, inTx: true}
	repos := inventory.Repos{
		Documents: &DocumentRepository{sc},
		Movements: &MovementRepository{sc},
		Sequences: &SequenceRepository{sc},
		Locker:    noopLocker{},
	}
	err := fn(repos)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// noopLocker el lock exclusivo de Run ya serializa las transacciones.
type noopLocker struct{}

func (noopLocker) LockProducts(ctx context.Context, _ []string) error { return ctx.Err() }

var _ inventory.TxRunner = (*Store)(nil)
