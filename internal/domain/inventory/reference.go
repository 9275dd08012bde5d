package inventory

import (
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// FormatReference construye la referencia legible: prefijo + consecutivo con al menos 4 dígitos
// (REC-0001, DEL-0042, ADJ-12345).
func FormatReference(kind entity.DocumentKind, seq int64) (string, error) {
	prefix := entity.ReferencePrefix(kind)
	if prefix == "" || seq <= 0 {
		return "", fmt.Errorf("%w: referencia para %q con consecutivo %d", domain.ErrInvalidInput, kind, seq)
	}
	return fmt.Sprintf("%s-%04d", prefix, seq), nil
}
