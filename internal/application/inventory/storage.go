package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// defaultStorageTimeout límite de cada llamada al almacenamiento si no se configura otro.
const defaultStorageTimeout = 5 * time.Second

func withStorageTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultStorageTimeout
	}
	return context.WithTimeout(ctx, d)
}

// storageErr convierte un vencimiento de plazo en ErrUnavailable. El resto de errores se propaga tal cual;
// este núcleo no reintenta nada.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}
