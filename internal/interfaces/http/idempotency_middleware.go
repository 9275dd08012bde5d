package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// HeaderIdempotencyKey header opcional que el cliente repite al reintentar un commit.
const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyStore reserva de claves con vencimiento (Redis o memoria).
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Idempotency filtra reintentos de la misma petición mientras la primera está en curso o ya tuvo
// éxito. Es un atajo: la garantía de exactamente-una-vez la da la transacción del commit.
//   - Sin header, la petición pasa sin control.
//   - Clave repetida: 409 DUPLICATE_REQUEST.
//   - Respuesta no 2xx: la clave se libera para permitir el reintento.
//   - Almacén caído: se deja pasar y se registra.
func Idempotency(store IdempotencyStore, ttl time.Duration, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("idempotency")
	return func(c *fiber.Ctx) error {
		header := c.Get(HeaderIdempotencyKey)
		if header == "" {
			return c.Next()
		}
		key := GetUserID(c) + ":" + c.Method() + ":" + c.Path() + ":" + header
		ok, err := store.Claim(c.Context(), key, ttl)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Path()).Msg("almacén de idempotencia no disponible, se continúa sin control")
			return c.Next()
		}
		if !ok {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Code:    "DUPLICATE_REQUEST",
				Message: "ya se recibió una petición con esta Idempotency-Key",
			})
		}

		err = c.Next()
		if status := c.Response().StatusCode(); err != nil || status < 200 || status >= 300 {
			if rerr := store.Release(context.WithoutCancel(c.Context()), key); rerr != nil {
				log.Warn().Err(rerr).Str("path", c.Path()).Msg("no se pudo liberar la clave de idempotencia")
			}
		}
		return err
	}
}
