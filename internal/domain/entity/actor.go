package entity

// Roles válidos (vienen del token del colaborador de identidad).
const (
	RoleAdmin     = "admin"     // nivel más alto: aprueba ajustes
	RoleBodeguero = "bodeguero" // valida recepciones, despachos y traslados
	RoleVendedor  = "vendedor"  // solo crea y edita documentos
)

// Actor identidad de quien invoca una operación del flujo.
type Actor struct {
	UserID string
	Role   string
}

// CanCommit indica si el rol puede validar documentos del tipo dado.
func (a Actor) CanCommit(kind DocumentKind) bool {
	switch kind {
	case DocumentKindAdjustment:
		return a.Role == RoleAdmin
	case DocumentKindReceipt, DocumentKindDelivery, DocumentKindTransfer:
		return a.Role == RoleAdmin || a.Role == RoleBodeguero
	}
	return false
}
