package estimator

import "fmt"

// BuildPrompt asks for the notarial closing price per square meter rather
// than listing-portal asking prices, and for a bare number in reply.
func BuildPrompt(q Query) string {
	side := "COMPRA (PRECIO DE CIERRE)"
	if q.IsSale {
		side = "VENTA (PRECIO DE CIERRE)"
	}
	return fmt.Sprintf(
		"Precio medio m2 de %s en %s, %s (%s). Ignora precios de portales, dame precio de NOTARÍA. Responde SOLO el número.",
		side, q.Neighborhood, q.Locality, q.Region,
	)
}
