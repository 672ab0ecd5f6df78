package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/oficios-mz/backend/internal/logger"
)

// SignatureVerifier valida la firma HMAC-SHA256 de los webhooks entrantes.
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Verify compara en tiempo constante la firma del header x-signature con
// el HMAC del cuerpo crudo. Sin secreto configurado la validación se
// salta y el evento se acepta como confiable: es un modo degradado
// heredado del sistema anterior y siempre queda registrado.
func (v *SignatureVerifier) Verify(rawBody []byte, signature string) bool {
	if len(v.secret) == 0 {
		if logger.Log != nil {
			logger.Log.Warn("mercadopago: webhook secret no configurado, saltando validación de firma")
		}
		return true
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
