package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Constantes de validación
const (
	MinDisputeDescriptionLength = 10
	MaxDisputeDescriptionLength = 1000
	MaxEvidenceDescriptionLength = 500
	MinRatingScore               = 1
	MaxRatingScore               = 5
	MaxCommentLength             = 1000
	MinAmount                    = 0.0
	MaxAmount                    = 100000000.0 // 100 millones
)

// ValidateLength verifica la longitud de una cadena en runas.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s debe tener al menos %d caracteres", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s no puede superar los %d caracteres", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty verifica que la cadena no esté vacía.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s no puede estar vacío", fieldName)
	}
	return nil
}

// ValidateAmount verifica que el monto sea positivo y razonable.
func ValidateAmount(amount float64) error {
	if amount <= MinAmount {
		return fmt.Errorf("el monto debe ser mayor a 0")
	}
	if amount > MaxAmount {
		return fmt.Errorf("el monto no puede superar %.0f", MaxAmount)
	}
	return nil
}

// ValidateDisputeDescription verifica la descripción de una disputa.
func ValidateDisputeDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("la descripción es obligatoria")
	}
	return ValidateLength("la descripción", description, MinDisputeDescriptionLength, MaxDisputeDescriptionLength)
}

// ValidateRatingScore verifica el puntaje de una calificación.
func ValidateRatingScore(score int) error {
	if score < MinRatingScore || score > MaxRatingScore {
		return fmt.Errorf("el puntaje debe estar entre %d y %d", MinRatingScore, MaxRatingScore)
	}
	return nil
}
