package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// Tipos de archivo admitidos como evidencia: imágenes y PDF.
var allowedEvidenceTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// EvidenceStorage guarda los archivos de evidencia de disputas en disco.
// El tipo real del archivo se detecta por sus magic bytes, nunca por la
// extensión que declara el cliente.
type EvidenceStorage struct {
	rootPath       string
	maxUploadBytes int64
}

func NewEvidenceStorage(rootPath string, maxUploadMB int64) (*EvidenceStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: no se pudo crear el directorio %s: %w", rootPath, err)
	}
	return &EvidenceStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save guarda la evidencia y devuelve la ruta relativa y el tipo MIME
// detectado. Escribe a un archivo temporal y renombra al final para no
// dejar archivos a medias.
func (s *EvidenceStorage) Save(ctx context.Context, disputeID uuid.UUID, originalName string, r io.Reader) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	head := make([]byte, 262)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", "", fmt.Errorf("storage: no se pudo leer el archivo: %w", err)
	}
	head = head[:n]

	kind, _ := filetype.Match(head)
	if kind == filetype.Unknown || !allowedEvidenceTypes[kind.MIME.Value] {
		return "", "", fmt.Errorf("storage: tipo de archivo no admitido como evidencia")
	}

	safeName := sanitizeFilename(originalName)
	fileName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), safeName)

	disputeDir := filepath.Join(s.rootPath, disputeID.String())
	if err := os.MkdirAll(disputeDir, 0o755); err != nil {
		return "", "", fmt.Errorf("storage: no se pudo crear el directorio de la disputa: %w", err)
	}

	targetPath := filepath.Join(disputeDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", "", fmt.Errorf("storage: no se pudo crear el archivo: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", "", fmt.Errorf("storage: error al escribir el archivo: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", "", fmt.Errorf("storage: el archivo supera el límite de %d bytes", s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("storage: error al cerrar el archivo: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", "", fmt.Errorf("storage: no se pudo renombrar el archivo: %w", err)
	}

	relative := filepath.Join(disputeID.String(), fileName)
	return relative, kind.MIME.Value, nil
}

// Delete elimina un archivo de evidencia. No falla si ya no existe.
func (s *EvidenceStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(s.rootPath, relativePath)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: no se pudo eliminar el archivo: %w", err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "evidencia"
	}
	return name
}
