package files

import (
	"context"
	"io"
)

// Uploader sube un archivo al storage de medios y devuelve la URL pública.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}
