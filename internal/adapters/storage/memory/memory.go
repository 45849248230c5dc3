package memory

import "errors"

// ErrNotFound es el sentinel compartido por los repos in-memory.
// Los services lo traducen a sus propios errores de dominio.
var ErrNotFound = errors.New("not found")
