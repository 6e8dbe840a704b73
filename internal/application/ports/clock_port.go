package ports

import "time"

// Clock fuente de tiempo del motor. Los casos de uso nunca llaman time.Now directamente.
type Clock interface {
	Now() time.Time
}

// SystemClock reloj real (UTC).
type SystemClock struct{}

// Now devuelve la hora actual en UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock reloj detenido, útil en tests y en el importador de clientes.
type FixedClock struct {
	T time.Time
}

// Now devuelve siempre el mismo instante.
func (c FixedClock) Now() time.Time { return c.T }
