package entity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ProductSlug identificador de un producto contratado (ej. "trafego-pago").
type ProductSlug string

// NewProductSlug normaliza texto libre a slug: sin acentos, minúsculas y separado por guiones.
// Devuelve "" si no queda ningún carácter alfanumérico.
func NewProductSlug(s string) ProductSlug {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return ProductSlug(strings.TrimSuffix(b.String(), "-"))
}

func (p ProductSlug) String() string { return string(p) }
