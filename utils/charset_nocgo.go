//go:build !cgo

package utils

import (
	"fmt"
	"io"

	"github.com/axgle/mahonia"
)

func fallbackReader(label string, r io.Reader) (io.Reader, error) {
	dec := mahonia.NewDecoder(label)
	if dec == nil {
		return nil, fmt.Errorf("mahonia has no decoder for %s", label)
	}
	return dec.NewReader(r), nil
}
