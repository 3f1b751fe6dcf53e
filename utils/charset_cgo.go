//go:build cgo

package utils

import (
	"io"

	iconv "github.com/djimenez/iconv-go"
)

func fallbackReader(label string, r io.Reader) (io.Reader, error) {
	return iconv.NewReader(r, label, "utf-8")
}
