package internal

import (
	"fmt"
	"go/format"
	"io"
)

// WriteFormatted runs gofmt on src and writes the result to out.
func WriteFormatted(src []byte, out io.Writer) error {
	formatted, err := format.Source(src)
	if err != nil {
		return fmt.Errorf("can't format source: %w", err)
	}

	_, err = out.Write(formatted)
	return err
}
