package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/sefreader/internal/sef"
)

// SEFParser handles Story Editor containers.
type SEFParser struct {
	Options []sef.Option
}

func (p *SEFParser) Parse(r io.Reader, filename string) (*sef.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return sef.Analyze(data, p.Options...)
}
