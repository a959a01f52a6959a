package session

import (
	"bytes"
	"io"

	"aspd/internal/asp"
	"aspd/internal/theory"
)

// WriteModel writes the shown symbols of m, one per line, followed by the
// theory assignment of the model's thread as symbol=value lines.
func WriteModel(w io.Writer, m *asp.Model, shared *theory.Shared) error {
	for _, sym := range m.Symbols() {
		if _, err := io.WriteString(w, sym.String()+"\n"); err != nil {
			return err
		}
	}
	if shared == nil {
		return nil
	}
	return shared.Do(func(t theory.Theory) error {
		a := theory.NewAssignment(t, m.ThreadID())
		for {
			sym, val, ok := a.Next()
			if !ok {
				return nil
			}
			if _, err := io.WriteString(w, sym.String()+"="+val.String()+"\n"); err != nil {
				return err
			}
		}
	})
}

func modelPayload(m *asp.Model, shared *theory.Shared) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteModel(&buf, m, shared); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
