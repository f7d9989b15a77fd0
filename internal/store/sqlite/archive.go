// Package sqlite archives samples and chart sessions in a local SQLite
// database.
package sqlite

import (
	"errors"
	"fmt"

	"sgc-analytics/internal/model"
)

var (
	_ model.SampleArchive = (*Archive)(nil)
	_ model.SessionStore  = (*Archive)(nil)
)

// Archive pairs the single writer with a reader on the same file.
type Archive struct {
	*Writer
	*Reader
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Archive, error) {
	w, err := New(WriterConfig{DBPath: path})
	if err != nil {
		return nil, err
	}
	r, err := NewReader(path)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("sqlite archive: %w", err)
	}
	return &Archive{Writer: w, Reader: r}, nil
}

// Close closes both connections.
func (a *Archive) Close() error {
	return errors.Join(a.Reader.Close(), a.Writer.Close())
}
