// Package tables serves the static lookup tables from a local directory.
package tables

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"

	domain "github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// DirSource reads table files below a root directory.
type DirSource struct {
	fsys fs.FS
	root string
}

// NewDirSource serves files below dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{fsys: os.DirFS(dir), root: dir}
}

// NewFSSource serves files of fsys; root only labels errors.
func NewFSSource(fsys fs.FS, root string) *DirSource {
	return &DirSource{fsys: fsys, root: root}
}

func (s *DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fs.ValidPath(name) {
		return nil, errors.New(errors.ErrCodeValidation, "invalid table path").WithDetail(name)
	}
	f, err := s.fsys.Open(name)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New(errors.ErrCodeTableMissing, "table not found").WithDetail(s.root + "/" + name)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to open table").WithDetail(name)
	}
	return f, nil
}

var _ domain.Source = (*DirSource)(nil)

//Personal.AI order the ending
