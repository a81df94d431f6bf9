package domain

import (
	"fmt"
	"path/filepath"
)

// Namelist keys returned to the caller.
const (
	NamelistBCFile   = "bcfile"
	NamelistFileList = "filelist"
)

// BCFile describes the emitted boundary output: a single bcfile or a
// filelist, never both.
type BCFile struct {
	BCFile   string
	FileList string
}

// NewBCFile builds a descriptor, enforcing that exactly one path is set.
func NewBCFile(bcfile, filelist string) (BCFile, error) {
	if bcfile == "" && filelist == "" {
		return BCFile{}, fmt.Errorf("%w: either bcfile or filelist must be set", ErrConfig)
	}
	if bcfile != "" && filelist != "" {
		return BCFile{}, fmt.Errorf("%w: bcfile and filelist are mutually exclusive", ErrConfig)
	}
	return BCFile{BCFile: bcfile, FileList: filelist}, nil
}

// Namelist returns the params.txt fragment referencing the output.
func (b BCFile) Namelist() map[string]string {
	if b.FileList != "" {
		return map[string]string{NamelistFileList: filepath.Base(b.FileList)}
	}
	return map[string]string{NamelistBCFile: filepath.Base(b.BCFile)}
}
