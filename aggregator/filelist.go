package aggregator

import "slices"

// FileList is an ordered, immutable list of input paths.
// Its order decides the order of the combined content.
type FileList struct {
	paths []string
}

// NewFileList copies paths into a new FileList.
func NewFileList(paths ...string) FileList {
	return FileList{paths: slices.Clone(paths)}
}

func (fl FileList) Len() int {
	return len(fl.paths)
}

func (fl FileList) At(i int) string {
	return fl.paths[i]
}

// Paths returns a copy of the listed paths.
func (fl FileList) Paths() []string {
	return slices.Clone(fl.paths)
}
