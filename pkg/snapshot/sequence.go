package snapshot

import "fmt"

const (
	// DefaultCount is the length of a standard wind-cloud run
	DefaultCount = 81
	// DefaultWidth is the zero-padded width of a snapshot number
	DefaultWidth = 4
)

// ID identifies one snapshot of a run
type ID struct {
	Index int
	Name  string
}

// Sequence returns count identifiers in increasing order, each name
// zero-padded to width digits. Indices wider than width are not truncated.
func Sequence(count, width int) []ID {
	if count <= 0 {
		return nil
	}
	if width < 1 {
		width = 1
	}

	ids := make([]ID, count)
	for i := range ids {
		ids[i] = ID{Index: i, Name: fmt.Sprintf("%0*d", width, i)}
	}
	return ids
}

// Path derives the snapshot file path: dir + "data." + name + ext.
// dir is used verbatim, so it must carry its own trailing separator.
func (id ID) Path(dir, ext string) string {
	return dir + "data." + id.Name + ext
}

func (id ID) String() string {
	return id.Name
}
