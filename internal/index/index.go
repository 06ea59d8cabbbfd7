package index

import "fmt"

// Index bundles the per-domain indices for one workspace root. It is
// created once per root and lives for the root's lifetime; the surrounding
// system rebuilds it from source on load, nothing is persisted.
type Index struct {
	Records    *RecordIndex
	Models     *ModelIndex
	Components *ComponentIndex
}

// New creates an empty workspace index. shards is the shard count for each
// concurrent map (zero means the package default).
func New(shards int) *Index {
	return &Index{
		Records:    NewRecordIndex(shards),
		Models:     NewModelIndex(shards),
		Components: NewComponentIndex(shards),
	}
}

// RemoveByPath scrubs every entity declared in the given file from all
// three indices and returns the total removed.
func (ix *Index) RemoveByPath(path string) int {
	n := ix.Records.RemoveByPath(path)
	n += ix.Models.RemoveByPath(path)
	n += ix.Components.RemoveByPath(path)
	return n
}

// Stats is a point-in-time size report across the indices.
type Stats struct {
	Records    int
	Models     int
	Components int
}

// Stats reports current entity counts.
func (ix *Index) Stats() Stats {
	return Stats{
		Records:    ix.Records.Len(),
		Models:     ix.Models.Len(),
		Components: ix.Components.Len(),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d records, %d models, %d components",
		s.Records, s.Models, s.Components)
}
