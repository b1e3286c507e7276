// Package entities defines core domain models and data structures.
package entities

import "sort"

// ArtifactRecord is one provenance graph entry: a file the instrumented build touched
type ArtifactRecord struct {
	ContentHash  string
	FilePath     string
	BuildCommand string // empty when the tracer recorded no command
}

// Category classifies an artifact by where it lives on the build host
type Category int

// Artifact categories. Every record with a non-empty path lands in exactly one.
const (
	SystemLibrary Category = iota
	SystemHeader
	ProjectSource
	BuildIntermediate
	CRuntimeObject
)

// Categories lists every category in declaration order
func Categories() []Category {
	return []Category{SystemLibrary, SystemHeader, ProjectSource, BuildIntermediate, CRuntimeObject}
}

// String returns the category's snake_case name
func (c Category) String() string {
	switch c {
	case SystemLibrary:
		return "system_lib"
	case SystemHeader:
		return "system_header"
	case ProjectSource:
		return "project_source"
	case BuildIntermediate:
		return "build_intermediate"
	case CRuntimeObject:
		return "crt_object"
	default:
		return "unknown"
	}
}

// ClassifiedArtifactSet partitions provenance records by category
type ClassifiedArtifactSet struct {
	records map[Category][]ArtifactRecord
}

// NewClassifiedArtifactSet creates an empty set
func NewClassifiedArtifactSet() *ClassifiedArtifactSet {
	return &ClassifiedArtifactSet{records: make(map[Category][]ArtifactRecord)}
}

// Add appends a record to a category
func (s *ClassifiedArtifactSet) Add(c Category, r ArtifactRecord) {
	s.records[c] = append(s.records[c], r)
}

// Get returns the records of a category
func (s *ClassifiedArtifactSet) Get(c Category) []ArtifactRecord {
	return s.records[c]
}

// Count returns the number of records across all categories
func (s *ClassifiedArtifactSet) Count() int {
	total := 0
	for _, recs := range s.records {
		total += len(recs)
	}
	return total
}

// Sort orders every category by file path, then content hash
func (s *ClassifiedArtifactSet) Sort() {
	for _, recs := range s.records {
		sort.Slice(recs, func(i, j int) bool {
			if recs[i].FilePath != recs[j].FilePath {
				return recs[i].FilePath < recs[j].FilePath
			}
			return recs[i].ContentHash < recs[j].ContentHash
		})
	}
}
