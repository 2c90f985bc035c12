// Package lineage resolves per-level cluster assignments into full
// membership lineages across a threshold sequence.
package lineage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/okian/antiref/internal/domain/types"
	"github.com/okian/antiref/pkg/metrics"
)

// Scanner sizing for very large assignment tables.
const (
	scannerInitialBuffer = 64 * 1024
	scannerMaxToken      = 4 * 1024 * 1024
)

// AssignmentIndex is one level's read-only member -> representative lookup.
// Member insertion order is retained so iteration is stable across runs
// over the same table (Go map order is not).
type AssignmentIndex struct {
	level   types.Level
	reps    map[string]string
	members []string
}

// ClusterSize is one row of a size summary: a representative and how many
// members it stands for.
type ClusterSize struct {
	Representative string
	Count          int
}

// LoadAssignmentIndex reads an assignment table into an index. Each record
// is two whitespace-delimited tokens, representative first, member second.
// Tables ending in .gz are decompressed transparently. A duplicate member
// key is an ErrDataIntegrity: the table claims two representatives for one
// member and must not be repaired by last-write-wins.
func LoadAssignmentIndex(path string, level types.Level) (*AssignmentIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open assignment table for level %s: %w", level, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip assignment table for level %s: %w", level, err)
		}
		defer gz.Close()
		r = gz
	}

	ix, err := ReadAssignmentIndex(r, level)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ix, nil
}

// ReadAssignmentIndex parses an assignment table from r. See
// LoadAssignmentIndex for the format and integrity rules.
func ReadAssignmentIndex(r io.Reader, level types.Level) (*AssignmentIndex, error) {
	ix := &AssignmentIndex{
		level: level,
		reps:  make(map[string]string),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerInitialBuffer), scannerMaxToken)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: level %s line %d: expected 2 fields, got %d",
				ErrDataIntegrity, ix.level, lineNo, len(fields))
		}
		// Representative first, member second. Reversing this silently
		// corrupts every downstream lineage.
		rep, member := fields[0], fields[1]
		if _, dup := ix.reps[member]; dup {
			return nil, fmt.Errorf("%w: level %s line %d: member %q assigned twice",
				ErrDataIntegrity, ix.level, lineNo, member)
		}
		ix.reps[member] = rep
		ix.members = append(ix.members, member)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read assignment table for level %s: %w", ix.level, err)
	}

	metrics.RecordAssignmentRows(len(ix.members))
	return ix, nil
}

// Level returns the identity level this index belongs to.
func (ix *AssignmentIndex) Level() types.Level {
	return ix.level
}

// Len returns the number of member assignments.
func (ix *AssignmentIndex) Len() int {
	return len(ix.members)
}

// Resolve returns the representative for member, if assigned.
func (ix *AssignmentIndex) Resolve(member string) (string, bool) {
	rep, ok := ix.reps[member]
	return rep, ok
}

// Members returns the member identifiers in table order. Callers must not
// mutate the returned slice.
func (ix *AssignmentIndex) Members() []string {
	return ix.members
}

// Clusters inverts the assignment mapping: representative -> members, with
// members in table order.
func (ix *AssignmentIndex) Clusters() map[string][]string {
	clusters := make(map[string][]string)
	for _, member := range ix.members {
		rep := ix.reps[member]
		clusters[rep] = append(clusters[rep], member)
	}
	return clusters
}

// ClusterSizes derives the size summary: one entry per distinct
// representative with its member count, sorted by representative.
func (ix *AssignmentIndex) ClusterSizes() []ClusterSize {
	counts := make(map[string]int)
	for _, member := range ix.members {
		counts[ix.reps[member]]++
	}
	sizes := make([]ClusterSize, 0, len(counts))
	for rep, n := range counts {
		sizes = append(sizes, ClusterSize{Representative: rep, Count: n})
	}
	sort.Slice(sizes, func(i, j int) bool {
		return sizes[i].Representative < sizes[j].Representative
	})
	return sizes
}
