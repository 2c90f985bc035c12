package mmseqs

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/okian/antiref/internal/domain/lineage"
)

// Scanner sizing for very large assignment tables.
const (
	sizeScannerInitialBuffer = 64 * 1024
	sizeScannerMaxToken      = 4 * 1024 * 1024
)

// WriteSizeSummary streams an assignment table and writes the per-cluster
// size summary: one `<count> <representative>` row per distinct
// representative, sorted by representative. It returns the cluster count.
// The reference workflow produced this with a cut|sort|uniq shell chain;
// deriving it in-process keeps the artifact attributable and testable.
func WriteSizeSummary(assignmentPath, outPath string) (int, error) {
	in, err := os.Open(assignmentPath)
	if err != nil {
		return 0, fmt.Errorf("open assignment table: %w", err)
	}
	defer in.Close()

	counts := make(map[string]int)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, sizeScannerInitialBuffer), sizeScannerMaxToken)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return 0, fmt.Errorf("%w: %s line %d: expected 2 fields, got %d",
				lineage.ErrDataIntegrity, assignmentPath, lineNo, len(fields))
		}
		counts[fields[0]]++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read assignment table: %w", err)
	}

	reps := make([]string, 0, len(counts))
	for rep := range counts {
		reps = append(reps, rep)
	}
	sort.Strings(reps)

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create size summary: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	for _, rep := range reps {
		if _, err := fmt.Fprintf(w, "%d %s\n", counts[rep], rep); err != nil {
			return 0, fmt.Errorf("write size summary: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("flush size summary: %w", err)
	}
	return len(reps), nil
}
