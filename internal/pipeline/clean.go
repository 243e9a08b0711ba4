package pipeline

import (
	"strconv"
	"strings"

	"salaryprep/internal"
	"salaryprep/internal/frame"
)

type CleanStats struct {
	Input             int
	DroppedMissing    int
	DroppedDuplicates int
	Output            int
}

// Clean drops rows with any missing cell, then the salary and salary_currency
// columns, then exact duplicate rows (first occurrence kept). Duplicates are
// judged on the surviving columns so that Clean is idempotent. The input frame
// is left untouched.
func Clean(f *frame.Frame) (*frame.Frame, CleanStats) {
	stats := CleanStats{Input: f.Len()}

	complete := make([]int, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		if f.RowHasMissing(i) {
			stats.DroppedMissing++
			continue
		}
		complete = append(complete, i)
	}
	trimmed := f.Select(complete).Drop(internal.DiscardedColumns...)

	seen := make(map[string]struct{}, trimmed.Len())
	keep := make([]int, 0, trimmed.Len())
	for i := 0; i < trimmed.Len(); i++ {
		key := rowKey(trimmed.Row(i))
		if _, dup := seen[key]; dup {
			stats.DroppedDuplicates++
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	out := trimmed.Select(keep)
	stats.Output = out.Len()
	return out, stats
}

// rowKey length-prefixes every cell so that no two distinct rows share a key.
func rowKey(cells []string) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(strconv.Itoa(len(c)))
		b.WriteByte(':')
		b.WriteString(c)
	}
	return b.String()
}
