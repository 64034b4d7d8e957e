package normalizer

import (
	"strconv"
	"strings"

	"github.com/lwilliamskeiter/leads-reformat/internal/models"
	"github.com/lwilliamskeiter/leads-reformat/internal/schema"
	"github.com/lwilliamskeiter/leads-reformat/pkg/utils"
)

// QualityStats counts what the confidence gates removed.
type QualityStats struct {
	In             int
	ScoreGated     int
	SlotsBlanked   int
	NoUsableNumber int
	Out            int
}

// QualityFilter applies the per-slot confidence rules.
type QualityFilter struct {
	minConfidence int
}

// NewQualityFilter creates a filter with the given minimum confidence (inclusive).
func NewQualityFilter(minConfidence int) *QualityFilter {
	return &QualityFilter{minConfidence: minConfidence}
}

// ParseConfidence converts "87%" to 87. Missing or unparsable values are 0.
func ParseConfidence(raw string) int {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if utils.IsMissing(raw) {
		return 0
	}

	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}

	return 0
}

// Apply drops rows whose primary slot is below the threshold, blanks weak
// supplementary slots, then drops rows left without any number. The score gates
// only run when at least one slot has a confidence column.
func (q *QualityFilter) Apply(tbl *models.Table, slots []schema.Slot) (*models.Table, QualityStats) {
	stats := QualityStats{In: tbl.Len()}
	out := models.NewTable(tbl.Header)

	scored := false
	for _, s := range slots {
		if s.Confidence != "" {
			scored = true
		}
	}

	for r := range tbl.Rows {
		row := append(models.Row(nil), tbl.Rows[r]...)

		if scored && len(slots) > 0 && slots[0].Confidence != "" {
			if ParseConfidence(tbl.Value(r, slots[0].Confidence)) < q.minConfidence {
				stats.ScoreGated++

				continue
			}
		}

		if scored {
			for _, s := range slots[1:] {
				if s.Confidence == "" {
					continue
				}

				if ParseConfidence(tbl.Value(r, s.Confidence)) < q.minConfidence {
					if idx := tbl.Index(s.Phone); idx >= 0 && row[idx] != "" {
						row[idx] = ""
						stats.SlotsBlanked++
					}
				}
			}
		}

		usable := false

		for _, s := range slots {
			if idx := tbl.Index(s.Phone); idx >= 0 && !utils.IsMissing(row[idx]) {
				usable = true

				break
			}
		}

		if !usable {
			stats.NoUsableNumber++

			continue
		}

		out.Rows = append(out.Rows, row)
	}

	stats.Out = out.Len()

	return out, stats
}
