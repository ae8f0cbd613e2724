package usecase

import (
	"github.com/provoco/clauseadvisor/internal/core/domain"
)

// BucketThresholds are the ratio cutoffs mapping flagged-sentence density to
// an exposure bucket. They are a configuration surface, not fixed policy.
type BucketThresholds struct {
	Possible   float64
	Likely     float64
	VeryLikely float64
}

func DefaultBucketThresholds() BucketThresholds {
	return BucketThresholds{
		Possible:   0.05,
		Likely:     0.15,
		VeryLikely: 0.30,
	}
}

// normalize enforces monotonic, ascending cutoffs so that more relevant
// sentences can never map to a lower bucket.
func (t BucketThresholds) normalize() BucketThresholds {
	out := t
	def := DefaultBucketThresholds()

	if out.Possible <= 0 || out.Possible > 1 {
		out.Possible = def.Possible
	}
	if out.Likely <= out.Possible || out.Likely > 1 {
		out.Likely = def.Likely
	}
	if out.Likely <= out.Possible {
		out.Likely = out.Possible * 2
	}
	if out.VeryLikely <= out.Likely || out.VeryLikely > 1 {
		out.VeryLikely = def.VeryLikely
	}
	if out.VeryLikely <= out.Likely {
		out.VeryLikely = out.Likely * 2
	}
	return out
}

// bucketFor deterministically maps a prediction set to exactly one exposure
// bucket. Identical prediction sets always yield the identical bucket.
func bucketFor(predictions []domain.SentencePrediction, thresholds BucketThresholds) domain.Bucket {
	if len(predictions) == 0 {
		return domain.BucketUnlikely
	}
	thresholds = thresholds.normalize()

	flagged := 0
	for _, p := range predictions {
		if p.Flagged() {
			flagged++
		}
	}

	ratio := float64(flagged) / float64(len(predictions))
	switch {
	case ratio >= thresholds.VeryLikely:
		return domain.BucketVeryLikely
	case ratio >= thresholds.Likely:
		return domain.BucketLikely
	case ratio >= thresholds.Possible:
		return domain.BucketPossible
	default:
		return domain.BucketUnlikely
	}
}

func countFlagged(predictions []domain.SentencePrediction) int {
	n := 0
	for _, p := range predictions {
		if p.Flagged() {
			n++
		}
	}
	return n
}
