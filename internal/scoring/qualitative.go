// Package scoring holds the pure, deterministic score formulas of the
// assessment sections.
package scoring

import "ctam-data/internal/domain"

// Section maxima.
const (
	MaxLeadership   = 10
	MaxSustainable  = 10
	MaxQualitative  = 15
	MaxQuantitative = 70
	MaxImpact       = 15
)

// QualitativeInput raw qualitative form fields.
type QualitativeInput struct {
	HasCISO             bool
	HasDPO              bool
	HasITSecurityTeam   bool
	AnnualTrainingCount int
	UsesOpenSource      bool
	UsesFreeware        bool
}

// Result derived qualitative scores.
type Result struct {
	Leadership  int
	Sustainable int
	Total       int
}

// InputFrom extracts the raw inputs of a stored qualitative row.
func InputFrom(q *domain.QualitativeScore) QualitativeInput {
	return QualitativeInput{
		HasCISO:             q.HasCISO,
		HasDPO:              q.HasDPO,
		HasITSecurityTeam:   q.HasITSecurityTeam,
		AnnualTrainingCount: q.AnnualTrainingCount,
		UsesOpenSource:      q.UsesOpenSource,
		UsesFreeware:        q.UsesFreeware,
	}
}

// Score computes leadership, sustainable and total.
func Score(in QualitativeInput) Result {
	leadership := min(MaxLeadership, b2i(in.HasCISO)*3+b2i(in.HasDPO)*3+b2i(in.HasITSecurityTeam)*4)
	sustainable := min(MaxSustainable, TrainingContribution(in.AnnualTrainingCount)+FreewareContribution(in.UsesOpenSource, in.UsesFreeware))
	return Result{
		Leadership:  leadership,
		Sustainable: sustainable,
		Total:       min(MaxQualitative, leadership+sustainable),
	}
}

// TrainingContribution >=4 -> 5, >=2 -> 3, >=1 -> 1, else 0. Negative counts score 0.
func TrainingContribution(count int) int {
	switch {
	case count >= 4:
		return 5
	case count >= 2:
		return 3
	case count >= 1:
		return 1
	default:
		return 0
	}
}

// FreewareContribution neither used -> 5, open source only -> 3, any freeware -> 0.
func FreewareContribution(usesOpenSource, usesFreeware bool) int {
	switch {
	case usesFreeware:
		return 0
	case usesOpenSource:
		return 3
	default:
		return 5
	}
}

// Apply recomputes the derived fields of q in place. AnnualTrainingCount is
// clamped at zero.
func Apply(q *domain.QualitativeScore) Result {
	if q.AnnualTrainingCount < 0 {
		q.AnnualTrainingCount = 0
	}
	r := Score(InputFrom(q))
	q.LeadershipScore = float64(r.Leadership)
	q.SustainableScore = float64(r.Sustainable)
	q.TotalScore = float64(r.Total)
	return r
}

// ClampSectionScore bounds a raw section score to [0, limit]. NaN scores 0.
func ClampSectionScore(v, limit float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
