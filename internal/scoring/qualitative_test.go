package scoring

import (
	"math"
	"testing"

	"ctam-data/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestScore_LeadershipAllBooleanCombinations(t *testing.T) {
	for _, ciso := range []bool{false, true} {
		for _, dpo := range []bool{false, true} {
			for _, team := range []bool{false, true} {
				r := Score(QualitativeInput{HasCISO: ciso, HasDPO: dpo, HasITSecurityTeam: team})
				want := min(10, 3*b2i(ciso)+3*b2i(dpo)+4*b2i(team))
				assert.Equal(t, want, r.Leadership, "ciso=%v dpo=%v team=%v", ciso, dpo, team)
			}
		}
	}
}

func TestTrainingContribution(t *testing.T) {
	cases := map[int]int{-3: 0, 0: 0, 1: 1, 2: 3, 3: 3, 4: 5, 10: 5}
	for count, want := range cases {
		assert.Equal(t, want, TrainingContribution(count), "count=%d", count)
	}
}

func TestFreewareContribution(t *testing.T) {
	assert.Equal(t, 5, FreewareContribution(false, false))
	assert.Equal(t, 3, FreewareContribution(true, false))
	assert.Equal(t, 0, FreewareContribution(false, true))
	assert.Equal(t, 0, FreewareContribution(true, true))
}

func TestScore_TotalIsCapped(t *testing.T) {
	for _, training := range []int{0, 1, 2, 4, 10} {
		for _, oss := range []bool{false, true} {
			for _, free := range []bool{false, true} {
				r := Score(QualitativeInput{
					HasCISO: true, HasDPO: true, HasITSecurityTeam: true,
					AnnualTrainingCount: training, UsesOpenSource: oss, UsesFreeware: free,
				})
				assert.Equal(t, min(15, r.Leadership+r.Sustainable), r.Total)
				assert.LessOrEqual(t, r.Sustainable, 10)
			}
		}
	}

	full := Score(QualitativeInput{HasCISO: true, HasDPO: true, HasITSecurityTeam: true, AnnualTrainingCount: 4})
	assert.Equal(t, Result{Leadership: 10, Sustainable: 10, Total: 15}, full)
}

func TestApply_ClampsNegativeTrainingAndWritesDerivedFields(t *testing.T) {
	q := &domain.QualitativeScore{HasDPO: true, AnnualTrainingCount: -2, UsesOpenSource: true}
	r := Apply(q)

	assert.Equal(t, 0, q.AnnualTrainingCount)
	assert.Equal(t, Result{Leadership: 3, Sustainable: 3, Total: 6}, r)
	assert.Equal(t, 3.0, q.LeadershipScore)
	assert.Equal(t, 3.0, q.SustainableScore)
	assert.Equal(t, 6.0, q.TotalScore)
}

func TestClampSectionScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampSectionScore(-1, MaxImpact))
	assert.Equal(t, 15.0, ClampSectionScore(99, MaxImpact))
	assert.Equal(t, 42.5, ClampSectionScore(42.5, MaxQuantitative))
	assert.Equal(t, 0.0, ClampSectionScore(math.NaN(), MaxImpact))
}
