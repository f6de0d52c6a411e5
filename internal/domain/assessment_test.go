package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSection(t *testing.T) {
	for _, s := range Sections() {
		got, err := ParseSection(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSection("leadership")
	assert.Error(t, err)
}

func TestNewSectionStamp_SetTogether(t *testing.T) {
	now := time.Now()
	assert.False(t, NewSectionStamp("", now).Approved())
	assert.False(t, NewSectionStamp("u1", time.Time{}).Approved())
	assert.Equal(t, SectionStamp{}, NewSectionStamp("", now))

	s := NewSectionStamp("u1", now)
	assert.True(t, s.Approved())
	assert.Equal(t, "u1", s.By)
}

func TestSectionStamp_JSON(t *testing.T) {
	b, err := json.Marshal(SectionStamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	b, err = json.Marshal(NewSectionStamp("u1", at))
	require.NoError(t, err)

	var back SectionStamp
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "u1", back.By)
	assert.True(t, back.At.Equal(at))
}

func TestAssessment_SectionApprovals(t *testing.T) {
	a := &Assessment{}
	now := time.Now()

	a.SetApproval(SectionQuantitative, NewSectionStamp("p1", now))
	a.SetApproval(SectionQualitative, NewSectionStamp("p1", now))
	assert.False(t, a.AllSectionsApproved())

	a.SetApproval(SectionImpact, NewSectionStamp("p2", now))
	assert.True(t, a.AllSectionsApproved())
	assert.Equal(t, "p2", a.Approval(SectionImpact).By)

	a.ClearSectionApprovals()
	for _, s := range Sections() {
		assert.False(t, a.Approval(s).Approved(), s.String())
	}
}

func TestAssessment_RecalculateTotalAndYear(t *testing.T) {
	a := &Assessment{FiscalYear: 2025, QuantitativeScore: 50, QualitativeScore: 12, ImpactScore: 8}
	a.RecalculateTotal()
	assert.Equal(t, 70.0, a.TotalScore)
	assert.Equal(t, 2568, a.BuddhistYear())
}

func TestStatus_Predicates(t *testing.T) {
	assert.True(t, StatusDraft.Editable())
	assert.True(t, StatusReturned.Editable())
	assert.False(t, StatusSubmitted.Editable())
	assert.True(t, StatusApprovedRegional.UnderReview())
	assert.False(t, StatusCompleted.UnderReview())
	assert.True(t, StatusCompleted.Terminal())

	_, err := ParseStatus("archived")
	assert.Error(t, err)
}

func TestProfile_Owns(t *testing.T) {
	hosp := &Assessment{HospitalID: "h1"}
	office := &Assessment{HealthOfficeID: "o1"}

	assert.True(t, (&Profile{HospitalID: "h1"}).Owns(hosp))
	assert.False(t, (&Profile{HospitalID: "h2"}).Owns(hosp))
	assert.False(t, (&Profile{HealthOfficeID: "o1"}).Owns(hosp))
	assert.True(t, (&Profile{HealthOfficeID: "o1"}).Owns(office))
	assert.False(t, (&Profile{}).Owns(&Assessment{}))
}
