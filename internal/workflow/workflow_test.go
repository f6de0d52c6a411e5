package workflow

import (
	"errors"
	"testing"
	"time"

	"ctam-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func facility() Actor {
	return Actor{
		Profile:    &domain.Profile{ID: "fac-1", Role: domain.RoleHospitalIT, IsActive: true, HospitalID: "h1"},
		ProvinceID: "p1", RegionID: "r1",
	}
}

func provincial() Actor {
	return Actor{Profile: &domain.Profile{ID: "prov-1", Role: domain.RoleProvincial, IsActive: true, ProvinceID: "p1"}, ProvinceID: "p1", RegionID: "r1"}
}

func regional() Actor {
	return Actor{Profile: &domain.Profile{ID: "reg-1", Role: domain.RoleRegional, IsActive: true, HealthRegionID: "r1"}, RegionID: "r1"}
}

func central() Actor {
	return Actor{Profile: &domain.Profile{ID: "admin-1", Role: domain.RoleCentralAdmin, IsActive: true}}
}

func target(status domain.Status) Target {
	return Target{
		Assessment: &domain.Assessment{ID: "a1", HospitalID: "h1", Status: status},
		ProvinceID: "p1",
		RegionID:   "r1",
	}
}

func TestSubmit_FromDraft(t *testing.T) {
	tr, err := Submit(facility(), target(domain.StatusDraft), now)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSubmitted, tr.Assessment.Status)
	assert.Equal(t, "fac-1", tr.Assessment.SubmittedBy)
	assert.Equal(t, now, tr.Assessment.SubmittedAt)
	require.Len(t, tr.History, 1)
	assert.Equal(t, domain.StatusDraft, tr.History[0].FromStatus)
	assert.Equal(t, domain.StatusSubmitted, tr.History[0].ToStatus)
	assert.Equal(t, domain.ActionSubmit, tr.History[0].Action)
}

func TestSubmit_FromReturned(t *testing.T) {
	tr, err := Submit(facility(), target(domain.StatusReturned), now)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReturned, tr.History[0].FromStatus)
	assert.True(t, tr.StatusChanged())
}

func TestSubmit_RejectedOutsideEditableStatuses(t *testing.T) {
	for _, st := range []domain.Status{domain.StatusSubmitted, domain.StatusApprovedProvincial, domain.StatusApprovedRegional, domain.StatusCompleted} {
		_, err := Submit(facility(), target(st), now)
		assert.ErrorIs(t, err, ErrInvalidTransition, st)
	}
}

func TestSubmit_DoesNotMutateInput(t *testing.T) {
	tg := target(domain.StatusDraft)
	_, err := Submit(facility(), tg, now)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, tg.Assessment.Status)
}

func TestSubmit_ForbiddenForOtherFacilityAndInactive(t *testing.T) {
	other := facility()
	other.Profile.HospitalID = "h2"
	_, err := Submit(other, target(domain.StatusDraft), now)
	assert.ErrorIs(t, err, ErrForbidden)

	inactive := facility()
	inactive.Profile.IsActive = false
	_, err = Submit(inactive, target(domain.StatusDraft), now)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = Submit(provincial(), target(domain.StatusDraft), now)
	assert.ErrorIs(t, err, ErrForbidden)
}

func approveAll(t *testing.T, actor Actor, tg Target) *Transition {
	t.Helper()
	var tr *Transition
	var err error
	for _, s := range domain.Sections() {
		tr, err = ApproveSection(actor, tg, s, "", now)
		require.NoError(t, err)
		tg.Assessment = tr.Assessment
	}
	return tr
}

func TestApproveSection_PartialKeepsStatus(t *testing.T) {
	tr, err := ApproveSection(provincial(), target(domain.StatusSubmitted), domain.SectionImpact, "ok", now)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSubmitted, tr.Assessment.Status)
	assert.False(t, tr.StatusChanged())
	assert.True(t, tr.Assessment.Approval(domain.SectionImpact).Approved())
	assert.Equal(t, "prov-1", tr.Assessment.Approval(domain.SectionImpact).By)
	require.Len(t, tr.History, 1)
	assert.Equal(t, "approve_impact", tr.History[0].Action)
	assert.Equal(t, domain.StatusSubmitted, tr.History[0].ToStatus)
}

func TestApproveSection_LastProvincialApprovalAdvancesAndClears(t *testing.T) {
	tr := approveAll(t, provincial(), target(domain.StatusSubmitted))

	a := tr.Assessment
	assert.Equal(t, domain.StatusApprovedProvincial, a.Status)
	for _, s := range domain.Sections() {
		assert.False(t, a.Approval(s).Approved(), s.String())
	}
	assert.Equal(t, "prov-1", a.ProvincialApproval.By)
	assert.Equal(t, now, a.ProvincialApproval.At)
	assert.False(t, a.RegionalApproval.Approved())

	require.Len(t, tr.History, 2)
	assert.Equal(t, "approve_impact", tr.History[0].Action)
	assert.Equal(t, domain.ActionApprove, tr.History[1].Action)
	assert.Equal(t, domain.StatusSubmitted, tr.History[1].FromStatus)
	assert.Equal(t, domain.StatusApprovedProvincial, tr.History[1].ToStatus)
	assert.Equal(t, CommentAllSectionsApproved, tr.History[1].Comment)
}

func TestApproveSection_RegionalAdvancesToApprovedRegional(t *testing.T) {
	tr := approveAll(t, regional(), target(domain.StatusApprovedProvincial))
	assert.Equal(t, domain.StatusApprovedRegional, tr.Assessment.Status)
	assert.Equal(t, "reg-1", tr.Assessment.RegionalApproval.By)
	assert.False(t, tr.Assessment.AllSectionsApproved())
}

func TestApproveSection_CentralCompletesWithoutClearing(t *testing.T) {
	for _, st := range []domain.Status{domain.StatusSubmitted, domain.StatusApprovedProvincial, domain.StatusApprovedRegional} {
		tr := approveAll(t, central(), target(st))
		assert.Equal(t, domain.StatusCompleted, tr.Assessment.Status, st)
		assert.True(t, tr.Assessment.AllSectionsApproved(), st)
		assert.False(t, tr.Assessment.ProvincialApproval.Approved())
	}
}

func TestApproveSection_JustStampedSectionCounts(t *testing.T) {
	tg := target(domain.StatusSubmitted)
	tg.Assessment.SetApproval(domain.SectionQuantitative, domain.NewSectionStamp("prov-2", now))
	tg.Assessment.SetApproval(domain.SectionQualitative, domain.NewSectionStamp("prov-2", now))

	tr, err := ApproveSection(provincial(), tg, domain.SectionImpact, "", now)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApprovedProvincial, tr.Assessment.Status)
}

func TestApproveSection_ReapprovalRestamps(t *testing.T) {
	tg := target(domain.StatusSubmitted)
	tg.Assessment.SetApproval(domain.SectionImpact, domain.NewSectionStamp("prov-2", now.Add(-time.Hour)))

	tr, err := ApproveSection(provincial(), tg, domain.SectionImpact, "", now)
	require.NoError(t, err)
	assert.Equal(t, "prov-1", tr.Assessment.Approval(domain.SectionImpact).By)
	assert.Equal(t, now, tr.Assessment.Approval(domain.SectionImpact).At)
	assert.Equal(t, domain.StatusSubmitted, tr.Assessment.Status)
}

func TestApproveSection_StatusGates(t *testing.T) {
	cases := []struct {
		actor  Actor
		status domain.Status
	}{
		{provincial(), domain.StatusApprovedProvincial},
		{provincial(), domain.StatusDraft},
		{regional(), domain.StatusSubmitted},
		{regional(), domain.StatusApprovedRegional},
		{central(), domain.StatusCompleted},
		{central(), domain.StatusDraft},
		{central(), domain.StatusReturned},
	}
	for _, c := range cases {
		_, err := ApproveSection(c.actor, target(c.status), domain.SectionQuantitative, "", now)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s at %s", c.actor.Profile.Role, c.status)
	}
}

func TestApproveSection_ScopeAndRole(t *testing.T) {
	outside := provincial()
	outside.ProvinceID = "p9"
	_, err := ApproveSection(outside, target(domain.StatusSubmitted), domain.SectionImpact, "", now)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = ApproveSection(facility(), target(domain.StatusSubmitted), domain.SectionImpact, "", now)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = ApproveSection(provincial(), target(domain.StatusSubmitted), domain.Section(42), "", now)
	assert.ErrorIs(t, err, ErrInvalidSection)
}

func TestReturnSection_RequiresComment(t *testing.T) {
	_, err := ReturnSection(provincial(), target(domain.StatusSubmitted), domain.SectionQualitative, "   ", now)
	assert.True(t, errors.Is(err, ErrCommentRequired))
}

func TestReturnSection_ClearsAllStamps(t *testing.T) {
	tg := target(domain.StatusSubmitted)
	tg.Assessment.SetApproval(domain.SectionQuantitative, domain.NewSectionStamp("prov-1", now))
	tg.Assessment.SetApproval(domain.SectionImpact, domain.NewSectionStamp("prov-1", now))

	tr, err := ReturnSection(provincial(), tg, domain.SectionQualitative, "missing evidence", now)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusReturned, tr.Assessment.Status)
	for _, s := range domain.Sections() {
		assert.False(t, tr.Assessment.Approval(s).Approved(), s.String())
	}
	require.Len(t, tr.History, 1)
	assert.Equal(t, "return_qualitative", tr.History[0].Action)
	assert.Equal(t, "missing evidence", tr.History[0].Comment)
	assert.Equal(t, domain.StatusSubmitted, tr.History[0].FromStatus)
}

func TestReturnSection_FromEveryReviewLevel(t *testing.T) {
	cases := map[domain.Status]Actor{
		domain.StatusSubmitted:          provincial(),
		domain.StatusApprovedProvincial: regional(),
		domain.StatusApprovedRegional:   central(),
	}
	for st, actor := range cases {
		tr, err := ReturnSection(actor, target(st), domain.SectionImpact, "rework", now)
		require.NoError(t, err, st)
		assert.Equal(t, domain.StatusReturned, tr.Assessment.Status)
	}

	_, err := ReturnSection(central(), target(domain.StatusCompleted), domain.SectionImpact, "late", now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFullChain(t *testing.T) {
	tg := target(domain.StatusDraft)
	tr, err := Submit(facility(), tg, now)
	require.NoError(t, err)
	tg.Assessment = tr.Assessment

	tg.Assessment = approveAll(t, provincial(), tg).Assessment
	tg.Assessment = approveAll(t, regional(), tg).Assessment
	tr = approveAll(t, central(), tg)

	assert.Equal(t, domain.StatusCompleted, tr.Assessment.Status)
	assert.True(t, tr.Assessment.ProvincialApproval.Approved())
	assert.True(t, tr.Assessment.RegionalApproval.Approved())

	tg.Assessment = tr.Assessment
	_, err = Submit(facility(), tg, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
