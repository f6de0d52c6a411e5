package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"ctam-data/internal/app"
	"ctam-data/internal/config"
	"ctam-data/internal/domain"
	"ctam-data/internal/repository"
)

// check-assessment prints an assessment with its section stamps, qualitative
// answers and approval trail. Pass an id, or -facility with -year to look one
// up by period.
func main() {
	facility := flag.String("facility", "", "hospital or health office id")
	office := flag.Bool("office", false, "treat -facility as a health office id")
	year := flag.Int("year", 0, "fiscal year (Gregorian)")
	period := flag.String("period", "1", "assessment period")
	flag.Parse()

	cfg := config.Load()
	repos, err := app.OpenRepositories(cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to open repositories: %v", err)
	}
	defer repos.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var a *domain.Assessment
	switch {
	case flag.NArg() > 0:
		a, err = repos.Assessments.Get(ctx, flag.Arg(0))
	case *facility != "" && *year != 0:
		hospitalID, officeID := *facility, ""
		if *office {
			hospitalID, officeID = "", *facility
		}
		a, err = repos.Assessments.FindByFacilityPeriod(ctx, hospitalID, officeID, *year, *period)
	default:
		fmt.Fprintln(os.Stderr, "usage: check-assessment <assessment_id> | -facility <id> [-office] -year <yyyy> [-period p]")
		os.Exit(2)
	}
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Println("❌ Assessment not found")
		return
	}
	if err != nil {
		log.Fatalf("Failed to load assessment: %v", err)
	}

	fmt.Printf("\n=== Assessment %s ===\n\n", a.ID)
	fmt.Println("📋 ASSESSMENT:")
	fmt.Printf("  facility: %s\n", a.FacilityID())
	fmt.Printf("  fiscal_year: %d (B.E. %d) period %s\n", a.FiscalYear, a.FiscalYear+543, a.Period)
	fmt.Printf("  status: %s\n", a.Status)
	fmt.Printf("  version: %d\n", a.Version)
	fmt.Printf("  scores: quantitative=%.2f qualitative=%.2f impact=%.2f total=%.2f\n",
		a.QuantitativeScore, a.QualitativeScore, a.ImpactScore, a.TotalScore)

	fmt.Println("\n✅ SECTION APPROVALS:")
	for _, s := range domain.Sections() {
		stamp := a.Approval(s)
		if stamp.Approved() {
			fmt.Printf("  %-13s by %s at %s\n", s, stamp.By, stamp.At.Format(time.RFC3339))
		} else {
			fmt.Printf("  %-13s pending\n", s)
		}
	}
	printLevel("provincial", a.ProvincialApproval)
	printLevel("regional", a.RegionalApproval)

	fmt.Println("\n📝 QUALITATIVE:")
	q, err := repos.Qualitative.Get(ctx, a.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fmt.Println("  (not saved)")
	case err != nil:
		log.Printf("Failed to load qualitative row: %v", err)
	default:
		fmt.Printf("  ciso=%t dpo=%t it_security_team=%t training=%d opensource=%t freeware=%t\n",
			q.HasCISO, q.HasDPO, q.HasITSecurityTeam, q.AnnualTrainingCount, q.UsesOpenSource, q.UsesFreeware)
		fmt.Printf("  leadership=%.2f sustainable=%.2f total=%.2f\n", q.LeadershipScore, q.SustainableScore, q.TotalScore)
	}

	fmt.Println("\n📜 HISTORY:")
	history, err := repos.History.ListByAssessment(ctx, a.ID)
	if err != nil {
		log.Fatalf("Failed to load history: %v", err)
	}
	if len(history) == 0 {
		fmt.Println("  (none)")
	}
	for _, h := range history {
		fmt.Printf("  %s  %-20s %s -> %s by %s", h.CreatedAt.Format(time.RFC3339), h.Action, h.FromStatus, h.ToStatus, h.PerformedBy)
		if h.Comment != "" {
			fmt.Printf("  %q", h.Comment)
		}
		fmt.Println()
	}

	siblings, err := repos.Assessments.List(ctx, repository.AssessmentFilter{
		FiscalYear:     a.FiscalYear,
		HospitalID:     a.HospitalID,
		HealthOfficeID: a.HealthOfficeID,
	})
	if err == nil && len(siblings) > 1 {
		fmt.Printf("\nℹ️  %d assessments for this facility in %d\n", len(siblings), a.FiscalYear)
	}
}

func printLevel(name string, l domain.LevelStamp) {
	if !l.Approved() {
		fmt.Printf("  %-13s pending\n", name)
		return
	}
	fmt.Printf("  %-13s by %s at %s", name, l.By, l.At.Format(time.RFC3339))
	if l.Comment != "" {
		fmt.Printf("  %q", l.Comment)
	}
	fmt.Println()
}
