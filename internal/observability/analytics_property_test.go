package observability

import (
	"fmt"
	"testing"
	"time"

	"github.com/valter-silva-au/taskpulse/internal/storage"
	"github.com/valter-silva-au/taskpulse/pkg/models"
	"pgregory.net/rapid"
)

// =============================================================================
// Generators
// =============================================================================

func genStatus(t *rapid.T, label string) models.TaskStatus {
	return rapid.SampledFrom(models.Statuses()).Draw(t, label)
}

func genProjectTasks(t *rapid.T) []models.ProjectTask {
	n := rapid.IntRange(0, 40).Draw(t, "numProject")
	out := make([]models.ProjectTask, n)
	for i := range out {
		created := daysAgo(float64(rapid.IntRange(0, 60).Draw(t, fmt.Sprintf("pCreated%d", i))))
		updated := created.Add(time.Duration(rapid.IntRange(0, 60*24).Draw(t, fmt.Sprintf("pUpdated%d", i))) * time.Hour)
		out[i] = models.ProjectTask{
			Task: models.Task{
				ID:        fmt.Sprintf("p%d", i),
				Kind:      models.KindProject,
				Status:    genStatus(t, fmt.Sprintf("pStatus%d", i)),
				CreatedAt: created,
				UpdatedAt: updated,
			},
			SquadName:       rapid.SampledFrom([]string{"Alpha", "Beta", "Gamma"}).Draw(t, fmt.Sprintf("squad%d", i)),
			DeploymentDate:  daysAgo(float64(rapid.IntRange(-30, 30).Draw(t, fmt.Sprintf("deploy%d", i)))),
			SecuritySignOff: rapid.Bool().Draw(t, fmt.Sprintf("signoff%d", i)),
		}
	}
	return out
}

// Feature: analytics, Property 1: Risk score stays within [0, 100]
// For any task collections and velocity, the risk score is clamped.
func TestProperty_RiskScoreClamped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		project := genProjectTasks(t)
		velocity := CalculateVelocity(project, nil, anNow)
		if rapid.Bool().Draw(t, "forceDecreasing") {
			velocity.Trend = TrendDecreasing
		}

		ins := GeneratePredictiveInsights(project, nil, velocity, anNow)
		if ins.RiskScore < 0 || ins.RiskScore > 100 {
			t.Fatalf("RiskScore %d out of range", ins.RiskScore)
		}
	})
}

// Feature: analytics, Property 2: Trend series has one point per requested day
func TestProperty_TrendLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		project := genProjectTasks(t)
		days := rapid.IntRange(-3, 60).Draw(t, "days")

		points := CalculateTrendData(project, nil, days, anNow)
		want := max(days, 0)
		if len(points) != want {
			t.Fatalf("got %d points for days=%d", len(points), days)
		}
		for i := 1; i < len(points); i++ {
			if points[i-1].Date >= points[i].Date {
				t.Fatalf("dates not ascending: %s then %s", points[i-1].Date, points[i].Date)
			}
		}
	})
}

// Feature: analytics, Property 3: Squad totals partition the project tasks
func TestProperty_SquadTotalsPartition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		project := genProjectTasks(t)
		squads := CalculateSquadPerformance(project)

		total := 0
		for i, s := range squads {
			total += s.TotalTasks
			if s.CompletedTasks > s.TotalTasks || s.CompletionRate < 0 || s.CompletionRate > 100 {
				t.Fatalf("inconsistent squad %+v", s)
			}
			if i > 0 && squads[i-1].CompletionRate < s.CompletionRate {
				t.Fatalf("squads not sorted by rate")
			}
		}
		if total != len(project) {
			t.Fatalf("squad totals %d != %d tasks", total, len(project))
		}
	})
}

// Feature: activity log, Property 4: The log never exceeds capacity and stays newest first
func TestProperty_ActivityLogCapacity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 20).Draw(t, "capacity")
		adds := rapid.IntRange(0, 50).Draw(t, "adds")

		clock := anNow
		log := NewActivityLog(storage.NewMemoryStore(),
			WithCapacity(capacity),
			WithActivityClock(func() time.Time { clock = clock.Add(time.Second); return clock }),
		)
		for i := 0; i < adds; i++ {
			log.LogTaskCreated(models.Task{ID: fmt.Sprintf("t%d", i)})
		}

		entries := log.Entries()
		if len(entries) != min(adds, capacity) {
			t.Fatalf("got %d entries, want %d", len(entries), min(adds, capacity))
		}
		for i := 1; i < len(entries); i++ {
			if !entries[i-1].Timestamp.After(entries[i].Timestamp) {
				t.Fatalf("entries not newest first at %d", i)
			}
		}
		if len(entries) > 0 && entries[0].TaskID != fmt.Sprintf("t%d", adds-1) {
			t.Fatalf("newest entry is %s", entries[0].TaskID)
		}
	})
}
