package observability

import (
	"fmt"
	"math"
	"time"

	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// Risk score contributions.
const (
	riskPerBlocked      = 10
	riskPerOverdue      = 8
	riskDecreasing      = 15
	riskPerStalled      = 5
	riskMissingSignOff  = 10
	missingSignOffLimit = 3
	stalledAfter        = 7 * day
	maxRiskScore        = 100
)

// RiskLevel buckets a risk score for display.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// Insights is the outcome of GeneratePredictiveInsights.
type Insights struct {
	RiskScore           int      `json:"riskScore" yaml:"risk_score"`
	Bottlenecks         []string `json:"bottlenecks" yaml:"bottlenecks"`
	Recommendations     []string `json:"recommendations" yaml:"recommendations"`
	EstimatedCompletion string   `json:"estimatedCompletion,omitempty" yaml:"estimated_completion,omitempty"`
}

// Level buckets the risk score: 60 and above is high, 30 and above medium.
func (i Insights) Level() RiskLevel {
	switch {
	case i.RiskScore >= 60:
		return RiskHigh
	case i.RiskScore >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// GeneratePredictiveInsights scores delivery risk from blocked, overdue and
// stalled work, the velocity trend and missing security sign-offs. The score
// is clamped to [0, 100].
func GeneratePredictiveInsights(project []models.ProjectTask, adhoc []models.AdHocTask, velocity Velocity, now time.Time) Insights {
	ins := Insights{Bottlenecks: []string{}, Recommendations: []string{}}
	today := startOfDay(now)

	var blocked, overdue, stalled, incomplete, unsigned int
	for _, t := range models.Flatten(project, adhoc) {
		b := t.Base()
		if b.IsComplete() {
			continue
		}
		incomplete++
		if b.Status == models.StatusBlocked {
			blocked++
		}
		if dueBefore(t.Due(), today) {
			overdue++
		}
		if b.Status == models.StatusInProgress && now.Sub(b.UpdatedAt) >= stalledAfter {
			stalled++
		}
	}
	for _, p := range project {
		if !p.IsComplete() && !p.SecuritySignOff {
			unsigned++
		}
	}

	score := 0
	if blocked > 0 {
		score += riskPerBlocked * blocked
		ins.Bottlenecks = append(ins.Bottlenecks, fmt.Sprintf("%d %s blocked", blocked, plural(blocked, "task is", "tasks are")))
		ins.Recommendations = append(ins.Recommendations, "Resolve blockers on blocked tasks before starting new work")
	}
	if overdue > 0 {
		score += riskPerOverdue * overdue
		ins.Bottlenecks = append(ins.Bottlenecks, fmt.Sprintf("%d %s past the due date", overdue, plural(overdue, "task is", "tasks are")))
		ins.Recommendations = append(ins.Recommendations, "Re-plan or escalate overdue tasks")
	}
	if velocity.Trend == TrendDecreasing {
		score += riskDecreasing
		ins.Bottlenecks = append(ins.Bottlenecks, "Completion velocity is decreasing week over week")
		ins.Recommendations = append(ins.Recommendations, "Review team capacity and reduce work in progress")
	}
	if stalled > 0 {
		score += riskPerStalled * stalled
		ins.Bottlenecks = append(ins.Bottlenecks, fmt.Sprintf("%d in-progress %s had no update for 7+ days", stalled, plural(stalled, "task has", "tasks have")))
		ins.Recommendations = append(ins.Recommendations, "Check in on stalled in-progress tasks")
	}
	if unsigned > missingSignOffLimit {
		score += riskMissingSignOff
		ins.Recommendations = append(ins.Recommendations, fmt.Sprintf("%d open project tasks lack security sign-off; schedule reviews", unsigned))
	}

	if velocity.AverageVelocity > 0 && incomplete > 0 {
		weeks := int(math.Ceil(float64(incomplete) / velocity.AverageVelocity))
		ins.EstimatedCompletion = now.AddDate(0, 0, 7*weeks).Format(DateLayout)
	}
	if velocity.Trend == TrendIncreasing {
		ins.Recommendations = append(ins.Recommendations, "Velocity is increasing; keep the current cadence")
	}
	if blocked == 0 && overdue == 0 {
		ins.Recommendations = append(ins.Recommendations, "No blocked or overdue tasks")
	}

	ins.RiskScore = min(max(score, 0), maxRiskScore)
	return ins
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
