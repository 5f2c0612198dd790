package observability

import (
	"math"
	"sort"
	"time"

	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// DateLayout formats calendar days in analytics output.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// TrendPoint holds the counts for one calendar day.
type TrendPoint struct {
	Date       string `json:"date" yaml:"date"`
	Completed  int    `json:"completed" yaml:"completed"`
	Created    int    `json:"created" yaml:"created"`
	InProgress int    `json:"inProgress" yaml:"in_progress"`
	Blocked    int    `json:"blocked" yaml:"blocked"`
}

// SquadPerformance summarizes the project tasks owned by one squad.
type SquadPerformance struct {
	Squad                 string  `json:"squadName" yaml:"squad"`
	TotalTasks            int     `json:"totalTasks" yaml:"total_tasks"`
	CompletedTasks        int     `json:"completedTasks" yaml:"completed_tasks"`
	CompletionRate        float64 `json:"completionRate" yaml:"completion_rate"`
	AverageCompletionDays float64 `json:"avgCompletionTime" yaml:"avg_completion_days"`
	BlockedTasks          int     `json:"blockedTasks" yaml:"blocked_tasks"`
}

// VelocityTrend classifies week-over-week change in completions.
type VelocityTrend string

const (
	TrendIncreasing VelocityTrend = "increasing"
	TrendDecreasing VelocityTrend = "decreasing"
	TrendStable     VelocityTrend = "stable"
)

// Velocity describes completion throughput.
type Velocity struct {
	CurrentWeek        int           `json:"currentWeek" yaml:"current_week"`
	LastWeek           int           `json:"lastWeek" yaml:"last_week"`
	AverageVelocity    float64       `json:"averageVelocity" yaml:"average_velocity"`
	Trend              VelocityTrend `json:"trend" yaml:"trend"`
	NextWeekProjection int           `json:"projectedNextWeek" yaml:"projected_next_week"`
}

// StatusTime reports how long tasks currently in a status have existed.
type StatusTime struct {
	Status      models.TaskStatus `json:"status" yaml:"status"`
	AverageDays float64           `json:"avgDays" yaml:"avg_days"`
	Count       int               `json:"count" yaml:"count"`
}

// CalculateTrendData returns one point per calendar day for the last days
// days ending today, oldest first. Days are bucketed in now's location.
func CalculateTrendData(project []models.ProjectTask, adhoc []models.AdHocTask, days int, now time.Time) []TrendPoint {
	if days <= 0 {
		return []TrendPoint{}
	}

	tasks := bases(project, adhoc)
	today := startOfDay(now)
	points := make([]TrendPoint, 0, days)

	for i := days - 1; i >= 0; i-- {
		start := today.AddDate(0, 0, -i)
		next := start.AddDate(0, 0, 1)
		p := TrendPoint{Date: start.Format(DateLayout)}

		for _, t := range tasks {
			if t.Status == models.StatusComplete && sameDay(t.UpdatedAt, start) {
				p.Completed++
			}
			if sameDay(t.CreatedAt, start) {
				p.Created++
			}
			if !t.CreatedAt.After(next) {
				if t.Status == models.StatusInProgress ||
					(t.Status != models.StatusComplete && t.UpdatedAt.Before(next)) {
					p.InProgress++
				}
			}
			if t.Status == models.StatusBlocked && t.CreatedAt.Before(next) {
				p.Blocked++
			}
		}
		points = append(points, p)
	}
	return points
}

// CalculateSquadPerformance groups project tasks by exact squad name and
// orders squads by completion rate, highest first. Squads with equal rates
// keep the order in which they first appear.
func CalculateSquadPerformance(project []models.ProjectTask) []SquadPerformance {
	var order []string
	groups := make(map[string][]models.ProjectTask)
	for _, t := range project {
		if _, ok := groups[t.SquadName]; !ok {
			order = append(order, t.SquadName)
		}
		groups[t.SquadName] = append(groups[t.SquadName], t)
	}

	out := make([]SquadPerformance, 0, len(order))
	for _, name := range order {
		tasks := groups[name]
		sp := SquadPerformance{Squad: name, TotalTasks: len(tasks)}

		var totalDays float64
		for _, t := range tasks {
			switch t.Status {
			case models.StatusComplete:
				sp.CompletedTasks++
				start := t.StartDate
				if start.IsZero() {
					start = t.CreatedAt
				}
				totalDays += daysBetween(start, t.UpdatedAt)
			case models.StatusBlocked:
				sp.BlockedTasks++
			}
		}
		if sp.TotalTasks > 0 {
			sp.CompletionRate = float64(sp.CompletedTasks) / float64(sp.TotalTasks) * 100
		}
		if sp.CompletedTasks > 0 {
			sp.AverageCompletionDays = totalDays / float64(sp.CompletedTasks)
		}
		out = append(out, sp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletionRate > out[j].CompletionRate
	})
	return out
}

// CalculateVelocity counts completions in the trailing week, the week
// before it and the trailing four weeks.
func CalculateVelocity(project []models.ProjectTask, adhoc []models.AdHocTask, now time.Time) Velocity {
	weekAgo := now.Add(-7 * day)
	twoWeeksAgo := now.Add(-14 * day)
	fourWeeksAgo := now.Add(-28 * day)

	var v Velocity
	var lastFourWeeks int
	for _, t := range bases(project, adhoc) {
		if t.Status != models.StatusComplete {
			continue
		}
		u := t.UpdatedAt
		if !u.Before(weekAgo) {
			v.CurrentWeek++
		} else if !u.Before(twoWeeksAgo) {
			v.LastWeek++
		}
		if !u.Before(fourWeeksAgo) {
			lastFourWeeks++
		}
	}

	v.AverageVelocity = round1(float64(lastFourWeeks) / 4)
	switch diff := v.CurrentWeek - v.LastWeek; {
	case diff > 1:
		v.Trend = TrendIncreasing
	case diff < -1:
		v.Trend = TrendDecreasing
	default:
		v.Trend = TrendStable
	}
	v.NextWeekProjection = int(math.Round(0.6*float64(v.CurrentWeek) + 0.4*v.AverageVelocity))
	return v
}

// CalculateTimeInStatus groups all tasks by current status and averages the
// days between creation and last update. Only statuses that occur are
// reported, in workflow order.
func CalculateTimeInStatus(project []models.ProjectTask, adhoc []models.AdHocTask) []StatusTime {
	counts := make(map[models.TaskStatus]int)
	totals := make(map[models.TaskStatus]float64)
	for _, t := range bases(project, adhoc) {
		counts[t.Status]++
		totals[t.Status] += daysBetween(t.CreatedAt, t.UpdatedAt)
	}

	statuses := make([]models.TaskStatus, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool {
		ri, rj := statuses[i].Rank(), statuses[j].Rank()
		if ri != rj {
			return ri < rj
		}
		return statuses[i] < statuses[j]
	})

	out := make([]StatusTime, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, StatusTime{
			Status:      s,
			AverageDays: round1(totals[s] / float64(counts[s])),
			Count:       counts[s],
		})
	}
	return out
}

// Report bundles every analytic for one point in time.
type Report struct {
	GeneratedAt  time.Time          `json:"generatedAt" yaml:"generated_at"`
	Trend        []TrendPoint       `json:"trend" yaml:"trend"`
	Squads       []SquadPerformance `json:"squads" yaml:"squads"`
	Velocity     Velocity           `json:"velocity" yaml:"velocity"`
	TimeInStatus []StatusTime       `json:"timeInStatus" yaml:"time_in_status"`
	Insights     Insights           `json:"insights" yaml:"insights"`
}

// BuildReport runs every calculation over snap.
func BuildReport(snap models.Snapshot, trendDays int, now time.Time) Report {
	velocity := CalculateVelocity(snap.ProjectTasks, snap.AdHocTasks, now)
	return Report{
		GeneratedAt:  now,
		Trend:        CalculateTrendData(snap.ProjectTasks, snap.AdHocTasks, trendDays, now),
		Squads:       CalculateSquadPerformance(snap.ProjectTasks),
		Velocity:     velocity,
		TimeInStatus: CalculateTimeInStatus(snap.ProjectTasks, snap.AdHocTasks),
		Insights:     GeneratePredictiveInsights(snap.ProjectTasks, snap.AdHocTasks, velocity, now),
	}
}

func bases(project []models.ProjectTask, adhoc []models.AdHocTask) []models.Task {
	out := make([]models.Task, 0, len(project)+len(adhoc))
	for _, t := range project {
		out = append(out, t.Task)
	}
	for _, t := range adhoc {
		out = append(out, t.Task)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dueBefore reports whether the calendar date of due falls before today.
// Due dates are dates, not instants: the day written on the task is compared
// in today's location whatever zone the value was stored in.
func dueBefore(due, today time.Time) bool {
	if due.IsZero() {
		return false
	}
	y, m, d := due.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, today.Location()).Before(today)
}

// sameDay reports whether t falls on the calendar day starting at dayStart,
// judged in dayStart's location.
func sameDay(t, dayStart time.Time) bool {
	if t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(dayStart.Location()).Date()
	y2, m2, d2 := dayStart.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// daysBetween returns the non-negative fractional days from a to b. Unset
// timestamps count as zero days.
func daysBetween(a, b time.Time) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	return math.Max(0, b.Sub(a).Hours()/24)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
