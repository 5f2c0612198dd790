package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/valter-silva-au/taskpulse/pkg/models"
)

var csvHeader = []string{
	"Type", "ID", "Name", "Description", "Status", "Squad", "SPOC",
	"Start Date", "Due Date", "Security Sign-off", "Priority", "Daily Logs",
	"Created", "Updated",
}

// WriteCSV writes one row per task, project tasks first. Fields that do not
// apply to a task kind are left empty.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, t := range doc.projects() {
		row := []string{
			string(models.KindProject), t.ID, t.Name, t.Description, t.Status.Label(), t.SquadName, t.SPOC,
			formatDate(t.StartDate), formatDate(t.DeploymentDate), yesNo(t.SecuritySignOff),
			strconv.Itoa(t.Priority), strconv.Itoa(len(t.DailyLogs)),
			formatDate(t.CreatedAt), formatDate(t.UpdatedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", t.ID, err)
		}
	}
	for _, t := range doc.adhoc() {
		row := []string{
			string(models.KindAdHoc), t.ID, t.Name, t.Description, t.Status.Label(), "", "",
			"", formatDate(t.DueDate), "", "", "",
			formatDate(t.CreatedAt), formatDate(t.UpdatedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", t.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
