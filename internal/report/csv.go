package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/programme-lv/labgrader/api"
)

// CSVHeader must not change: downstream gradebooks import it as is.
var CSVHeader = []string{"student_username", "obtained_marks", "total_marks", "status"}

// WriteCSV writes the header and one row per record.
func WriteCSV(w io.Writer, recs ...*api.GradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, rec := range recs {
		row := []string{
			rec.Student,
			strconv.Itoa(rec.Total),
			strconv.Itoa(rec.MaxTotal),
			strconv.Itoa(rec.Status),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
