package sir

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// CSVHeader is the column layout written by WriteCSV.
var CSVHeader = []string{"date", "susceptible", "infected", "removed", "transmission_rate", "reproduction_number"}

// WriteCSV writes one row per simulated day to w.
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	s, i, rem := r.Counts()
	for k, d := range r.Dates {
		row := []string{
			d.Format(time.DateOnly),
			strconv.FormatInt(s[k], 10),
			strconv.FormatInt(i[k], 10),
			strconv.FormatInt(rem[k], 10),
			strconv.FormatFloat(r.Rate[k], 'f', 4, 64),
			strconv.FormatFloat(r.Reff[k], 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
