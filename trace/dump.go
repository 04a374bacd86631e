package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

var header = []string{"block", "calls", "in", "out", "mean", "std", "min", "max"}

// Dump writes the recorded blocks to filename as CSV.
func (r *Recorder) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	return r.WriteCSV(f)
}

// WriteCSV writes one row per block: its name, call count, last input and
// output shapes and the statistics of its last output.
func (r *Recorder) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.WithStack(err)
	}
	var records [][]string
	for _, b := range r.Blocks() {
		records = append(records, []string{
			b.Name,
			strconv.Itoa(b.Calls),
			fmt.Sprintf("%v", []int(b.In)),
			fmt.Sprintf("%v", []int(b.Out)),
			strconv.FormatFloat(b.OutStats.Mean, 'f', 4, 64),
			strconv.FormatFloat(b.OutStats.Std, 'f', 4, 64),
			strconv.FormatFloat(b.OutStats.Min, 'f', 4, 64),
			strconv.FormatFloat(b.OutStats.Max, 'f', 4, 64),
		})
	}
	if err := cw.WriteAll(records); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
