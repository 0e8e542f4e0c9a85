// Package output writes result files atomically.
package output

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/oxygene76/windcloud/pkg/timeseries"
)

// Separator joins the columns of a row
const Separator = "  "

// FormatE renders v in scientific notation with seven fraction digits and a
// signed, at least two-digit exponent, e.g. 1.2345679E-05. Non-finite values
// are written NAN, INF and -INF.
func FormatE(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NAN"
	case math.IsInf(v, 1):
		return "INF"
	case math.IsInf(v, -1):
		return "-INF"
	}
	return strconv.FormatFloat(v, 'E', 7, 64)
}

// FormatRow renders one table row, without the trailing newline.
func FormatRow(row [timeseries.NumColumns]float64) string {
	var sb strings.Builder
	for c, v := range row {
		if c > 0 {
			sb.WriteString(Separator)
		}
		sb.WriteString(FormatE(v))
	}
	return sb.String()
}

// WriteTable writes s to path, one row per snapshot, atomically.
func WriteTable(path string, s timeseries.Series) error {
	return WriteFile(path, func(w *bufio.Writer) error {
		for i := 0; i < s.Len(); i++ {
			if _, err := w.WriteString(FormatRow(s.Row(i)) + "\n"); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
		}
		return nil
	})
}
