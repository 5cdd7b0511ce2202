package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/kilianp07/gridplan/core/dispatch"
)

// WriteJSON writes the dispatch result to w in JSON format.
func WriteJSON(w io.Writer, res *dispatch.DispatchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteCSV writes the per-period dispatch table to w with one row per period.
// Storage columns are present only when the plan includes a storage device.
func WriteCSV(w io.Writer, res *dispatch.DispatchResult) error {
	cw := csv.NewWriter(w)
	header := []string{"period", "demand"}
	header = append(header, res.Sources...)
	if res.HasStorage {
		header = append(header, "charge", "discharge", "soc")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, pd := range res.Periods {
		rec := []string{strconv.Itoa(pd.Period), formatFloat(pd.Demand)}
		for _, name := range res.Sources {
			rec = append(rec, formatFloat(pd.Generation[name]))
		}
		if res.HasStorage {
			rec = append(rec, formatFloat(pd.Charge), formatFloat(pd.Discharge), formatFloat(pd.SOC))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable renders the result as an aligned text table for terminals.
func WriteTable(w io.Writer, res *dispatch.DispatchResult) error {
	fmt.Fprintf(w, "plan %s (%s): status %s\n", res.PlanID, res.Scenario, res.Status)
	if len(res.Periods) == 0 {
		return nil
	}
	fmt.Fprintf(w, "objective: %.2f\n", res.Objective)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "period\tdemand")
	for _, name := range res.Sources {
		fmt.Fprintf(tw, "\t%s", name)
	}
	if res.HasStorage {
		fmt.Fprint(tw, "\tcharge\tdischarge\tsoc")
	}
	fmt.Fprintln(tw)
	for _, pd := range res.Periods {
		fmt.Fprintf(tw, "%d\t%.2f", pd.Period, pd.Demand)
		for _, name := range res.Sources {
			fmt.Fprintf(tw, "\t%.2f", pd.Generation[name])
		}
		if res.HasStorage {
			fmt.Fprintf(tw, "\t%.2f\t%.2f\t%.2f", pd.Charge, pd.Discharge, pd.SOC)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
