package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"randscan/scanner"
	"randscan/services"
)

// Supported report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ruleWidth matches the width of the progress line.
const ruleWidth = 60

// Header describes the scan about to start.
type Header struct {
	Target  string
	IP      string
	Country string
	Start   time.Time
}

// OpenPort is one line of the structured report.
type OpenPort struct {
	Port    uint16 `json:"port" yaml:"port"`
	Service string `json:"service" yaml:"service"`
}

// Report is the structured form of a finished scan.
type Report struct {
	scanner.Result `yaml:",inline"`
	Country        string     `json:"country,omitempty" yaml:"country,omitempty"`
	Elapsed        string     `json:"elapsed" yaml:"elapsed"`
	Services       []OpenPort `json:"services" yaml:"services"`
}

// NewReport decorates res with elapsed time, country, and service names.
func NewReport(res scanner.Result, country string) Report {
	svcs := make([]OpenPort, 0, len(res.OpenPorts))
	for _, p := range res.OpenPorts {
		svcs = append(svcs, OpenPort{Port: p, Service: services.Name(p)})
	}
	return Report{
		Result:   res,
		Country:  country,
		Elapsed:  FormatElapsed(res.Elapsed()),
		Services: svcs,
	}
}

// PrintHeader prints the banner shown before probing starts.
func PrintHeader(w io.Writer, h Header) {
	target := h.Target
	if h.IP != "" && h.IP != h.Target {
		target = fmt.Sprintf("%s (%s)", h.Target, h.IP)
	}
	if h.Country != "" {
		target = fmt.Sprintf("%s [%s]", target, h.Country)
	}
	rule := strings.Repeat("-", ruleWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Scanning Target:  %s\n", target)
	fmt.Fprintf(w, "Scanning started: %s\n", h.Start.Format(time.DateTime))
	fmt.Fprintln(w, rule)
}

// Render writes rep to w in the given format.
func Render(w io.Writer, rep Report, format string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		PrintReport(w, rep)
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// PrintReport prints the human-readable summary of a finished scan.
func PrintReport(w io.Writer, rep Report) {
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	printAligned(w, " Time Elapsed: ", rep.Elapsed+" ")
	if rep.Canceled {
		fmt.Fprintf(w, " Scan canceled after %d of %d ports.\n", rep.Probed, rep.Total)
	}

	fmt.Fprintln(w, "\nPorts Discovered:")
	if len(rep.Services) == 0 {
		fmt.Fprintln(w, " No open ports found.")
		fmt.Fprintln(w)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	for _, op := range rep.Services {
		fmt.Fprintf(tw, " Port %d is open\t%s\n", op.Port, op.Service)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
}

// FormatElapsed renders d as "D days, H hours, M minutes, S seconds".
func FormatElapsed(d time.Duration) string {
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60
	return strings.Join([]string{
		plural("day", days),
		plural("hour", hours),
		plural("minute", minutes),
		plural("second", seconds),
	}, ", ")
}

func plural(word string, n int64) string {
	if n != 1 {
		word += "s"
	}
	return fmt.Sprintf("%d %s", n, word)
}

// printAligned pads between left and right so the line spans ruleWidth.
func printAligned(w io.Writer, left, right string) {
	pad := max(ruleWidth-len(left)-len(right), 1)
	fmt.Fprintln(w, left+strings.Repeat(" ", pad)+right)
}
