package export

// Report is tabular content rendered by the exporters.
type Report struct {
	Title   string
	Headers []string
	Rows    [][]string
}
