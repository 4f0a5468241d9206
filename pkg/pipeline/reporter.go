package pipeline

// Reporter is a display surface that receives log entries as the pipeline
// advances
type Reporter interface {
	Report(entry LogEntry)
}

// ReporterFunc adapts a function to the Reporter interface
type ReporterFunc func(entry LogEntry)

// Report calls f(entry)
func (f ReporterFunc) Report(entry LogEntry) {
	f(entry)
}
