package app

// Recorder receives service-level events for metrics. The default
// implementation discards them.
type Recorder interface {
	ObserveTransition(op string, err error)
	ObserveReminder(err error)
	ObserveAdvice(source string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveTransition(string, error) {}
func (noopRecorder) ObserveReminder(error)           {}
func (noopRecorder) ObserveAdvice(string)            {}
