package application

const (
	SourceLive = "live"
	SourceMock = "mock"
)

// Observer receives the outcome of every client call and discovery probe.
type Observer interface {
	ObserveCall(operation, source string, err error)
	ObserveProbe(found bool)
}

type noopObserver struct{}

func (noopObserver) ObserveCall(string, string, error) {}
func (noopObserver) ObserveProbe(bool)                 {}
