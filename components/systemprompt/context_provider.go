package systemprompt

// ContextProvider is an interface that defines the title and info of a context provider
type ContextProvider interface {
	Title() string
	Info() string
}

// StaticProvider is a ContextProvider with fixed content
type StaticProvider struct {
	title string
	info  string
}

// NewStaticProvider returns a ContextProvider with fixed title and info
func NewStaticProvider(title string, info string) *StaticProvider {
	return &StaticProvider{title: title, info: info}
}

func (p StaticProvider) Title() string {
	return p.title
}

func (p StaticProvider) Info() string {
	return p.info
}
