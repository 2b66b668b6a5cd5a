package ports

type Clipboard interface {
	WriteText(text string) error
}
