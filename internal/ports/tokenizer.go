package ports

// Tokenizer counts tokens the way the model backend does.
type Tokenizer interface {
	Count(text string) (int, error)
}
