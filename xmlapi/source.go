package xmlapi

// TextSource yields the raw body of an API reply.
//
// The live HTTP response in the transport subpackage implements it, as does
// StringSource for tests and for replies captured elsewhere.
type TextSource interface {
	Text() (string, error)
}

// StringSource is a TextSource backed by a literal string.
type StringSource string

// Text returns the string itself.
func (s StringSource) Text() (string, error) {
	return string(s), nil
}
