package parser

// Options is the immutable configuration threaded into a parser instance.
type Options struct {
	// MergeDuplicateAttrs selects the duplicate attribute key policy:
	// merge values on collision (list concat, shallow map merge, otherwise
	// replace) instead of plain replacement.
	MergeDuplicateAttrs bool
}

// DefaultOptions returns the default parser configuration
func DefaultOptions() Options {
	return Options{MergeDuplicateAttrs: true}
}
