package pipeline

import "errors"

var (
	// ErrSourceNotFound means the job's source locator does not resolve to
	// readable content. Not retryable.
	ErrSourceNotFound = errors.New("source not found")

	// ErrTransientIO covers network timeouts, connection resets and 5xx
	// responses while fetching content. Retryable.
	ErrTransientIO = errors.New("transient io error")

	// ErrChunking means the splitter or chunker could not produce any
	// usable chunks for the document.
	ErrChunking = errors.New("chunking failed")

	// ErrDuplicateDocument means content with the same hash was already
	// ingested. The job completes without re-processing.
	ErrDuplicateDocument = errors.New("duplicate document")
)
