package model

// Cleanup reports a best-effort side effect that never fails the operation
// that triggered it, such as deleting a record's blob image.
type Cleanup struct {
	ImageRef string
	Err      error
}

// Attempted reports whether a cleanup was tried at all
func (c *Cleanup) Attempted() bool {
	return c != nil && c.ImageRef != ""
}

// Failed reports whether the attempted cleanup failed
func (c *Cleanup) Failed() bool {
	return c != nil && c.Err != nil
}
