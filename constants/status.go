package constants

// DocumentStatus is the canonical outcome stored for each parsed attachment.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocumentStatusParsed DocumentStatus = "PARSED" // portfolio records extracted
	DocumentStatusEmpty  DocumentStatus = "EMPTY"  // no portfolio section in the report
	DocumentStatusFailed DocumentStatus = "FAILED" // structural or data error
)
