package models

// CallOptions carries per-call attribution and mutation safety settings.
type CallOptions struct {
	// UserID and IPAddress attribute the call in audit entries.
	UserID    string
	IPAddress string

	// RequireSingleRow controls the cardinality gate on update/delete.
	// nil means true: mutations must provably affect exactly one row.
	RequireSingleRow *bool
}

// SingleRowRequired reports whether the cardinality gate applies.
func (o CallOptions) SingleRowRequired() bool {
	return o.RequireSingleRow == nil || *o.RequireSingleRow
}
