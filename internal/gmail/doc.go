// Package gmail wraps the Gmail API behind the provider adapter surface the
// tool layer calls: list, search, get, and send. Every call carries a bounded
// timeout and normalizes provider failures into the bridge error taxonomy.
package gmail
