package domain

// Zero overwrites a byte slice in place so key material does not linger in
// memory after use. Safe to call with nil.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
