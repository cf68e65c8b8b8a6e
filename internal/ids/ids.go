package ids

import "github.com/segmentio/ksuid"

// New returns a K-sortable unique identifier string. Used for user, token
// and scan primary keys.
func New() string {
	return ksuid.New().String()
}
