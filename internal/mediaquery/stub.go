//go:build !linux

package mediaquery

// New returns a no-op querier on platforms without a media session bus.
func New() (Querier, error) {
	return stubQuerier{}, nil
}
