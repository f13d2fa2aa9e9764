package dedupe

// defaultMaxSize bounds the seen set; one finished session produces one id,
// so this covers far more sessions than a single process will ever hold.
const defaultMaxSize = 10000

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of IDs kept before eviction.
// A non-positive value disables the bound.
func WithMaxSize(size int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = size
	}
}
