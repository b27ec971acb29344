package secpath

// Option adjusts how a single assertion runs.
type Option func(*checker)

type checker struct {
	ins  Inspector
	jail *Jail
}

// WithInspector substitutes the filesystem/identity source (tests).
func WithInspector(ins Inspector) Option {
	return func(c *checker) { c.ins = ins }
}

// WithJail installs a path-jail predicate for the ancestor walks.
func WithJail(j *Jail) Option {
	return func(c *checker) { c.jail = j }
}

func newChecker(opts []Option) *checker {
	c := &checker{ins: OS()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
