package secpath

// JailMode decides what happens when an ancestor walk crosses a path-jail
// boundary (open_basedir-style restriction). Checking directories the
// process cannot see would only produce false failures, so the walk always
// stops; the mode controls whether that is silent or surfaced.
type JailMode int

const (
	// JailTrust stops the walk silently (default).
	JailTrust JailMode = iota
	// JailWarn stops the walk and reports the boundary via the Warn hook.
	JailWarn
)

// Jail is an optional, injected path-accessibility predicate. The core
// validators stay platform-agnostic; whatever runtime jail applies (chroot,
// open_basedir equivalent, container mount scope) is expressed here.
type Jail struct {
	Accessible func(path string) bool
	Mode       JailMode
	Warn       func(path string) // called per skipped ancestor under JailWarn
}

func (j *Jail) blocks(path string) bool {
	return j != nil && j.Accessible != nil && !j.Accessible(path)
}

func (j *Jail) note(path string) {
	if j != nil && j.Mode == JailWarn && j.Warn != nil {
		j.Warn(path)
	}
}
