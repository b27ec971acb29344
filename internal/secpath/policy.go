// Package secpath enforces fail-closed filesystem policy on configuration
// sources: symlink rejection, POSIX permission and ownership checks, and
// ancestor-directory writability walks. It is the primitive every higher
// layer (bootstrap, installer, validator, doctor) builds on.
package secpath

const (
	// DefaultMaxBytes caps regular config files at 1 MiB.
	DefaultMaxBytes = 1 << 20
	// ManifestMaxBytes caps integrity manifests, which mirror a whole
	// deployed tree and grow with it.
	ManifestMaxBytes = 16 << 20
)

// FilePolicy describes what a file must look like before it is trusted.
// Construct via the preset functions; the zero value denies everything.
type FilePolicy struct {
	Name               string
	AllowSymlinks      bool
	AllowWorldReadable bool
	AllowGroupWritable bool
	AllowWorldWritable bool
	MaxBytes           int64
	CheckParentDirs    bool
	EnforceOwner       bool
}

// DirPolicy is the directory counterpart of FilePolicy.
type DirPolicy struct {
	Name                 string
	AllowSymlinks        bool
	AllowGroupWritable   bool
	AllowWorldWritable   bool
	AllowWorldReadable   bool
	AllowWorldExecutable bool
	CheckParentDirs      bool
	EnforceOwner         bool
}

// StrictFile is the policy for secret-bearing runtime config files:
// owner-only access, no symlinks anywhere in the chain.
func StrictFile() FilePolicy {
	return FilePolicy{
		Name:            "file:strict",
		MaxBytes:        DefaultMaxBytes,
		CheckParentDirs: true,
		EnforceOwner:    true,
	}
}

// PublicReadableFile allows world-read (deployed manifests, public metadata)
// but still refuses any group/world write access and symlinks.
func PublicReadableFile() FilePolicy {
	return FilePolicy{
		Name:               "file:public-readable",
		AllowWorldReadable: true,
		MaxBytes:           DefaultMaxBytes,
		CheckParentDirs:    true,
	}
}

// IntegrityManifestFile is PublicReadableFile with the raised size cap.
func IntegrityManifestFile() FilePolicy {
	p := PublicReadableFile()
	p.Name = "file:integrity-manifest"
	p.MaxBytes = ManifestMaxBytes
	return p
}

// SecretsDir is fully closed: no world or group access at all, ownership
// enforced. Used for key material directories.
func SecretsDir() DirPolicy {
	return DirPolicy{
		Name:            "dir:secrets",
		CheckParentDirs: true,
		EnforceOwner:    true,
	}
}

// IntegrityRootDir mirrors a deployed code tree: world read+execute is
// normal there, write access never is. Ownership is not enforced because
// deploy tooling commonly runs as a different user.
func IntegrityRootDir() DirPolicy {
	return DirPolicy{
		Name:                 "dir:integrity-root",
		AllowWorldReadable:   true,
		AllowWorldExecutable: true,
		CheckParentDirs:      true,
	}
}

// TxOutboxDir allows group write for root:service-group outbox setups;
// world access stays denied.
func TxOutboxDir() DirPolicy {
	return DirPolicy{
		Name:               "dir:tx-outbox",
		AllowGroupWritable: true,
		CheckParentDirs:    true,
	}
}

// WithMaxBytes returns a copy with a different size cap.
func (p FilePolicy) WithMaxBytes(n int64) FilePolicy {
	p.MaxBytes = n
	return p
}

// WithoutParentCheck returns a copy that only inspects the immediate parent.
func (p FilePolicy) WithoutParentCheck() FilePolicy {
	p.CheckParentDirs = false
	return p
}

// WithSymlinks returns a copy that tolerates symlinks in the path chain.
func (p FilePolicy) WithSymlinks() FilePolicy {
	p.AllowSymlinks = true
	return p
}
