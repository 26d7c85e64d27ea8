package data

// FileMode represents the type and permission bits of a tree entry.
type FileMode uint32

const (
	ModeDir  FileMode = 1 << 31 // d: directory
	ModePerm FileMode = 0777    // Unix permission bits

	DefaultFileMode FileMode = 0644
	DefaultDirMode  FileMode = ModeDir | 0755
)

// IsDir reports whether m describes a directory.
func (m FileMode) IsDir() bool {
	return m&ModeDir != 0
}

// Perm returns the Unix permission bits in m.
func (m FileMode) Perm() FileMode {
	return m & ModePerm
}

// String returns the mode in `ls -l` format, e.g. "drwxr-xr-x".
func (m FileMode) String() string {
	var buf [10]byte
	buf[0] = '-'
	if m.IsDir() {
		buf[0] = 'd'
	}

	const rwx = "rwxrwxrwx"
	for i, c := range rwx {
		if m&(1<<uint(9-1-i)) != 0 {
			buf[i+1] = byte(c)
		} else {
			buf[i+1] = '-'
		}
	}

	return string(buf[:])
}
