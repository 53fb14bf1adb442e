package lessons

import (
	"embed"
	"io/fs"
)

//go:embed builtin
var builtinFS embed.FS

// Builtin returns the embedded lesson sources that ship with the binary.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		// The embedded tree always contains builtin/.
		panic(err)
	}
	return sub
}
