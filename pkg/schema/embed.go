package schema

import (
	"embed"
	"io/fs"
)

//go:embed defs
var embedded embed.FS

/*
Default returns a Resolver over the Airflow schema set compiled into the
binary.
*/
func Default(opts ...Option) *Resolver {
	defs, err := fs.Sub(embedded, "defs")

	if err != nil {
		// fs.Sub only fails on an invalid directory name.
		panic(err)
	}

	return New(defs, opts...)
}
