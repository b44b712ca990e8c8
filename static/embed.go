// Package static holds the stylesheet served under /static/.
package static

import "embed"

//go:embed *.css
var Files embed.FS
