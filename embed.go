package quizline

import "embed"

// StaticFS contains the browser client served at / and /static/.
//
//go:embed web/static
var StaticFS embed.FS
