package issuedash

import "embed"

// PublicFS holds the static browser assets served under /public.
//
//go:embed public
var PublicFS embed.FS
