package memory

import (
	"github.com/vportes/financas/internal/service/entry"
	"github.com/vportes/financas/internal/service/user"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ entry.Repo   = (*Store)(nil)
	_ entry.Writer = (*Store)(nil)
	_ user.Repo    = (*Store)(nil)
	_ user.Writer  = (*Store)(nil)
)
