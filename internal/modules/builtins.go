// Package modules assembles the builtin attack module set. Modules are
// registered through this explicit list; there is no runtime discovery.
package modules

import (
	"github.com/maurorisonho/Houdinis-sub002/internal/module"
	"github.com/maurorisonho/Houdinis-sub002/internal/modules/exploit"
	"github.com/maurorisonho/Houdinis-sub002/internal/modules/scanner"
)

// Builtins returns fresh instances of every builtin module. Each console
// process gets its own instances so option state never leaks between
// independent sessions.
func Builtins() []module.Module {
	return []module.Module{
		exploit.NewShorRSA(),
		exploit.NewGroverKey(),
		scanner.NewQKDSniff(),
	}
}
