package app

// Driver modules register themselves with the registry from init.
import (
	_ "github.com/qforge-dev/qforge/modules/remote"
	_ "github.com/qforge-dev/qforge/modules/sim"
)
