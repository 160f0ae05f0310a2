package root

import (
	"github.com/keraleeyam/swasraya-registry/apps/cli/cmd/bootstrap"
	"github.com/keraleeyam/swasraya-registry/apps/cli/cmd/seed"
)

func init() {
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(seed.Command())
}
