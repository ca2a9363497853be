package main

import (
	"os"

	"github.com/alapierre/go-idp-client/idp/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
