package main

import (
	"github.com/TsepisoMotloung/pgdatahub/internal/cli"
)

func main() {
	cli.Execute()
}
