package main

import "github.com/dgallion1/docsection/internal/cli"

func main() {
	cli.Execute()
}
