package main

import "github.com/rsdouglas/leonard/internal/cli"

func main() {
	cli.Execute()
}
