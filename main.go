package main

import "tmxbank/internal/cli"

func main() {
	cli.Execute()
}
