package main

import "bookclub_bot/internal/cli"

func main() {
	cli.Execute()
}
