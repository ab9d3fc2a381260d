package main

import "github.com/gitbadges/gitbadges/cmd"

func main() {
	cmd.Execute()
}
