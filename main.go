package main

import "github.com/devjoshi2005/Grc-Compliance-Engine/cmd"

func main() {
	cmd.Execute()
}
