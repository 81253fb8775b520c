package main

import "github.com/bkmulusew/routesim2/cmd"

func main() {
	cmd.Execute()
}
