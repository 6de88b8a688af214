package main

import "github.com/cranfield-landis/metaexport/cmd"

func main() {
	cmd.Execute()
}
