package main

import "github.com/jackmac92/web-ext-manifest-gen/cmd"

func main() {
	cmd.Execute()
}
