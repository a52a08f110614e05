package main

import "github.com/notargets/dnsflux/cmd"

func main() {
	cmd.Execute()
}
