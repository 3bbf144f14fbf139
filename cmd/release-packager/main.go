package main

import "github.com/mettallan/jmh-lucene/cmd/release-packager/cmd"

func main() {
	cmd.Execute()
}
