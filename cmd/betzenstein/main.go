package main

import "github.com/kschlt/btznstn-sub003/cmd"

func main() {
	cmd.Execute()
}
