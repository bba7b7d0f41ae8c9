package main

import "github.com/SoarinFerret/ReadRemind/cmd/readremindctl/arg"

func main() {
	arg.Execute()
}
