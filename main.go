package main

import "github.com/viktsys/gasinsight/cmd"

func main() {
	cmd.Execute()
}
