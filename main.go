package main

import "loan-eligibility/cmd"

func main() {
	cmd.ExitOnError()
}
