package main

import "github.com/kubecostopt/costopt-backend/cmd"

func main() {
	cmd.Execute()
}
