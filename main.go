package main

import "github.com/scanops/snyk-migrate/cmd"

func main() {
	cmd.Execute()
}
