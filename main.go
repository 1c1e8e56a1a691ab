package main

import "github.com/Mohsinsiddi/rollupdash/cmd"

func main() {
	cmd.Execute()
}
