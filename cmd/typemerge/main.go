package main

import "github.com/dbsmedya/typemerge/cmd/typemerge/cmd"

func main() {
	cmd.Execute()
}
