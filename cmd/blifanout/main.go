package main

import (
	"os"

	"github.com/ChunHungLiu/qflow/cmd/blifanout/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
