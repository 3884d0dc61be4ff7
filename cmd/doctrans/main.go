package main

import (
	"os"

	"github.com/PlumyCat/doctrans/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
