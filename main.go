package main

import (
	"net/http"

	"github.com/mclc/mclc/cmd"
	"github.com/mclc/mclc/internals/ownhttp"
)

// set by goreleaser
var version string

func main() {
	// replace default http client
	http.DefaultClient = ownhttp.New()

	if version != "" {
		cmd.Version = version
	}
	cmd.Execute()
}
