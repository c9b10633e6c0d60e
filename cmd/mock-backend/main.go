// Command mock-backend serves a mock dataset backend and attestation
// verification service for local development. An empty runtime key
// returns the sample table; any non-empty key returns real data.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/AvinasiLabs/delong-datasets/internal/testutil"
)

func main() {
	listen := flag.String("listen", ":8080", "Listen address")
	token := flag.String("token", testutil.DefaultToken, "Accepted bearer token")
	socket := flag.String("socket", "", "Also serve a mock attestor on this unix socket path")
	flag.Parse()

	backend := testutil.NewBackend()
	backend.Token = *token

	if *socket != "" {
		attestor, err := testutil.StartAttestor(*socket, "mock-attestation-token")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: start attestor: %v\n", err)
			os.Exit(1)
		}
		defer attestor.Close()
		fmt.Fprintf(os.Stderr, "[delong] Mock attestor on %s\n", *socket)
	}

	fmt.Fprintf(os.Stderr, "[delong] Mock backend listening on %s\n", *listen)
	if err := http.ListenAndServe(*listen, backend.Handler()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
