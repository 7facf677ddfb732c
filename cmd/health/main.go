// Command health is a tiny liveness probe for container health checks.
// It hits the server's /healthz endpoint and exits non-zero on failure.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/valyala/fasthttp"
)

func main() {
	var (
		target  = flag.String("url", "http://127.0.0.1:8080/healthz", "health endpoint to probe")
		timeout = flag.Duration("timeout", 2*time.Second, "probe timeout")
	)
	flag.Parse()

	c := &fasthttp.Client{ReadTimeout: *timeout, WriteTimeout: *timeout}
	status, _, err := c.GetTimeout(nil, *target, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
	if status != fasthttp.StatusOK {
		fmt.Fprintf(os.Stderr, "unhealthy: status %d\n", status)
		os.Exit(1)
	}
	fmt.Println("ok")
}
