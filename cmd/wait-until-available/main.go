package main

import (
	"fmt"
	"net/http"
	"time"
)

// Polls the bridge until it answers the contact count, for use as a startup
// gate in scripts and containers.
//
// Usage example on the command line:
// > go run main.go
func main() {
	totalWaitTime := 0
	for {
		res, err := http.Get("http://localhost:8080/contacts/count")
		if err != nil {
			fmt.Println(err)
		} else {
			status := res.StatusCode
			res.Body.Close()
			if status == http.StatusOK {
				fmt.Println("bridge is available")
				break
			}
			fmt.Printf("bridge answered status %d, not ready\n", status)
		}
		totalWaitTime += 5
		fmt.Printf("waiting, %d seconds total\n", totalWaitTime)
		time.Sleep(5 * time.Second)
	}
}
