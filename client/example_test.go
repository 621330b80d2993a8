package client_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/smnsjas/go-panos/client"
	"github.com/smnsjas/go-panos/xmlapi"
)

func ExampleBuilder_Build() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := client.NewBuilder("admin", "password", "https://192.0.2.1").
		WithProxy("http://proxy.example.com:3128").
		Build(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("authenticated to", conn.URL())
}

func ExampleBuilder_Build_errorHandling() {
	// An empty username is rejected before any request is sent.
	_, err := client.NewBuilder("", "password", "https://192.0.2.1").Build(context.Background())

	var (
		configErr *client.ConfigError
		authErr   *client.AuthenticationError
	)
	switch {
	case errors.As(err, &configErr):
		fmt.Println("configuration:", configErr.Field)
	case errors.As(err, &authErr):
		fmt.Println("rejected:", authErr.Message)
	case xmlapi.IsProtocolError(err):
		fmt.Println("unexpected reply")
	case client.IsTransportError(err):
		fmt.Println("device unreachable")
	}
	// Output: configuration: username
}
