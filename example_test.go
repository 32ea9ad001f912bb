package turbo_test

import (
	"context"
	"fmt"

	turbo "github.com/edisonylee/turbocommerce-sub001"
	"github.com/edisonylee/turbocommerce-sub001/pkg/adapters/memory"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

func ExampleEngine_Render() {
	eng, err := turbo.New(turbo.WithWorkloads(greeting()))
	if err != nil {
		panic(err)
	}

	tr := memory.NewTransport()
	res, err := eng.Render(context.Background(), "greeting", domain.NewRequestContext("GET", "/"), tr)
	if err != nil {
		panic(err)
	}

	for _, ev := range res.Events {
		fmt.Println(ev.Seq, ev.Section)
	}
	fmt.Println(res.Status)
	// Output:
	// 1 shell.prefix
	// 2 hello
	// 3 bye
	// 4 shell.suffix
	// completed
}
