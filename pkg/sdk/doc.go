// Package querygate embeds the querygate compiler in a Go program. It reads
// tenant profiles from Valkey and turns search requests into native search
// engine bodies without going through the HTTP API.
//
//	client, _ := querygate.New(ctx, querygate.WithValkey("localhost:6379", ""))
//	defer client.Close()
//
//	_, _ = client.Profiles().Put(ctx, "acme", &querygate.Profile{
//	    UniverseFilters: []querygate.Filter{{Name: "tenant", Field: "tenant", Values: []string{"acme"}}},
//	})
//	body, _ := client.Compile(ctx, "acme", &querygate.Request{Query: "red shoes", Size: 20})
package querygate
